package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// Mailer delivers one notification email.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTPOptions configures an SMTPMailer.
type SMTPOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	UseTLS   bool
	Sender   string
	Receiver string
}

// SMTPMailer sends plain-text mail over SMTP, opportunistically upgrading
// to STARTTLS when UseTLS is set.
type SMTPMailer struct {
	opts SMTPOptions
}

// NewSMTPMailer validates the addresses up front so a typo fails at
// startup rather than on the first change.
func NewSMTPMailer(opts SMTPOptions) (*SMTPMailer, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if opts.Sender == "" || opts.Receiver == "" {
		return nil, fmt.Errorf("smtp sender and receiver are required")
	}
	if opts.Port == 0 {
		opts.Port = 587
	}
	return &SMTPMailer{opts: opts}, nil
}

// Send delivers one message. Each message carries a fresh Message-ID so
// threading clients never collapse distinct notifications.
func (m *SMTPMailer) Send(ctx context.Context, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.opts.Sender); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(m.opts.Receiver); err != nil {
		return fmt.Errorf("invalid receiver: %w", err)
	}
	msg.Subject(subject)
	msg.SetMessageIDWithValue(uuid.NewString() + "@" + m.opts.Host)
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody(body))

	clientOpts := []mail.Option{
		mail.WithPort(m.opts.Port),
	}
	if m.opts.User != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.opts.User),
			mail.WithPassword(m.opts.Password),
		)
	}
	if m.opts.UseTLS {
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(m.opts.Host, clientOpts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// htmlBody wraps the plain text in a minimal pre block so clients that
// prefer HTML keep the alignment.
func htmlBody(plain string) string {
	esc := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(plain)
	return "<html><body><pre>" + esc + "</pre></body></html>"
}
