package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/misiektoja/github-monitor/internal/diff"
	"github.com/misiektoja/github-monitor/internal/format"
)

// Toggles is the email routing state read fresh for every change, so a
// runtime toggle flip applies to the very next change.
type Toggles struct {
	Profile        bool
	Events         bool
	Repos          bool
	RepoUpdateDate bool
}

// enabled reports whether the category's email toggle is on.
func (t Toggles) enabled(cat diff.Category) bool {
	switch cat {
	case diff.CategoryEvent:
		return t.Events
	case diff.CategoryRepo:
		return t.Repos
	case diff.CategoryRepoUpdateDate:
		return t.RepoUpdateDate
	default:
		return t.Profile
	}
}

// Router dispatches changes to the console, the record log and email.
// Console and record log are unconditional; email is gated per category.
// A failed email or record write is logged and dropped, never retried:
// losing one notification must not stall the polling loop.
type Router struct {
	log     *zap.Logger
	login   string
	rec     *Recorder
	mailer  Mailer
	toggles func() Toggles
	now     func() time.Time
}

// NewRouter wires the sinks. rec and mailer may be nil; toggles is
// consulted at dispatch time.
func NewRouter(log *zap.Logger, login string, rec *Recorder, mailer Mailer, toggles func() Toggles) *Router {
	if toggles == nil {
		toggles = func() Toggles { return Toggles{} }
	}
	return &Router{
		log:     log,
		login:   login,
		rec:     rec,
		mailer:  mailer,
		toggles: toggles,
		now:     time.Now,
	}
}

// Dispatch routes one change to every sink.
func (r *Router) Dispatch(ctx context.Context, ch diff.Change) {
	now := r.now()

	for _, line := range format.Lines(r.login, ch) {
		r.log.Info(line)
	}

	if r.rec != nil {
		if err := r.rec.Record(now, ch); err != nil {
			r.log.Error("record log write failed", zap.Error(err))
		}
	}

	if r.mailer != nil && r.toggles().enabled(ch.Kind) {
		subject := format.Subject(r.login, ch)
		body := format.Body(r.login, ch, now)
		if err := r.mailer.Send(ctx, subject, body); err != nil {
			r.log.Error("email send failed",
				zap.String("subject", subject),
				zap.Error(err))
		}
	}
}

// DispatchAll routes a batch in order.
func (r *Router) DispatchAll(ctx context.Context, changes []diff.Change) {
	for _, ch := range changes {
		r.Dispatch(ctx, ch)
	}
}

// SendError emails an error notification when the errors toggle is on;
// used by the loop for sustained outages, at most once per outage.
func (r *Router) SendError(ctx context.Context, enabled bool, subject, body string) {
	if r.mailer == nil || !enabled {
		return
	}
	if err := r.mailer.Send(ctx, subject, body); err != nil {
		r.log.Error("error email send failed", zap.Error(err))
	}
}
