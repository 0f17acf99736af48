package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/misiektoja/github-monitor/internal/diff"
)

func changeFixture() diff.Change {
	return diff.Change{
		Kind:  diff.CategoryProfile,
		Label: diff.KindFollowersCount,
		Name:  "monica",
		Old:   "5",
		New:   "6",
		Delta: 1,
		Added: []string{"carol"},
		PerItem: diff.SetKinds{
			Count:   diff.KindFollowersCount,
			List:    diff.KindFollowersList,
			Added:   diff.KindAddedFollower,
			Removed: diff.KindRemovedFollower,
		},
	}
}

func TestRecorderHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monica.csv")
	rec := NewRecorder(path, time.UTC)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rec.Record(now, changeFixture()))
	require.NoError(t, rec.Record(now.Add(time.Hour), changeFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 1, strings.Count(content, `"Date"`), "header must appear exactly once")
	lines := strings.Split(strings.TrimRight(content, "\r\n"), "\r\n")
	// header + 2 records * (count row + added-member row)
	assert.Len(t, lines, 5)
}

func TestRecorderRowShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monica.csv")
	rec := NewRecorder(path, time.UTC)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rec.Record(now, changeFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Date","Type","Name","Old","New"`, lines[0])
	assert.Equal(t, `"2026-03-01 12:00:00","Followers Count","monica",5,6`, lines[1])
	assert.Equal(t, `"2026-03-01 12:00:00","Added Follower","monica","","carol"`, lines[2])
}

func TestRecorderAppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monica.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"Date\",\"Type\",\"Name\",\"Old\",\"New\"\r\n"), 0644))

	rec := NewRecorder(path, time.UTC)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ch := changeFixture()
	ch.Added = nil
	require.NoError(t, rec.Record(now, ch))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), `"Date"`))
}

func TestQuoteField(t *testing.T) {
	assert.Equal(t, `"monica"`, quoteField("monica"))
	assert.Equal(t, "42", quoteField("42"))
	assert.Equal(t, "-3", quoteField("-3"))
	assert.Equal(t, `""`, quoteField(""))
	assert.Equal(t, `"0x1f"`, quoteField("0x1f"))
	assert.Equal(t, `"say ""hi"""`, quoteField(`say "hi"`))
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Send(_ context.Context, subject, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, subject)
	return nil
}

func TestRouterEmailGatedByToggle(t *testing.T) {
	mailer := &fakeMailer{}
	on := false
	router := NewRouter(zaptest.NewLogger(t), "monica", nil, mailer,
		func() Toggles { return Toggles{Profile: on} })

	router.Dispatch(context.Background(), changeFixture())
	assert.Empty(t, mailer.sent, "email must not go out with the toggle off")

	on = true
	router.Dispatch(context.Background(), changeFixture())
	require.Len(t, mailer.sent, 1, "toggle flip must apply to the next change")
	assert.Contains(t, mailer.sent[0], "followers number has changed")
}

func TestRouterEmailFailureSwallowed(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	router := NewRouter(zaptest.NewLogger(t), "monica", nil, mailer,
		func() Toggles { return Toggles{Profile: true} })

	// Must not panic or propagate.
	router.Dispatch(context.Background(), changeFixture())
}

func TestRouterCategoryRouting(t *testing.T) {
	mailer := &fakeMailer{}
	router := NewRouter(zaptest.NewLogger(t), "monica", nil, mailer,
		func() Toggles { return Toggles{Events: true} })

	profile := changeFixture()
	event := diff.Change{Kind: diff.CategoryEvent, Label: "PushEvent", Name: "monica/repo"}

	router.DispatchAll(context.Background(), []diff.Change{profile, event})
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0], "PushEvent")
}

func TestRouterRecordsEvenWithoutMailer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monica.csv")
	rec := NewRecorder(path, time.UTC)
	router := NewRouter(zaptest.NewLogger(t), "monica", rec, nil, nil)

	router.Dispatch(context.Background(), changeFixture())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Followers Count")
}

func TestSendErrorRespectsToggle(t *testing.T) {
	mailer := &fakeMailer{}
	router := NewRouter(zaptest.NewLogger(t), "monica", nil, mailer, nil)

	router.SendError(context.Background(), false, "subj", "body")
	assert.Empty(t, mailer.sent)

	router.SendError(context.Background(), true, "subj", "body")
	assert.Len(t, mailer.sent, 1)
}

func TestNewSMTPMailerValidation(t *testing.T) {
	_, err := NewSMTPMailer(SMTPOptions{})
	assert.Error(t, err)

	_, err = NewSMTPMailer(SMTPOptions{Host: "smtp.example.com"})
	assert.Error(t, err)

	m, err := NewSMTPMailer(SMTPOptions{
		Host:     "smtp.example.com",
		Sender:   "monitor@example.com",
		Receiver: "me@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 587, m.opts.Port)
}
