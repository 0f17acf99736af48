package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misiektoja/github-monitor/internal/diff"
	"github.com/misiektoja/github-monitor/internal/gateway"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		d           time.Duration
		granularity int
		want        string
	}{
		{0, 2, "0 seconds"},
		{-time.Minute, 2, "0 seconds"},
		{time.Second, 2, "1 second"},
		{61 * time.Second, 2, "1 minute, 1 second"},
		{2*time.Hour + 5*time.Minute + 9*time.Second, 2, "2 hours, 5 minutes"},
		{2*time.Hour + 5*time.Minute + 9*time.Second, 3, "2 hours, 5 minutes, 9 seconds"},
		{25 * time.Hour, 2, "1 day, 1 hour"},
		{8 * 24 * time.Hour, 1, "1 week"},
		{3 * 31556952 * time.Second, 2, "3 years"},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, Duration(tc.d, tc.granularity), "Duration(%v, %d)", tc.d, tc.granularity)
	}
}

func TestTimespanSameDay(t *testing.T) {
	from := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)
	assert.Equal(t, "01 Mar 09:30 - 11:30", Timespan(from, to))
}

func TestTimespanAcrossDays(t *testing.T) {
	from := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)
	assert.Equal(t, "01 Mar 23:30 - 02 Mar 01:30", Timespan(from, to))
}

func TestDelta(t *testing.T) {
	assert.Equal(t, "+2", Delta(2))
	assert.Equal(t, "-1", Delta(-1))
}

func TestSubjectCountChange(t *testing.T) {
	ch := diff.Change{
		Kind:  diff.CategoryProfile,
		Label: diff.KindFollowersCount,
		Old:   "5",
		New:   "6",
		Delta: 1,
	}
	assert.Equal(t,
		"Github user monica followers number has changed! (+1, 5 -> 6)",
		Subject("monica", ch))
}

func TestSubjectScalarChange(t *testing.T) {
	ch := diff.Change{Kind: diff.CategoryProfile, Label: diff.KindLocation, Old: "Warsaw", New: "Krakow"}
	assert.Equal(t, "Github user monica location has changed!", Subject("monica", ch))
}

func TestSubjectEvent(t *testing.T) {
	ch := diff.Change{Kind: diff.CategoryEvent, Label: "PushEvent"}
	assert.Equal(t, "Github user monica has a new event: PushEvent", Subject("monica", ch))
}

func TestLinesSetChange(t *testing.T) {
	ch := diff.Change{
		Kind:    diff.CategoryProfile,
		Label:   diff.KindFollowersCount,
		Name:    "monica",
		Old:     "2",
		New:     "3",
		Delta:   1,
		Added:   []string{"carol"},
		Removed: nil,
	}
	lines := Lines("monica", ch)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2 -> 3 (+1)")
	assert.Equal(t, "  - added: carol", lines[1])
}

func TestLinesChurn(t *testing.T) {
	ch := diff.Change{
		Kind:    diff.CategoryProfile,
		Label:   diff.KindFollowersList,
		Name:    "monica",
		Old:     "3",
		New:     "3",
		Added:   []string{"dave"},
		Removed: []string{"bob"},
	}
	lines := Lines("monica", ch)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "same count, different members")
	assert.Equal(t, "  - removed: bob", lines[1])
	assert.Equal(t, "  - added: dave", lines[2])
}

func TestLinesScalarEmptyOld(t *testing.T) {
	ch := diff.Change{Kind: diff.CategoryProfile, Label: diff.KindBio, Name: "monica", Old: "", New: "hello"}
	lines := Lines("monica", ch)
	require.Len(t, lines, 3)
	assert.Equal(t, "  old: (empty)", lines[1])
	assert.Equal(t, "  new: hello", lines[2])
}

func TestBodyHasTimestampFooter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ch := diff.Change{Kind: diff.CategoryProfile, Label: diff.KindBio, Old: "a", New: "b"}
	body := Body("monica", ch, now)
	assert.True(t, strings.HasSuffix(body, "Timestamp: "+Timestamp(now)))
}

func TestEventTextPush(t *testing.T) {
	ev := gateway.Event{
		ID:        "1",
		Type:      "PushEvent",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RepoName:  "monica/repo",
		RepoURL:   "https://github.com/monica/repo",
		Payload: gateway.PushPayload{
			Ref: "refs/heads/main",
			Commits: []gateway.Commit{
				{SHA: "0123456789abcdef", Author: "monica", Message: "fix parser\n\ndetails"},
			},
		},
	}
	text := EventText(ev)
	assert.Contains(t, text, "Event type: PushEvent")
	assert.Contains(t, text, "Repo name: monica/repo")
	assert.Contains(t, text, "Ref: refs/heads/main")
	assert.Contains(t, text, "- 0123456: fix parser")
	assert.NotContains(t, text, "details")
}

func TestEventTextFork(t *testing.T) {
	ev := gateway.Event{
		Type:      "ForkEvent",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RepoName:  "monica/repo",
		Payload:   gateway.ForkPayload{ForkeeFullName: "other/repo", ForkeeHTMLURL: "https://github.com/other/repo"},
	}
	text := EventText(ev)
	assert.Contains(t, text, "Forked to: other/repo")
	assert.Contains(t, text, "Fork URL: https://github.com/other/repo")
}

func TestEventTextUnknownPayload(t *testing.T) {
	ev := gateway.Event{
		Type:      "SponsorshipEvent",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RepoName:  "monica/repo",
		Payload:   gateway.UnknownPayload{},
	}
	text := EventText(ev)
	assert.Contains(t, text, "Event type: SponsorshipEvent")
	assert.Contains(t, text, "Repo name: monica/repo")
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2 hours, 30 minutes ago", Ago(now.Add(-150*time.Minute), now))
}
