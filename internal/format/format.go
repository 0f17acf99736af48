// Package format renders durations, timestamps, events and change records
// as human-readable text for the console, the record log and email bodies.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/misiektoja/github-monitor/internal/gateway"
)

const (
	// TimestampLayout is the long form used in notifications.
	TimestampLayout = "Mon, 02 Jan 2006, 15:04:05"
	// ShortDateLayout is the compact form used in ranges.
	ShortDateLayout = "02 Jan 15:04"
)

// interval lengths follow the astronomical calendar: a year is the mean
// tropical year, a month is a twelfth of it.
var intervals = []struct {
	name    string
	seconds int64
}{
	{"year", 31556952},
	{"month", 2629746},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
	{"second", 1},
}

// Duration renders a duration as at most granularity largest units, e.g.
// "2 hours, 5 minutes". Non-positive durations render as "0 seconds".
func Duration(d time.Duration, granularity int) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return "0 seconds"
	}
	if granularity <= 0 {
		granularity = 2
	}
	var parts []string
	for _, iv := range intervals {
		v := secs / iv.seconds
		if v == 0 {
			continue
		}
		secs -= v * iv.seconds
		name := iv.name
		if v != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", v, name))
		if len(parts) == granularity {
			break
		}
	}
	return strings.Join(parts, ", ")
}

// Timestamp renders the long notification form.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ShortDate renders the compact form.
func ShortDate(t time.Time) string {
	return t.Format(ShortDateLayout)
}

// Timespan renders "from - to" compactly, dropping the repeated date when
// both ends fall on the same day.
func Timespan(from, to time.Time) string {
	if from.Year() == to.Year() && from.YearDay() == to.YearDay() {
		return from.Format(ShortDateLayout) + " - " + to.Format("15:04")
	}
	return from.Format(ShortDateLayout) + " - " + to.Format(ShortDateLayout)
}

// Ago renders how long before now a timestamp was, e.g. "3 hours, 10
// minutes ago".
func Ago(t, now time.Time) string {
	return Duration(now.Sub(t), 2) + " ago"
}

// Delta renders a signed count difference as "+2" or "-1".
func Delta(d int) string {
	return fmt.Sprintf("%+d", d)
}

// EventText renders an event as a multi-line detail block. The first line
// names the type and repository; payload variants append their specifics.
func EventText(ev gateway.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event type: %s\n", ev.Type)
	fmt.Fprintf(&b, "Event date: %s\n", Timestamp(ev.CreatedAt))
	if ev.RepoName != "" {
		fmt.Fprintf(&b, "Repo name: %s\n", ev.RepoName)
	}
	if ev.RepoURL != "" {
		fmt.Fprintf(&b, "Repo URL: %s\n", ev.RepoURL)
	}

	switch p := ev.Payload.(type) {
	case gateway.PushPayload:
		fmt.Fprintf(&b, "Ref: %s\n", p.Ref)
		fmt.Fprintf(&b, "Commits: %d\n", len(p.Commits))
		for _, c := range p.Commits {
			fmt.Fprintf(&b, "- %s: %s\n", shortSHA(c.SHA), firstLine(c.Message))
			if c.URL != "" {
				fmt.Fprintf(&b, "  %s\n", c.URL)
			}
		}
	case gateway.CreatePayload:
		fmt.Fprintf(&b, "Created: %s", p.RefType)
		if p.Ref != "" {
			fmt.Fprintf(&b, " %s", p.Ref)
		}
		b.WriteByte('\n')
		if p.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
		}
	case gateway.DeletePayload:
		fmt.Fprintf(&b, "Deleted: %s %s\n", p.RefType, p.Ref)
	case gateway.ReleasePayload:
		fmt.Fprintf(&b, "Release: %s (%s)\n", p.Release.Name, p.Release.TagName)
		if p.Release.HTMLURL != "" {
			fmt.Fprintf(&b, "Release URL: %s\n", p.Release.HTMLURL)
		}
		if p.Release.Body != "" {
			fmt.Fprintf(&b, "Notes: %s\n", firstLine(p.Release.Body))
		}
		for _, a := range p.Release.Assets {
			fmt.Fprintf(&b, "- asset: %s (%d bytes)\n", a.Name, a.Size)
		}
	case gateway.PullRequestPayload:
		fmt.Fprintf(&b, "Action: %s\n", p.Action)
		writePR(&b, p.PullRequest)
	case gateway.ReviewPayload:
		fmt.Fprintf(&b, "Review state: %s\n", p.Review.State)
		if p.Review.Body != "" {
			fmt.Fprintf(&b, "Review: %s\n", firstLine(p.Review.Body))
		}
		writePR(&b, p.PullRequest)
	case gateway.CommentPayload:
		if p.Comment.Body != "" {
			fmt.Fprintf(&b, "Comment: %s\n", firstLine(p.Comment.Body))
		}
		if p.Comment.HTMLURL != "" {
			fmt.Fprintf(&b, "Comment URL: %s\n", p.Comment.HTMLURL)
		}
		if p.Issue != nil {
			writeIssue(&b, *p.Issue)
		}
		if p.PullRequest != nil {
			writePR(&b, *p.PullRequest)
		}
	case gateway.IssuesPayload:
		fmt.Fprintf(&b, "Action: %s\n", p.Action)
		writeIssue(&b, p.Issue)
	case gateway.ForkPayload:
		fmt.Fprintf(&b, "Forked to: %s\n", p.ForkeeFullName)
		if p.ForkeeHTMLURL != "" {
			fmt.Fprintf(&b, "Fork URL: %s\n", p.ForkeeHTMLURL)
		}
	case gateway.WatchPayload:
		fmt.Fprintf(&b, "Action: %s\n", p.Action)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writePR(b *strings.Builder, pr gateway.PullRequest) {
	if pr.Title == "" && pr.HTMLURL == "" {
		return
	}
	fmt.Fprintf(b, "PR: %s\n", pr.Title)
	if pr.HTMLURL != "" {
		fmt.Fprintf(b, "PR URL: %s\n", pr.HTMLURL)
	}
	fmt.Fprintf(b, "PR state: %s, commits: %d, comments: %d\n", pr.State, pr.Commits, pr.Comments)
	if pr.Additions > 0 || pr.Deletions > 0 {
		fmt.Fprintf(b, "PR changes: +%d -%d in %d files\n", pr.Additions, pr.Deletions, pr.ChangedFiles)
	}
}

func writeIssue(b *strings.Builder, is gateway.IssueDetail) {
	if is.Title == "" && is.HTMLURL == "" {
		return
	}
	fmt.Fprintf(b, "Issue: %s\n", is.Title)
	if is.HTMLURL != "" {
		fmt.Fprintf(b, "Issue URL: %s\n", is.HTMLURL)
	}
	fmt.Fprintf(b, "Issue state: %s, comments: %d\n", is.State, is.Comments)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
