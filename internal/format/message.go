package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/misiektoja/github-monitor/internal/diff"
)

// nouns maps scalar and count change labels to the phrase used in email
// subjects ("Github user X <noun> has changed!").
var nouns = map[diff.Kind]string{
	diff.KindFollowersCount:     "followers number",
	diff.KindFollowersList:      "followers list",
	diff.KindFollowingsCount:    "followings number",
	diff.KindFollowingsList:     "followings list",
	diff.KindReposCount:         "repositories number",
	diff.KindReposList:          "repositories list",
	diff.KindStarredCount:       "starred repos number",
	diff.KindStarredList:        "starred repos list",
	diff.KindDailyContributions: "daily contributions number",
	diff.KindBio:                "bio",
	diff.KindLocation:           "location",
	diff.KindUserName:           "user name",
	diff.KindCompany:            "company",
	diff.KindEmail:              "email",
	diff.KindBlogURL:            "blog URL",
	diff.KindAccountUpdateDate:  "account update date",
	diff.KindProfileVisibility:  "profile visibility",
	diff.KindBlockedStatus:      "blocked status",
	diff.KindRepoUpdateDate:     "repository update date",
	diff.KindRepoDescription:    "repository description",
	diff.KindRepoStarsCount:     "repository stargazers number",
	diff.KindRepoStarsList:      "repository stargazers list",
	diff.KindRepoForksCount:     "repository forks number",
	diff.KindRepoForksList:      "repository forks list",
	diff.KindRepoWatchersCount:  "repository watchers number",
	diff.KindRepoWatchersList:   "repository watchers list",
	diff.KindRepoIssuesCount:    "repository open issues number",
	diff.KindRepoIssuesList:     "repository open issues list",
	diff.KindRepoPRsCount:       "repository open PRs number",
	diff.KindRepoPRsList:        "repository open PRs list",
}

// Subject builds the email subject line for a change.
func Subject(login string, ch diff.Change) string {
	if ch.Kind == diff.CategoryEvent {
		return fmt.Sprintf("Github user %s has a new event: %s", login, ch.Label)
	}
	noun, ok := nouns[ch.Label]
	if !ok {
		noun = strings.ToLower(string(ch.Label))
	}
	subject := fmt.Sprintf("Github user %s %s has changed!", login, noun)
	if ch.Delta != 0 {
		subject += fmt.Sprintf(" (%s, %s -> %s)", Delta(ch.Delta), ch.Old, ch.New)
	}
	return subject
}

// Body builds the plain-text email body for a change: the console lines
// plus a timestamp footer.
func Body(login string, ch diff.Change, now time.Time) string {
	var b strings.Builder
	for _, line := range Lines(login, ch) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Timestamp: %s", Timestamp(now))
	return b.String()
}

// Lines renders a change as the lines printed to the console.
func Lines(login string, ch diff.Change) []string {
	if ch.Kind == diff.CategoryEvent && ch.Event != nil {
		return append(
			[]string{fmt.Sprintf("* New event for user %s:", login)},
			strings.Split(EventText(*ch.Event), "\n")...,
		)
	}

	noun, ok := nouns[ch.Label]
	if !ok {
		noun = strings.ToLower(string(ch.Label))
	}
	subject := login
	if ch.Name != "" && ch.Name != login {
		subject = ch.Name
	}

	var lines []string
	switch {
	case ch.Delta != 0:
		lines = append(lines, fmt.Sprintf("* %s of %s changed: %s -> %s (%s)",
			title(noun), subject, ch.Old, ch.New, Delta(ch.Delta)))
	case len(ch.Added) > 0 || len(ch.Removed) > 0:
		lines = append(lines, fmt.Sprintf("* %s of %s changed (same count, different members)",
			title(noun), subject))
	default:
		lines = append(lines, fmt.Sprintf("* %s of %s changed:", title(noun), subject))
		lines = append(lines, fmt.Sprintf("  old: %s", orEmpty(ch.Old)))
		lines = append(lines, fmt.Sprintf("  new: %s", orEmpty(ch.New)))
	}
	for _, r := range ch.Removed {
		lines = append(lines, fmt.Sprintf("  - removed: %s", r))
	}
	for _, a := range ch.Added {
		lines = append(lines, fmt.Sprintf("  - added: %s", a))
	}
	return lines
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}
