// Package snapshot holds the last-known-good state of a monitored user.
// One Snapshot lives for the process lifetime; the diff engine replaces
// fields only after a change record has been produced (or ruled out), so
// the store never holds a half-updated pair. Nothing here is persisted.
package snapshot

import (
	"sort"
	"time"
)

// Set is an unordered collection of opaque string identifiers. Only
// membership is significant.
type Set map[string]struct{}

// NewSet builds a Set from a list, dropping duplicates.
func NewSet(items []string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s Set) Contains(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order, for deterministic rendering.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets have identical membership.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for it := range s {
		if !other.Contains(it) {
			return false
		}
	}
	return true
}

// EventWindow is the bounded ordered view of the most recent event ids
// (newest first) plus the newest id/timestamp seen so far. The mark only
// moves forward; events at or before it are never re-emitted. If more than
// Size events occur between two polls, events older than the Size most
// recent are permanently missed.
type EventWindow struct {
	Size   int
	IDs    []string
	LastID string
	LastTS time.Time
}

// IDSet returns the window's ids as a Set.
func (w EventWindow) IDSet() Set {
	return NewSet(w.IDs)
}

// RepoDetail is the tracked per-repository state, keyed by repository name
// in the parent Snapshot and replaced wholesale each cycle.
type RepoDetail struct {
	Name        string
	Description string
	HTMLURL     string
	Stars       int
	Forks       int
	Watchers    int
	UpdatedAt   time.Time
	Stargazers  Set
	ForkRepos   Set
	WatcherSet  Set
	OpenIssues  Set
	OpenPRs     Set
}

// Snapshot is the authoritative previous observation of a monitored user.
type Snapshot struct {
	Login string

	// Scalars.
	Name          string
	Bio           string
	Location      string
	Company       string
	Email         string
	Blog          string
	UpdatedAt     time.Time
	Visible       bool
	Blocked       bool
	Contributions int

	// Authoritative counts reported by the profile.
	FollowerCount  int
	FollowingCount int
	RepoCount      int
	StarredCount   int

	// Set-valued fields.
	Followers Set
	Following Set
	Repos     Set
	Starred   Set

	// Per-repository detail, present only when repo tracking is enabled.
	RepoDetails map[string]RepoDetail

	Events EventWindow
}
