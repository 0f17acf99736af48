package gateway

import (
	"strconv"
	"time"
)

// Profile carries the scalar fields tracked for a user.
type Profile struct {
	Login     string
	Name      string
	Bio       string
	Location  string
	Company   string
	Email     string
	Blog      string
	HTMLURL   string
	Followers int
	Following int
	Repos     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns "login (Name)" or just the login when the display
// name is unset.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Login + " (" + p.Name + ")"
	}
	return p.Login
}

// Repo is one owned repository with the counters and collections tracked by
// the per-repository detail diffs.
type Repo struct {
	Name        string
	FullName    string
	Description string
	Language    string
	HTMLURL     string
	Fork        bool
	Stars       int
	Forks       int
	Watchers    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Issue is an open issue or pull request, reduced to what the set diff
// renders.
type Issue struct {
	Number int
	Title  string
	Author string
	IsPR   bool
}

// Label renders the issue the way it appears in change records and emails.
func (i Issue) Label() string {
	return "#" + strconv.Itoa(i.Number) + " " + i.Title + " (" + i.Author + ")"
}
