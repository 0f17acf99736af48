// Package diff compares freshly fetched values against the snapshot and
// yields change records. Three algorithms cover every tracked field kind:
// scalar equality, set membership, and the ordered event window walk.
package diff

import (
	"time"

	"github.com/misiektoja/github-monitor/internal/gateway"
)

// Kind is the closed vocabulary of change labels; it is written verbatim
// into the record log's Type column. Event changes use the raw event type
// name as their Kind.
type Kind string

const (
	KindFollowersCount  Kind = "Followers Count"
	KindFollowersList   Kind = "Followers List"
	KindAddedFollower   Kind = "Added Follower"
	KindRemovedFollower Kind = "Removed Follower"

	KindFollowingsCount  Kind = "Followings Count"
	KindFollowingsList   Kind = "Followings List"
	KindAddedFollowing   Kind = "Added Following"
	KindRemovedFollowing Kind = "Removed Following"

	KindReposCount  Kind = "Repos Count"
	KindReposList   Kind = "Repos List"
	KindAddedRepo   Kind = "Added Repo"
	KindRemovedRepo Kind = "Removed Repo"

	KindStarredCount       Kind = "Starred Repos Count"
	KindStarredList        Kind = "Starred Repos List"
	KindAddedStarredRepo   Kind = "Added Starred Repo"
	KindRemovedStarredRepo Kind = "Removed Starred Repo"

	KindDailyContributions Kind = "Daily Contributions"
	KindBio                Kind = "Bio"
	KindLocation           Kind = "Location"
	KindUserName           Kind = "User Name"
	KindCompany            Kind = "Company"
	KindEmail              Kind = "Email"
	KindBlogURL            Kind = "Blog URL"
	KindAccountUpdateDate  Kind = "Account Update Date"
	KindProfileVisibility  Kind = "Profile Visibility"
	KindBlockedStatus      Kind = "Blocked Status"

	KindRepoStarsCount   Kind = "Repo Stars Count"
	KindRepoStarsList    Kind = "Repo Stars List"
	KindAddedStargazer   Kind = "Added Stargazer"
	KindRemovedStargazer Kind = "Removed Stargazer"

	KindRepoForksCount    Kind = "Repo Forks Count"
	KindRepoForksList     Kind = "Repo Forks List"
	KindAddedForkedRepo   Kind = "Added Forked Repo"
	KindRemovedForkedRepo Kind = "Removed Forked Repo"

	KindRepoWatchersCount Kind = "Repo Watchers Count"
	KindRepoWatchersList  Kind = "Repo Watchers List"
	KindAddedWatcher      Kind = "Added Watcher"
	KindRemovedWatcher    Kind = "Removed Watcher"

	KindRepoIssuesCount Kind = "Repo Open Issues Count"
	KindRepoIssuesList  Kind = "Repo Open Issues List"
	KindAddedIssue      Kind = "Added Issue"
	KindRemovedIssue    Kind = "Removed Issue"

	KindRepoPRsCount Kind = "Repo Open PRs Count"
	KindRepoPRsList  Kind = "Repo Open PRs List"
	KindAddedPR      Kind = "Added PR"
	KindRemovedPR    Kind = "Removed PR"

	KindRepoUpdateDate  Kind = "Repo Update Date"
	KindRepoDescription Kind = "Repo Description"
)

// Category decides which notification toggle gates a change's email.
type Category int

const (
	CategoryProfile Category = iota
	CategoryEvent
	CategoryRepo
	CategoryRepoUpdateDate
)

func (c Category) String() string {
	switch c {
	case CategoryEvent:
		return "events"
	case CategoryRepo:
		return "repo changes"
	case CategoryRepoUpdateDate:
		return "repo update date"
	default:
		return "profile changes"
	}
}

// Change is one detected difference between the fetched state and the
// snapshot. Scalar changes fill Old/New; set changes additionally fill
// Removed/Added (sorted) and Delta; event changes fill Event.
type Change struct {
	Kind     Category
	Label    Kind
	Name     string
	Old      string
	New      string
	Removed  []string
	Added    []string
	Delta    int
	PerItem  SetKinds
	Event    *gateway.Event
	Occurred time.Time
}

// SetKinds groups the four labels a set-valued field writes to the record
// log: the count row, the pure-churn row, and one row per member moved.
type SetKinds struct {
	Count   Kind
	List    Kind
	Added   Kind
	Removed Kind
}
