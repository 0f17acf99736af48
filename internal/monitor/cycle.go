package monitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/misiektoja/github-monitor/internal/diff"
	"github.com/misiektoja/github-monitor/internal/format"
	"github.com/misiektoja/github-monitor/internal/gateway"
	"github.com/misiektoja/github-monitor/internal/snapshot"
)

var (
	followerKinds = diff.SetKinds{
		Count:   diff.KindFollowersCount,
		List:    diff.KindFollowersList,
		Added:   diff.KindAddedFollower,
		Removed: diff.KindRemovedFollower,
	}
	followingKinds = diff.SetKinds{
		Count:   diff.KindFollowingsCount,
		List:    diff.KindFollowingsList,
		Added:   diff.KindAddedFollowing,
		Removed: diff.KindRemovedFollowing,
	}
	repoKinds = diff.SetKinds{
		Count:   diff.KindReposCount,
		List:    diff.KindReposList,
		Added:   diff.KindAddedRepo,
		Removed: diff.KindRemovedRepo,
	}
	starredKinds = diff.SetKinds{
		Count:   diff.KindStarredCount,
		List:    diff.KindStarredList,
		Added:   diff.KindAddedStarredRepo,
		Removed: diff.KindRemovedStarredRepo,
	}
	stargazerKinds = diff.SetKinds{
		Count:   diff.KindRepoStarsCount,
		List:    diff.KindRepoStarsList,
		Added:   diff.KindAddedStargazer,
		Removed: diff.KindRemovedStargazer,
	}
	forkKinds = diff.SetKinds{
		Count:   diff.KindRepoForksCount,
		List:    diff.KindRepoForksList,
		Added:   diff.KindAddedForkedRepo,
		Removed: diff.KindRemovedForkedRepo,
	}
	watcherKinds = diff.SetKinds{
		Count:   diff.KindRepoWatchersCount,
		List:    diff.KindRepoWatchersList,
		Added:   diff.KindAddedWatcher,
		Removed: diff.KindRemovedWatcher,
	}
	issueKinds = diff.SetKinds{
		Count:   diff.KindRepoIssuesCount,
		List:    diff.KindRepoIssuesList,
		Added:   diff.KindAddedIssue,
		Removed: diff.KindRemovedIssue,
	}
	prKinds = diff.SetKinds{
		Count:   diff.KindRepoPRsCount,
		List:    diff.KindRepoPRsList,
		Added:   diff.KindAddedPR,
		Removed: diff.KindRemovedPR,
	}
)

func visibilityText(v bool) string {
	if v {
		return "visible"
	}
	return "not visible"
}

func blockedText(b bool) string {
	if b {
		return "blocked"
	}
	return "not blocked"
}

// bootstrap fetches the initial state, logs the summary banner and
// returns the baseline snapshot. Nothing is dispatched: the first
// observation is the reference, not a change.
func (m *Monitor) bootstrap(ctx context.Context) (*snapshot.Snapshot, error) {
	me, err := fetch(ctx, m, gateway.Profile{}, m.gh.AuthenticatedUser)
	if err != nil {
		return nil, fmt.Errorf("token check failed: %w", err)
	}
	m.log.Info("authenticated", zap.String("as", me.Login))

	profile, err := fetch(ctx, m, gateway.Profile{}, func(ctx context.Context) (gateway.Profile, error) {
		return m.gh.Profile(ctx, m.login)
	})
	if err != nil {
		return nil, err
	}

	followers, err := fetch(ctx, m, []string(nil), func(ctx context.Context) ([]string, error) {
		return m.gh.Followers(ctx, m.login)
	})
	if err != nil {
		return nil, err
	}
	following, err := fetch(ctx, m, []string(nil), func(ctx context.Context) ([]string, error) {
		return m.gh.Following(ctx, m.login)
	})
	if err != nil {
		return nil, err
	}
	repos, err := fetch(ctx, m, []gateway.Repo(nil), func(ctx context.Context) ([]gateway.Repo, error) {
		return m.gh.Repos(ctx, m.login)
	})
	if err != nil {
		return nil, err
	}
	starred, err := fetch(ctx, m, []string(nil), func(ctx context.Context) ([]string, error) {
		return m.gh.Starred(ctx, m.login)
	})
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{
		Login:          m.login,
		Name:           profile.Name,
		Bio:            profile.Bio,
		Location:       profile.Location,
		Company:        profile.Company,
		Email:          profile.Email,
		Blog:           profile.Blog,
		UpdatedAt:      profile.UpdatedAt,
		Visible:        true,
		FollowerCount:  profile.Followers,
		FollowingCount: profile.Following,
		RepoCount:      profile.Repos,
		StarredCount:   len(starred),
		Followers:      snapshot.NewSet(followers),
		Following:      snapshot.NewSet(following),
		Repos:          snapshot.NewSet(repoNames(repos)),
		Starred:        snapshot.NewSet(starred),
		Events:         snapshot.EventWindow{Size: m.eventsNumber},
	}

	if contribs, err := fetch(ctx, m, 0, func(ctx context.Context) (int, error) {
		return m.gh.Contributions(ctx, m.login, m.now().In(m.loc))
	}); err != nil {
		m.log.Warn("daily contributions unavailable", zap.Error(err))
	} else {
		snap.Contributions = contribs
	}

	if visible, err := m.gh.ProfileVisible(ctx, m.login); err != nil {
		m.log.Warn("profile visibility probe failed", zap.Error(err))
	} else {
		snap.Visible = visible
	}
	if blocked, err := m.gh.BlockedBy(ctx, m.login); err != nil {
		m.log.Warn("blocked-status probe failed", zap.Error(err))
	} else {
		snap.Blocked = blocked
	}

	if m.trackRepos {
		snap.RepoDetails = m.fetchRepoDetails(ctx, repos)
	}

	if events, err := fetch(ctx, m, []gateway.Event(nil), func(ctx context.Context) ([]gateway.Event, error) {
		return m.gh.Events(ctx, m.login, m.eventsNumber)
	}); err != nil {
		m.log.Warn("events feed unavailable", zap.Error(err))
	} else {
		_, snap.Events = diff.Events(snap.Events, events, nil)
		if len(events) > 0 {
			m.log.Info("latest event",
				zap.String("type", events[0].Type),
				zap.String("repo", events[0].RepoName),
				zap.String("at", format.Timestamp(events[0].CreatedAt.In(m.loc))))
		}
	}

	m.logBanner(profile, snap)
	return snap, nil
}

// logBanner prints the initial observation summary.
func (m *Monitor) logBanner(profile gateway.Profile, snap *snapshot.Snapshot) {
	now := m.now().In(m.loc)
	m.log.Info("monitoring started", zap.String("user", profile.DisplayName()))
	m.log.Info("profile",
		zap.String("url", profile.HTMLURL),
		zap.String("location", profile.Location),
		zap.String("bio", profile.Bio))
	m.log.Info("counts",
		zap.Int("followers", snap.FollowerCount),
		zap.Int("followings", snap.FollowingCount),
		zap.Int("repos", snap.RepoCount),
		zap.Int("starred", snap.StarredCount),
		zap.Int("daily_contributions", snap.Contributions))
	if !profile.CreatedAt.IsZero() {
		m.log.Info("account created",
			zap.String("at", format.Timestamp(profile.CreatedAt.In(m.loc))),
			zap.String("ago", format.Ago(profile.CreatedAt, now)))
	}
	if !profile.UpdatedAt.IsZero() {
		m.log.Info("account updated",
			zap.String("at", format.Timestamp(profile.UpdatedAt.In(m.loc))),
			zap.String("ago", format.Ago(profile.UpdatedAt, now)))
	}
}

// cycle performs one poll: fetch, diff, dispatch, update the snapshot.
// The profile fetch failing fails the whole cycle; every later fetch
// failure only skips its own field, keeping the previous observation.
func (m *Monitor) cycle(ctx context.Context, snap *snapshot.Snapshot) error {
	profile, err := fetch(ctx, m, gateway.Profile{}, func(ctx context.Context) (gateway.Profile, error) {
		return m.gh.Profile(ctx, m.login)
	})
	if err != nil {
		return err
	}

	m.cycleSet(ctx, "followers", followerKinds, profile.Followers,
		&snap.Followers, &snap.FollowerCount, func(ctx context.Context) ([]string, error) {
			return m.gh.Followers(ctx, m.login)
		})
	m.cycleSet(ctx, "followings", followingKinds, profile.Following,
		&snap.Following, &snap.FollowingCount, func(ctx context.Context) ([]string, error) {
			return m.gh.Following(ctx, m.login)
		})

	repos, reposErr := fetch(ctx, m, []gateway.Repo(nil), func(ctx context.Context) ([]gateway.Repo, error) {
		return m.gh.Repos(ctx, m.login)
	})
	if reposErr != nil {
		m.log.Warn("repos fetch failed, keeping previous", zap.Error(reposErr))
	} else {
		m.applySet(ctx, repoKinds, profile.Repos, repoNames(repos),
			&snap.Repos, &snap.RepoCount)
	}

	if starred, err := fetch(ctx, m, []string(nil), func(ctx context.Context) ([]string, error) {
		return m.gh.Starred(ctx, m.login)
	}); err != nil {
		m.log.Warn("starred fetch failed, keeping previous", zap.Error(err))
	} else {
		m.applySet(ctx, starredKinds, len(starred), starred,
			&snap.Starred, &snap.StarredCount)
	}

	if contribs, err := fetch(ctx, m, 0, func(ctx context.Context) (int, error) {
		return m.gh.Contributions(ctx, m.login, m.now().In(m.loc))
	}); err != nil {
		m.log.Warn("contributions fetch failed, keeping previous", zap.Error(err))
	} else if ch := diff.Number(diff.CategoryProfile, diff.KindDailyContributions, m.login, snap.Contributions, contribs); ch != nil {
		m.router.Dispatch(ctx, *ch)
		snap.Contributions = contribs
	}

	m.cycleScalar(ctx, diff.KindBio, &snap.Bio, profile.Bio)
	m.cycleScalar(ctx, diff.KindLocation, &snap.Location, profile.Location)
	m.cycleScalar(ctx, diff.KindUserName, &snap.Name, profile.Name)
	m.cycleScalar(ctx, diff.KindCompany, &snap.Company, profile.Company)
	m.cycleScalar(ctx, diff.KindEmail, &snap.Email, profile.Email)
	m.cycleScalar(ctx, diff.KindBlogURL, &snap.Blog, profile.Blog)

	if ch := diff.Instant(diff.CategoryProfile, diff.KindAccountUpdateDate, m.login,
		snap.UpdatedAt.In(m.loc), profile.UpdatedAt.In(m.loc)); ch != nil {
		m.router.Dispatch(ctx, *ch)
		snap.UpdatedAt = profile.UpdatedAt
	}

	if visible, err := m.gh.ProfileVisible(ctx, m.login); err != nil {
		m.log.Warn("visibility probe failed, keeping previous", zap.Error(err))
	} else if ch := diff.Bool(diff.CategoryProfile, diff.KindProfileVisibility, m.login,
		snap.Visible, visible, visibilityText); ch != nil {
		m.router.Dispatch(ctx, *ch)
		snap.Visible = visible
	}

	if blocked, err := m.gh.BlockedBy(ctx, m.login); err != nil {
		m.log.Warn("blocked-status probe failed, keeping previous", zap.Error(err))
	} else if ch := diff.Bool(diff.CategoryProfile, diff.KindBlockedStatus, m.login,
		snap.Blocked, blocked, blockedText); ch != nil {
		m.router.Dispatch(ctx, *ch)
		snap.Blocked = blocked
	}

	if m.trackRepos && reposErr == nil {
		m.cycleRepoDetails(ctx, snap, repos)
	}

	if events, err := fetch(ctx, m, []gateway.Event(nil), func(ctx context.Context) ([]gateway.Event, error) {
		return m.gh.Events(ctx, m.login, m.eventsNumber)
	}); err != nil {
		m.log.Warn("events fetch failed, keeping previous window", zap.Error(err))
	} else {
		changes, next := diff.Events(snap.Events, events, nil)
		m.router.DispatchAll(ctx, changes)
		snap.Events = next
	}

	return nil
}

// cycleScalar diffs one profile string field and stores the new value
// after dispatch.
func (m *Monitor) cycleScalar(ctx context.Context, label diff.Kind, stored *string, fresh string) {
	if ch := diff.Scalar(diff.CategoryProfile, label, m.login, *stored, fresh); ch != nil {
		m.router.Dispatch(ctx, *ch)
		*stored = fresh
	}
}

// cycleSet fetches one profile-level member list and applies the set diff.
func (m *Monitor) cycleSet(ctx context.Context, what string, kinds diff.SetKinds, authoritative int, stored *snapshot.Set, storedCount *int, fn func(context.Context) ([]string, error)) {
	fetched, err := fetch(ctx, m, []string(nil), fn)
	if err != nil {
		m.log.Warn(what+" fetch failed, keeping previous", zap.Error(err))
		return
	}
	m.applySet(ctx, kinds, authoritative, fetched, stored, storedCount)
}

// applySet runs the set diff and commits the result. The stored count
// only moves when the fail-safe did not fire.
func (m *Monitor) applySet(ctx context.Context, kinds diff.SetKinds, authoritative int, fetched []string, stored *snapshot.Set, storedCount *int) {
	ch, next := diff.Set(diff.CategoryProfile, diff.SetInput{
		Kinds:    kinds,
		Name:     m.login,
		OldSet:   *stored,
		OldCount: *storedCount,
		Fetched:  fetched,
		NewCount: authoritative,
	})
	if ch != nil {
		m.router.Dispatch(ctx, *ch)
	}
	*stored = next
	if len(fetched) > 0 || authoritative == 0 {
		*storedCount = authoritative
	}
}

// cycleRepoDetails diffs the per-repository trackers and replaces the
// detail map wholesale. A repository that vanished mid-cycle (NotFound)
// is dropped without a record; the owned-repos set diff already covers
// its disappearance. A transient fetch failure keeps the previous detail
// so the baseline survives the outage.
func (m *Monitor) cycleRepoDetails(ctx context.Context, snap *snapshot.Snapshot, repos []gateway.Repo) {
	fresh := make(map[string]snapshot.RepoDetail, len(repos))

	for _, r := range repos {
		old, had := snap.RepoDetails[r.Name]

		det, err := m.fetchRepoDetail(ctx, r)
		if err != nil {
			if gateway.KindOf(err) == gateway.KindNotFound {
				m.log.Info("repository vanished, dropping detail tracking",
					zap.String("repo", r.Name))
			} else {
				m.log.Warn("repository detail fetch failed, keeping previous",
					zap.String("repo", r.Name), zap.Error(err))
				if had {
					fresh[r.Name] = old
				}
			}
			continue
		}
		fresh[r.Name] = det

		if !had {
			continue
		}
		name := r.Name

		if ch := diff.Instant(diff.CategoryRepoUpdateDate, diff.KindRepoUpdateDate, name,
			old.UpdatedAt.In(m.loc), det.UpdatedAt.In(m.loc)); ch != nil {
			m.router.Dispatch(ctx, *ch)
		}
		if ch := diff.Scalar(diff.CategoryRepo, diff.KindRepoDescription, name,
			old.Description, det.Description); ch != nil {
			m.router.Dispatch(ctx, *ch)
		}

		m.repoSet(ctx, name, stargazerKinds, old.Stargazers, old.Stars, det.Stargazers, det.Stars)
		m.repoSet(ctx, name, forkKinds, old.ForkRepos, old.Forks, det.ForkRepos, det.Forks)
		m.repoSet(ctx, name, watcherKinds, old.WatcherSet, old.Watchers, det.WatcherSet, det.Watchers)
		m.repoSet(ctx, name, issueKinds, old.OpenIssues, len(old.OpenIssues), det.OpenIssues, len(det.OpenIssues))
		m.repoSet(ctx, name, prKinds, old.OpenPRs, len(old.OpenPRs), det.OpenPRs, len(det.OpenPRs))
	}

	snap.RepoDetails = fresh
}

// repoSet diffs one repository-scoped member set.
func (m *Monitor) repoSet(ctx context.Context, repo string, kinds diff.SetKinds, oldSet snapshot.Set, oldCount int, newSet snapshot.Set, newCount int) {
	ch, _ := diff.Set(diff.CategoryRepo, diff.SetInput{
		Kinds:    kinds,
		Name:     repo,
		OldSet:   oldSet,
		OldCount: oldCount,
		Fetched:  newSet.Sorted(),
		NewCount: newCount,
	})
	if ch != nil {
		m.router.Dispatch(ctx, *ch)
	}
}

// fetchRepoDetails builds the detail map for the tracked repositories,
// skipping any repository whose fetch fails; used for the bootstrap
// baseline where there is no previous detail to fall back on.
func (m *Monitor) fetchRepoDetails(ctx context.Context, repos []gateway.Repo) map[string]snapshot.RepoDetail {
	details := make(map[string]snapshot.RepoDetail, len(repos))
	for _, r := range repos {
		det, err := m.fetchRepoDetail(ctx, r)
		if err != nil {
			m.log.Warn("repository detail fetch failed",
				zap.String("repo", r.Name), zap.Error(err))
			continue
		}
		details[r.Name] = det
	}
	return details
}

// fetchRepoDetail fetches every tracked collection of one repository. Any
// failure aborts the whole detail so a half-fetched one never lands in
// the snapshot.
func (m *Monitor) fetchRepoDetail(ctx context.Context, r gateway.Repo) (snapshot.RepoDetail, error) {
	det := snapshot.RepoDetail{
		Name:        r.Name,
		Description: r.Description,
		HTMLURL:     r.HTMLURL,
		Stars:       r.Stars,
		Forks:       r.Forks,
		Watchers:    r.Watchers,
		UpdatedAt:   r.UpdatedAt,
	}

	stargazers, err := fetch(ctx, m, []string(nil), func(ctx context.Context) ([]string, error) {
		return m.gh.Stargazers(ctx, m.login, r.Name)
	})
	if err != nil {
		return det, err
	}
	forks, err := fetch(ctx, m, []string(nil), func(ctx context.Context) ([]string, error) {
		return m.gh.Forks(ctx, m.login, r.Name)
	})
	if err != nil {
		return det, err
	}
	watchers, err := fetch(ctx, m, []string(nil), func(ctx context.Context) ([]string, error) {
		return m.gh.Watchers(ctx, m.login, r.Name)
	})
	if err != nil {
		return det, err
	}

	type issuePair struct{ issues, prs []gateway.Issue }
	pair, err := fetch(ctx, m, issuePair{}, func(ctx context.Context) (issuePair, error) {
		issues, prs, err := m.gh.OpenIssuesAndPRs(ctx, m.login, r.Name)
		return issuePair{issues, prs}, err
	})
	if err != nil {
		return det, err
	}

	det.Stargazers = snapshot.NewSet(stargazers)
	det.ForkRepos = snapshot.NewSet(forks)
	det.WatcherSet = snapshot.NewSet(watchers)
	det.OpenIssues = snapshot.NewSet(issueLabels(pair.issues))
	det.OpenPRs = snapshot.NewSet(issueLabels(pair.prs))
	return det, nil
}

func repoNames(repos []gateway.Repo) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.Name)
	}
	return out
}

func issueLabels(issues []gateway.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Label())
	}
	return out
}
