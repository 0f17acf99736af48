package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

const (
	defaultContributionsURL = "https://github-contributions-api.jogruber.de/v4"
	htmlBase                = "https://github.com"
	apiReposPrefix          = "https://api.github.com/repos/"
)

// GitHub talks to the GitHub REST API. All methods return APIError on
// failure and drain pagination internally; callers see complete lists.
type GitHub struct {
	api              *github.Client
	web              *http.Client
	contributionsURL string
	perPage          int
}

// Option adjusts a GitHub client.
type Option func(*GitHub)

// WithContributionsURL overrides the contributions API base URL.
func WithContributionsURL(base string) Option {
	return func(g *GitHub) { g.contributionsURL = strings.TrimRight(base, "/") }
}

// WithPerPage sets the page size used when draining listings.
// Non-positive values keep the default.
func WithPerPage(n int) Option {
	return func(g *GitHub) {
		if n > 0 {
			g.perPage = n
		}
	}
}

// WithHTTPClient replaces the HTTP client used both for the REST API and
// the unauthenticated profile probes.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *GitHub) {
		g.api = github.NewClient(hc)
		g.web = hc
	}
}

// New builds a GitHub gateway. An empty token leaves the client
// unauthenticated, which is enough for the one-shot listings of public
// data but not for monitoring.
func New(token string, opts ...Option) *GitHub {
	hc := &http.Client{Timeout: 30 * time.Second}
	g := &GitHub{
		api:              github.NewClient(hc),
		web:              hc,
		contributionsURL: defaultContributionsURL,
		perPage:          100,
	}
	for _, opt := range opts {
		opt(g)
	}
	if token != "" {
		g.api = g.api.WithAuthToken(token)
	}
	return g
}

// SetToken swaps the credential used for API calls. Called by the secrets
// hot-reload path; safe only between cycles (the loop is single-threaded).
func (g *GitHub) SetToken(token string) {
	g.api = g.api.WithAuthToken(token)
}

// CheckConnectivity probes url with an unauthenticated HEAD request.
// Any HTTP response counts as reachable; only transport failures do not.
func (g *GitHub) CheckConnectivity(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return classify("connectivity check", err)
	}
	resp, err := g.web.Do(req)
	if err != nil {
		return classify("connectivity check", err)
	}
	resp.Body.Close()
	return nil
}

// AuthenticatedUser returns the profile the token belongs to.
func (g *GitHub) AuthenticatedUser(ctx context.Context) (Profile, error) {
	u, _, err := g.api.Users.Get(ctx, "")
	if err != nil {
		return Profile{}, classify("get authenticated user", err)
	}
	return decodeProfile(u), nil
}

// Profile returns the tracked scalar fields for a user.
func (g *GitHub) Profile(ctx context.Context, login string) (Profile, error) {
	u, _, err := g.api.Users.Get(ctx, login)
	if err != nil {
		return Profile{}, classify("get user "+login, err)
	}
	return decodeProfile(u), nil
}

// Followers returns all follower logins.
func (g *GitHub) Followers(ctx context.Context, login string) ([]string, error) {
	return paginate(ctx, "list followers of "+login, g.perPage, func(opts github.ListOptions) ([]string, *github.Response, error) {
		users, resp, err := g.api.Users.ListFollowers(ctx, login, &opts)
		return logins(users), resp, err
	})
}

// Following returns all followed logins.
func (g *GitHub) Following(ctx context.Context, login string) ([]string, error) {
	return paginate(ctx, "list followings of "+login, g.perPage, func(opts github.ListOptions) ([]string, *github.Response, error) {
		users, resp, err := g.api.Users.ListFollowing(ctx, login, &opts)
		return logins(users), resp, err
	})
}

// Repos returns all public repositories owned by the user.
func (g *GitHub) Repos(ctx context.Context, login string) ([]Repo, error) {
	return paginate(ctx, "list repos of "+login, g.perPage, func(opts github.ListOptions) ([]Repo, *github.Response, error) {
		repos, resp, err := g.api.Repositories.ListByUser(ctx, login, &github.RepositoryListByUserOptions{ListOptions: opts})
		out := make([]Repo, 0, len(repos))
		for _, r := range repos {
			out = append(out, decodeRepo(r))
		}
		return out, resp, err
	})
}

// Starred returns the full names of all repositories starred by the user.
func (g *GitHub) Starred(ctx context.Context, login string) ([]string, error) {
	return paginate(ctx, "list starred of "+login, g.perPage, func(opts github.ListOptions) ([]string, *github.Response, error) {
		starred, resp, err := g.api.Activity.ListStarred(ctx, login, &github.ActivityListStarredOptions{ListOptions: opts})
		out := make([]string, 0, len(starred))
		for _, s := range starred {
			if r := s.GetRepository(); r != nil {
				out = append(out, r.GetFullName())
			}
		}
		return out, resp, err
	})
}

// Stargazers returns the logins of everyone who starred owner/repo.
func (g *GitHub) Stargazers(ctx context.Context, owner, repo string) ([]string, error) {
	return paginate(ctx, fmt.Sprintf("list stargazers of %s/%s", owner, repo), g.perPage, func(opts github.ListOptions) ([]string, *github.Response, error) {
		gazers, resp, err := g.api.Activity.ListStargazers(ctx, owner, repo, &opts)
		out := make([]string, 0, len(gazers))
		for _, s := range gazers {
			if u := s.GetUser(); u != nil {
				out = append(out, u.GetLogin())
			}
		}
		return out, resp, err
	})
}

// Watchers returns the logins of everyone watching owner/repo.
func (g *GitHub) Watchers(ctx context.Context, owner, repo string) ([]string, error) {
	return paginate(ctx, fmt.Sprintf("list watchers of %s/%s", owner, repo), g.perPage, func(opts github.ListOptions) ([]string, *github.Response, error) {
		users, resp, err := g.api.Activity.ListWatchers(ctx, owner, repo, &opts)
		return logins(users), resp, err
	})
}

// Forks returns the full names of all forks of owner/repo.
func (g *GitHub) Forks(ctx context.Context, owner, repo string) ([]string, error) {
	return paginate(ctx, fmt.Sprintf("list forks of %s/%s", owner, repo), g.perPage, func(opts github.ListOptions) ([]string, *github.Response, error) {
		forks, resp, err := g.api.Repositories.ListForks(ctx, owner, repo, &github.RepositoryListForksOptions{ListOptions: opts})
		out := make([]string, 0, len(forks))
		for _, f := range forks {
			out = append(out, f.GetFullName())
		}
		return out, resp, err
	})
}

// OpenIssuesAndPRs returns the open issues and open pull requests of
// owner/repo, already split (the REST issues listing mixes both).
func (g *GitHub) OpenIssuesAndPRs(ctx context.Context, owner, repo string) (issues, prs []Issue, err error) {
	all, err := paginate(ctx, fmt.Sprintf("list open issues of %s/%s", owner, repo), g.perPage, func(opts github.ListOptions) ([]Issue, *github.Response, error) {
		raw, resp, err := g.api.Issues.ListByRepo(ctx, owner, repo, &github.IssueListByRepoOptions{State: "open", ListOptions: opts})
		out := make([]Issue, 0, len(raw))
		for _, i := range raw {
			item := Issue{Number: i.GetNumber(), Title: i.GetTitle(), IsPR: i.IsPullRequest()}
			if u := i.GetUser(); u != nil {
				item.Author = u.GetLogin()
			}
			out = append(out, item)
		}
		return out, resp, err
	})
	if err != nil {
		return nil, nil, err
	}
	for _, i := range all {
		if i.IsPR {
			prs = append(prs, i)
		} else {
			issues = append(issues, i)
		}
	}
	return issues, prs, nil
}

// Events returns up to limit of the user's most recent public events,
// newest first (feed order).
func (g *GitHub) Events(ctx context.Context, login string, limit int) ([]Event, error) {
	per := limit
	if per > 100 {
		per = 100
	}
	raw, _, err := g.api.Activity.ListEventsPerformedByUser(ctx, login, true, &github.ListOptions{PerPage: per})
	if err != nil {
		return nil, classify("list events of "+login, err)
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}
	out := make([]Event, 0, len(raw))
	for _, ev := range raw {
		out = append(out, decodeEvent(ev))
	}
	return out, nil
}

// Contributions returns the user's contribution count for the given day.
func (g *GitHub) Contributions(ctx context.Context, login string, day time.Time) (int, error) {
	op := "get contributions of " + login
	url := fmt.Sprintf("%s/%s?y=last", g.contributionsURL, login)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, classify(op, err)
	}
	resp, err := g.web.Do(req)
	if err != nil {
		return 0, classify(op, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, &APIError{Kind: KindNotFound, Op: op}
	case resp.StatusCode >= 500:
		return 0, &APIError{Kind: KindTransient, Op: op}
	case resp.StatusCode != http.StatusOK:
		return 0, &APIError{Kind: KindUnknown, Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	var body struct {
		Contributions []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"contributions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, &APIError{Kind: KindTransient, Op: op, Err: err}
	}
	want := day.Format("2006-01-02")
	for _, c := range body.Contributions {
		if c.Date == want {
			return c.Count, nil
		}
	}
	return 0, nil
}

// ProfileVisible probes the public HTML profile without credentials.
// A 404 there means the account is gone, suspended or hidden.
func (g *GitHub) ProfileVisible(ctx context.Context, login string) (bool, error) {
	op := "probe profile of " + login
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, htmlBase+"/"+login, nil)
	if err != nil {
		return false, classify(op, err)
	}
	resp, err := g.web.Do(req)
	if err != nil {
		return false, classify(op, err)
	}
	resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, &APIError{Kind: KindTransient, Op: op}
	default:
		return false, &APIError{Kind: KindUnknown, Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
}

// BlockedBy reports whether the monitored user blocks the token owner.
// There is no first-class API field; the heuristic is an authenticated API
// 404 for an account whose public HTML profile still resolves.
func (g *GitHub) BlockedBy(ctx context.Context, login string) (bool, error) {
	_, _, err := g.api.Users.Get(ctx, login)
	if err == nil {
		return false, nil
	}
	cerr := classify("get user "+login, err)
	if KindOf(cerr) != KindNotFound {
		return false, cerr
	}
	visible, verr := g.ProfileVisible(ctx, login)
	if verr != nil {
		return false, verr
	}
	return visible, nil
}

// paginate drains a paged listing into one slice.
func paginate[T any](ctx context.Context, op string, perPage int, fetch func(github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	var all []T
	opts := github.ListOptions{PerPage: perPage}
	for {
		items, resp, err := fetch(opts)
		if err != nil {
			return nil, classify(op, err)
		}
		all = append(all, items...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
		if err := ctx.Err(); err != nil {
			return nil, classify(op, err)
		}
	}
}

func logins(users []*github.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.GetLogin())
	}
	return out
}

func decodeProfile(u *github.User) Profile {
	return Profile{
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		Bio:       u.GetBio(),
		Location:  u.GetLocation(),
		Company:   u.GetCompany(),
		Email:     u.GetEmail(),
		Blog:      u.GetBlog(),
		HTMLURL:   u.GetHTMLURL(),
		Followers: u.GetFollowers(),
		Following: u.GetFollowing(),
		Repos:     u.GetPublicRepos(),
		CreatedAt: u.GetCreatedAt().Time,
		UpdatedAt: u.GetUpdatedAt().Time,
	}
}

func decodeRepo(r *github.Repository) Repo {
	return Repo{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		Language:    r.GetLanguage(),
		HTMLURL:     r.GetHTMLURL(),
		Fork:        r.GetFork(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Watchers:    r.GetWatchersCount(),
		CreatedAt:   r.GetCreatedAt().Time,
		UpdatedAt:   r.GetUpdatedAt().Time,
	}
}

// apiToHTMLURL rewrites an api.github.com repo URL to its HTML counterpart.
func apiToHTMLURL(url string) string {
	if rest, ok := strings.CutPrefix(url, apiReposPrefix); ok {
		return htmlBase + "/" + rest
	}
	return url
}
