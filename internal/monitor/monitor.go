package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/misiektoja/github-monitor/internal/config"
	"github.com/misiektoja/github-monitor/internal/format"
	"github.com/misiektoja/github-monitor/internal/gateway"
	"github.com/misiektoja/github-monitor/internal/notify"
	"github.com/misiektoja/github-monitor/internal/retry"
)

// Gateway is the slice of the API client the monitor needs. Satisfied by
// *gateway.GitHub; tests substitute a fake.
type Gateway interface {
	AuthenticatedUser(ctx context.Context) (gateway.Profile, error)
	Profile(ctx context.Context, login string) (gateway.Profile, error)
	Followers(ctx context.Context, login string) ([]string, error)
	Following(ctx context.Context, login string) ([]string, error)
	Repos(ctx context.Context, login string) ([]gateway.Repo, error)
	Starred(ctx context.Context, login string) ([]string, error)
	Stargazers(ctx context.Context, owner, repo string) ([]string, error)
	Forks(ctx context.Context, owner, repo string) ([]string, error)
	Watchers(ctx context.Context, owner, repo string) ([]string, error)
	OpenIssuesAndPRs(ctx context.Context, owner, repo string) (issues, prs []gateway.Issue, err error)
	Events(ctx context.Context, login string, limit int) ([]gateway.Event, error)
	Contributions(ctx context.Context, login string, day time.Time) (int, error)
	ProfileVisible(ctx context.Context, login string) (bool, error)
	BlockedBy(ctx context.Context, login string) (bool, error)
	SetToken(token string)
}

// Monitor owns one user's polling loop. All state mutation happens on the
// goroutine running Run; other goroutines interact only through the
// command channel and the Runtime.
type Monitor struct {
	log     *zap.Logger
	gh      Gateway
	cfg     *config.Config
	runtime *Runtime
	router  *notify.Router
	login   string
	loc     *time.Location
	retry   retry.Options
	cmds    chan Command

	trackRepos    bool
	eventsNumber  int
	errorInterval time.Duration
	aliveInterval time.Duration

	now func() time.Time
}

// New wires a monitor for one user.
func New(log *zap.Logger, gh Gateway, cfg *config.Config, rt *Runtime, router *notify.Router, login string, loc *time.Location) *Monitor {
	return &Monitor{
		log:           log,
		gh:            gh,
		cfg:           cfg,
		runtime:       rt,
		router:        router,
		login:         login,
		loc:           loc,
		retry:         retry.Options{MaxRetries: cfg.Retry.MaxRetries, BaseBackoff: cfg.GetBaseBackoff()},
		cmds:          make(chan Command, 8),
		trackRepos:    cfg.Monitor.TrackRepos,
		eventsNumber:  cfg.Monitor.EventsNumber,
		errorInterval: cfg.GetErrorInterval(),
		aliveInterval: cfg.GetAliveInterval(),
		now:           time.Now,
	}
}

// Commands is where signal handlers and tests queue runtime commands.
func (m *Monitor) Commands() chan<- Command { return m.cmds }

// Run bootstraps the snapshot and polls until ctx is canceled. Fetch
// failures never terminate the loop; only a failed bootstrap or context
// cancellation ends it.
func (m *Monitor) Run(ctx context.Context) error {
	snap, err := m.bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	var (
		sinceAlive   time.Duration
		outageMailed bool
	)

	for {
		st := m.runtime.Load()
		wait := st.Interval

		if err := m.waitOrCommand(ctx, wait); err != nil {
			return err
		}

		if err := m.cycle(ctx, snap); err != nil {
			m.log.Error("polling cycle failed",
				zap.String("user", m.login),
				zap.Error(err))
			if !outageMailed {
				subject := fmt.Sprintf("github-monitor: problems while monitoring %s", m.login)
				body := fmt.Sprintf("Monitoring of user %s hit an error:\n\n%v\n\nTimestamp: %s",
					m.login, err, format.Timestamp(m.now().In(m.loc)))
				m.router.SendError(ctx, m.runtime.Load().Errors, subject, body)
				outageMailed = true
			}
			if err := m.waitOrCommand(ctx, m.errorInterval); err != nil {
				return err
			}
			continue
		}
		outageMailed = false

		sinceAlive += m.runtime.Load().Interval
		if m.aliveInterval > 0 && sinceAlive >= m.aliveInterval {
			sinceAlive = 0
			m.log.Info("alive, still monitoring",
				zap.String("user", m.login),
				zap.String("interval", format.Duration(m.runtime.Load().Interval, 2)))
		}
	}
}

// waitOrCommand sleeps for d, applying queued commands as they arrive. An
// interval command takes effect on the next wait, not the current one.
func (m *Monitor) waitOrCommand(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-m.cmds:
			m.apply(cmd)
		case <-timer.C:
			return nil
		}
	}
}

// apply executes one runtime command and logs the resulting state.
func (m *Monitor) apply(cmd Command) {
	s := m.runtime.Load()
	switch cmd {
	case CmdToggleProfileEmails:
		s.Profile = !s.Profile
		m.runtime.Store(s)
		m.log.Info("profile change emails toggled", zap.Bool("enabled", s.Profile))
	case CmdToggleEventEmails:
		s.Events = !s.Events
		m.runtime.Store(s)
		m.log.Info("event emails toggled", zap.Bool("enabled", s.Events))
	case CmdToggleRepoEmails:
		s.Repos = !s.Repos
		m.runtime.Store(s)
		m.log.Info("repo change emails toggled", zap.Bool("enabled", s.Repos))
	case CmdToggleRepoUpdateDateEmails:
		s.RepoUpdateDate = !s.RepoUpdateDate
		m.runtime.Store(s)
		m.log.Info("repo update date emails toggled", zap.Bool("enabled", s.RepoUpdateDate))
	case CmdIncreaseInterval:
		s.Interval += IntervalStep
		m.runtime.Store(s)
		m.log.Info("check interval changed", zap.String("interval", format.Duration(s.Interval, 2)))
	case CmdDecreaseInterval:
		if s.Interval-IntervalStep <= 0 {
			m.log.Warn("check interval left unchanged, step would make it non-positive",
				zap.String("interval", format.Duration(s.Interval, 2)))
			return
		}
		s.Interval -= IntervalStep
		m.runtime.Store(s)
		m.log.Info("check interval changed", zap.String("interval", format.Duration(s.Interval, 2)))
	case CmdReloadSecrets:
		m.reloadSecrets()
	}
}

// reloadSecrets re-reads the secrets file and swaps the API token in
// place. Called between cycles only, so no request observes a torn token.
func (m *Monitor) reloadSecrets() {
	path := m.cfg.GitHub.SecretsFile
	if path == "" {
		m.log.Warn("secrets reload requested but no secrets file configured")
		return
	}
	oldToken := m.cfg.GitHub.Token
	if err := m.cfg.ApplySecrets(path); err != nil {
		m.log.Error("secrets reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	if m.cfg.GitHub.Token != oldToken {
		m.gh.SetToken(m.cfg.GitHub.Token)
		m.log.Info("github token reloaded from secrets file", zap.String("path", path))
	} else {
		m.log.Info("secrets file reloaded, token unchanged", zap.String("path", path))
	}
}

// fetch wraps one remote call in the retry budget.
func fetch[T any](ctx context.Context, m *Monitor, def T, fn func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, m.retry, def, fn)
}
