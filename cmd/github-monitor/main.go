// github-monitor watches a GitHub user for profile, repository and
// activity changes, logging every change and optionally emailing it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/misiektoja/github-monitor/internal/config"
	"github.com/misiektoja/github-monitor/internal/gateway"
	"github.com/misiektoja/github-monitor/internal/logging"
	"github.com/misiektoja/github-monitor/internal/monitor"
	"github.com/misiektoja/github-monitor/internal/notify"
)

var (
	cfgFile     string
	tokenFlag   string
	secretsFile string
	intervalStr string
	timezone    string
	csvFile     string
	logLevel    string
	noLogFile   bool
	trackRepos  bool

	notifyProfile        bool
	notifyEvents         bool
	notifyRepos          bool
	notifyRepoUpdateDate bool
	notifyErrors         bool

	cfg    *config.Config
	logger *zap.Logger

	closeLogger = func() {}
)

// rootCmd monitors one user until interrupted. It is assigned in init
// rather than declared with an initializer because its PersistentPreRunE
// closure refers back to rootCmd, which the compiler rejects as an
// initialization cycle.
var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "github-monitor [username]",
		Short: "Monitor a GitHub user for profile and activity changes",
		Long: `github-monitor polls a GitHub user's profile, repositories and public
activity, compares each poll against the previous one and reports every
change to the console, a CSV record log and optionally email.

Runtime control while it runs:
  SIGUSR1  toggle profile change emails
  SIGUSR2  toggle event emails
  SIGCONT  toggle repo change emails
  SIGPIPE  toggle repo update date emails
  SIGTRAP  increase the polling interval by 1 minute
  SIGABRT  decrease the polling interval by 1 minute
  SIGHUP   reload the secrets file`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd)

			username := ""
			if len(args) > 0 && cmd == rootCmd {
				username = args[0]
			}
			logger, closeLogger, err = logging.New(logging.Options{
				Level:    logLevel,
				Username: username,
				Dir:      cfg.Logging.Dir,
				NoFile:   cfg.Logging.Disable || username == "",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeLogger()
		},
		RunE: runMonitor,
	}
}

// applyFlagOverrides lets explicit flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if tokenFlag != "" {
		cfg.GitHub.Token = tokenFlag
	}
	if secretsFile != "" {
		cfg.GitHub.SecretsFile = secretsFile
	}
	if intervalStr != "" {
		cfg.Monitor.CheckInterval = intervalStr
	}
	if timezone != "" {
		cfg.Timezone = timezone
	}
	if flags.Changed("track-repos") {
		cfg.Monitor.TrackRepos = trackRepos
	}
	if flags.Changed("notify-profile") {
		cfg.Notifications.Profile = notifyProfile
	}
	if flags.Changed("notify-events") {
		cfg.Notifications.Events = notifyEvents
	}
	if flags.Changed("notify-repos") {
		cfg.Notifications.Repos = notifyRepos
	}
	if flags.Changed("notify-repo-update-date") {
		cfg.Notifications.RepoUpdateDate = notifyRepoUpdateDate
	}
	if flags.Changed("notify-errors") {
		cfg.Notifications.Errors = notifyErrors
	}
	if csvFile == "" {
		csvFile = cfg.CSV.File
	}
	if noLogFile {
		cfg.Logging.Disable = true
	}
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	username := args[0]

	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	gh := gateway.New(cfg.GitHub.Token,
		gateway.WithContributionsURL(cfg.GitHub.ContributionsURL),
		gateway.WithPerPage(cfg.GitHub.PerPage))

	var rec *notify.Recorder
	if csvFile != "" {
		rec = notify.NewRecorder(csvFile, loc)
		logger.Info("recording changes", zap.String("file", csvFile))
	}

	var mailer notify.Mailer
	if cfg.SMTP.Host != "" {
		m, err := notify.NewSMTPMailer(notify.SMTPOptions{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			UseTLS:   cfg.SMTP.UseTLS,
			Sender:   cfg.SMTP.Sender,
			Receiver: cfg.SMTP.Receiver,
		})
		if err != nil {
			return err
		}
		mailer = m
	}

	rt := monitor.NewRuntime(monitor.Settings{
		Interval:       cfg.GetCheckInterval(),
		Profile:        cfg.Notifications.Profile,
		Events:         cfg.Notifications.Events,
		Repos:          cfg.Notifications.Repos,
		RepoUpdateDate: cfg.Notifications.RepoUpdateDate,
		Errors:         cfg.Notifications.Errors,
	})
	router := notify.NewRouter(logger, username, rec, mailer, rt.Toggles)
	mon := monitor.New(logger, gh, cfg, rt, router, username, loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if url := cfg.GitHub.ConnectivityURL; url != "" {
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := gh.CheckConnectivity(probeCtx, url)
		cancel()
		if err != nil {
			return fmt.Errorf("no network connectivity (%s): %w", url, err)
		}
	}

	stopSignals := monitor.InstallSignals(mon.Commands())
	defer stopSignals()

	if cfg.GitHub.SecretsFile != "" {
		watcher, err := monitor.NewSecretsWatcher(logger, cfg.GitHub.SecretsFile, mon.Commands())
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	logger.Info("github-monitor starting",
		zap.String("user", username),
		zap.Duration("interval", cfg.GetCheckInterval()),
		zap.String("timezone", loc.String()))

	err = mon.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("github-monitor stopped")
		return nil
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "github-monitor.yaml", "config file")
	pf.StringVarP(&tokenFlag, "token", "t", "", "GitHub API token (overrides config and GITHUB_TOKEN)")
	pf.StringVar(&secretsFile, "secrets-file", "", "YAML file with github_token/smtp_password, watched for changes")
	pf.StringVar(&timezone, "timezone", "", `timezone for displayed times, e.g. "Europe/Warsaw" ("Auto" = host zone)`)
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	f := rootCmd.Flags()
	f.StringVarP(&intervalStr, "interval", "i", "", `polling interval, e.g. "10m"`)
	f.StringVarP(&csvFile, "csv", "b", "", "CSV record log file (appended, header written once)")
	f.BoolVar(&noLogFile, "no-logfile", false, "do not write the github_monitor_<user>.log file")
	f.BoolVar(&trackRepos, "track-repos", false, "track per-repository stars, forks, watchers and issues")
	f.BoolVarP(&notifyProfile, "notify-profile", "p", false, "email on profile changes")
	f.BoolVarP(&notifyEvents, "notify-events", "s", false, "email on new events")
	f.BoolVar(&notifyRepos, "notify-repos", false, "email on repository changes")
	f.BoolVar(&notifyRepoUpdateDate, "notify-repo-update-date", false, "email on repository update date changes")
	f.BoolVarP(&notifyErrors, "notify-errors", "e", true, "email once per sustained polling outage")

	rootCmd.AddCommand(showCmd, followersCmd, followingsCmd, reposCmd, starredCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
