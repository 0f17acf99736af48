package monitor

import (
	"os"
	"os/signal"
	"syscall"
)

// Command asks the loop to change a runtime setting. Commands are queued
// on a channel and applied by the loop goroutine between waits, never
// concurrently with a cycle.
type Command int

const (
	CmdToggleProfileEmails Command = iota
	CmdToggleEventEmails
	CmdToggleRepoEmails
	CmdToggleRepoUpdateDateEmails
	CmdIncreaseInterval
	CmdDecreaseInterval
	CmdReloadSecrets
)

func (c Command) String() string {
	switch c {
	case CmdToggleProfileEmails:
		return "toggle profile emails"
	case CmdToggleEventEmails:
		return "toggle event emails"
	case CmdToggleRepoEmails:
		return "toggle repo emails"
	case CmdToggleRepoUpdateDateEmails:
		return "toggle repo update date emails"
	case CmdIncreaseInterval:
		return "increase interval"
	case CmdDecreaseInterval:
		return "decrease interval"
	case CmdReloadSecrets:
		return "reload secrets"
	default:
		return "unknown"
	}
}

// InstallSignals translates process signals into commands:
//
//	SIGUSR1  toggle profile change emails
//	SIGUSR2  toggle event emails
//	SIGCONT  toggle repo change emails
//	SIGPIPE  toggle repo update date emails
//	SIGTRAP  increase the polling interval by one step
//	SIGABRT  decrease the polling interval by one step
//	SIGHUP   reload the secrets file
//
// The returned stop function detaches the handlers.
func InstallSignals(cmds chan<- Command) (stop func()) {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh,
		syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGCONT, syscall.SIGPIPE,
		syscall.SIGTRAP, syscall.SIGABRT, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				var cmd Command
				switch sig {
				case syscall.SIGUSR1:
					cmd = CmdToggleProfileEmails
				case syscall.SIGUSR2:
					cmd = CmdToggleEventEmails
				case syscall.SIGCONT:
					cmd = CmdToggleRepoEmails
				case syscall.SIGPIPE:
					cmd = CmdToggleRepoUpdateDateEmails
				case syscall.SIGTRAP:
					cmd = CmdIncreaseInterval
				case syscall.SIGABRT:
					cmd = CmdDecreaseInterval
				case syscall.SIGHUP:
					cmd = CmdReloadSecrets
				default:
					continue
				}
				select {
				case cmds <- cmd:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
