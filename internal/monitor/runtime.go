// Package monitor runs the polling loop: fetch, diff against the
// snapshot, route changes, sleep, repeat. Runtime settings are swappable
// mid-run through commands delivered on a channel and applied between
// cycles by the loop goroutine itself.
package monitor

import (
	"sync/atomic"
	"time"

	"github.com/misiektoja/github-monitor/internal/notify"
)

// IntervalStep is how much one interval command moves the polling
// interval.
const IntervalStep = time.Minute

// Settings is the mutable part of the monitor's behavior. The struct is
// replaced wholesale on every change; readers always see a consistent
// combination.
type Settings struct {
	Interval       time.Duration
	Profile        bool
	Events         bool
	Repos          bool
	RepoUpdateDate bool
	Errors         bool
}

// Runtime publishes the current Settings. Only the loop goroutine writes;
// any goroutine may read.
type Runtime struct {
	p atomic.Pointer[Settings]
}

// NewRuntime starts with the given settings.
func NewRuntime(s Settings) *Runtime {
	r := &Runtime{}
	r.p.Store(&s)
	return r
}

// Load returns the current settings.
func (r *Runtime) Load() Settings {
	return *r.p.Load()
}

// Store replaces the settings.
func (r *Runtime) Store(s Settings) {
	r.p.Store(&s)
}

// Toggles projects the email routing state for the notification router.
func (r *Runtime) Toggles() notify.Toggles {
	s := r.Load()
	return notify.Toggles{
		Profile:        s.Profile,
		Events:         s.Events,
		Repos:          s.Repos,
		RepoUpdateDate: s.RepoUpdateDate,
	}
}
