package pipeline

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WatcherErrorClass is the self-heal classification of a raw watcher error.
type WatcherErrorClass string

const (
	ErrorClassEnvironment WatcherErrorClass = "environment"
	ErrorClassResource    WatcherErrorClass = "resource"
	ErrorClassUnknown     WatcherErrorClass = "unknown"
)

var environmentErrnos = map[syscall.Errno]struct{}{
	syscall.ENOTSUP: {}, syscall.EPERM: {}, syscall.EACCES: {},
}

var resourceErrnos = map[syscall.Errno]struct{}{
	syscall.EMFILE: {}, syscall.ENFILE: {}, syscall.ENOSPC: {}, syscall.ENOMEM: {},
}

// Classify inspects err and returns which self-heal path applies.
func Classify(err error) WatcherErrorClass {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if _, ok := environmentErrnos[errno]; ok {
			return ErrorClassEnvironment
		}
		if _, ok := resourceErrnos[errno]; ok {
			return ErrorClassResource
		}
	}
	return ErrorClassUnknown
}

// HealState is the watcher recovery state machine's in-process status.
type HealState string

const (
	HealStateHealthy  HealState = "healthy"
	HealStateRecovering HealState = "recovering"
	HealStatePolling  HealState = "polling"
	HealStateError    HealState = "error"
)

// maxUnknownRetries bounds how many times an unclassified watcher error is
// retried before the state machine gives up and reports an error state.
const maxUnknownRetries = 5

// resourceBackoff returns the exponential backoff schedule for resource
// errors: 1s doubling to 60s, max 5 attempts.
func resourceBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.Multiplier = 2
	b.MaxInterval = 60 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, maxUnknownRetries)
}

// SelfHeal drives the watcher recovery state machine. Environment errors
// switch straight to polling, where the watcher falls back to a full
// rescan on a polling interval; resource errors retry restart with backoff
// and switch to polling once the retries run out; unknown errors try
// restart once per error and enter the error state after
// maxUnknownRetries.
type SelfHeal struct {
	state   HealState
	retries int
	dirty   bool
}

// NewSelfHeal returns a healthy, non-dirty state machine.
func NewSelfHeal() *SelfHeal {
	return &SelfHeal{state: HealStateHealthy}
}

func (s *SelfHeal) State() HealState { return s.state }
func (s *SelfHeal) Dirty() bool      { return s.dirty }

// HandleError classifies err and drives the state machine forward one
// step. restart is called to attempt re-establishing the watcher
// (resource and unknown paths; the environment path switches to polling
// without calling it); it returning nil means recovery succeeded.
func (s *SelfHeal) HandleError(ctx context.Context, err error, restart func(ctx context.Context) error) {
	s.dirty = true
	class := Classify(err)

	switch class {
	case ErrorClassEnvironment:
		s.state = HealStatePolling
		return
	case ErrorClassResource:
		s.state = HealStateRecovering
		b := resourceBackoff()
		for {
			d := b.NextBackOff()
			if d == backoff.Stop {
				s.state = HealStatePolling
				return
			}
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return
			}
			if restart(ctx) == nil {
				s.Recovered()
				return
			}
		}
	default:
		s.state = HealStateRecovering
		s.retries++
		if s.retries > maxUnknownRetries {
			s.state = HealStateError
			return
		}
		if restart(ctx) == nil {
			s.Recovered()
		}
	}
}

// Recovered resets the state machine after a successful restart and full
// rescan reconciliation. Polling-fallback is sticky — callers must not
// call Recovered to leave HealStatePolling.
func (s *SelfHeal) Recovered() {
	s.state = HealStateHealthy
	s.retries = 0
	s.dirty = false
}
