package vm

import (
	"context"
	"time"
)

// Status is the outcome of one bounded remote execution.
type Status int

const (
	// StatusCompleted means the remote command returned within its timeout.
	StatusCompleted Status = iota
	// StatusTimedOut means the wait expired, or issuing/awaiting the
	// remote call failed. The remote side-effect may still be running.
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// RunWithTimeout executes cmdline through a login shell in the guest and
// waits up to timeout for it to return. The login shell keeps environment
// setup consistent across guest operating systems.
//
// The remote call is issued on its own goroutine; when the wait expires
// the executor stops waiting but does not stop the worker or the remote
// process, so a stuck backend call leaks the worker for the process
// lifetime. Any error while issuing or awaiting the call is folded into
// StatusTimedOut (fail-safe-to-abort).
func (s *Session) RunWithTimeout(shell, cmdline string, timeout time.Duration) Status {
	done := make(chan error, 1)
	go func() {
		// Background, not a deadline context: the backend call cannot be
		// cancelled mid-flight, only abandoned.
		done <- s.guest.Run(context.Background(), shell, "-l", "-c", cmdline)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Warn("remote command failed, treating as timeout", "cmd", cmdline, "error", err)
			return StatusTimedOut
		}
		return StatusCompleted
	case <-time.After(timeout):
		s.log.Warn("remote command exceeded timeout, abandoning worker",
			"cmd", cmdline, "timeout", timeout)
		go func() {
			err := <-done
			s.log.Warn("abandoned worker returned", "cmd", cmdline, "error", err)
		}()
		return StatusTimedOut
	}
}
