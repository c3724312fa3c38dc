// Package campaign runs an ordered list of test stages against one
// reverted virtual machine, fail-fast on the first stage failure.
package campaign

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vmgrader/vmgrader/internal/kmsg"
	"github.com/vmgrader/vmgrader/internal/timing"
	"github.com/vmgrader/vmgrader/internal/vm"
	"github.com/vmgrader/vmgrader/pkg/hypervisor"
)

// State represents the campaign lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnected
	StateReverted
	StateLoggedIn
	StateRunning
	StateAborted   // terminal
	StateCompleted // terminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateReverted:
		return "reverted"
	case StateLoggedIn:
		return "logged-in"
	case StateRunning:
		return "running"
	case StateAborted:
		return "aborted"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Campaign is one full revert + execute + collect run for one submission
// bundle: an ordered stage sequence plus the kernel-monitor flag.
// Read-only once constructed, never persisted beyond the run.
type Campaign struct {
	Stages         []Stage
	KernelMessages bool
}

// StageResult records the outcome of one attempted stage.
type StageResult struct {
	Index  int
	Passed bool
}

// Outcome aggregates the results of a campaign run. Stages holds only the
// attempted stages, in order; a fail-fast abort leaves the rest unlisted.
type Outcome struct {
	Stages []StageResult
	Passed bool
}

// Config wires a Controller. The kernel-message listener, when present, is
// owned by the controller for exactly one run; there is no process-wide
// listener state, so two concurrent campaigns need two listeners.
type Config struct {
	Driver     hypervisor.Driver
	VMID       string
	JobsDir    string
	ScriptsDir string
	GuestRoot  vm.GuestRoot
	Shell      string
	Session    vm.SessionConfig
	Listener   kmsg.Listener // optional
	Timer      *timing.Timer // optional
	Logger     *slog.Logger
}

// Controller drives one campaign through its lifecycle:
// Idle -> Connected -> Reverted -> LoggedIn -> Running(i) -> Aborted|Completed.
type Controller struct {
	cfg Config
	log *slog.Logger

	mu    sync.RWMutex
	state State
	stage int
}

// New creates a campaign controller.
func New(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{cfg: cfg, log: log, state: StateIdle}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// StageIndex returns the index of the stage currently (or last) running.
func (c *Controller) StageIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stage
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) setRunning(stage int) {
	c.mu.Lock()
	c.state = StateRunning
	c.stage = stage
	c.mu.Unlock()
}

func (c *Controller) mark(phase string) {
	if c.cfg.Timer != nil {
		c.cfg.Timer.Mark(phase)
	}
}

// Run executes one campaign end to end. The VM handle and guest session
// are created up front and torn down when Run returns, whatever the
// outcome. Stage failures abort the remaining stages (no retry, no
// re-revert mid-run) and surface in the Outcome; only connect, revert,
// login, and transport failures return an error.
func (c *Controller) Run(ctx context.Context, campaign Campaign) (*Outcome, error) {
	outcome := &Outcome{}

	handle, err := vm.Connect(ctx, c.cfg.Driver, c.cfg.VMID)
	if err != nil {
		c.setState(StateAborted)
		return outcome, err
	}
	defer handle.Close()
	c.setState(StateConnected)
	c.mark("connect")

	if err := handle.RevertLatest(ctx); err != nil {
		c.setState(StateAborted)
		return outcome, err
	}
	c.setState(StateReverted)
	c.mark("revert")

	session, err := vm.Establish(ctx, handle, c.cfg.Session, c.log)
	if err != nil {
		c.setState(StateAborted)
		return outcome, err
	}
	defer session.Close()
	c.setState(StateLoggedIn)
	c.mark("login")

	bridge := vm.NewBridge(session, c.cfg.GuestRoot)
	runner := NewRunner(session, bridge, c.cfg.Shell, c.log)

	if campaign.KernelMessages && c.cfg.Listener != nil {
		// Best-effort bracketing: start before the first stage, stop
		// after the last attempted one, even on abort.
		c.cfg.Listener.Start()
		defer c.cfg.Listener.Stop()
	}

	for i, stage := range campaign.Stages {
		c.setRunning(i)
		c.log.Info("running stage", "stage", i, "scripts", stage.Scripts)

		passed, err := runner.RunStage(ctx, c.cfg.JobsDir, c.cfg.ScriptsDir, stage)
		c.markStage(i)
		if err != nil {
			c.setState(StateAborted)
			return outcome, err
		}
		outcome.Stages = append(outcome.Stages, StageResult{Index: i, Passed: passed})
		if !passed {
			c.log.Warn("stage failed, aborting remaining stages", "stage", i)
			c.setState(StateAborted)
			return outcome, nil
		}
	}

	outcome.Passed = true
	c.setState(StateCompleted)
	c.log.Info("campaign completed", "stages", len(campaign.Stages))
	return outcome, nil
}

func (c *Controller) markStage(i int) {
	if c.cfg.Timer != nil {
		c.cfg.Timer.MarkStage(i)
	}
}
