package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmgrader/vmgrader/internal/vm"
)

// Stage is one copy-in + run + copy-out unit within a campaign. All paths
// are relative: inputs against the jobs dir, scripts against the scripts
// dir, outputs collected back into the jobs dir.
type Stage struct {
	Inputs  []string
	Scripts []string
	Outputs []string
	Timeout time.Duration
}

// Runner executes single stages against one guest session.
type Runner struct {
	session *vm.Session
	bridge  *vm.Bridge
	shell   string
	log     *slog.Logger
}

// NewRunner returns a stage runner bound to a session and transfer bridge.
// shell is the guest login shell used for every script invocation.
func NewRunner(session *vm.Session, bridge *vm.Bridge, shell string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{session: session, bridge: bridge, shell: shell, log: log}
}

// RunStage performs a stage in strict order: copy in inputs, copy in
// scripts, then run each script bounded by the stage timeout. Declared
// outputs are copied out after every script, regardless of how the script
// ended, so partial logs of a timed-out run are still collected. The first
// timeout aborts the remaining scripts and fails the stage.
//
// The bool reports whether every script completed within its timeout. The
// error is non-nil only when the transfer transport fails outright.
func (r *Runner) RunStage(ctx context.Context, jobsDir, scriptsDir string, stage Stage) (bool, error) {
	if err := r.bridge.CopyIn(ctx, jobsDir, stage.Inputs); err != nil {
		return false, fmt.Errorf("copy in stage inputs: %w", err)
	}
	if err := r.bridge.CopyIn(ctx, scriptsDir, stage.Scripts); err != nil {
		return false, fmt.Errorf("copy in stage scripts: %w", err)
	}

	for _, script := range stage.Scripts {
		status := r.session.RunWithTimeout(r.shell, executeCommand(r.bridge.Root(), script), stage.Timeout)
		r.bridge.CopyOut(ctx, jobsDir, stage.Outputs)
		if status == vm.StatusTimedOut {
			r.log.Warn("stage script timed out", "script", script, "timeout", stage.Timeout)
			return false, nil
		}
		r.log.Info("stage script completed", "script", script)
	}
	return true, nil
}

// executeCommand builds the single shell invocation that grants execute
// permission and then runs the script, joined by a command separator.
func executeCommand(root vm.GuestRoot, script string) string {
	path := root.ShellPath(script)
	return fmt.Sprintf("chmod +x %s; %s", path, path)
}
