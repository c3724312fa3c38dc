package campaign

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmgrader/vmgrader/internal/testutil"
	"github.com/vmgrader/vmgrader/internal/vm"
	"github.com/vmgrader/vmgrader/pkg/hypervisor/fake"
)

func newTestRunner(guest *fake.Guest) *Runner {
	session := vm.NewSession(guest, testutil.DiscardLogger())
	bridge := vm.NewBridge(session, testutil.GuestRoot())
	return NewRunner(session, bridge, "/bin/bash", testutil.DiscardLogger())
}

func TestRunStageStrictOrdering(t *testing.T) {
	jobsDir, scriptsDir := testutil.CampaignDirs(t,
		[]string{"submission.zip"}, []string{"build.sh"})

	guest := &fake.Guest{}
	runner := newTestRunner(guest)

	stage := Stage{
		Inputs:  []string{"submission.zip"},
		Scripts: []string{"build.sh"},
		Outputs: []string{"build.log"},
		Timeout: time.Second,
	}
	passed, err := runner.RunStage(context.Background(), jobsDir, scriptsDir, stage)
	require.NoError(t, err)
	assert.True(t, passed)

	calls := guest.Calls()
	require.Equal(t, []string{
		"copy-in:/grading/submission.zip",
		"copy-in:/grading/build.sh",
		"run:/bin/bash -l -c chmod +x /grading/build.sh; /grading/build.sh",
		"copy-out:/grading/build.log",
	}, calls)
}

func TestRunStageMultipleScriptsEachCollectOutputs(t *testing.T) {
	jobsDir, scriptsDir := testutil.CampaignDirs(t,
		nil, []string{"first.sh", "second.sh"})

	guest := &fake.Guest{}
	runner := newTestRunner(guest)

	stage := Stage{
		Scripts: []string{"first.sh", "second.sh"},
		Outputs: []string{"out.log"},
		Timeout: time.Second,
	}
	passed, err := runner.RunStage(context.Background(), jobsDir, scriptsDir, stage)
	require.NoError(t, err)
	assert.True(t, passed)

	var runs, copyOuts int
	for _, call := range guest.Calls() {
		switch {
		case strings.HasPrefix(call, "run:"):
			runs++
		case strings.HasPrefix(call, "copy-out:"):
			copyOuts++
		}
	}
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, copyOuts, "outputs collected after every script")
}

func TestRunStageTimeoutStillCollectsOutputs(t *testing.T) {
	jobsDir, scriptsDir := testutil.CampaignDirs(t,
		nil, []string{"hang.sh", "never.sh"})

	guest := &fake.Guest{RunDelay: 200 * time.Millisecond}
	runner := newTestRunner(guest)

	stage := Stage{
		Scripts: []string{"hang.sh", "never.sh"},
		Outputs: []string{"partial.log"},
		Timeout: 30 * time.Millisecond,
	}
	passed, err := runner.RunStage(context.Background(), jobsDir, scriptsDir, stage)
	require.NoError(t, err)
	assert.False(t, passed)

	calls := guest.Calls()
	assert.Contains(t, calls, "copy-out:/grading/partial.log",
		"partial outputs are needed to diagnose the timeout")
	for _, call := range calls {
		assert.NotContains(t, call, "never.sh", "remaining scripts skipped after a timeout")
	}
}

func TestRunStageTransportFailureIsFatal(t *testing.T) {
	jobsDir, scriptsDir := testutil.CampaignDirs(t,
		[]string{"input"}, []string{"run.sh"})

	guest := &fake.Guest{CopyToErr: errors.New("transport gone")}
	runner := newTestRunner(guest)

	stage := Stage{
		Inputs:  []string{"input"},
		Scripts: []string{"run.sh"},
		Timeout: time.Second,
	}
	_, err := runner.RunStage(context.Background(), jobsDir, scriptsDir, stage)
	require.Error(t, err)
}

func TestExecuteCommandChmodThenRun(t *testing.T) {
	root := testutil.GuestRoot()
	cmd := executeCommand(root, "grade.sh")
	assert.Equal(t, "chmod +x /grading/grade.sh; /grading/grade.sh", cmd)
}
