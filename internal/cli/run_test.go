package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmgrader/vmgrader/internal/config"
	"github.com/vmgrader/vmgrader/internal/vm"
	"github.com/vmgrader/vmgrader/pkg/hypervisor/fake"
)

func TestCampaignFromConfig(t *testing.T) {
	cfg, err := config.Example()
	require.NoError(t, err)

	c := campaignFromConfig(cfg)

	require.Len(t, c.Stages, 2)
	assert.Equal(t, []string{"submission.zip", "tests.zip"}, c.Stages[0].Inputs)
	assert.Equal(t, []string{"build.sh"}, c.Stages[0].Scripts)
	assert.Equal(t, 120*time.Second, c.Stages[0].Timeout)
	assert.Equal(t, 300*time.Second, c.Stages[1].Timeout)
	assert.False(t, c.KernelMessages)
}

func TestControllerConfigMapping(t *testing.T) {
	cfg, err := config.Example()
	require.NoError(t, err)

	driver := fake.New()
	cc := controllerConfig(cfg, driver, nil, nil, nil)

	assert.Equal(t, cfg.Host.VMXPath, cc.VMID)
	assert.Equal(t, cfg.JobsDir(), cc.JobsDir)
	assert.Equal(t, cfg.ScriptsDir(), cc.ScriptsDir)
	assert.Equal(t, "/bin/bash", cc.Shell)
	assert.Equal(t, "grader", cc.Session.Credentials.Username)
	assert.Equal(t, vm.TransportTools, cc.Session.Transport)
	assert.Equal(t, "/home/grader/", cc.GuestRoot.Native)
}

func TestLoadRunConfigRequiresFileOrExample(t *testing.T) {
	runExample = false
	_, err := loadRunConfig(nil)
	require.Error(t, err)
}

func TestLoadRunConfigExample(t *testing.T) {
	runExample = true
	defer func() { runExample = false }()

	cfg, err := loadRunConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "grader", cfg.Guest.Username)
}
