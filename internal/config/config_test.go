package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleParsesAndValidates(t *testing.T) {
	cfg, err := Example()
	require.NoError(t, err)

	assert.Equal(t, "/var/vmgrader/vms/grader/grader.vmx", cfg.Host.VMXPath)
	assert.Equal(t, "grader", cfg.Guest.Username)
	require.Len(t, cfg.Tests, 2)
	assert.Equal(t, []string{"build.sh"}, cfg.Tests[0].Script)
	assert.Equal(t, 300, cfg.Tests[1].Timeout)
	assert.False(t, cfg.KmEnable)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campaign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ExampleYAML), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "grader", cfg.Guest.Username)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := LoadYAML([]byte(`
host:
  vmx_path: /vm/a.vmx
  vmchecker_root: /opt/vmgrader
guest:
  username: u
  password: p
  root_path:
    native_style: /g/
    shell_style: /g/
tests:
  - script: [run.sh]
    timeout: 10
`))
	require.NoError(t, err)

	assert.Equal(t, "/bin/bash", cfg.Guest.Shell)
	assert.Equal(t, "tools", cfg.Guest.Transport)
	assert.Equal(t, "/", cfg.Guest.RootPath.Separator)
	assert.Equal(t, "jobs", cfg.Host.JobsPath)
	assert.Equal(t, "0.0.0.0:6666", cfg.KmListenAddr)
}

func TestDirResolution(t *testing.T) {
	cfg := &Config{Host: Host{
		Root:        "/opt/vmgrader",
		JobsPath:    "jobs",
		ScriptsPath: "/srv/scripts",
	}}

	assert.Equal(t, filepath.Join("/opt/vmgrader", "jobs"), cfg.JobsDir())
	assert.Equal(t, "/srv/scripts", cfg.ScriptsDir(), "absolute paths pass through")
}

func TestMalformedYAMLFailsFast(t *testing.T) {
	_, err := LoadYAML([]byte("host: [not a map"))
	require.Error(t, err)
}
