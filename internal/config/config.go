// Package config provides configuration management for vmgrader.
package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full campaign configuration, loaded from a YAML file with
// VMGRADER_* environment overrides and validated before use.
type Config struct {
	Host         Host   `mapstructure:"host"`
	Guest        Guest  `mapstructure:"guest"`
	Tests        []Test `mapstructure:"tests"`
	KmEnable     bool   `mapstructure:"km_enable"`
	KmListenAddr string `mapstructure:"km_listen_addr"`
}

// Host describes the machine driving the virtualization layer.
type Host struct {
	// VMXPath is the VM identifier handed to the hypervisor driver.
	VMXPath string `mapstructure:"vmx_path"`

	// Root is the base directory; relative jobs/scripts paths resolve
	// against it.
	Root string `mapstructure:"vmchecker_root"`

	// JobsPath holds the submission bundle: stage inputs are read from it
	// and stage outputs are collected back into it.
	JobsPath string `mapstructure:"jobs_path"`

	// ScriptsPath holds the grading scripts.
	ScriptsPath string `mapstructure:"scripts_path"`
}

// Guest describes how to authenticate into and address the guest OS.
type Guest struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Shell is the login shell every script runs through.
	Shell string `mapstructure:"shell"`

	// Transport selects the in-guest channel: "tools" or "ssh".
	Transport string `mapstructure:"transport"`

	// SSHAddr is the guest's host:port, required when Transport is "ssh".
	SSHAddr string `mapstructure:"ssh_addr"`

	RootPath RootPath `mapstructure:"root_path"`
}

// RootPath is the guest working directory in its three syntaxes.
type RootPath struct {
	NativeStyle string `mapstructure:"native_style"`
	ShellStyle  string `mapstructure:"shell_style"`
	Separator   string `mapstructure:"separator"`
}

// Test configures one stage: ordered relative paths plus a timeout.
type Test struct {
	Input   []string `mapstructure:"input"`
	Script  []string `mapstructure:"script"`
	Output  []string `mapstructure:"output"`
	Timeout int      `mapstructure:"timeout"` // seconds
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("host.jobs_path", "jobs")
	v.SetDefault("host.scripts_path", "scripts")
	v.SetDefault("guest.shell", "/bin/bash")
	v.SetDefault("guest.transport", "tools")
	v.SetDefault("guest.root_path.separator", "/")
	v.SetDefault("km_enable", false)
	v.SetDefault("km_listen_addr", "0.0.0.0:6666")

	// Environment overrides: VMGRADER_HOST_VMX_PATH, VMGRADER_KM_ENABLE, ...
	v.SetEnvPrefix("VMGRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return unmarshal(v)
}

// LoadYAML reads and validates configuration from raw YAML bytes.
func LoadYAML(data []byte) (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// JobsDir returns the absolute jobs directory.
func (c *Config) JobsDir() string {
	return resolve(c.Host.Root, c.Host.JobsPath)
}

// ScriptsDir returns the absolute scripts directory.
func (c *Config) ScriptsDir() string {
	return resolve(c.Host.Root, c.Host.ScriptsPath)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
