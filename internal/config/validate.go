package config

import (
	"errors"
	"fmt"
)

// Validate checks the schema and fails fast on missing or malformed
// entries, before any VM is touched.
func (c *Config) Validate() error {
	var errs []error

	if c.Host.VMXPath == "" {
		errs = append(errs, errors.New("host.vmx_path is required"))
	}
	if c.Guest.Username == "" {
		errs = append(errs, errors.New("guest.username is required"))
	}
	if c.Guest.Shell == "" {
		errs = append(errs, errors.New("guest.shell is required"))
	}

	switch c.Guest.Transport {
	case "tools":
	case "ssh":
		if c.Guest.SSHAddr == "" {
			errs = append(errs, errors.New("guest.ssh_addr is required when guest.transport is ssh"))
		}
	default:
		errs = append(errs, fmt.Errorf("guest.transport must be tools or ssh, got %q", c.Guest.Transport))
	}

	if c.Guest.RootPath.NativeStyle == "" {
		errs = append(errs, errors.New("guest.root_path.native_style is required"))
	}
	if c.Guest.RootPath.ShellStyle == "" {
		errs = append(errs, errors.New("guest.root_path.shell_style is required"))
	}

	if len(c.Tests) == 0 {
		errs = append(errs, errors.New("tests must contain at least one stage"))
	}
	for i, t := range c.Tests {
		if t.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("tests[%d].timeout must be positive, got %d", i, t.Timeout))
		}
		if len(t.Script) == 0 {
			errs = append(errs, fmt.Errorf("tests[%d].script must name at least one script", i))
		}
	}

	if c.KmEnable && c.KmListenAddr == "" {
		errs = append(errs, errors.New("km_listen_addr is required when km_enable is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
