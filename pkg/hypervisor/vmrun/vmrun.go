// Package vmrun implements the hypervisor interfaces on top of the VMware
// vmrun command-line tool. All operations shell out to vmrun; guest
// operations authenticate with per-command -gu/-gp flags, which is how the
// VIX surface exposes guest logins.
package vmrun

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vmgrader/vmgrader/pkg/hypervisor"
)

// DefaultProduct is the vmrun -T product type used when none is configured.
const DefaultProduct = "ws"

// toolsPollInterval is how often checkToolsState is retried while waiting
// for the guest tooling to come up.
const toolsPollInterval = 3 * time.Second

// Driver opens VMware machines through vmrun.
type Driver struct {
	vmrunPath string
	product   string
}

// Option configures a Driver.
type Option func(*Driver)

// WithProduct sets the vmrun -T product type ("ws", "fusion", "player").
func WithProduct(product string) Option {
	return func(d *Driver) { d.product = product }
}

// WithBinary sets an explicit path to the vmrun binary.
func WithBinary(path string) Option {
	return func(d *Driver) { d.vmrunPath = path }
}

// New creates a vmrun-backed driver. Fails if the vmrun binary cannot be
// found on PATH and no explicit path was given.
func New(opts ...Option) (*Driver, error) {
	d := &Driver{product: DefaultProduct}
	for _, opt := range opts {
		opt(d)
	}
	if d.vmrunPath == "" {
		path, err := exec.LookPath("vmrun")
		if err != nil {
			return nil, fmt.Errorf("locate vmrun binary: %w", err)
		}
		d.vmrunPath = path
	}
	return d, nil
}

// Open returns a Machine for the given .vmx path.
func (d *Driver) Open(ctx context.Context, id string) (hypervisor.Machine, error) {
	if _, err := os.Stat(id); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", hypervisor.ErrNotFound, id, err)
	}
	m := &Machine{driver: d, vmx: id}
	// vmrun has no explicit open; listing snapshots proves the vmx is
	// readable by the tool and fails early on a bad identifier.
	if _, err := m.Snapshots(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", hypervisor.ErrNotFound, id, err)
	}
	return m, nil
}

// Info returns backend metadata.
func (d *Driver) Info() hypervisor.Info {
	return hypervisor.Info{Name: "vmrun", Version: d.product}
}

// Machine is an open VMware VM addressed by its .vmx path.
type Machine struct {
	driver *Driver
	vmx    string
	closed bool
}

// command builds a vmrun invocation: vmrun -T <product> [auth] <op> <vmx> args...
func (m *Machine) command(ctx context.Context, auth []string, op string, args ...string) *exec.Cmd {
	argv := []string{"-T", m.driver.product}
	argv = append(argv, auth...)
	argv = append(argv, op, m.vmx)
	argv = append(argv, args...)
	return exec.CommandContext(ctx, m.driver.vmrunPath, argv...)
}

func (m *Machine) run(ctx context.Context, auth []string, op string, args ...string) (string, error) {
	if m.closed {
		return "", fmt.Errorf("vmrun: machine handle closed")
	}
	cmd := m.command(ctx, auth, op, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("vmrun %s: %w: %s", op, err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}

// Snapshots lists root snapshots, oldest first. vmrun prints a
// "Total snapshots: N" header followed by one name per line.
func (m *Machine) Snapshots(ctx context.Context) ([]string, error) {
	out, err := m.run(ctx, nil, "listSnapshots")
	if err != nil {
		return nil, err
	}
	return parseSnapshotList(out), nil
}

func parseSnapshotList(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Total snapshots:") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// RevertToSnapshot restores the snapshot at the given ordinal.
func (m *Machine) RevertToSnapshot(ctx context.Context, index int) error {
	names, err := m.Snapshots(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(names) {
		return fmt.Errorf("vmrun: snapshot index %d outside [0,%d)", index, len(names))
	}
	if _, err := m.run(ctx, nil, "revertToSnapshot", names[index]); err != nil {
		return err
	}
	// Reverting leaves the VM powered off; bring it back up so guest
	// tooling can start.
	_, err = m.run(ctx, nil, "start", "nogui")
	return err
}

// WaitForTools polls checkToolsState until the guest tooling reports
// running. The wait is unbounded unless the context is cancelled.
func (m *Machine) WaitForTools(ctx context.Context) error {
	for {
		out, err := m.run(ctx, nil, "checkToolsState")
		if err == nil && strings.Contains(out, "running") {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", hypervisor.ErrToolsUnavailable, ctx.Err())
		case <-time.After(toolsPollInterval):
		}
	}
}

// Login validates the credentials against the guest and returns a Guest
// bound to them. vmrun authenticates per command, so validation issues a
// cheap guest operation and maps its auth failure.
func (m *Machine) Login(ctx context.Context, creds hypervisor.Credentials) (hypervisor.Guest, error) {
	g := &Guest{machine: m, auth: []string{"-gu", creds.Username, "-gp", creds.Password}}
	if out, err := m.run(ctx, g.auth, "listProcessesInGuest"); err != nil {
		if strings.Contains(out, "Invalid user name or password") {
			return nil, hypervisor.ErrLoginRejected
		}
		return nil, err
	}
	return g, nil
}

// Close marks the handle unusable. vmrun holds no persistent connection.
func (m *Machine) Close() error {
	m.closed = true
	return nil
}

// Guest performs in-guest operations with a fixed credential pair.
type Guest struct {
	machine *Machine
	auth    []string
}

// CopyToGuest copies one host file into the guest.
func (g *Guest) CopyToGuest(ctx context.Context, hostPath, guestPath string) error {
	_, err := g.machine.run(ctx, g.auth, "copyFileFromHostToGuest", hostPath, guestPath)
	return err
}

// CopyFromGuest copies one guest file to the host.
func (g *Guest) CopyFromGuest(ctx context.Context, guestPath, hostPath string) error {
	_, err := g.machine.run(ctx, g.auth, "copyFileFromGuestToHost", guestPath, hostPath)
	return err
}

// Run executes a program in the guest and blocks until it exits.
func (g *Guest) Run(ctx context.Context, program string, args ...string) error {
	argv := append([]string{program}, args...)
	_, err := g.machine.run(ctx, g.auth, "runProgramInGuest", argv...)
	return err
}

// Close releases the guest session. Credentials are per command, so there
// is nothing to tear down on the vmrun side.
func (g *Guest) Close() error { return nil }

var _ hypervisor.Driver = (*Driver)(nil)
var _ hypervisor.Machine = (*Machine)(nil)
var _ hypervisor.Guest = (*Guest)(nil)
