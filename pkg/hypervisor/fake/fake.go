// Package fake provides a configurable in-memory hypervisor backend for
// contract tests. Behavior is scripted per operation through struct fields.
package fake

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vmgrader/vmgrader/pkg/hypervisor"
)

// Driver is a scripted fake backend.
type Driver struct {
	OpenErr error
	Machine *Machine

	mu     sync.Mutex
	opened []string
}

// New returns a Driver with a single default machine that has one snapshot
// and a well-behaved guest.
func New() *Driver {
	return &Driver{
		Machine: &Machine{
			SnapshotNames: []string{"baseline"},
			Guest:         &Guest{},
		},
	}
}

func (d *Driver) Open(ctx context.Context, id string) (hypervisor.Machine, error) {
	d.mu.Lock()
	d.opened = append(d.opened, id)
	d.mu.Unlock()
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	return d.Machine, nil
}

func (d *Driver) Info() hypervisor.Info {
	return hypervisor.Info{Name: "fake"}
}

// Opened returns the identifiers passed to Open, in order.
func (d *Driver) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.opened))
	copy(out, d.opened)
	return out
}

// Machine is a scripted fake VM.
type Machine struct {
	SnapshotNames []string
	SnapshotsErr  error
	RevertErr     error
	ToolsErr      error
	LoginErr      error
	Guest         *Guest

	mu       sync.Mutex
	calls    []string
	reverted []int
	closed   bool
}

func (m *Machine) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// Calls returns the operations performed on the machine, in order.
func (m *Machine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reverted returns the snapshot indices passed to RevertToSnapshot.
func (m *Machine) Reverted() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.reverted))
	copy(out, m.reverted)
	return out
}

// Closed reports whether Close was called.
func (m *Machine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Machine) Snapshots(ctx context.Context) ([]string, error) {
	m.record("snapshots")
	if m.SnapshotsErr != nil {
		return nil, m.SnapshotsErr
	}
	out := make([]string, len(m.SnapshotNames))
	copy(out, m.SnapshotNames)
	return out, nil
}

func (m *Machine) RevertToSnapshot(ctx context.Context, index int) error {
	m.record(fmt.Sprintf("revert:%d", index))
	m.mu.Lock()
	m.reverted = append(m.reverted, index)
	m.mu.Unlock()
	return m.RevertErr
}

func (m *Machine) WaitForTools(ctx context.Context) error {
	m.record("wait-tools")
	if m.ToolsErr != nil {
		return m.ToolsErr
	}
	return ctx.Err()
}

func (m *Machine) Login(ctx context.Context, creds hypervisor.Credentials) (hypervisor.Guest, error) {
	m.record("login:" + creds.Username)
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	return m.Guest, nil
}

func (m *Machine) Close() error {
	m.record("close")
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Guest is a scripted fake guest session.
//
// RunFunc, when set, overrides RunDelay/RunErr and receives the full
// program invocation; returning an error simulates a failed issue.
type Guest struct {
	RunDelay    time.Duration
	RunErr      error
	RunFunc     func(program string, args []string) error
	CopyToErr   error
	CopyFromErr error

	// MaterializeOnCopyOut makes CopyFromGuest create the host file with
	// placeholder content, mimicking a successful transfer.
	MaterializeOnCopyOut bool

	mu     sync.Mutex
	calls  []string
	closed bool
}

func (g *Guest) record(call string) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
}

// Calls returns guest operations in order: "copy-in:<guest>",
// "copy-out:<guest>", "run:<program arg...>".
func (g *Guest) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

// Closed reports whether Close was called.
func (g *Guest) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *Guest) CopyToGuest(ctx context.Context, hostPath, guestPath string) error {
	g.record("copy-in:" + guestPath)
	return g.CopyToErr
}

func (g *Guest) CopyFromGuest(ctx context.Context, guestPath, hostPath string) error {
	g.record("copy-out:" + guestPath)
	if g.CopyFromErr != nil {
		return g.CopyFromErr
	}
	if g.MaterializeOnCopyOut {
		return os.WriteFile(hostPath, []byte("fake output\n"), 0644)
	}
	return nil
}

func (g *Guest) Run(ctx context.Context, program string, args ...string) error {
	call := program
	for _, a := range args {
		call += " " + a
	}
	g.record("run:" + call)
	if g.RunFunc != nil {
		return g.RunFunc(program, args)
	}
	if g.RunDelay > 0 {
		time.Sleep(g.RunDelay)
	}
	return g.RunErr
}

func (g *Guest) Close() error {
	g.record("close")
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	return nil
}

var _ hypervisor.Driver = (*Driver)(nil)
var _ hypervisor.Machine = (*Machine)(nil)
var _ hypervisor.Guest = (*Guest)(nil)
