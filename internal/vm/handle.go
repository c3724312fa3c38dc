// Package vm drives one virtual machine through the campaign lifecycle:
// connect, snapshot revert, guest login, file transfer, and bounded remote
// execution. It sits between the campaign controller and the hypervisor
// backend.
package vm

import (
	"context"
	"fmt"

	"github.com/vmgrader/vmgrader/pkg/hypervisor"
)

// Handle is exclusive ownership of one host+VM reference for the duration
// of a campaign. It is unusable after Close.
type Handle struct {
	machine hypervisor.Machine
	id      string
	closed  bool
}

// Connect opens a handle to the VM named by id. Single attempt, no retry;
// failure wraps ErrConnect.
func Connect(ctx context.Context, driver hypervisor.Driver, id string) (*Handle, error) {
	machine, err := driver.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, id, err)
	}
	return &Handle{machine: machine, id: id}, nil
}

// ID returns the identifier the handle was opened with.
func (h *Handle) ID() string { return h.id }

// Revert restores the snapshot at the given zero-based ordinal. The
// snapshot count is read live from the handle; an ordinal outside
// [0, count) fails with ErrSnapshotOutOfRange.
func (h *Handle) Revert(ctx context.Context, index int) error {
	if h.closed {
		return fmt.Errorf("vm: handle closed")
	}
	snapshots, err := h.machine.Snapshots(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if index < 0 || index >= len(snapshots) {
		return fmt.Errorf("%w: index %d, count %d", ErrSnapshotOutOfRange, index, len(snapshots))
	}
	if err := h.machine.RevertToSnapshot(ctx, index); err != nil {
		return fmt.Errorf("revert to snapshot %d: %w", index, err)
	}
	return nil
}

// RevertLatest restores the most-recently-taken snapshot (count-1), the
// canonical clean baseline for a campaign.
func (h *Handle) RevertLatest(ctx context.Context) error {
	if h.closed {
		return fmt.Errorf("vm: handle closed")
	}
	snapshots, err := h.machine.Snapshots(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("%w: no snapshots", ErrSnapshotOutOfRange)
	}
	if err := h.machine.RevertToSnapshot(ctx, len(snapshots)-1); err != nil {
		return fmt.Errorf("revert to snapshot %d: %w", len(snapshots)-1, err)
	}
	return nil
}

// Close tears down the handle regardless of campaign outcome.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.machine.Close()
}
