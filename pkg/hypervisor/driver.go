// Package hypervisor provides a unified interface for driving a virtual
// machine through snapshot, guest-tools, and in-guest operations across
// different virtualization backends (VMware vmrun, SSH guest transport).
package hypervisor

import "context"

// Driver opens machines by identifier.
// Backend implementations (vmrun, fake) satisfy this interface.
type Driver interface {
	// Open locates a VM by identifier (e.g. a .vmx path) and returns a
	// handle to it. Fails with ErrNotFound if the identifier cannot be
	// located or opened. Single attempt; callers own retry policy.
	Open(ctx context.Context, id string) (Machine, error)

	// Info returns backend metadata.
	Info() Info
}

// Machine is an open VM. Exactly one campaign owns a Machine at a time;
// it is not safe for concurrent use.
type Machine interface {
	// Snapshots lists the machine's root snapshots, oldest first.
	Snapshots(ctx context.Context) ([]string, error)

	// RevertToSnapshot restores the snapshot at the given zero-based
	// ordinal in the Snapshots order.
	RevertToSnapshot(ctx context.Context, index int) error

	// WaitForTools blocks until guest tooling is ready to service
	// in-guest operations. The wait is bounded only by the backend.
	WaitForTools(ctx context.Context) error

	// Login authenticates into the guest OS. Fails with ErrLoginRejected
	// when the guest refuses the credentials.
	Login(ctx context.Context, creds Credentials) (Guest, error)

	// Close releases the machine handle. The Machine and any Guest
	// obtained from it are unusable afterwards.
	Close() error
}

// Guest is an authenticated session inside the guest OS.
type Guest interface {
	// CopyToGuest copies a single host file to a guest-native path.
	CopyToGuest(ctx context.Context, hostPath, guestPath string) error

	// CopyFromGuest copies a single guest file to a host path.
	CopyFromGuest(ctx context.Context, guestPath, hostPath string) error

	// Run executes a program in the guest and blocks until it exits.
	// Backends are not required to support cancellation once the program
	// has been issued; callers that need a bounded wait must wait on
	// their own clock.
	Run(ctx context.Context, program string, args ...string) error

	// Close releases guest-session resources.
	Close() error
}

// Credentials is an immutable guest username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Info contains backend metadata.
type Info struct {
	Name    string // "vmrun", "sshguest" or "fake"
	Version string // backend/tool version if known
}
