package vm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Bridge copies batches of files between a host directory and the guest
// root, best-effort per file. Missing files on either side are diagnosed
// and skipped; only a failing transport aborts a batch.
type Bridge struct {
	session *Session
	root    GuestRoot
}

// NewBridge returns a Bridge for the given session and guest root. The
// root is normalized so both directory strings carry their trailing
// separator.
func NewBridge(session *Session, root GuestRoot) *Bridge {
	return &Bridge{session: session, root: root.Normalize()}
}

// Root returns the normalized guest root the bridge copies against.
func (b *Bridge) Root() GuestRoot { return b.root }

// CopyIn copies each relative file from hostDir into the guest root. A
// file missing on the host side is logged and skipped; the rest of the
// batch still proceeds. A transport failure aborts the batch.
func (b *Bridge) CopyIn(ctx context.Context, hostDir string, files []string) error {
	for _, rel := range files {
		hostPath := filepath.Join(hostDir, rel)
		if _, err := os.Stat(hostPath); err != nil {
			b.session.log.Warn("copy-in skipping missing host file", "file", hostPath, "error", err)
			continue
		}
		guestPath := b.root.NativePath(rel)
		if err := b.session.guest.CopyToGuest(ctx, hostPath, guestPath); err != nil {
			return fmt.Errorf("copy %s to guest: %w", rel, err)
		}
	}
	return nil
}

// CopyOut copies each relative file from the guest root into hostDir. The
// transfer is always issued, then the resulting host file is checked;
// failures and absent results are diagnosed, never raised, so partial
// outputs (logs of a timed-out script) are still collected.
func (b *Bridge) CopyOut(ctx context.Context, hostDir string, files []string) {
	for _, rel := range files {
		hostPath := filepath.Join(hostDir, rel)
		guestPath := b.root.NativePath(rel)
		if err := b.session.guest.CopyFromGuest(ctx, guestPath, hostPath); err != nil {
			b.session.log.Warn("copy-out failed", "file", rel, "error", err)
		}
		if _, err := os.Stat(hostPath); err != nil {
			b.session.log.Warn("copy-out produced no host file", "file", hostPath)
		}
	}
}
