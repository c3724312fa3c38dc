package vm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmgrader/vmgrader/pkg/hypervisor"
	"github.com/vmgrader/vmgrader/pkg/hypervisor/sshguest"
)

// Transport selects how in-guest operations reach the guest OS.
type Transport string

const (
	// TransportTools uses the hypervisor's guest tooling.
	TransportTools Transport = "tools"
	// TransportSSH connects over the network with SSH/SFTP.
	TransportSSH Transport = "ssh"
)

// sshRetryInterval paces connection attempts while waiting for an SSH
// guest to come up after a revert.
const sshRetryInterval = 3 * time.Second

// SessionConfig describes how to establish a guest session.
type SessionConfig struct {
	Credentials hypervisor.Credentials
	Transport   Transport
	SSHAddr     string // host:port, required for TransportSSH
}

// Session is an authenticated session into the guest OS, created at
// campaign start and torn down at campaign end regardless of outcome.
type Session struct {
	guest hypervisor.Guest
	log   *slog.Logger
}

// Establish waits for the guest to become reachable and authenticates into
// it. The readiness wait has no caller-supplied upper bound; it is bounded
// only by the backend (tools transport) or by ctx (ssh transport). A
// rejected login fails with ErrGuestLogin.
func Establish(ctx context.Context, h *Handle, cfg SessionConfig, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.Transport {
	case TransportSSH:
		return establishSSH(ctx, cfg, log)
	case TransportTools, "":
		return establishTools(ctx, h, cfg, log)
	default:
		return nil, fmt.Errorf("vm: unknown guest transport %q", cfg.Transport)
	}
}

func establishTools(ctx context.Context, h *Handle, cfg SessionConfig, log *slog.Logger) (*Session, error) {
	log.Info("waiting for guest tooling", "vm", h.id)
	if err := h.machine.WaitForTools(ctx); err != nil {
		return nil, fmt.Errorf("wait for guest tooling: %w", err)
	}
	guest, err := h.machine.Login(ctx, cfg.Credentials)
	if err != nil {
		if errors.Is(err, hypervisor.ErrLoginRejected) {
			return nil, fmt.Errorf("%w: user %s", ErrGuestLogin, cfg.Credentials.Username)
		}
		return nil, fmt.Errorf("guest login: %w", err)
	}
	log.Info("guest session established", "vm", h.id, "user", cfg.Credentials.Username)
	return &Session{guest: guest, log: log}, nil
}

func establishSSH(ctx context.Context, cfg SessionConfig, log *slog.Logger) (*Session, error) {
	log.Info("waiting for guest ssh", "addr", cfg.SSHAddr)
	for {
		guest, err := sshguest.Dial(ctx, cfg.SSHAddr, cfg.Credentials)
		if err == nil {
			log.Info("guest session established", "addr", cfg.SSHAddr, "user", cfg.Credentials.Username)
			return &Session{guest: guest, log: log}, nil
		}
		if errors.Is(err, hypervisor.ErrLoginRejected) {
			return nil, fmt.Errorf("%w: user %s", ErrGuestLogin, cfg.Credentials.Username)
		}
		// Guest not reachable yet; keep polling until ctx says otherwise.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for guest ssh: %w", ctx.Err())
		case <-time.After(sshRetryInterval):
		}
	}
}

// NewSession wraps an already-authenticated guest. Used by tests and by
// embedders that manage login themselves.
func NewSession(guest hypervisor.Guest, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{guest: guest, log: log}
}

// Close releases the guest session.
func (s *Session) Close() error {
	if s.guest == nil {
		return nil
	}
	err := s.guest.Close()
	s.guest = nil
	return err
}
