// Package sshguest implements the hypervisor Guest interface over SSH with
// SFTP file transfer. It is used for guests without hypervisor tooling:
// machine-level operations (snapshots, revert) still go through a Machine
// backend, while in-guest copy and run travel over the network.
package sshguest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/vmgrader/vmgrader/pkg/hypervisor"
)

// DialTimeout bounds a single connection attempt. Readiness polling across
// attempts is the caller's concern.
const DialTimeout = 10 * time.Second

// Guest is an SSH session into the guest OS.
type Guest struct {
	client *ssh.Client
}

// Dial makes a single connection attempt to addr (host:port) and
// authenticates with the given credentials. A rejected password maps to
// hypervisor.ErrLoginRejected; transport-level failures (refused
// connection, unreachable guest) are returned as-is so callers can keep
// polling until the guest is up.
func Dial(ctx context.Context, addr string, creds hypervisor.Credentials) (*Guest, error) {
	cfg := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         DialTimeout,
	}

	dialer := net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial guest %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("%w: %v", hypervisor.ErrLoginRejected, err)
		}
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}

	return &Guest{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

// CopyToGuest copies one host file into the guest over SFTP.
func (g *Guest) CopyToGuest(ctx context.Context, hostPath, guestPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("open host file: %w", err)
	}
	defer src.Close()

	client, err := sftp.NewClient(g.client)
	if err != nil {
		return fmt.Errorf("open sftp: %w", err)
	}
	defer client.Close()

	dst, err := client.Create(guestPath)
	if err != nil {
		return fmt.Errorf("create guest file %s: %w", guestPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy to guest %s: %w", guestPath, err)
	}
	return nil
}

// CopyFromGuest copies one guest file to the host over SFTP.
func (g *Guest) CopyFromGuest(ctx context.Context, guestPath, hostPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := sftp.NewClient(g.client)
	if err != nil {
		return fmt.Errorf("open sftp: %w", err)
	}
	defer client.Close()

	src, err := client.Open(guestPath)
	if err != nil {
		return fmt.Errorf("open guest file %s: %w", guestPath, err)
	}
	defer src.Close()

	dst, err := os.Create(hostPath)
	if err != nil {
		return fmt.Errorf("create host file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy from guest %s: %w", guestPath, err)
	}
	return nil
}

// Run executes a program in the guest and blocks until it exits. The
// program and arguments are joined into a single remote command line;
// arguments containing whitespace are single-quoted.
func (g *Guest) Run(ctx context.Context, program string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	session, err := g.client.NewSession()
	if err != nil {
		return fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, program)
	for _, a := range args {
		parts = append(parts, quoteArg(a))
	}
	if err := session.Run(strings.Join(parts, " ")); err != nil {
		return fmt.Errorf("run in guest: %w", err)
	}
	return nil
}

// Close shuts down the SSH connection.
func (g *Guest) Close() error {
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\"'$&;|<>()") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var _ hypervisor.Guest = (*Guest)(nil)
