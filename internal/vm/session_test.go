package vm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vmgrader/vmgrader/pkg/hypervisor"
	"github.com/vmgrader/vmgrader/pkg/hypervisor/fake"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEstablishWaitsForToolsBeforeLogin(t *testing.T) {
	driver := fake.New()
	handle, err := Connect(context.Background(), driver, "vm.vmx")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	cfg := SessionConfig{Credentials: hypervisor.Credentials{Username: "grader", Password: "pw"}}
	session, err := Establish(context.Background(), handle, cfg, discard())
	if err != nil {
		t.Fatalf("Establish() error = %v", err)
	}
	defer session.Close()

	calls := driver.Machine.Calls()
	var toolsAt, loginAt = -1, -1
	for i, call := range calls {
		switch call {
		case "wait-tools":
			toolsAt = i
		case "login:grader":
			loginAt = i
		}
	}
	if toolsAt == -1 || loginAt == -1 {
		t.Fatalf("calls = %v, want wait-tools and login", calls)
	}
	if toolsAt > loginAt {
		t.Errorf("login issued before guest tooling was ready: %v", calls)
	}
}

func TestEstablishRejectedLogin(t *testing.T) {
	driver := fake.New()
	driver.Machine.LoginErr = hypervisor.ErrLoginRejected

	handle, err := Connect(context.Background(), driver, "vm.vmx")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	cfg := SessionConfig{Credentials: hypervisor.Credentials{Username: "grader", Password: "wrong"}}
	_, err = Establish(context.Background(), handle, cfg, discard())
	if !errors.Is(err, ErrGuestLogin) {
		t.Errorf("Establish() error = %v, want ErrGuestLogin", err)
	}
}

func TestEstablishToolsFailure(t *testing.T) {
	driver := fake.New()
	driver.Machine.ToolsErr = hypervisor.ErrToolsUnavailable

	handle, err := Connect(context.Background(), driver, "vm.vmx")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	_, err = Establish(context.Background(), handle, SessionConfig{}, discard())
	if err == nil {
		t.Error("Establish() should fail when guest tooling never comes up")
	}
}

func TestEstablishUnknownTransport(t *testing.T) {
	driver := fake.New()
	handle, err := Connect(context.Background(), driver, "vm.vmx")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	_, err = Establish(context.Background(), handle, SessionConfig{Transport: "carrier-pigeon"}, discard())
	if err == nil {
		t.Error("Establish() should reject an unknown transport")
	}
}

func TestSessionCloseReleasesGuest(t *testing.T) {
	guest := &fake.Guest{}
	session := NewSession(guest, discard())

	if err := session.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !guest.Closed() {
		t.Error("guest not closed")
	}
	// Second close is a no-op.
	if err := session.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
