package vmrun

import (
	"context"
	"reflect"
	"testing"
)

func TestParseSnapshotList(t *testing.T) {
	out := "Total snapshots: 3\nprovisioned\npatched\nclean\n"
	got := parseSnapshotList(out)
	want := []string{"provisioned", "patched", "clean"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseSnapshotList = %v, want %v", got, want)
	}
}

func TestParseSnapshotListEmpty(t *testing.T) {
	if got := parseSnapshotList("Total snapshots: 0\n"); len(got) != 0 {
		t.Errorf("parseSnapshotList = %v, want none", got)
	}
}

func TestCommandArgumentOrder(t *testing.T) {
	driver := &Driver{vmrunPath: "/usr/bin/vmrun", product: "ws"}
	machine := &Machine{driver: driver, vmx: "/vm/grader.vmx"}

	auth := []string{"-gu", "grader", "-gp", "pw"}
	cmd := machine.command(context.Background(), auth, "runProgramInGuest", "/bin/bash", "-l", "-c", "true")

	want := []string{
		"/usr/bin/vmrun", "-T", "ws",
		"-gu", "grader", "-gp", "pw",
		"runProgramInGuest", "/vm/grader.vmx",
		"/bin/bash", "-l", "-c", "true",
	}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("args = %v, want %v", cmd.Args, want)
	}
}

func TestMachineClosedRejectsOperations(t *testing.T) {
	driver := &Driver{vmrunPath: "/usr/bin/vmrun", product: "ws"}
	machine := &Machine{driver: driver, vmx: "/vm/grader.vmx"}

	if err := machine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := machine.Snapshots(context.Background()); err == nil {
		t.Error("Snapshots() on a closed machine should fail")
	}
}

func TestNewWithExplicitBinary(t *testing.T) {
	driver, err := New(WithBinary("/opt/vmware/vmrun"), WithProduct("fusion"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if driver.vmrunPath != "/opt/vmware/vmrun" {
		t.Errorf("vmrunPath = %q", driver.vmrunPath)
	}
	if info := driver.Info(); info.Name != "vmrun" || info.Version != "fusion" {
		t.Errorf("Info() = %+v", info)
	}
}
