package vm

import "strings"

// GuestRoot describes the guest-side working directory in the three
// syntaxes a campaign needs: native (what the hypervisor copy primitives
// expect), shell (what commands inside the guest use), and the guest path
// separator. Host and guest path syntaxes differ, so guest paths are built
// by plain string concatenation, never host-style joining; both directory
// strings must carry a trailing separator.
type GuestRoot struct {
	Native    string
	Shell     string
	Separator string
}

// Normalize fills in a default separator and ensures both directory
// representations end with it. Shell paths always separate with '/'.
func (r GuestRoot) Normalize() GuestRoot {
	if r.Separator == "" {
		r.Separator = "/"
	}
	if r.Native != "" && !strings.HasSuffix(r.Native, r.Separator) {
		r.Native += r.Separator
	}
	if r.Shell != "" && !strings.HasSuffix(r.Shell, "/") {
		r.Shell += "/"
	}
	return r
}

// NativePath returns the guest-native path for a file relative to the root.
func (r GuestRoot) NativePath(rel string) string {
	return r.Native + rel
}

// ShellPath returns the guest-shell path for a file relative to the root.
func (r GuestRoot) ShellPath(rel string) string {
	return r.Shell + rel
}
