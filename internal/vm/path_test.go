package vm

import "testing"

func TestGuestRootNormalizeAddsTrailingSeparator(t *testing.T) {
	root := GuestRoot{Native: "/home/grader", Shell: "/home/grader"}.Normalize()

	if root.Separator != "/" {
		t.Errorf("Separator = %q, want %q", root.Separator, "/")
	}
	if root.Native != "/home/grader/" {
		t.Errorf("Native = %q, want trailing separator", root.Native)
	}
	if root.Shell != "/home/grader/" {
		t.Errorf("Shell = %q, want trailing separator", root.Shell)
	}
}

func TestGuestRootNormalizeIdempotent(t *testing.T) {
	root := GuestRoot{Native: "/tmp/", Shell: "/tmp/", Separator: "/"}
	normalized := root.Normalize()

	if normalized != root {
		t.Errorf("Normalize() changed an already-normalized root: %+v", normalized)
	}
}

func TestGuestRootWindowsSeparator(t *testing.T) {
	root := GuestRoot{
		Native:    `C:\grading`,
		Shell:     "/cygdrive/c/grading",
		Separator: `\`,
	}.Normalize()

	if root.Native != `C:\grading\` {
		t.Errorf("Native = %q, want backslash-terminated", root.Native)
	}
	// Shell paths always separate with '/', whatever the native separator.
	if got := root.ShellPath("build.sh"); got != "/cygdrive/c/grading/build.sh" {
		t.Errorf("ShellPath = %q", got)
	}
	if got := root.NativePath("build.sh"); got != `C:\grading\build.sh` {
		t.Errorf("NativePath = %q", got)
	}
}

func TestGuestRootPathsConcatenate(t *testing.T) {
	// Guest paths are built by concatenation, never host-style joining:
	// a relative path with its own separators passes through untouched.
	root := GuestRoot{Native: "/grading/", Shell: "/grading/", Separator: "/"}

	if got := root.NativePath("sub/dir/file.txt"); got != "/grading/sub/dir/file.txt" {
		t.Errorf("NativePath = %q", got)
	}
}
