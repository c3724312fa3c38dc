package vm

import "errors"

// Fatal campaign errors. All three propagate to the top-level caller and
// abort the run before any stage executes.
var (
	ErrConnect            = errors.New("vm: cannot open VM handle")
	ErrSnapshotOutOfRange = errors.New("vm: snapshot index out of range")
	ErrGuestLogin         = errors.New("vm: guest login rejected")
)
