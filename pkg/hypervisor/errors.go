package hypervisor

import "errors"

// Connection errors
var (
	ErrNotFound = errors.New("hypervisor: VM identifier cannot be located or opened")
)

// Guest errors
var (
	ErrLoginRejected    = errors.New("hypervisor: guest rejected credentials")
	ErrToolsUnavailable = errors.New("hypervisor: guest tooling not available")
)

// Capability errors
var (
	ErrUnsupported = errors.New("hypervisor: operation not supported by this backend")
)
