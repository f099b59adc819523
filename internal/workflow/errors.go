package workflow

import "errors"

// Configuration errors: malformed definitions or enumerations that cannot
// produce a usable result. These always fail fast.
var (
	ErrInvalidDefinition = errors.New("workflow: invalid graph definition")
	ErrNoPaths           = errors.New("workflow: no path from start to any end node")
	ErrTooManyPaths      = errors.New("workflow: path enumeration limit exceeded")
)

// State errors: transitions the current lifecycle does not allow.
var (
	ErrInvalidTransition = errors.New("workflow: invalid transition")
	ErrRequestNotFound   = errors.New("workflow: approval request not found")
	ErrPathNotFound      = errors.New("workflow: path not found")
	ErrRunNotFound       = errors.New("workflow: execution run not found")
)
