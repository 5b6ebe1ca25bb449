package backend

import (
	"fmt"
)

type Status int

const (
	StatusSuccess Status = iota
	StatusOperationFailed
	StatusAllocationFailed
	StatusInvalidDisplay
	StatusInvalidConfig
	StatusInvalidContext
	StatusInvalidSurface
	StatusInvalidImage
	StatusInvalidBuffer
	StatusUnsupportedProfile
	StatusUnsupportedEntrypoint
	StatusUnsupportedRTFormat
	StatusInvalidImageFormat
	StatusInvalidParameter
	StatusResolutionNotSupported
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success (no error)"
	case StatusOperationFailed:
		return "operation failed"
	case StatusAllocationFailed:
		return "resource allocation failed"
	case StatusInvalidDisplay:
		return "invalid display"
	case StatusInvalidConfig:
		return "invalid config"
	case StatusInvalidContext:
		return "invalid context"
	case StatusInvalidSurface:
		return "invalid surface"
	case StatusInvalidImage:
		return "invalid image"
	case StatusInvalidBuffer:
		return "invalid buffer"
	case StatusUnsupportedProfile:
		return "unsupported profile"
	case StatusUnsupportedEntrypoint:
		return "unsupported entrypoint"
	case StatusUnsupportedRTFormat:
		return "unsupported RT format"
	case StatusInvalidImageFormat:
		return "invalid image format"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusResolutionNotSupported:
		return "resolution not supported"
	}
	return fmt.Sprintf("unknown status (%d)", int(s))
}

// ErrStatus is a failed backend call.
type ErrStatus struct {
	Op         string
	Status     Status
	Diagnostic string
}

func (e ErrStatus) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Status, e.Diagnostic)
}

func NewErrStatus(op string, status Status, diagFormat string, args ...any) ErrStatus {
	return ErrStatus{
		Op:         op,
		Status:     status,
		Diagnostic: fmt.Sprintf(diagFormat, args...),
	}
}
