// errors.go defines the error types of vasurface.

package vasurface

import (
	"fmt"
	"strings"

	"github.com/xaionaro-go/vasurface/types"
)

type ErrNoBackend struct {
	// Attempts contains the reason each platform was rejected, in the order
	// they were tried.
	Attempts []error
}

func (e ErrNoBackend) Error() string {
	if len(e.Attempts) == 0 {
		return "no usable hardware backend"
	}
	var reasons []string
	for _, err := range e.Attempts {
		reasons = append(reasons, err.Error())
	}
	return fmt.Sprintf("no usable hardware backend: %s", strings.Join(reasons, "; "))
}

type ErrVersionNegotiationFailed struct {
	Err error
}

func (e ErrVersionNegotiationFailed) Error() string {
	return fmt.Sprintf("unable to negotiate the protocol version: %v", e.Err)
}

func (e ErrVersionNegotiationFailed) Unwrap() error {
	return e.Err
}

type ErrNoSupportedFormat struct {
	Advertised []types.ImageFormat
	Err        error
}

func (e ErrNoSupportedFormat) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no supported image format: %v", e.Err)
	}
	return fmt.Sprintf("no supported image format among the advertised ones: %v", e.Advertised)
}

func (e ErrNoSupportedFormat) Unwrap() error {
	return e.Err
}

type ErrSurfaceAllocationFailed struct {
	Count int
	Err   error
}

func (e ErrSurfaceAllocationFailed) Error() string {
	return fmt.Sprintf("unable to allocate %d surfaces: %v", e.Count, e.Err)
}

func (e ErrSurfaceAllocationFailed) Unwrap() error {
	return e.Err
}

type ErrSessionCreationFailed struct {
	Profile types.Profile
	Err     error
}

func (e ErrSessionCreationFailed) Error() string {
	return fmt.Sprintf("unable to create a decode session for profile %s: %v", e.Profile, e.Err)
}

func (e ErrSessionCreationFailed) Unwrap() error {
	return e.Err
}

// ErrNoFreeSurfaces is a backpressure signal: every surface of the pool is
// leased. The caller is expected to release an older picture or defer.
type ErrNoFreeSurfaces struct {
	SurfaceCount int
}

func (e ErrNoFreeSurfaces) Error() string {
	return fmt.Sprintf("no free surfaces left (all %d are in use)", e.SurfaceCount)
}

type ErrImageCreationFailed struct {
	Err error
}

func (e ErrImageCreationFailed) Error() string {
	return fmt.Sprintf("unable to create an image: %v", e.Err)
}

func (e ErrImageCreationFailed) Unwrap() error {
	return e.Err
}

type ErrImageCopyFailed struct {
	Surface types.SurfaceID
	Err     error
}

func (e ErrImageCopyFailed) Error() string {
	return fmt.Sprintf("unable to copy %s into an image: %v", e.Surface, e.Err)
}

func (e ErrImageCopyFailed) Unwrap() error {
	return e.Err
}

type ErrImageMapFailed struct {
	Err error
}

func (e ErrImageMapFailed) Error() string {
	return fmt.Sprintf("unable to map the image buffer: %v", e.Err)
}

func (e ErrImageMapFailed) Unwrap() error {
	return e.Err
}

type ErrUnsupportedProfile struct {
	Profile types.Profile
}

func (e ErrUnsupportedProfile) Error() string {
	return fmt.Sprintf("no known hardware decoder profile for %s", e.Profile)
}

type ErrInvalidStreamParams struct {
	Reason string
}

func (e ErrInvalidStreamParams) Error() string {
	return fmt.Sprintf("invalid stream parameters: %s", e.Reason)
}

type ErrNoCurrentPool struct{}

func (ErrNoCurrentPool) Error() string {
	return "no session configuration is negotiated"
}

type ErrAlreadyReleased struct {
	What string
}

func (e ErrAlreadyReleased) Error() string {
	return fmt.Sprintf("%s is already released", e.What)
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the display context is closed"
}
