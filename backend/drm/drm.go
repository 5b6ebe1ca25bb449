// Package drm implements the platform of DRM device nodes (for example
// /dev/dri/renderD128).
package drm

import (
	"fmt"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/types"
)

type Platform struct{}

var _ backend.Platform = Platform{}

func (Platform) String() string {
	return "drm"
}

func (Platform) Kind() types.PlatformKind {
	return types.PlatformKindDRM
}

type ErrNoDevice struct{}

func (ErrNoDevice) Error() string {
	return "no DRM device path given"
}

type ErrNotSupported struct{}

func (ErrNotSupported) Error() string {
	return "DRM devices are not supported on this platform"
}

type Connection struct {
	Path string
	fd   int
}

var _ backend.Connection = (*Connection)(nil)

func (c *Connection) String() string {
	return fmt.Sprintf("drm:'%s'", c.Path)
}

func (c *Connection) Kind() types.PlatformKind {
	return types.PlatformKindDRM
}

func (c *Connection) Handle() uintptr {
	return uintptr(c.fd)
}
