package backend

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/types"
)

// Connection is an opened platform display connection (a DRM device node,
// an X11 display, ...).
type Connection interface {
	fmt.Stringer
	Kind() types.PlatformKind
	// Handle is the opaque native handle of the connection.
	Handle() uintptr
	types.Closer
}

// Platform opens display connections of one kind.
type Platform interface {
	fmt.Stringer
	Kind() types.PlatformKind
	Open(ctx context.Context, deviceHint string) (Connection, error)
}
