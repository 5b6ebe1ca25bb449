// closer.go defines the Closer interface.

package types

import (
	"context"
)

// Closer releases a native resource: a device node, a display socket, ...
type Closer interface {
	Close(context.Context) error
}
