package fake

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/types"
	"go.uber.org/atomic"
)

// Platform is a simulated display platform.
type Platform struct {
	PlatformKind types.PlatformKind

	// OpenError, if set, is returned by every Open.
	OpenError error

	opened atomic.Int64
	closed atomic.Int64
}

var _ backend.Platform = (*Platform)(nil)

func NewPlatform(kind types.PlatformKind) *Platform {
	return &Platform{
		PlatformKind: kind,
	}
}

func (p *Platform) String() string {
	return fmt.Sprintf("fake.Platform(%s)", p.PlatformKind)
}

func (p *Platform) Kind() types.PlatformKind {
	return p.PlatformKind
}

func (p *Platform) Open(
	ctx context.Context,
	deviceHint string,
) (backend.Connection, error) {
	if p.OpenError != nil {
		return nil, p.OpenError
	}
	n := p.opened.Inc()
	return &Connection{
		platform: p,
		name:     deviceHint,
		handle:   uintptr(n),
	}, nil
}

// OpenConnections returns the amount of connections opened and not closed.
func (p *Platform) OpenConnections() int64 {
	return p.opened.Load() - p.closed.Load()
}

type Connection struct {
	platform *Platform
	name     string
	handle   uintptr
	isClosed atomic.Bool
}

var _ backend.Connection = (*Connection)(nil)

func (c *Connection) String() string {
	return fmt.Sprintf("%s:'%s'", c.platform.PlatformKind, c.name)
}

func (c *Connection) Kind() types.PlatformKind {
	return c.platform.PlatformKind
}

func (c *Connection) Handle() uintptr {
	return c.handle
}

func (c *Connection) Close(ctx context.Context) error {
	if !c.isClosed.CompareAndSwap(false, true) {
		return fmt.Errorf("%s is already closed", c)
	}
	c.platform.closed.Inc()
	return nil
}
