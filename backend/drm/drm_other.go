//go:build !unix
// +build !unix

package drm

import (
	"context"

	"github.com/xaionaro-go/vasurface/backend"
)

func (Platform) Open(
	ctx context.Context,
	deviceHint string,
) (backend.Connection, error) {
	return nil, ErrNotSupported{}
}

func (c *Connection) Close(ctx context.Context) error {
	return ErrNotSupported{}
}
