//go:build unix
// +build unix

package drm

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/logger"
	"golang.org/x/sys/unix"
)

// Open opens the DRM device node at deviceHint. The DRM platform is skipped
// when no device is given.
func (Platform) Open(
	ctx context.Context,
	deviceHint string,
) (_ret backend.Connection, _err error) {
	logger.Tracef(ctx, "Open(ctx, '%s')", deviceHint)
	defer func() { logger.Tracef(ctx, "/Open(ctx, '%s'): %v %v", deviceHint, _ret, _err) }()

	if deviceHint == "" {
		return nil, ErrNoDevice{}
	}

	fd, err := unix.Open(deviceHint, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		logger.Debugf(ctx, "unable to open DRM device %s for read-write: %v; falling back to read-only", deviceHint, err)
		fd, err = unix.Open(deviceHint, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open DRM device %s: %w", deviceHint, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("unable to stat %s: %w", deviceHint, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFCHR {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%s is not a character device", deviceHint)
	}

	return &Connection{
		Path: deviceHint,
		fd:   fd,
	}, nil
}

func (c *Connection) Close(ctx context.Context) error {
	if c.fd < 0 {
		return fmt.Errorf("%s is already closed", c)
	}
	err := unix.Close(c.fd)
	c.fd = -1
	if err != nil {
		return fmt.Errorf("unable to close %s: %w", c.Path, err)
	}
	return nil
}
