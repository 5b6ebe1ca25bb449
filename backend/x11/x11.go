// Package x11 implements the platform of X11 displays.
package x11

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
)

const (
	socketDir = "/tmp/.X11-unix"
	tcpBase   = 6000
)

type Platform struct{}

var _ backend.Platform = Platform{}

func (Platform) String() string {
	return "x11"
}

func (Platform) Kind() types.PlatformKind {
	return types.PlatformKindX11
}

type displayAddr struct {
	Network string
	Address string
}

// parseDisplayName converts "[host]:display[.screen]" to a dialable address.
func parseDisplayName(name string) (displayAddr, error) {
	colon := strings.LastIndex(name, ":")
	if colon < 0 {
		return displayAddr{}, fmt.Errorf("invalid X11 display name '%s'", name)
	}
	host, rest := name[:colon], name[colon+1:]
	if dot := strings.Index(rest, "."); dot >= 0 {
		rest = rest[:dot]
	}
	num, err := strconv.ParseUint(rest, 10, 16)
	if err != nil {
		return displayAddr{}, fmt.Errorf("invalid display number in '%s': %w", name, err)
	}
	switch host {
	case "", "unix":
		return displayAddr{
			Network: "unix",
			Address: fmt.Sprintf("%s/X%d", socketDir, num),
		}, nil
	default:
		return displayAddr{
			Network: "tcp",
			Address: net.JoinHostPort(host, strconv.FormatUint(tcpBase+num, 10)),
		}, nil
	}
}

// Open connects to the X11 display deviceHint, or to $DISPLAY if the hint
// is empty.
func (Platform) Open(
	ctx context.Context,
	deviceHint string,
) (_ret backend.Connection, _err error) {
	logger.Tracef(ctx, "Open(ctx, '%s')", deviceHint)
	defer func() { logger.Tracef(ctx, "/Open(ctx, '%s'): %v %v", deviceHint, _ret, _err) }()

	name := deviceHint
	if name == "" {
		name = os.Getenv("DISPLAY")
	}
	if name == "" {
		return nil, fmt.Errorf("no X11 display given and $DISPLAY is not set")
	}

	addr, err := parseDisplayName(name)
	if err != nil {
		return nil, err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, addr.Network, addr.Address)
	if err != nil {
		return nil, fmt.Errorf("cannot open the X11 display %s: %w", name, err)
	}
	return &Connection{
		Name: name,
		conn: conn,
	}, nil
}

type Connection struct {
	Name string
	conn net.Conn
}

var _ backend.Connection = (*Connection)(nil)

func (c *Connection) String() string {
	return fmt.Sprintf("x11:'%s'", c.Name)
}

func (c *Connection) Kind() types.PlatformKind {
	return types.PlatformKindX11
}

// Handle returns the file descriptor of the connection socket.
func (c *Connection) Handle() uintptr {
	sc, ok := c.conn.(syscall.Conn)
	if !ok {
		return 0
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0
	}
	var handle uintptr
	_ = raw.Control(func(fd uintptr) {
		handle = fd
	})
	return handle
}

func (c *Connection) Close(ctx context.Context) error {
	return c.conn.Close()
}
