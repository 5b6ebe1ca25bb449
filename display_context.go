// display_context.go implements DisplayContext: the connection to the
// hardware acceleration backend shared by session pools and readbacks.

// Package vasurface manages a pool of hardware video decode surfaces shared
// between a hardware-accelerated decoder and a software consumer pipeline.
//
// The object graph is reference counted: a DisplayContext is owned by itself,
// by every SessionPool and by every HostBuffer created against it; a
// SessionPool is owned by the "current pool" slot of its DisplayContext and
// by every SurfaceLease drawn from it. Dropping the last reference tears the
// corresponding hardware resources down.
package vasurface

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/typing"
	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/internal"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type DisplayContext struct {
	Config Config

	refCount *internal.RefCount
	closed   atomic.Bool

	connection   backend.Connection
	backend      backend.Backend
	initialized  bool
	versionMajor int
	versionMinor int

	formatLocker xsync.Mutex
	format       typing.Optional[FormatMapping]
	imageFormat  types.ImageFormat

	scratchLocker xsync.Mutex
	scratch       *scratchPicture

	installLocker  xsync.Mutex
	currentPool    *SessionPool
	pools          xsync.Map[uint64, *SessionPool]
	lastGeneration atomic.Uint64

	counters types.Counters
}

// OpenDisplay opens the first usable platform of cfg.Platforms, negotiates
// the protocol version and selects the image format.
//
// The returned context holds its self-reference; Close drops it.
func OpenDisplay(
	ctx context.Context,
	deviceHint string,
	cfg Config,
) (_ret *DisplayContext, _err error) {
	logger.Tracef(ctx, "OpenDisplay(ctx, '%s')", deviceHint)
	defer func() { logger.Tracef(ctx, "/OpenDisplay(ctx, '%s'): %v", deviceHint, _err) }()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	d := &DisplayContext{
		Config:  cfg,
		scratch: newScratchPicture(),
	}
	d.refCount = internal.NewRefCount(d.free)
	defer func() {
		if _err != nil {
			logger.Logf(ctx, cfg.failureLogLevel(), "hardware display init failed: %v", _err)
			d.closed.Store(true)
			d.unref(ctx)
		}
	}()

	if err := d.openBackend(ctx, deviceHint); err != nil {
		return nil, err
	}

	major, minor, err := d.backend.Initialize(ctx)
	if err != nil {
		return nil, ErrVersionNegotiationFailed{Err: err}
	}
	d.initialized = true
	d.versionMajor, d.versionMinor = major, minor
	if major < cfg.MinVersionMajor || (major == cfg.MinVersionMajor && minor < cfg.MinVersionMinor) {
		return nil, ErrVersionNegotiationFailed{
			Err: fmt.Errorf("version %d.%d is lower than the required %d.%d", major, minor, cfg.MinVersionMajor, cfg.MinVersionMinor),
		}
	}

	if _, err := d.SelectFormat(ctx); err != nil {
		return nil, err
	}

	logger.Debugf(ctx, "using hardware acceleration API version %d.%d -- %s -- on %s",
		major, minor, d.backend.VendorString(ctx), d.connection)
	return d, nil
}

func (d *DisplayContext) openBackend(
	ctx context.Context,
	deviceHint string,
) error {
	var attempts []error
	for _, platform := range d.Config.Platforms {
		conn, err := platform.Open(ctx, deviceHint)
		if err != nil {
			logger.Debugf(ctx, "cannot open %s: %v", platform, err)
			attempts = append(attempts, fmt.Errorf("%s: %w", platform, err))
			continue
		}

		b, err := d.Config.BackendFactory(ctx, conn)
		if err != nil {
			logger.Debugf(ctx, "unable to get a hardware display on %s: %v", conn, err)
			attempts = append(attempts, fmt.Errorf("%s: %w", conn, err))
			if err := conn.Close(ctx); err != nil {
				logger.Errorf(ctx, "unable to close %s: %v", conn, err)
			}
			continue
		}

		logger.Debugf(ctx, "successfully opened a hardware display on %s", conn)
		d.connection = conn
		d.backend = b
		return nil
	}
	return ErrNoBackend{Attempts: attempts}
}

// SelectFormat negotiates the image format with the backend. The format is
// selected once: subsequent calls return the already selected one.
func (d *DisplayContext) SelectFormat(
	ctx context.Context,
) (FormatMapping, error) {
	return xsync.DoA1R2(ctx, &d.formatLocker, d.selectFormatLocked, ctx)
}

func (d *DisplayContext) selectFormatLocked(
	ctx context.Context,
) (_ret FormatMapping, _err error) {
	logger.Tracef(ctx, "selectFormatLocked")
	defer func() { logger.Tracef(ctx, "/selectFormatLocked: %v %v", _ret, _err) }()

	if d.format.IsSet() {
		return d.format.Get(), nil
	}

	advertised, err := d.backend.QueryImageFormats(ctx)
	if err != nil {
		return FormatMapping{}, ErrNoSupportedFormat{Err: err}
	}
	if len(advertised) == 0 {
		return FormatMapping{}, ErrNoSupportedFormat{Err: fmt.Errorf("the backend supports no image formats")}
	}

	mapping, imageFormat, ok := pickFormat(d.Config.FormatPriority, advertised)
	if !ok {
		return FormatMapping{}, ErrNoSupportedFormat{Advertised: advertised}
	}

	logger.Debugf(ctx, "selected format %s", mapping)
	d.format = typing.Opt(mapping)
	d.imageFormat = imageFormat
	return mapping, nil
}

// PixelFormat returns the negotiated pixel format of host buffers.
func (d *DisplayContext) PixelFormat() types.PixelFormat {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &d.formatLocker, func() types.PixelFormat {
		if !d.format.IsSet() {
			return types.PixelFormatUnknown
		}
		return d.format.Get().PixelFormat
	})
}

func (d *DisplayContext) Version() (major, minor int) {
	return d.versionMajor, d.versionMinor
}

func (d *DisplayContext) Backend() backend.Backend {
	return d.backend
}

func (d *DisplayContext) String() string {
	if d.connection == nil {
		return "DisplayContext(<not connected>)"
	}
	return fmt.Sprintf("DisplayContext(%s)", d.connection)
}

func (d *DisplayContext) Stats() types.Statistics {
	return d.counters.ToStats()
}

// RefCount returns the amount of owners of the context: the self-reference,
// the pools and the host buffers.
func (d *DisplayContext) RefCount() int64 {
	return d.refCount.Count()
}

// IsClosed returns true after Close; the hardware may still be alive while
// pools or host buffers reference it.
func (d *DisplayContext) IsClosed() bool {
	return d.closed.Load()
}

// Close retires the current pool and drops the self-reference. The backend
// is terminated once every pool and host buffer created against the context
// is released.
func (d *DisplayContext) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed{}
	}
	d.installLocker.Do(ctx, func() {
		d.installLocked(ctx, nil)
	})
	d.unref(ctx)
	return nil
}

func (d *DisplayContext) ref() bool {
	return d.refCount.Ref()
}

func (d *DisplayContext) unref(ctx context.Context) {
	d.refCount.Unref(ctx)
}

// free is executed by the reference counter when the last owner is gone.
func (d *DisplayContext) free(ctx context.Context) {
	ctx = belt.WithField(ctx, "display", d.String())
	logger.Debugf(ctx, "freeing the display context")
	defer func() { logger.Debugf(ctx, "/freeing the display context") }()

	d.scratchLocker.Do(ctx, func() {
		d.scratch = nil
	})

	if d.backend != nil && d.initialized {
		if err := d.backend.Terminate(ctx); err != nil {
			logger.Errorf(ctx, "unable to terminate %s: %v", d.backend, err)
		}
	}
	if d.connection != nil {
		if err := d.connection.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close %s: %v", d.connection, err)
		}
	}
}
