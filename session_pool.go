// session_pool.go implements SessionPool: a decode session bound to a fixed
// set of hardware surfaces.

package vasurface

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/vasurface/internal"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
	"github.com/xaionaro-go/xsync"
)

type SessionPool struct {
	display    *DisplayContext
	generation uint64
	params     StreamParams
	refCount   *internal.RefCount

	surfaceCount int
	registered   bool

	configID  types.ConfigID
	contextID types.ContextID

	// locker serializes acquisition and release: surfaces and surfaceUsed
	// are only touched under it.
	locker      xsync.Mutex
	surfaces    []types.SurfaceID
	surfaceUsed []bool
	usedCount   int
	tornDown    bool
}

// NewSessionPool creates a decode session and its surfaces for the given
// stream parameters.
//
// The returned pool holds the "current" reference, which must be handed over
// to DisplayContext.Install.
func NewSessionPool(
	ctx context.Context,
	display *DisplayContext,
	params StreamParams,
) (_ret *SessionPool, _err error) {
	logger.Tracef(ctx, "NewSessionPool(ctx, %s)", params)
	defer func() { logger.Tracef(ctx, "/NewSessionPool(ctx, %s): %v", params, _err) }()

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if display.IsClosed() || !display.ref() {
		return nil, ErrClosed{}
	}

	p := &SessionPool{
		display:    display,
		generation: display.lastGeneration.Inc(),
		params:     params,
		configID:   types.InvalidID,
		contextID:  types.InvalidID,
	}
	p.refCount = internal.NewRefCount(p.teardown)
	ctx = p.logCtx(ctx)
	defer func() {
		if _err != nil {
			p.unref(ctx)
		}
	}()

	b := display.backend
	count := params.SurfaceCount(display.Config.BaseSurfaceCount)
	p.surfaceCount = count
	surfaces, err := b.CreateSurfaces(ctx, types.RTFormatYUV420, params.CodedWidth, params.CodedHeight, count)
	if err != nil {
		return nil, ErrSurfaceAllocationFailed{Count: count, Err: err}
	}
	p.surfaces = surfaces
	if len(surfaces) != count {
		return nil, ErrSurfaceAllocationFailed{
			Count: count,
			Err:   fmt.Errorf("the backend returned %d surfaces instead of %d", len(surfaces), count),
		}
	}
	p.surfaceUsed = make([]bool, count)

	p.configID, err = b.CreateConfig(ctx, params.Profile)
	if err != nil {
		return nil, ErrSessionCreationFailed{Profile: params.Profile, Err: fmt.Errorf("unable to create the configuration: %w", err)}
	}

	p.contextID, err = b.CreateContext(ctx, p.configID, params.CodedWidth, params.CodedHeight, p.surfaces)
	if err != nil {
		return nil, ErrSessionCreationFailed{Profile: params.Profile, Err: fmt.Errorf("unable to create the decoding context: %w", err)}
	}

	p.registered = true
	display.pools.Store(p.generation, p)
	display.counters.PoolsCreated.Increment(uint64(count))
	logger.Debugf(ctx, "created a session pool with %d surfaces for %s", count, params)
	return p, nil
}

func (p *SessionPool) logCtx(ctx context.Context) context.Context {
	return belt.WithField(ctx, "pool_generation", p.generation)
}

func (p *SessionPool) String() string {
	return fmt.Sprintf("SessionPool(gen:%d, %s)", p.generation, p.params)
}

func (p *SessionPool) Generation() uint64 {
	return p.generation
}

func (p *SessionPool) Params() StreamParams {
	return p.params
}

func (p *SessionPool) Display() *DisplayContext {
	return p.display
}

// ConfigID and ContextID are the decode session handles the hardware decoder
// submits pictures to.
func (p *SessionPool) ConfigID() types.ConfigID {
	return p.configID
}

func (p *SessionPool) ContextID() types.ContextID {
	return p.contextID
}

// SurfaceCount is fixed at creation.
func (p *SessionPool) SurfaceCount() int {
	return p.surfaceCount
}

func (p *SessionPool) UsedCount() int {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &p.locker, func() int {
		return p.usedCount
	})
}

// Usage returns a snapshot of the usage flags.
func (p *SessionPool) Usage() []bool {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &p.locker, func() []bool {
		return append([]bool(nil), p.surfaceUsed...)
	})
}

func (p *SessionPool) Surfaces() []types.SurfaceID {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &p.locker, func() []types.SurfaceID {
		return append([]types.SurfaceID(nil), p.surfaces...)
	})
}

func (p *SessionPool) IsTornDown() bool {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &p.locker, func() bool {
		return p.tornDown
	})
}

// RefCount returns the amount of owners: the "current" slot (if still
// installed) plus every live lease.
func (p *SessionPool) RefCount() int64 {
	return p.refCount.Count()
}

func (p *SessionPool) unref(ctx context.Context) {
	p.refCount.Unref(ctx)
}

// teardown is executed by the reference counter when the last owner is gone.
func (p *SessionPool) teardown(ctx context.Context) {
	ctx = p.logCtx(ctx)
	logger.Debugf(ctx, "teardown")
	defer func() { logger.Debugf(ctx, "/teardown") }()

	b := p.display.backend
	p.locker.Do(ctx, func() {
		internal.Assert(ctx, p.usedCount == 0, "tearing down a pool with leased surfaces", p.usedCount)
		p.tornDown = true

		if p.contextID.IsValid() {
			if err := b.DestroyContext(ctx, p.contextID); err != nil {
				logger.Errorf(ctx, "unable to destroy the decoding context: %v", err)
			}
			p.contextID = types.InvalidID
		}
		if p.configID.IsValid() {
			if err := b.DestroyConfig(ctx, p.configID); err != nil {
				logger.Errorf(ctx, "unable to destroy the configuration: %v", err)
			}
			p.configID = types.InvalidID
		}
		if len(p.surfaces) > 0 {
			if err := b.DestroySurfaces(ctx, p.surfaces); err != nil {
				logger.Errorf(ctx, "unable to destroy %d surfaces: %v", len(p.surfaces), err)
			}
		}
		p.surfaces = nil
		p.surfaceUsed = nil
	})

	if p.registered {
		p.display.pools.Delete(p.generation)
		p.display.counters.PoolsTornDown.Increment(0)
	}
	p.display.unref(ctx)
}
