// surface_lease.go implements the surface acquisition/release protocol.

package vasurface

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/internal"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// SurfaceLease is an exclusive claim on one surface of a SessionPool for the
// lifetime of one decoded picture. It keeps the pool alive.
type SurfaceLease struct {
	pool     *SessionPool
	index    int
	surface  types.SurfaceID
	released atomic.Bool
}

// ErrPoolTornDown is returned when acquiring from a pool whose last owner is
// already gone.
type ErrPoolTornDown struct {
	Generation uint64
}

func (e ErrPoolTornDown) Error() string {
	return fmt.Sprintf("session pool generation %d is torn down", e.Generation)
}

// Acquire leases the free surface with the lowest index.
//
// It never blocks: if every surface is leased it returns ErrNoFreeSurfaces
// without changing anything.
func (p *SessionPool) Acquire(
	ctx context.Context,
) (_ret *SurfaceLease, _err error) {
	ctx = p.logCtx(ctx)
	logger.Tracef(ctx, "Acquire")
	defer func() { logger.Tracef(ctx, "/Acquire: %v %v", _ret, _err) }()
	lease, err := xsync.DoA1R2(xsync.WithNoLogging(ctx, true), &p.locker, p.acquireLocked, ctx)
	if err != nil {
		return nil, err
	}
	internal.SetLeakFinalizer(ctx, lease, func(ctx context.Context, lease *SurfaceLease) {
		_ = lease.Release(ctx)
	})
	return lease, nil
}

func (p *SessionPool) acquireLocked(
	ctx context.Context,
) (*SurfaceLease, error) {
	if p.tornDown {
		return nil, ErrPoolTornDown{Generation: p.generation}
	}

	idx := -1
	for i, used := range p.surfaceUsed {
		if !used {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.display.counters.NoFreeSurfaces.Increment(0)
		logger.Debugf(ctx, "no free surfaces left")
		return nil, ErrNoFreeSurfaces{SurfaceCount: len(p.surfaceUsed)}
	}

	if !p.refCount.Ref() {
		return nil, ErrPoolTornDown{Generation: p.generation}
	}
	p.surfaceUsed[idx] = true
	p.usedCount++
	p.display.counters.LeasesAcquired.Increment(0)
	return &SurfaceLease{
		pool:    p,
		index:   idx,
		surface: p.surfaces[idx],
	}, nil
}

// release frees the slot and drops the reference taken by acquireLocked.
func (p *SessionPool) release(
	ctx context.Context,
	idx int,
) {
	p.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		internal.Assert(ctx, p.surfaceUsed[idx], fmt.Sprintf("releasing surface #%d which is not in use", idx))
		p.surfaceUsed[idx] = false
		p.usedCount--
	})
	p.display.counters.LeasesReleased.Increment(0)
	p.unref(ctx)
}

func (l *SurfaceLease) String() string {
	return fmt.Sprintf("SurfaceLease(gen:%d, #%d, %s)", l.pool.generation, l.index, l.surface)
}

// Surface is the hardware surface the picture is to be decoded into.
func (l *SurfaceLease) Surface() types.SurfaceID {
	return l.surface
}

func (l *SurfaceLease) Index() int {
	return l.index
}

func (l *SurfaceLease) Pool() *SessionPool {
	return l.pool
}

func (l *SurfaceLease) IsReleased() bool {
	return l.released.Load()
}

// Release returns the surface to the pool. A lease is released exactly once;
// any further call returns ErrAlreadyReleased and has no effect.
func (l *SurfaceLease) Release(ctx context.Context) (_err error) {
	ctx = l.pool.logCtx(ctx)
	logger.Tracef(ctx, "Release(%s)", l)
	defer func() { logger.Tracef(ctx, "/Release(%s): %v", l, _err) }()
	if !l.released.CompareAndSwap(false, true) {
		logger.Errorf(ctx, "%s is released twice", l)
		return ErrAlreadyReleased{What: l.String()}
	}
	internal.ClearFinalizer(l)
	l.pool.release(ctx, l.index)
	return nil
}
