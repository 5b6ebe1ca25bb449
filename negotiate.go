// negotiate.go implements the "current pool" slot of a DisplayContext.

package vasurface

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/xsync"
)

// NegotiateConfig replaces the current pool with a new one created for the
// given stream parameters.
//
// The previous pool is retired before the new one is created, so its
// surfaces may be freed first (if no lease holds it). If the creation fails,
// no pool is current afterwards.
//
// The returned pool is owned by the context; the caller must not release it.
func (d *DisplayContext) NegotiateConfig(
	ctx context.Context,
	params StreamParams,
) (_ret *SessionPool, _err error) {
	logger.Debugf(ctx, "NegotiateConfig(ctx, %s)", params)
	defer func() { logger.Debugf(ctx, "/NegotiateConfig(ctx, %s): %v %v", params, _ret, _err) }()
	return xsync.DoA2R2(ctx, &d.installLocker, d.negotiateConfigLocked, ctx, params)
}

func (d *DisplayContext) negotiateConfigLocked(
	ctx context.Context,
	params StreamParams,
) (*SessionPool, error) {
	if d.IsClosed() {
		return nil, ErrClosed{}
	}

	d.installLocked(ctx, nil)

	pool, err := NewSessionPool(ctx, d, params)
	if err != nil {
		logger.Logf(ctx, d.Config.failureLogLevel(), "unable to initialize a session configuration: %v", err)
		return nil, err
	}

	d.installLocked(ctx, pool)
	return pool, nil
}

// Install makes pool the current one, taking over the "current" reference
// NewSessionPool returned it with. The reference of the previously current
// pool is dropped: that pool is torn down right away if no lease holds it.
func (d *DisplayContext) Install(
	ctx context.Context,
	pool *SessionPool,
) (_err error) {
	logger.Debugf(ctx, "Install(ctx, %v)", pool)
	defer func() { logger.Debugf(ctx, "/Install(ctx, %v): %v", pool, _err) }()
	if pool != nil && pool.display != d {
		return fmt.Errorf("%s belongs to %s, not to %s", pool, pool.display, d)
	}
	return xsync.DoR1(ctx, &d.installLocker, func() error {
		if d.IsClosed() {
			return ErrClosed{}
		}
		d.installLocked(ctx, pool)
		return nil
	})
}

func (d *DisplayContext) installLocked(
	ctx context.Context,
	pool *SessionPool,
) {
	old := xatomic.SwapPointer(&d.currentPool, pool)
	if old == nil {
		return
	}
	if old == pool {
		logger.Errorf(ctx, "%s is installed twice", pool)
		return
	}
	logger.Debugf(ctx, "retiring %s (references left: %d)", old, old.RefCount()-1)
	old.unref(ctx)
}

// CurrentPool returns the pool new leases are drawn from, or nil.
func (d *DisplayContext) CurrentPool() *SessionPool {
	return xatomic.LoadPointer(&d.currentPool)
}

// AcquireSurface leases a surface of the current pool.
func (d *DisplayContext) AcquireSurface(
	ctx context.Context,
) (*SurfaceLease, error) {
	return xsync.DoA1R2(xsync.WithNoLogging(ctx, true), &d.installLocker, d.acquireSurfaceLocked, ctx)
}

func (d *DisplayContext) acquireSurfaceLocked(
	ctx context.Context,
) (*SurfaceLease, error) {
	pool := d.CurrentPool()
	if pool == nil {
		return nil, ErrNoCurrentPool{}
	}
	return pool.Acquire(ctx)
}

// PoolInfo describes one live pool generation.
type PoolInfo struct {
	Generation   uint64
	Params       StreamParams
	SurfaceCount int
	UsedCount    int
	IsCurrent    bool
}

// LivePools returns every pool generation that is not torn down yet, the
// oldest first. Retired generations stay here while leases hold them.
func (d *DisplayContext) LivePools() []PoolInfo {
	current := d.CurrentPool()
	var result []PoolInfo
	d.pools.Range(func(generation uint64, pool *SessionPool) bool {
		result = append(result, PoolInfo{
			Generation:   generation,
			Params:       pool.Params(),
			SurfaceCount: pool.SurfaceCount(),
			UsedCount:    pool.UsedCount(),
			IsCurrent:    pool == current,
		})
		return true
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].Generation < result[j].Generation
	})
	return result
}
