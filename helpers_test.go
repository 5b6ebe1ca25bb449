package vasurface

import (
	"context"
	"sync"
	"testing"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/backend/fake"
	"github.com/xaionaro-go/vasurface/types"
)

const testBaseSurfaceCount = 4

var setCallerPCFilterOnce sync.Once

func testCtx(t *testing.T) context.Context {
	setCallerPCFilterOnce.Do(func() {
		runtime.DefaultCallerPCFilter = observability.CallerPCFilter(runtime.DefaultCallerPCFilter)
	})
	l := logrus.Default().WithLevel(logger.LevelDebug)
	ctx := logger.CtxWithLogger(context.Background(), l)
	t.Cleanup(func() { belt.Flush(ctx) })
	return ctx
}

func testConfig(hw *fake.Hardware, platforms ...backend.Platform) Config {
	if len(platforms) == 0 {
		platforms = []backend.Platform{fake.NewPlatform(types.PlatformKindSimulated)}
	}
	return Config{
		Platforms:        platforms,
		BackendFactory:   hw.NewBackend,
		FormatPriority:   DefaultFormatPriority(),
		BaseSurfaceCount: testBaseSurfaceCount,
	}
}

func testStreamParams() StreamParams {
	return StreamParams{
		Profile:     types.ProfileH264High,
		CodedWidth:  6,
		CodedHeight: 4,
	}
}

func openTestDisplay(
	ctx context.Context,
	t *testing.T,
	hw *fake.Hardware,
) *DisplayContext {
	d, err := OpenDisplay(ctx, "", testConfig(hw))
	require.NoError(t, err)
	return d
}

func negotiateTestPool(
	ctx context.Context,
	t *testing.T,
	d *DisplayContext,
) *SessionPool {
	pool, err := d.NegotiateConfig(ctx, testStreamParams())
	require.NoError(t, err)
	return pool
}

func acquireAll(
	ctx context.Context,
	t *testing.T,
	d *DisplayContext,
) []*SurfaceLease {
	var leases []*SurfaceLease
	for i := 0; i < d.CurrentPool().SurfaceCount(); i++ {
		lease, err := d.AcquireSurface(ctx)
		require.NoError(t, err)
		require.Equal(t, i, lease.Index())
		leases = append(leases, lease)
	}
	return leases
}

func releaseAll(
	ctx context.Context,
	t *testing.T,
	leases ...*SurfaceLease,
) {
	for _, lease := range leases {
		if lease.IsReleased() {
			continue
		}
		require.NoError(t, lease.Release(ctx))
	}
}

func usedCount(usage []bool) int {
	count := 0
	for _, used := range usage {
		if used {
			count++
		}
	}
	return count
}
