package vasurface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/backend/fake"
	"github.com/xaionaro-go/vasurface/types"
)

func TestOpenDisplayFallback(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	hw.AcceptPlatforms = []types.PlatformKind{types.PlatformKindX11}
	drmPlatform := fake.NewPlatform(types.PlatformKindDRM)
	x11Platform := fake.NewPlatform(types.PlatformKindX11)

	d, err := OpenDisplay(ctx, "", testConfig(hw, drmPlatform, x11Platform))
	require.NoError(t, err)
	require.Equal(t, int64(0), drmPlatform.OpenConnections())
	require.Equal(t, int64(1), x11Platform.OpenConnections())
	require.Equal(t, hw, d.Backend())

	major, minor := d.Version()
	require.Equal(t, 1, major)
	require.Equal(t, 20, minor)

	require.NoError(t, d.Close(ctx))
	require.True(t, hw.IsTerminated(ctx))
	require.Equal(t, int64(0), x11Platform.OpenConnections())
}

func TestOpenDisplayNoBackend(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	drmPlatform := fake.NewPlatform(types.PlatformKindDRM)
	drmPlatform.OpenError = errors.New("no such device")
	x11Platform := fake.NewPlatform(types.PlatformKindX11)
	x11Platform.OpenError = errors.New("no display")

	_, err := OpenDisplay(ctx, "", testConfig(hw, drmPlatform, x11Platform))
	var errNoBackend ErrNoBackend
	require.ErrorAs(t, err, &errNoBackend)
	require.Len(t, errNoBackend.Attempts, 2)
	require.Zero(t, hw.Calls(ctx, fake.OpInitialize))
}

func TestOpenDisplayInitializeFailure(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	hw.FailOn(ctx, fake.OpInitialize, backend.StatusUnknown)
	platform := fake.NewPlatform(types.PlatformKindSimulated)

	_, err := OpenDisplay(ctx, "", testConfig(hw, platform))
	require.ErrorAs(t, err, &ErrVersionNegotiationFailed{})
	require.Zero(t, hw.Calls(ctx, fake.OpTerminate))
	require.Equal(t, int64(0), platform.OpenConnections())
}

func TestOpenDisplayVersionTooLow(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	platform := fake.NewPlatform(types.PlatformKindSimulated)
	cfg := testConfig(hw, platform)
	cfg.MinVersionMajor = 2

	_, err := OpenDisplay(ctx, "", cfg)
	require.ErrorAs(t, err, &ErrVersionNegotiationFailed{})
	require.True(t, hw.IsTerminated(ctx))
	require.Equal(t, int64(0), platform.OpenConnections())
}

func TestOpenDisplayNoSupportedFormat(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	hw.Formats = []types.ImageFormat{{FourCC: types.FourCCP010, BitsPerPixel: 24}}

	_, err := OpenDisplay(ctx, "", testConfig(hw))
	var errNoFormat ErrNoSupportedFormat
	require.ErrorAs(t, err, &errNoFormat)
	require.Equal(t, hw.Formats, errNoFormat.Advertised)
	require.True(t, hw.IsTerminated(ctx))
}

func TestOpenDisplayInvalidConfig(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	cfg := testConfig(hw)
	cfg.BackendFactory = nil

	_, err := OpenDisplay(ctx, "", cfg)
	require.Error(t, err)
	require.Zero(t, hw.Calls(ctx, fake.OpInitialize))
}

func TestSelectFormatIsStable(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	hw.Formats = []types.ImageFormat{
		{FourCC: types.FourCCI420, BitsPerPixel: 12},
		{FourCC: types.FourCCNV12, BitsPerPixel: 12},
	}
	d := openTestDisplay(ctx, t, hw)
	defer d.Close(ctx)

	require.Equal(t, types.PixelFormatNV12, d.PixelFormat())
	queries := hw.Calls(ctx, fake.OpQueryImageFormats)

	mapping, err := d.SelectFormat(ctx)
	require.NoError(t, err)
	require.Equal(t, types.FourCCNV12, mapping.FourCC)
	require.Equal(t, queries, hw.Calls(ctx, fake.OpQueryImageFormats))
}

func TestCloseDefersTerminate(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	d := openTestDisplay(ctx, t, hw)
	pool := negotiateTestPool(ctx, t, d)

	lease, err := d.AcquireSurface(ctx)
	require.NoError(t, err)
	require.NoError(t, hw.Decode(ctx, lease.Surface(), 1))
	buf, err := d.RetrieveHostBuffer(ctx, lease, 6, 4, nil)
	require.NoError(t, err)

	require.NoError(t, d.Close(ctx))
	require.True(t, d.IsClosed())
	require.ErrorAs(t, d.Close(ctx), &ErrClosed{})
	require.Nil(t, d.CurrentPool())
	require.False(t, pool.IsTornDown())
	require.False(t, hw.IsTerminated(ctx))

	_, err = d.AcquireSurface(ctx)
	require.ErrorAs(t, err, &ErrNoCurrentPool{})
	_, err = d.NegotiateConfig(ctx, testStreamParams())
	require.ErrorAs(t, err, &ErrClosed{})

	require.NoError(t, lease.Release(ctx))
	require.True(t, pool.IsTornDown())
	require.Zero(t, hw.LiveSurfaces(ctx))
	require.False(t, hw.IsTerminated(ctx))

	require.NoError(t, buf.Release(ctx))
	require.Zero(t, hw.LiveImages(ctx))
	require.True(t, hw.IsTerminated(ctx))
	require.Equal(t, int64(0), d.RefCount())
}

func TestStatistics(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	d := openTestDisplay(ctx, t, hw)
	negotiateTestPool(ctx, t, d)

	leases := acquireAll(ctx, t, d)
	_, err := d.AcquireSurface(ctx)
	require.ErrorAs(t, err, &ErrNoFreeSurfaces{})
	releaseAll(ctx, t, leases...)
	require.NoError(t, d.Close(ctx))

	stats := d.Stats()
	require.Equal(t, uint64(1), stats.PoolsCreated.Count)
	require.Equal(t, uint64(1), stats.PoolsTornDown.Count)
	require.Equal(t, uint64(testBaseSurfaceCount), stats.LeasesAcquired.Count)
	require.Equal(t, uint64(testBaseSurfaceCount), stats.LeasesReleased.Count)
	require.Equal(t, uint64(1), stats.NoFreeSurfaces.Count)
	require.NotEmpty(t, stats.String())
}
