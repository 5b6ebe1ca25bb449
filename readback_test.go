package vasurface

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/backend/fake"
	"github.com/xaionaro-go/vasurface/types"
)

const (
	testDisplayWidth  = 5
	testDisplayHeight = 3
	testCodedWidth    = 6
)

func expectedPlaneRows(
	ctx context.Context,
	t *testing.T,
	hw *fake.Hardware,
	surface types.SurfaceID,
	pixFmt types.PixelFormat,
) [][][]byte {
	y, u, v, err := hw.SurfacePlanes(ctx, surface)
	require.NoError(t, err)

	const srcChromaWidth = (testCodedWidth + 1) / 2
	chromaWidth := (testDisplayWidth + 1) / 2
	chromaHeight := (testDisplayHeight + 1) / 2

	var luma [][]byte
	for row := 0; row < testDisplayHeight; row++ {
		luma = append(luma, y[row*testCodedWidth:row*testCodedWidth+testDisplayWidth])
	}
	var cb, cr, interleaved [][]byte
	for row := 0; row < chromaHeight; row++ {
		cb = append(cb, u[row*srcChromaWidth:row*srcChromaWidth+chromaWidth])
		cr = append(cr, v[row*srcChromaWidth:row*srcChromaWidth+chromaWidth])
		var uv []byte
		for col := 0; col < chromaWidth; col++ {
			uv = append(uv, u[row*srcChromaWidth+col], v[row*srcChromaWidth+col])
		}
		interleaved = append(interleaved, uv)
	}
	if pixFmt == types.PixelFormatNV12 {
		return [][][]byte{luma, interleaved}
	}
	return [][][]byte{luma, cb, cr}
}

func planeRows(buf *HostBuffer) [][][]byte {
	var result [][][]byte
	for plane := range buf.Planes {
		var rows [][]byte
		for row := 0; row < int(buf.Format.PlaneHeight(plane, buf.Height)); row++ {
			rows = append(rows, append([]byte(nil), buf.PlaneRow(plane, row)...))
		}
		result = append(result, rows)
	}
	return result
}

func TestRetrieveRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		fourCC types.FourCC
		pixFmt types.PixelFormat
	}{
		{types.FourCCNV12, types.PixelFormatNV12},
		{types.FourCCYV12, types.PixelFormatYUV420P},
		{types.FourCCI420, types.PixelFormatYUV420P},
	} {
		t.Run(tc.fourCC.String(), func(t *testing.T) {
			ctx := testCtx(t)
			hw := fake.NewHardware()
			hw.Formats = []types.ImageFormat{{FourCC: tc.fourCC, BitsPerPixel: 12}}
			d := openTestDisplay(ctx, t, hw)
			defer d.Close(ctx)
			pool := negotiateTestPool(ctx, t, d)

			lease, err := d.AcquireSurface(ctx)
			require.NoError(t, err)
			defer releaseAll(ctx, t, lease)
			require.NoError(t, hw.Decode(ctx, lease.Surface(), 10))

			buf, err := d.RetrieveHostBuffer(ctx, lease, testDisplayWidth, testDisplayHeight, "pts:42")
			require.NoError(t, err)
			require.Equal(t, tc.pixFmt, buf.Format)
			require.Equal(t, uint32(testDisplayWidth), buf.Width)
			require.Equal(t, uint32(testDisplayHeight), buf.Height)
			require.Equal(t, "pts:42", buf.Props)
			require.Len(t, buf.Planes, tc.pixFmt.PlaneCount())
			require.Equal(t, expectedPlaneRows(ctx, t, hw, lease.Surface(), tc.pixFmt), planeRows(buf))
			require.Equal(t, 1, hw.MappedImages(ctx))

			// the readback does not touch the pool
			require.Equal(t, []bool{true, false, false, false}, pool.Usage())

			require.NoError(t, buf.Release(ctx))
			require.True(t, buf.IsReleased())
			require.Zero(t, hw.LiveImages(ctx))
			require.ErrorAs(t, buf.Release(ctx), &ErrAlreadyReleased{})
		})
	}
}

func TestRetrieveIsACopy(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	d := openTestDisplay(ctx, t, hw)
	defer d.Close(ctx)
	negotiateTestPool(ctx, t, d)

	first, err := d.AcquireSurface(ctx)
	require.NoError(t, err)
	second, err := d.AcquireSurface(ctx)
	require.NoError(t, err)
	defer releaseAll(ctx, t, second)
	require.NoError(t, hw.Decode(ctx, first.Surface(), 1))
	require.NoError(t, hw.Decode(ctx, second.Surface(), 2))

	buf, err := d.RetrieveHostBuffer(ctx, first, testDisplayWidth, testDisplayHeight, nil)
	require.NoError(t, err)
	defer buf.Release(ctx)
	rows := planeRows(buf)

	// reuse the surface for another picture
	require.NoError(t, first.Release(ctx))
	reused, err := d.AcquireSurface(ctx)
	require.NoError(t, err)
	defer releaseAll(ctx, t, reused)
	require.Equal(t, first.Surface(), reused.Surface())
	require.NoError(t, hw.Decode(ctx, reused.Surface(), 3))

	require.Equal(t, rows, planeRows(buf))
	require.False(t, second.IsReleased())

	_, err = d.RetrieveHostBuffer(ctx, first, testDisplayWidth, testDisplayHeight, nil)
	require.ErrorAs(t, err, &ErrAlreadyReleased{})
}

func TestRetrieveChromaSwap(t *testing.T) {
	retrieve := func(t *testing.T, fourCC types.FourCC) *HostBuffer {
		ctx := testCtx(t)
		hw := fake.NewHardware()
		hw.Formats = []types.ImageFormat{{FourCC: fourCC, BitsPerPixel: 12}}
		d := openTestDisplay(ctx, t, hw)
		t.Cleanup(func() { d.Close(ctx) })
		negotiateTestPool(ctx, t, d)

		lease, err := d.AcquireSurface(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { releaseAll(ctx, t, lease) })
		require.NoError(t, hw.Decode(ctx, lease.Surface(), 7))

		buf, err := d.RetrieveHostBuffer(ctx, lease, testDisplayWidth, testDisplayHeight, nil)
		require.NoError(t, err)
		t.Cleanup(func() { buf.Release(ctx) })
		return buf
	}

	yv12 := retrieve(t, types.FourCCYV12)
	i420 := retrieve(t, types.FourCCI420)

	require.Equal(t, types.PixelFormatYUV420P, yv12.Format)
	require.Equal(t, types.PixelFormatYUV420P, i420.Format)
	require.Greater(t, yv12.Planes[1].Offset, yv12.Planes[2].Offset)
	require.Less(t, i420.Planes[1].Offset, i420.Planes[2].Offset)
	require.Equal(t, planeRows(i420), planeRows(yv12))
}

func TestRetrieveFailureRollback(t *testing.T) {
	for _, tc := range []struct {
		failOn fake.Op
		err    error
	}{
		{fake.OpCreateImage, &ErrImageCreationFailed{}},
		{fake.OpGetImage, &ErrImageCopyFailed{}},
		{fake.OpMapBuffer, &ErrImageMapFailed{}},
	} {
		t.Run(string(tc.failOn), func(t *testing.T) {
			ctx := testCtx(t)
			hw := fake.NewHardware()
			d := openTestDisplay(ctx, t, hw)
			defer d.Close(ctx)
			negotiateTestPool(ctx, t, d)

			lease, err := d.AcquireSurface(ctx)
			require.NoError(t, err)
			defer releaseAll(ctx, t, lease)
			refCount := d.RefCount()

			hw.FailOn(ctx, tc.failOn, backend.StatusOperationFailed)
			_, err = d.RetrieveHostBuffer(ctx, lease, testDisplayWidth, testDisplayHeight, nil)
			require.ErrorAs(t, err, tc.err)

			require.Zero(t, hw.LiveImages(ctx))
			require.Zero(t, hw.MappedImages(ctx))
			require.Equal(t, refCount, d.RefCount())
			require.Equal(t, uint64(1), d.Stats().ReadbacksFailed.Count)
			require.Zero(t, d.Stats().ReadbacksReleased.Count)
		})
	}
}

func TestRetrieveUnmapsBeforeDestroy(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	d := openTestDisplay(ctx, t, hw)
	defer d.Close(ctx)
	negotiateTestPool(ctx, t, d)

	lease, err := d.AcquireSurface(ctx)
	require.NoError(t, err)
	defer releaseAll(ctx, t, lease)

	buf, err := d.RetrieveHostBuffer(ctx, lease, testDisplayWidth, testDisplayHeight, nil)
	require.NoError(t, err)

	require.NoError(t, buf.Ref())
	require.NoError(t, buf.Release(ctx))
	require.Equal(t, 1, hw.LiveImages(ctx))
	require.NoError(t, buf.Release(ctx))
	require.ErrorAs(t, buf.Ref(), &ErrAlreadyReleased{})

	journal := hw.Journal(ctx)
	require.Equal(t, []fake.Op{fake.OpUnmapBuffer, fake.OpDestroyImage}, journal[len(journal)-2:])
	stats := d.Stats()
	require.Equal(t, uint64(1), stats.ReadbacksCreated.Count)
	require.Equal(t, uint64(1), stats.ReadbacksReleased.Count)
}

func TestRetrieveClosed(t *testing.T) {
	ctx := testCtx(t)
	hw := fake.NewHardware()
	d := openTestDisplay(ctx, t, hw)
	require.NoError(t, d.Close(ctx))

	_, err := d.Retrieve(ctx, types.SurfaceID(1), testDisplayWidth, testDisplayHeight, nil)
	require.ErrorAs(t, err, &ErrClosed{})
	require.Zero(t, hw.Calls(ctx, fake.OpCreateImage))
}

func ExampleDisplayContext_Retrieve() {
	ctx := context.Background()
	hw := fake.NewHardware()
	cfg := Config{
		Platforms:        []backend.Platform{fake.NewPlatform(types.PlatformKindSimulated)},
		BackendFactory:   hw.NewBackend,
		FormatPriority:   DefaultFormatPriority(),
		BaseSurfaceCount: DefaultBaseSurfaceCount,
	}
	d, err := OpenDisplay(ctx, "", cfg)
	if err != nil {
		panic(err)
	}
	defer d.Close(ctx)

	if _, err := d.NegotiateConfig(ctx, StreamParams{
		Profile:     types.ProfileH264Main,
		CodedWidth:  64,
		CodedHeight: 32,
	}); err != nil {
		panic(err)
	}
	lease, err := d.AcquireSurface(ctx)
	if err != nil {
		panic(err)
	}
	defer lease.Release(ctx)

	buf, err := d.RetrieveHostBuffer(ctx, lease, 64, 32, nil)
	if err != nil {
		panic(err)
	}
	defer buf.Release(ctx)
	fmt.Println(buf)
	// Output: HostBuffer(yuv420p 64x32, 3 planes)
}
