// Package frame converts read back pictures into libav frames.
package frame

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/vasurface"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
)

func PixelFormatToAstiav(pf types.PixelFormat) astiav.PixelFormat {
	switch pf {
	case types.PixelFormatNV12:
		return astiav.PixelFormatNv12
	case types.PixelFormatYUV420P:
		return astiav.PixelFormatYuv420P
	default:
		return astiav.PixelFormatNone
	}
}

// FromHostBuffer copies the visible part of the picture into a frame taken
// from Pool. The HostBuffer is not released and may be released right after
// the call.
func FromHostBuffer(
	ctx context.Context,
	buf *vasurface.HostBuffer,
) (_ret *astiav.Frame, _err error) {
	logger.Tracef(ctx, "FromHostBuffer(ctx, %s)", buf)
	defer func() { logger.Tracef(ctx, "/FromHostBuffer(ctx, %s): %v", buf, _err) }()

	pixFmt := PixelFormatToAstiav(buf.Format)
	if pixFmt == astiav.PixelFormatNone {
		return nil, fmt.Errorf("pixel format '%s' has no libav equivalent", buf.Format)
	}
	if len(buf.Planes) != buf.Format.PlaneCount() {
		return nil, fmt.Errorf("expected %d planes for '%s', got %d", buf.Format.PlaneCount(), buf.Format, len(buf.Planes))
	}

	f := Pool.Get()
	defer func() {
		if _err != nil {
			Pool.Put(f)
		}
	}()

	f.SetWidth(int(buf.Width))
	f.SetHeight(int(buf.Height))
	f.SetPixelFormat(pixFmt)
	if err := f.AllocBuffer(1); err != nil {
		return nil, fmt.Errorf("unable to allocate frame buffer: %w", err)
	}

	packed := Pack(buf)
	if err := f.Data().SetBytes(packed, 1); err != nil {
		return nil, fmt.Errorf("unable to set frame data from buffer: %w", err)
	}
	return f, nil
}

// Pack returns the visible rows of all the planes concatenated without
// padding.
func Pack(buf *vasurface.HostBuffer) []byte {
	var out []byte
	for plane := range buf.Planes {
		rows := int(buf.Format.PlaneHeight(plane, buf.Height))
		for row := 0; row < rows; row++ {
			out = append(out, buf.PlaneRow(plane, row)...)
		}
	}
	return out
}
