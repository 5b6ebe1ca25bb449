// host_buffer.go implements HostBuffer: a decoded picture mapped into
// host-accessible memory.

package vasurface

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/internal"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
)

type Plane struct {
	// Data is the mapped memory of the plane. It is valid until the last
	// reference to the HostBuffer is released.
	Data   []byte
	Offset uint32
	Stride uint32
}

// HostBuffer is a picture read back from a hardware surface. It owns the
// image mapping: the image is unmapped and destroyed when the last
// reference is released.
type HostBuffer struct {
	Format types.PixelFormat
	Width  uint32
	Height uint32
	Planes []Plane

	// Props are arbitrary properties of the source picture, passed through
	// by Retrieve.
	Props any

	image    *readbackImage
	refCount *internal.RefCount
}

func (b *HostBuffer) String() string {
	return fmt.Sprintf("HostBuffer(%s %dx%d, %d planes)", b.Format, b.Width, b.Height, len(b.Planes))
}

// Ref takes an additional reference for another consumer.
func (b *HostBuffer) Ref() error {
	if !b.refCount.Ref() {
		return ErrAlreadyReleased{What: b.String()}
	}
	return nil
}

// Release drops one reference; the last one unmaps and destroys the image.
func (b *HostBuffer) Release(ctx context.Context) error {
	dropped, last := b.refCount.TryUnref(ctx)
	if !dropped {
		logger.Errorf(ctx, "%s is released more times than referenced", b)
		return ErrAlreadyReleased{What: b.String()}
	}
	if last {
		internal.ClearFinalizer(b)
	}
	return nil
}

func (b *HostBuffer) IsReleased() bool {
	return b.refCount.Count() <= 0
}

// PlaneRow returns the visible bytes of the given row of the plane.
func (b *HostBuffer) PlaneRow(plane int, row int) []byte {
	p := b.Planes[plane]
	width := b.planeRowBytes(plane)
	start := row * int(p.Stride)
	return p.Data[start : start+width]
}

func (b *HostBuffer) planeRowBytes(plane int) int {
	switch {
	case plane == 0:
		return int(b.Width)
	case b.Format == types.PixelFormatNV12:
		return int((b.Width + 1) / 2 * 2)
	default:
		return int((b.Width + 1) / 2)
	}
}
