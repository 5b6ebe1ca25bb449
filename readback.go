// readback.go implements copying a surface out to host memory.

package vasurface

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/internal"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
)

// readbackImage is the hardware image backing a HostBuffer.
type readbackImage struct {
	display *DisplayContext
	image   backend.Image
	mapped  bool
	data    []byte

	// produced is set once the image backs a HostBuffer.
	produced bool
}

// scratchPicture is where a HostBuffer plane table is composed.
type scratchPicture struct {
	planes []Plane
}

func newScratchPicture() *scratchPicture {
	return &scratchPicture{
		planes: make([]Plane, 0, 3),
	}
}

// RetrieveHostBuffer reads back the picture decoded into the leased surface.
func (d *DisplayContext) RetrieveHostBuffer(
	ctx context.Context,
	lease *SurfaceLease,
	width, height uint32,
	props any,
) (*HostBuffer, error) {
	if lease.IsReleased() {
		return nil, ErrAlreadyReleased{What: lease.String()}
	}
	return d.Retrieve(ctx, lease.Surface(), width, height, props)
}

// Retrieve copies the surface into a new hardware image of the negotiated
// format and maps it to the host memory. width and height are the display
// dimensions of the picture, which may be smaller than the coded ones.
//
// The surface content is copied, not aliased: the returned buffer stays
// valid even after the surface is reused for another picture.
func (d *DisplayContext) Retrieve(
	ctx context.Context,
	surface types.SurfaceID,
	width, height uint32,
	props any,
) (_ret *HostBuffer, _err error) {
	ctx = belt.WithField(ctx, "surface_id", uint32(surface))
	logger.Tracef(ctx, "Retrieve(ctx, %s, %d, %d)", surface, width, height)
	defer func() { logger.Tracef(ctx, "/Retrieve(ctx, %s, %d, %d): %v %v", surface, width, height, _ret, _err) }()

	if d.IsClosed() {
		return nil, ErrClosed{}
	}
	mapping, err := d.SelectFormat(ctx)
	if err != nil {
		return nil, err
	}
	if !d.ref() {
		return nil, ErrClosed{}
	}

	img := &readbackImage{
		display: d,
		image: backend.Image{
			ID:  types.InvalidID,
			Buf: types.InvalidID,
		},
	}
	defer func() {
		if _err != nil {
			logger.Errorf(ctx, "readback failed: %v", _err)
			d.counters.ReadbacksFailed.Increment(0)
			img.release(ctx)
		}
	}()

	b := d.backend
	image, err := b.CreateImage(ctx, d.imageFormat, width, height)
	if image.ID.IsValid() {
		img.image = image
	}
	if err != nil {
		return nil, ErrImageCreationFailed{Err: err}
	}
	logger.Tracef(ctx, "created image: %s", spew.Sdump(image))

	// the surface is copied rather than derived, since reading a derived
	// image is usually much slower
	if err := b.GetImage(ctx, surface, 0, 0, width, height, image.ID); err != nil {
		return nil, ErrImageCopyFailed{Surface: surface, Err: err}
	}

	data, err := b.MapBuffer(ctx, image.Buf)
	if err != nil {
		return nil, ErrImageMapFailed{Err: err}
	}
	img.mapped = true
	img.data = data

	planes, err := d.composePlanes(ctx, mapping, image, data)
	if err != nil {
		return nil, ErrImageMapFailed{Err: err}
	}

	buf := &HostBuffer{
		Format: mapping.PixelFormat,
		Width:  width,
		Height: height,
		Planes: planes,
		Props:  props,
		image:  img,
	}
	buf.refCount = internal.NewRefCount(img.release)
	img.produced = true
	internal.SetLeakFinalizer(ctx, buf, func(ctx context.Context, buf *HostBuffer) {
		for {
			if dropped, _ := buf.refCount.TryUnref(ctx); !dropped {
				return
			}
		}
	})
	d.counters.ReadbacksCreated.Increment(uint64(len(data)))
	return buf, nil
}

func (d *DisplayContext) composePlanes(
	ctx context.Context,
	mapping FormatMapping,
	image backend.Image,
	data []byte,
) (_ret []Plane, _err error) {
	d.scratchLocker.Do(ctx, func() {
		if d.scratch == nil {
			_err = ErrClosed{}
			return
		}
		_ret, _err = d.scratch.compose(mapping, image, data)
	})
	return
}

func (s *scratchPicture) compose(
	mapping FormatMapping,
	image backend.Image,
	data []byte,
) ([]Plane, error) {
	s.planes = s.planes[:0]
	if int(image.NumPlanes) < mapping.PixelFormat.PlaneCount() || int(image.NumPlanes) > len(image.Offsets) {
		return nil, fmt.Errorf("the image has %d planes, while %s requires %d", image.NumPlanes, mapping.PixelFormat, mapping.PixelFormat.PlaneCount())
	}
	for i := 0; i < int(image.NumPlanes); i++ {
		offset, stride := image.Offsets[i], image.Pitches[i]
		if int(offset) > len(data) {
			return nil, fmt.Errorf("plane %d starts at %d, beyond the mapped %d bytes", i, offset, len(data))
		}
		end := uint64(offset) + uint64(stride)*uint64(mapping.PixelFormat.PlaneHeight(i, image.Height))
		if end > uint64(len(data)) {
			end = uint64(len(data))
		}
		s.planes = append(s.planes, Plane{
			Data:   data[offset:end],
			Offset: offset,
			Stride: stride,
		})
	}

	// for example YV12 is YUV420P with U and V swapped
	if mapping.SwapChroma {
		s.planes[1], s.planes[2] = s.planes[2], s.planes[1]
	}

	return append([]Plane(nil), s.planes...), nil
}

// release unmaps and destroys the image, in that order, and drops the
// reference to the display context.
func (img *readbackImage) release(ctx context.Context) {
	d := img.display
	b := d.backend
	if img.mapped {
		if err := b.UnmapBuffer(ctx, img.image.Buf); err != nil {
			logger.Errorf(ctx, "unable to unmap the image buffer: %v", err)
		}
		img.mapped = false
		img.data = nil
	}
	if img.image.ID.IsValid() {
		if err := b.DestroyImage(ctx, img.image.ID); err != nil {
			logger.Errorf(ctx, "unable to destroy the image: %v", err)
		}
		img.image.ID = types.InvalidID
	}
	if img.produced {
		d.counters.ReadbacksReleased.Increment(0)
	}
	d.unref(ctx)
}
