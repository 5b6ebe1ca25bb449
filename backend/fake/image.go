package fake

import (
	"context"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/types"
)

func align(v, alignment uint32) uint32 {
	if alignment <= 1 {
		return v
	}
	return (v + alignment - 1) / alignment * alignment
}

// layout computes the plane table of an image of the given format.
func (hw *Hardware) layout(
	format types.ImageFormat,
	width, height uint32,
) (backend.Image, bool) {
	cw, ch := chromaSize(width, height)
	img := backend.Image{
		Format: format,
		Width:  width,
		Height: height,
	}
	switch format.FourCC {
	case types.FourCCNV12:
		img.NumPlanes = 2
		img.Pitches[0] = align(width, hw.PitchAlignment)
		img.Pitches[1] = align(cw*2, hw.PitchAlignment)
		img.Offsets[1] = img.Pitches[0] * height
		img.DataSize = img.Offsets[1] + img.Pitches[1]*ch
	case types.FourCCYV12, types.FourCCI420:
		img.NumPlanes = 3
		img.Pitches[0] = align(width, hw.PitchAlignment)
		img.Pitches[1] = align(cw, hw.PitchAlignment)
		img.Pitches[2] = img.Pitches[1]
		img.Offsets[1] = img.Pitches[0] * height
		img.Offsets[2] = img.Offsets[1] + img.Pitches[1]*ch
		img.DataSize = img.Offsets[2] + img.Pitches[2]*ch
	default:
		return backend.Image{}, false
	}
	return img, true
}

func (hw *Hardware) CreateImage(
	ctx context.Context,
	format types.ImageFormat,
	width, height uint32,
) (_ret backend.Image, _err error) {
	_ret = backend.Image{ID: types.InvalidID, Buf: types.InvalidID}
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpCreateImage); _err != nil {
			return
		}
		if width == 0 || height == 0 {
			_err = backend.NewErrStatus(string(OpCreateImage), backend.StatusInvalidParameter, "%dx%d", width, height)
			return
		}
		desc, ok := hw.layout(format, width, height)
		if !ok {
			_err = backend.NewErrStatus(string(OpCreateImage), backend.StatusInvalidImageFormat, "%s", format)
			return
		}
		desc.ID = types.ImageID(hw.newIDLocked())
		desc.Buf = types.BufferID(hw.newIDLocked())
		hw.images[desc.ID] = &image{
			desc: desc,
			data: make([]byte, desc.DataSize),
		}
		hw.buffers[desc.Buf] = desc.ID
		_ret = desc
	})
	return
}

func (hw *Hardware) GetImage(
	ctx context.Context,
	surfaceID types.SurfaceID,
	x, y int,
	width, height uint32,
	imageID types.ImageID,
) (_err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpGetImage); _err != nil {
			return
		}
		s, ok := hw.surfaces[surfaceID]
		if !ok {
			_err = backend.NewErrStatus(string(OpGetImage), backend.StatusInvalidSurface, "%s", surfaceID)
			return
		}
		img, ok := hw.images[imageID]
		if !ok {
			_err = backend.NewErrStatus(string(OpGetImage), backend.StatusInvalidImage, "%d", uint32(imageID))
			return
		}
		if x != 0 || y != 0 ||
			width > s.width || height > s.height ||
			width > img.desc.Width || height > img.desc.Height {
			_err = backend.NewErrStatus(string(OpGetImage), backend.StatusInvalidParameter,
				"rectangle %dx%d+%d+%d does not fit the surface %dx%d or the image %dx%d",
				width, height, x, y, s.width, s.height, img.desc.Width, img.desc.Height)
			return
		}
		copySurface(img, s, width, height)
	})
	return
}

func copySurface(img *image, s *surface, width, height uint32) {
	desc := img.desc
	srcCW := (s.width + 1) / 2
	cw, ch := chromaSize(width, height)

	copyPlane := func(plane int, src []byte, srcStride, rowBytes, rows uint32) {
		for row := uint32(0); row < rows; row++ {
			dst := img.data[desc.Offsets[plane]+row*desc.Pitches[plane]:]
			copy(dst[:rowBytes], src[row*srcStride:row*srcStride+rowBytes])
		}
	}

	copyPlane(0, s.y, s.width, width, height)
	switch desc.Format.FourCC {
	case types.FourCCNV12:
		for row := uint32(0); row < ch; row++ {
			dst := img.data[desc.Offsets[1]+row*desc.Pitches[1]:]
			for col := uint32(0); col < cw; col++ {
				dst[col*2] = s.u[row*srcCW+col]
				dst[col*2+1] = s.v[row*srcCW+col]
			}
		}
	case types.FourCCYV12:
		copyPlane(1, s.v, srcCW, cw, ch)
		copyPlane(2, s.u, srcCW, cw, ch)
	case types.FourCCI420:
		copyPlane(1, s.u, srcCW, cw, ch)
		copyPlane(2, s.v, srcCW, cw, ch)
	}
}

func (hw *Hardware) MapBuffer(
	ctx context.Context,
	buf types.BufferID,
) (_ret []byte, _err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpMapBuffer); _err != nil {
			return
		}
		img, ok := hw.imageByBufferLocked(buf)
		if !ok {
			_err = backend.NewErrStatus(string(OpMapBuffer), backend.StatusInvalidBuffer, "%d", uint32(buf))
			return
		}
		if img.mapped {
			_err = backend.NewErrStatus(string(OpMapBuffer), backend.StatusOperationFailed, "buffer %d is already mapped", uint32(buf))
			return
		}
		img.mapped = true
		_ret = img.data
	})
	return
}

func (hw *Hardware) UnmapBuffer(
	ctx context.Context,
	buf types.BufferID,
) (_err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpUnmapBuffer); _err != nil {
			return
		}
		img, ok := hw.imageByBufferLocked(buf)
		if !ok {
			_err = backend.NewErrStatus(string(OpUnmapBuffer), backend.StatusInvalidBuffer, "%d", uint32(buf))
			return
		}
		if !img.mapped {
			_err = backend.NewErrStatus(string(OpUnmapBuffer), backend.StatusOperationFailed, "buffer %d is not mapped", uint32(buf))
			return
		}
		img.mapped = false
	})
	return
}

func (hw *Hardware) DestroyImage(
	ctx context.Context,
	imageID types.ImageID,
) (_err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpDestroyImage); _err != nil {
			return
		}
		img, ok := hw.images[imageID]
		if !ok {
			_err = backend.NewErrStatus(string(OpDestroyImage), backend.StatusInvalidImage, "%d", uint32(imageID))
			return
		}
		if img.mapped {
			_err = backend.NewErrStatus(string(OpDestroyImage), backend.StatusOperationFailed, "image %d is still mapped", uint32(imageID))
			return
		}
		delete(hw.buffers, img.desc.Buf)
		delete(hw.images, imageID)
	})
	return
}

func (hw *Hardware) imageByBufferLocked(buf types.BufferID) (*image, bool) {
	imageID, ok := hw.buffers[buf]
	if !ok {
		return nil, false
	}
	img, ok := hw.images[imageID]
	return img, ok
}
