package fake

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/types"
	"github.com/xaionaro-go/xsync"
)

func chromaSize(width, height uint32) (uint32, uint32) {
	return (width + 1) / 2, (height + 1) / 2
}

func (hw *Hardware) CreateSurfaces(
	ctx context.Context,
	rtFormat types.RTFormat,
	width, height uint32,
	count int,
) (_ret []types.SurfaceID, _err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpCreateSurfaces); _err != nil {
			return
		}
		if rtFormat != types.RTFormatYUV420 {
			_err = backend.NewErrStatus(string(OpCreateSurfaces), backend.StatusUnsupportedRTFormat, "%s", rtFormat)
			return
		}
		if width == 0 || height == 0 || count <= 0 {
			_err = backend.NewErrStatus(string(OpCreateSurfaces), backend.StatusInvalidParameter, "%dx%d x%d", width, height, count)
			return
		}
		if hw.MaxSurfaces > 0 && len(hw.surfaces)+count > hw.MaxSurfaces {
			_err = backend.NewErrStatus(string(OpCreateSurfaces), backend.StatusAllocationFailed,
				"%d surfaces requested, %d of %d are in use", count, len(hw.surfaces), hw.MaxSurfaces)
			return
		}
		cw, ch := chromaSize(width, height)
		for range count {
			id := types.SurfaceID(hw.newIDLocked())
			hw.surfaces[id] = &surface{
				width:  width,
				height: height,
				y:      make([]byte, width*height),
				u:      make([]byte, cw*ch),
				v:      make([]byte, cw*ch),
				owner:  types.InvalidID,
			}
			_ret = append(_ret, id)
		}
	})
	return
}

func (hw *Hardware) DestroySurfaces(
	ctx context.Context,
	surfaces []types.SurfaceID,
) (_err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpDestroySurfaces); _err != nil {
			return
		}
		for _, id := range surfaces {
			s, ok := hw.surfaces[id]
			if !ok {
				_err = backend.NewErrStatus(string(OpDestroySurfaces), backend.StatusInvalidSurface, "%s", id)
				return
			}
			if s.owner.IsValid() {
				_err = backend.NewErrStatus(string(OpDestroySurfaces), backend.StatusOperationFailed,
					"%s is still bound to the decoding context %d", id, uint32(s.owner))
				return
			}
		}
		for _, id := range surfaces {
			delete(hw.surfaces, id)
		}
	})
	return
}

// Decode simulates decoding a picture into the surface: the planes are
// filled with a pattern derived from seed.
func (hw *Hardware) Decode(
	ctx context.Context,
	id types.SurfaceID,
	seed byte,
) error {
	return xsync.DoR1(ctx, &hw.locker, func() error {
		s, ok := hw.surfaces[id]
		if !ok {
			return fmt.Errorf("unknown %s", id)
		}
		for i := range s.y {
			s.y[i] = seed + byte(i)
		}
		for i := range s.u {
			s.u[i] = seed*2 + byte(i)
			s.v[i] = seed*3 + byte(i)
		}
		return nil
	})
}

// SurfacePlanes returns copies of the Y, U and V planes of the surface;
// every plane is tightly packed.
func (hw *Hardware) SurfacePlanes(
	ctx context.Context,
	id types.SurfaceID,
) (y, u, v []byte, _err error) {
	hw.locker.Do(ctx, func() {
		s, ok := hw.surfaces[id]
		if !ok {
			_err = fmt.Errorf("unknown %s", id)
			return
		}
		y = append([]byte(nil), s.y...)
		u = append([]byte(nil), s.u...)
		v = append([]byte(nil), s.v...)
	})
	return
}
