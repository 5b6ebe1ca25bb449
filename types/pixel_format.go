// pixel_format.go defines the PixelFormat understood by consumer pipelines.

package types

type PixelFormat string

func (pf PixelFormat) String() string {
	return string(pf)
}

const (
	PixelFormatUnknown PixelFormat = "unknown"
	PixelFormatNV12    PixelFormat = "nv12"
	PixelFormatYUV420P PixelFormat = "yuv420p"
)

// ChromaPlaneHeight returns the height in rows of the chroma plane(s)
// of a picture of the given luma height.
func (pf PixelFormat) ChromaPlaneHeight(lumaHeight uint32) uint32 {
	switch pf {
	case PixelFormatNV12, PixelFormatYUV420P:
		return (lumaHeight + 1) / 2
	default:
		return lumaHeight
	}
}

// PlaneHeight returns the amount of rows in the given plane.
func (pf PixelFormat) PlaneHeight(plane int, lumaHeight uint32) uint32 {
	if plane == 0 {
		return lumaHeight
	}
	return pf.ChromaPlaneHeight(lumaHeight)
}

// PlaneCount returns how many planes the format has.
func (pf PixelFormat) PlaneCount() int {
	switch pf {
	case PixelFormatNV12:
		return 2
	case PixelFormatYUV420P:
		return 3
	default:
		return 0
	}
}
