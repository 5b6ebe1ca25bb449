// config.go defines the configuration of a DisplayContext.

package vasurface

import (
	"fmt"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/backend/drm"
	"github.com/xaionaro-go/vasurface/backend/x11"
	"github.com/xaionaro-go/vasurface/logger"
	"github.com/xaionaro-go/vasurface/types"
)

const (
	DefaultBaseSurfaceCount = 16
)

// FormatMapping binds a hardware image format to the pixel format the
// consumer pipeline sees.
type FormatMapping struct {
	FourCC      types.FourCC
	PixelFormat types.PixelFormat

	// SwapChroma is set when the hardware format stores the chroma planes
	// in the V-then-U order, while PixelFormat expects U-then-V.
	SwapChroma bool
}

func (m FormatMapping) String() string {
	if m.SwapChroma {
		return fmt.Sprintf("%s->%s(swapped chroma)", m.FourCC, m.PixelFormat)
	}
	return fmt.Sprintf("%s->%s", m.FourCC, m.PixelFormat)
}

// DefaultFormatPriority is the list of formats understood by libav-based
// consumers, the most preferred first.
func DefaultFormatPriority() []FormatMapping {
	return []FormatMapping{
		{FourCC: types.FourCCYV12, PixelFormat: types.PixelFormatYUV420P, SwapChroma: true},
		{FourCC: types.FourCCNV12, PixelFormat: types.PixelFormatNV12},
		{FourCC: types.FourCCI420, PixelFormat: types.PixelFormatYUV420P},
	}
}

type Config struct {
	// Platforms are tried in order, the first one yielding a usable
	// backend wins.
	Platforms []backend.Platform

	BackendFactory backend.Factory

	FormatPriority []FormatMapping

	// BaseSurfaceCount is the amount of surfaces of a pool before adding
	// the per-thread surfaces of frame-parallel decoding.
	BaseSurfaceCount int

	MinVersionMajor int
	MinVersionMinor int

	// Autodetected means hardware acceleration was not explicitly requested
	// by the user, so setup failures are expected and logged at Debug level.
	Autodetected bool
}

// DefaultConfig returns the default configuration. BackendFactory is left
// unset, since it depends on the hardware API binding in use.
func DefaultConfig() Config {
	return Config{
		Platforms: []backend.Platform{
			drm.Platform{},
			x11.Platform{},
		},
		FormatPriority:   DefaultFormatPriority(),
		BaseSurfaceCount: DefaultBaseSurfaceCount,
	}
}

func (cfg Config) Validate() error {
	if len(cfg.Platforms) == 0 {
		return fmt.Errorf("no platforms configured")
	}
	if cfg.BackendFactory == nil {
		return fmt.Errorf("BackendFactory is not set")
	}
	if len(cfg.FormatPriority) == 0 {
		return fmt.Errorf("the format priority list is empty")
	}
	for idx, m := range cfg.FormatPriority {
		if m.PixelFormat.PlaneCount() == 0 {
			return fmt.Errorf("format #%d (%s) maps to an unsupported pixel format", idx, m)
		}
		if m.SwapChroma && m.PixelFormat.PlaneCount() != 3 {
			return fmt.Errorf("format #%d (%s) swaps chroma of a format with %d planes", idx, m, m.PixelFormat.PlaneCount())
		}
	}
	if cfg.BaseSurfaceCount <= 0 {
		return fmt.Errorf("BaseSurfaceCount must be positive, got %d", cfg.BaseSurfaceCount)
	}
	return nil
}

func (cfg Config) failureLogLevel() logger.Level {
	if cfg.Autodetected {
		return logger.LevelDebug
	}
	return logger.LevelError
}

// StreamParams are the decoder parameters a SessionPool is created for.
type StreamParams struct {
	Profile     types.Profile
	CodedWidth  uint32
	CodedHeight uint32
	ThreadCount int

	// FrameParallel is set when the decoder decodes several pictures
	// simultaneously; every thread then may hold one more surface.
	FrameParallel bool
}

func (p StreamParams) String() string {
	return fmt.Sprintf("%s %dx%d threads:%d frame_parallel:%t", p.Profile, p.CodedWidth, p.CodedHeight, p.ThreadCount, p.FrameParallel)
}

// SurfaceCount returns the amount of surfaces a pool for these parameters has.
func (p StreamParams) SurfaceCount(base int) int {
	n := base
	if p.FrameParallel {
		n += p.ThreadCount
	}
	return n
}

func (p StreamParams) Validate() error {
	if p.CodedWidth == 0 || p.CodedHeight == 0 {
		return ErrInvalidStreamParams{Reason: fmt.Sprintf("invalid coded size %dx%d", p.CodedWidth, p.CodedHeight)}
	}
	if p.ThreadCount < 0 {
		return ErrInvalidStreamParams{Reason: fmt.Sprintf("negative thread count %d", p.ThreadCount)}
	}
	if !p.Profile.IsKnown() {
		return ErrUnsupportedProfile{Profile: p.Profile}
	}
	return nil
}
