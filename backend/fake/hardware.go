// hardware.go implements an in-memory simulation of a hardware decode API.

// Package fake provides a simulated hardware backend: surfaces, decode
// sessions and images live in memory, every call is counted and journaled,
// and any call can be made to fail.
package fake

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/types"
	"github.com/xaionaro-go/xsync"
)

type Op string

const (
	OpInitialize        = Op("Initialize")
	OpTerminate         = Op("Terminate")
	OpQueryImageFormats = Op("QueryImageFormats")
	OpCreateSurfaces    = Op("CreateSurfaces")
	OpDestroySurfaces   = Op("DestroySurfaces")
	OpCreateConfig      = Op("CreateConfig")
	OpDestroyConfig     = Op("DestroyConfig")
	OpCreateContext     = Op("CreateContext")
	OpDestroyContext    = Op("DestroyContext")
	OpCreateImage       = Op("CreateImage")
	OpGetImage          = Op("GetImage")
	OpMapBuffer         = Op("MapBuffer")
	OpUnmapBuffer       = Op("UnmapBuffer")
	OpDestroyImage      = Op("DestroyImage")
)

type surface struct {
	width  uint32
	height uint32
	y      []byte
	u      []byte
	v      []byte
	owner  types.ContextID
}

type decodeContext struct {
	config   types.ConfigID
	surfaces []types.SurfaceID
}

type image struct {
	desc   backend.Image
	data   []byte
	mapped bool
}

// Hardware is a simulated hardware decode API. It implements backend.Backend.
//
// The exported fields must be set before the first call.
type Hardware struct {
	Formats        []types.ImageFormat
	VersionMajor   int
	VersionMinor   int
	Vendor         string
	PitchAlignment uint32

	// MaxSurfaces limits the amount of simultaneously existing surfaces;
	// zero means no limit.
	MaxSurfaces int

	// AcceptPlatforms limits the platforms NewBackend accepts; nil means all.
	AcceptPlatforms []types.PlatformKind

	locker      xsync.Mutex
	faults      map[Op]backend.Status
	calls       map[Op]int
	journal     []Op
	lastID      uint32
	initialized bool
	terminated  bool
	surfaces    map[types.SurfaceID]*surface
	configs     map[types.ConfigID]types.Profile
	contexts    map[types.ContextID]*decodeContext
	images      map[types.ImageID]*image
	buffers     map[types.BufferID]types.ImageID
}

var _ backend.Backend = (*Hardware)(nil)

func NewHardware() *Hardware {
	return &Hardware{
		Formats: []types.ImageFormat{
			{FourCC: types.FourCCNV12, BitsPerPixel: 12},
			{FourCC: types.FourCCYV12, BitsPerPixel: 12},
			{FourCC: types.FourCCI420, BitsPerPixel: 12},
		},
		VersionMajor:   1,
		VersionMinor:   20,
		Vendor:         "vasurface simulated driver",
		PitchAlignment: 64,
		faults:         map[Op]backend.Status{},
		calls:          map[Op]int{},
		surfaces:       map[types.SurfaceID]*surface{},
		configs:        map[types.ConfigID]types.Profile{},
		contexts:       map[types.ContextID]*decodeContext{},
		images:         map[types.ImageID]*image{},
		buffers:        map[types.BufferID]types.ImageID{},
	}
}

func (hw *Hardware) String() string {
	return "fake.Hardware"
}

// NewBackend implements backend.Factory.
func (hw *Hardware) NewBackend(
	ctx context.Context,
	conn backend.Connection,
) (backend.Backend, error) {
	if hw.AcceptPlatforms == nil {
		return hw, nil
	}
	for _, kind := range hw.AcceptPlatforms {
		if kind == conn.Kind() {
			return hw, nil
		}
	}
	return nil, fmt.Errorf("no hardware display is available on %s", conn)
}

// FailOn makes every following call of op fail with the given status.
func (hw *Hardware) FailOn(ctx context.Context, op Op, status backend.Status) {
	hw.locker.Do(ctx, func() {
		hw.faults[op] = status
	})
}

func (hw *Hardware) ClearFaults(ctx context.Context) {
	hw.locker.Do(ctx, func() {
		hw.faults = map[Op]backend.Status{}
	})
}

// Calls returns how many times op was called, including failed calls.
func (hw *Hardware) Calls(ctx context.Context, op Op) int {
	return xsync.DoR1(ctx, &hw.locker, func() int {
		return hw.calls[op]
	})
}

// Journal returns all calls in the order they were made.
func (hw *Hardware) Journal(ctx context.Context) []Op {
	return xsync.DoR1(ctx, &hw.locker, func() []Op {
		return append([]Op(nil), hw.journal...)
	})
}

func (hw *Hardware) LiveSurfaces(ctx context.Context) int {
	return xsync.DoR1(ctx, &hw.locker, func() int {
		return len(hw.surfaces)
	})
}

func (hw *Hardware) LiveContexts(ctx context.Context) int {
	return xsync.DoR1(ctx, &hw.locker, func() int {
		return len(hw.contexts)
	})
}

func (hw *Hardware) LiveConfigs(ctx context.Context) int {
	return xsync.DoR1(ctx, &hw.locker, func() int {
		return len(hw.configs)
	})
}

func (hw *Hardware) LiveImages(ctx context.Context) int {
	return xsync.DoR1(ctx, &hw.locker, func() int {
		return len(hw.images)
	})
}

func (hw *Hardware) MappedImages(ctx context.Context) int {
	return xsync.DoR1(ctx, &hw.locker, func() int {
		count := 0
		for _, img := range hw.images {
			if img.mapped {
				count++
			}
		}
		return count
	})
}

func (hw *Hardware) IsTerminated(ctx context.Context) bool {
	return xsync.DoR1(ctx, &hw.locker, func() bool {
		return hw.terminated
	})
}

func (hw *Hardware) enterLocked(op Op) error {
	hw.calls[op]++
	hw.journal = append(hw.journal, op)
	if status, ok := hw.faults[op]; ok {
		return backend.NewErrStatus(string(op), status, "injected failure")
	}
	if op != OpInitialize && !hw.initialized {
		return backend.NewErrStatus(string(op), backend.StatusInvalidDisplay, "the display is not initialized")
	}
	if hw.terminated {
		return backend.NewErrStatus(string(op), backend.StatusInvalidDisplay, "the display is terminated")
	}
	return nil
}

func (hw *Hardware) newIDLocked() uint32 {
	hw.lastID++
	return hw.lastID
}

func (hw *Hardware) Initialize(ctx context.Context) (_major, _minor int, _err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpInitialize); _err != nil {
			return
		}
		hw.initialized = true
		_major, _minor = hw.VersionMajor, hw.VersionMinor
	})
	return
}

func (hw *Hardware) Terminate(ctx context.Context) (_err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpTerminate); _err != nil {
			return
		}
		hw.terminated = true
	})
	return
}

func (hw *Hardware) VendorString(ctx context.Context) string {
	return hw.Vendor
}

func (hw *Hardware) QueryImageFormats(ctx context.Context) (_ret []types.ImageFormat, _err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpQueryImageFormats); _err != nil {
			return
		}
		_ret = append([]types.ImageFormat(nil), hw.Formats...)
	})
	return
}
