// backend.go defines the interface to the hardware acceleration API.

// Package backend describes the outbound boundary of vasurface: the hardware
// acceleration API (surfaces, decode sessions, images) and the platform
// display connections it is opened on top of.
package backend

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vasurface/types"
)

// Image is the descriptor of a hardware image object, including its
// plane table.
type Image struct {
	ID        types.ImageID
	Buf       types.BufferID
	Format    types.ImageFormat
	Width     uint32
	Height    uint32
	DataSize  uint32
	NumPlanes uint32
	Pitches   [3]uint32
	Offsets   [3]uint32
}

func (img Image) String() string {
	return fmt.Sprintf("image:%d(%s %dx%d, %d planes)", uint32(img.ID), img.Format, img.Width, img.Height, img.NumPlanes)
}

// Backend is a hardware acceleration API bound to one display.
//
// Every call is synchronous and either completes or fails; failures are
// reported as ErrStatus.
type Backend interface {
	fmt.Stringer

	// Initialize negotiates the protocol version and returns it.
	Initialize(ctx context.Context) (major, minor int, err error)
	Terminate(ctx context.Context) error
	VendorString(ctx context.Context) string

	QueryImageFormats(ctx context.Context) ([]types.ImageFormat, error)

	CreateSurfaces(ctx context.Context, rtFormat types.RTFormat, width, height uint32, count int) ([]types.SurfaceID, error)
	DestroySurfaces(ctx context.Context, surfaces []types.SurfaceID) error

	CreateConfig(ctx context.Context, profile types.Profile) (types.ConfigID, error)
	DestroyConfig(ctx context.Context, config types.ConfigID) error
	CreateContext(ctx context.Context, config types.ConfigID, width, height uint32, surfaces []types.SurfaceID) (types.ContextID, error)
	DestroyContext(ctx context.Context, context types.ContextID) error

	CreateImage(ctx context.Context, format types.ImageFormat, width, height uint32) (Image, error)
	// GetImage copies the given rectangle of the surface into the image.
	GetImage(ctx context.Context, surface types.SurfaceID, x, y int, width, height uint32, image types.ImageID) error
	MapBuffer(ctx context.Context, buf types.BufferID) ([]byte, error)
	UnmapBuffer(ctx context.Context, buf types.BufferID) error
	DestroyImage(ctx context.Context, image types.ImageID) error
}

// Factory obtains a hardware backend on top of an opened platform connection.
type Factory func(ctx context.Context, conn Connection) (Backend, error)
