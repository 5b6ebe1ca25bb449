// ids.go defines the opaque hardware object identifiers.

// Package types provides backend-independent value types used throughout vasurface.
package types

import (
	"fmt"
)

// InvalidID is the value a backend uses for "no object".
const InvalidID = 0xffffffff

type SurfaceID uint32

func (id SurfaceID) IsValid() bool {
	return id != InvalidID
}

func (id SurfaceID) String() string {
	if !id.IsValid() {
		return "surface:<invalid>"
	}
	return fmt.Sprintf("surface:%d", uint32(id))
}

// ConfigID identifies a decode configuration (a profile bound to an entrypoint).
type ConfigID uint32

func (id ConfigID) IsValid() bool {
	return id != InvalidID
}

// ContextID identifies a decode context: a config bound to a set of surfaces.
type ContextID uint32

func (id ContextID) IsValid() bool {
	return id != InvalidID
}

type ImageID uint32

func (id ImageID) IsValid() bool {
	return id != InvalidID
}

type BufferID uint32

func (id BufferID) IsValid() bool {
	return id != InvalidID
}
