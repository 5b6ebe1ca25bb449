package types

import (
	"fmt"
)

// ImageFormat is an image format as advertised by a hardware backend.
type ImageFormat struct {
	FourCC       FourCC
	ByteOrder    uint32
	BitsPerPixel uint32
}

func (f ImageFormat) String() string {
	return fmt.Sprintf("%s(%dbpp)", f.FourCC, f.BitsPerPixel)
}
