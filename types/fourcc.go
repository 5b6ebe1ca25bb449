package types

import (
	"fmt"
	"strings"
)

type FourCC uint32

func NewFourCC(s string) FourCC {
	var b [4]byte
	copy(b[:], s)
	return FourCC(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

var (
	FourCCNV12 = NewFourCC("NV12")
	FourCCYV12 = NewFourCC("YV12")
	FourCCI420 = NewFourCC("I420")
	FourCCP010 = NewFourCC("P010")
	FourCCYUY2 = NewFourCC("YUY2")
	FourCCRGBA = NewFourCC("RGBA")
)

func (f FourCC) String() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08X", uint32(f))
		}
	}
	return string(b)
}

func FourCCFromString(s string) (FourCC, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 4 {
		return 0, fmt.Errorf("a fourcc must be exactly 4 characters, got '%s'", s)
	}
	return NewFourCC(s), nil
}
