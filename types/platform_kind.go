// platform_kind.go defines the PlatformKind enum of display platforms.

package types

import (
	"fmt"
	"strings"
)

type PlatformKind int

const (
	UndefinedPlatformKind PlatformKind = iota
	PlatformKindDRM
	PlatformKindX11
	PlatformKindSimulated
	EndOfPlatformKind
)

func (k PlatformKind) String() string {
	switch k {
	case UndefinedPlatformKind:
		return "<undefined>"
	case PlatformKindDRM:
		return "drm"
	case PlatformKindX11:
		return "x11"
	case PlatformKindSimulated:
		return "simulated"
	}
	return fmt.Sprintf("<unexpected_%d>", int(k))
}

func PlatformKindFromString(s string) PlatformKind {
	s = strings.Trim(strings.ToLower(s), " \n\r\t")
	for k := UndefinedPlatformKind + 1; k < EndOfPlatformKind; k++ {
		if k.String() == s {
			return k
		}
	}
	return UndefinedPlatformKind
}
