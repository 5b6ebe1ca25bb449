package types

import (
	"fmt"
)

// RTFormat is the render-target format of a surface batch.
type RTFormat uint32

const (
	RTFormatYUV420 = RTFormat(0x00000001)
	RTFormatYUV422 = RTFormat(0x00000002)
	RTFormatYUV444 = RTFormat(0x00000004)
)

func (f RTFormat) String() string {
	switch f {
	case RTFormatYUV420:
		return "yuv420"
	case RTFormatYUV422:
		return "yuv422"
	case RTFormatYUV444:
		return "yuv444"
	}
	return fmt.Sprintf("unknown_%X", uint32(f))
}
