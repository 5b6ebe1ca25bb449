package vasurface

import (
	"github.com/xaionaro-go/vasurface/types"
)

// pickFormat returns the first entry of priority advertised by the backend.
// The order of advertised does not matter.
func pickFormat(
	priority []FormatMapping,
	advertised []types.ImageFormat,
) (FormatMapping, types.ImageFormat, bool) {
	for _, candidate := range priority {
		for _, format := range advertised {
			if format.FourCC == candidate.FourCC {
				return candidate, format, true
			}
		}
	}
	return FormatMapping{}, types.ImageFormat{}, false
}
