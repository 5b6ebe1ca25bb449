// Package internal contains helpers shared by vasurface packages and not
// meant to be used outside of the module.
package internal

import (
	"context"

	"github.com/xaionaro-go/vasurface/logger"
)

func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panic(ctx, "assertion failed", extraArgs)
}
