package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/vasurface/logger"
)

// SetLeakFinalizer reports objects that were garbage-collected without being
// released and releases them.
func SetLeakFinalizer[T any](
	ctx context.Context,
	obj *T,
	release func(ctx context.Context, obj *T),
) {
	runtime.SetFinalizer(obj, func(obj *T) {
		logger.Errorf(ctx, "%T was leaked (garbage-collected without being released); releasing it", obj)
		release(ctx, obj)
	})
}

func ClearFinalizer[T any](obj *T) {
	runtime.SetFinalizer(obj, nil)
}
