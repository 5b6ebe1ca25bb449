package internal

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
)

// RefCount is a reference counter that runs a teardown callback exactly once,
// when the last reference is dropped.
//
// The zero value is not usable, see NewRefCount.
type RefCount struct {
	count  atomic.Int64
	onZero func(ctx context.Context)
}

// NewRefCount returns a counter holding one reference.
func NewRefCount(onZero func(ctx context.Context)) *RefCount {
	r := &RefCount{
		onZero: onZero,
	}
	r.count.Store(1)
	return r
}

// Ref takes a new reference. It returns false if the object is already
// torn down, in which case no reference is taken.
func (r *RefCount) Ref() bool {
	for {
		cur := r.count.Load()
		if cur <= 0 {
			return false
		}
		if r.count.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Unref drops a reference and returns true if it was the last one (and thus
// the teardown was executed).
func (r *RefCount) Unref(ctx context.Context) bool {
	left := r.count.Dec()
	Assert(ctx, left >= 0, fmt.Sprintf("reference count dropped below zero: %d", left))
	if left != 0 {
		return false
	}
	r.onZero(ctx)
	return true
}

// TryUnref is Unref that tolerates an already torn down object: dropped is
// false if there was no reference left to drop.
func (r *RefCount) TryUnref(ctx context.Context) (dropped, last bool) {
	for {
		cur := r.count.Load()
		if cur <= 0 {
			return false, false
		}
		if !r.count.CompareAndSwap(cur, cur-1) {
			continue
		}
		if cur != 1 {
			return true, false
		}
		r.onZero(ctx)
		return true, true
	}
}

func (r *RefCount) Count() int64 {
	return r.count.Load()
}
