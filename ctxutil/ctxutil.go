// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"time"
)

// Sleep blocks the caller for given timeout duration. Returns early if the
// input context is canceled.
func Sleep(ctx context.Context, d time.Duration) {
	sctx, scancel := context.WithTimeout(ctx, d)
	<-sctx.Done()
	scancel()
}

// RetryTimeout runs the input function till it succeeds, the input context is
// canceled or the timeout expires. Returns the last error from the function.
func RetryTimeout(ctx context.Context, interval, timeout time.Duration, f func() error) (err error) {
	sctx, scancel := context.WithTimeout(ctx, timeout)
	defer scancel()

	for err = f(); err != nil && context.Cause(sctx) == nil; err = f() {
		Sleep(sctx, interval)
	}
	return err
}
