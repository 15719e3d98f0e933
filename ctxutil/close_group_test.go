// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
)

func TestCloseGroup(t *testing.T) {
	var cg CloseGroup

	var count atomic.Int64
	for i := 0; i < 100; i++ {
		cg.Go(func(ctx context.Context) {
			<-ctx.Done()
			if !errors.Is(context.Cause(ctx), os.ErrClosed) {
				t.Errorf("goroutine %d: want os.ErrClosed, got %v", i, context.Cause(ctx))
			}
			count.Add(1)
		})
	}

	cg.Close()
	if n := count.Load(); n != 100 {
		t.Fatalf("want all goroutines to return before close, got %d", n)
	}
}
