// Package resource bounds the numeric and IO work done on behalf of an
// augmentation run.
//
// The Controller manages three resource types:
//
//   - Memory: pairwise distance matrices reserve their size up front
//     (non-blocking, fail-fast)
//   - Workers: a semaphore caps concurrent distance workers
//   - IO: a token bucket throttles snapshot uploads
//
// # Memory
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(n * n * 8); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(n * n * 8)
//
// # Workers
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// # IO
//
//	w := resource.NewRateLimitedWriter(ctx, dst, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller: limits become no-ops.
package resource
