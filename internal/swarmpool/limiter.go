package swarmpool

import "context"

// limiter is a counting semaphore bounding in-flight requests across a
// pool and every subpool derived from it. Shared by reference: the cap
// is global to the pool family, never per-subpool.
type limiter chan struct{}

func newLimiter(capacity int) limiter {
	return make(limiter, capacity)
}

// acquire blocks until a permit is available or ctx is done.
func (l limiter) acquire(ctx context.Context) error {
	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l limiter) release() {
	<-l
}
