package relay

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"rideshare/internal/domain/ride"
	"rideshare/internal/general/contracts"
	"rideshare/internal/general/logger"
)

// ErrTooManyWaiters is returned when the concurrent waiter cap is reached.
// It is a resource-safety rejection, not a silent drop.
var ErrTooManyWaiters = errors.New("relay: too many concurrent waiters")

// ErrEmptyKey is returned when a caller registers without a user or ride id.
var ErrEmptyKey = errors.New("relay: user id and ride id are required")

// shards the waiter registry so unrelated rides never contend on one lock.
const numShards = 16

// Relay correlates asynchronously published ride updates to synchronously
// blocked status-check callers, keyed by (user, ride). An update is observed
// exactly once: either handed directly to a live waiter or claimed from the
// cache by the next registration within the retention window.
type Relay struct {
	logger *logger.Logger
	cache  *UpdateCache
	shards [numShards]shard
	count  atomic.Int64
	max    int64
}

type shard struct {
	mu      sync.Mutex
	waiters map[Key]*waiter
}

// waiter is the ephemeral registration for one blocked status-check call.
// result is buffered so delivery never blocks the broker callback; replaced
// fires when a newer poll for the same key takes over the slot.
type waiter struct {
	result   chan contracts.RideUpdateMessage
	replaced chan struct{}
}

// New constructs a relay over the given cache with a cap on concurrent waiters.
func New(log *logger.Logger, cache *UpdateCache, maxWaiters int) *Relay {
	r := &Relay{
		logger: log,
		cache:  cache,
		max:    int64(maxWaiters),
	}
	for i := range r.shards {
		r.shards[i].waiters = make(map[Key]*waiter)
	}
	return r
}

func (r *Relay) shardOf(key Key) *shard {
	h := fnv.New32a()
	h.Write([]byte(key.UserID))
	h.Write([]byte{0})
	h.Write([]byte(key.RideID))
	return &r.shards[h.Sum32()%numShards]
}

// OnUpdate is the broker-facing entry point, invoked once per delivered
// message. Statuses other than accepted/cancelled are ignored; payloads
// missing the user or ride id are logged and dropped. For relevant updates the
// check-then-act (deliver to waiter, else buffer) is atomic per key.
func (r *Relay) OnUpdate(ctx context.Context, update contracts.RideUpdateMessage) {
	status, err := ride.ParseStatus(update.Status)
	if err != nil || (status != ride.StatusAccepted && status != ride.StatusCancelled) {
		return
	}

	if update.UserID == "" || update.RideID == "" {
		r.logger.Error(ctx, "ride_update_malformed", "Ride update missing user or ride id", ErrEmptyKey,
			map[string]any{"ride_id": update.RideID, "user_id": update.UserID, "status": update.Status})
		return
	}

	key := Key{UserID: update.UserID, RideID: update.RideID}
	sh := r.shardOf(key)

	sh.mu.Lock()
	if w, ok := sh.waiters[key]; ok {
		delete(sh.waiters, key)
		r.count.Add(-1)
		w.result <- update // buffered, never blocks
		sh.mu.Unlock()

		r.logger.Debug(ctx, "ride_update_delivered", "Ride update handed to waiting caller",
			map[string]any{"key": key.String(), "status": update.Status})
		return
	}
	r.cache.Put(key, update)
	sh.mu.Unlock()

	r.logger.Debug(ctx, "ride_update_buffered", "No waiter registered; ride update buffered",
		map[string]any{"key": key.String(), "status": update.Status})
}

// AwaitUpdate blocks until a matching update is delivered, the timeout
// elapses, or ctx is cancelled. A nil update with a nil error means nothing
// happened within the timeout (the rider should retry). A cancelled caller
// gets ctx.Err(); an update that raced in for a cancelled caller is pushed
// back into the cache for the next poll.
func (r *Relay) AwaitUpdate(ctx context.Context, userID, rideID string, timeout time.Duration) (*contracts.RideUpdateMessage, error) {
	if userID == "" || rideID == "" {
		return nil, ErrEmptyKey
	}

	key := Key{UserID: userID, RideID: rideID}
	sh := r.shardOf(key)

	sh.mu.Lock()

	// fast path: the update outraced us
	if update, ok := r.cache.TakeAndClear(key); ok {
		sh.mu.Unlock()
		return &update, nil
	}

	w := &waiter{
		result:   make(chan contracts.RideUpdateMessage, 1),
		replaced: make(chan struct{}),
	}

	if old, ok := sh.waiters[key]; ok {
		// a fresh poll for the same key replaces the stale one; the old
		// caller observes the timeout outcome (count is unchanged)
		close(old.replaced)
	} else {
		if r.count.Load() >= r.max {
			sh.mu.Unlock()
			return nil, ErrTooManyWaiters
		}
		r.count.Add(1)
	}
	sh.waiters[key] = w
	sh.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case update := <-w.result:
		return &update, nil

	case <-w.replaced:
		return nil, nil

	case <-timer.C:
		if update, ok := r.abandon(key, w, false); ok {
			// delivery won the race against the deadline
			return &update, nil
		}
		return nil, nil

	case <-ctx.Done():
		r.abandon(key, w, true)
		return nil, ctx.Err()
	}
}

// abandon unregisters w after a timeout or cancellation. If delivery already
// resolved the waiter, the update is either returned to the caller (timeout
// race, delivery wins) or, when requeue is set because the caller is gone,
// stored back in the cache for the next registration.
func (r *Relay) abandon(key Key, w *waiter, requeue bool) (contracts.RideUpdateMessage, bool) {
	sh := r.shardOf(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if cur, ok := sh.waiters[key]; ok && cur == w {
		delete(sh.waiters, key)
		r.count.Add(-1)
		return contracts.RideUpdateMessage{}, false
	}

	// waiter already resolved by delivery or replacement
	select {
	case update := <-w.result:
		if requeue {
			r.cache.Put(key, update)
			return contracts.RideUpdateMessage{}, false
		}
		return update, true
	default:
		return contracts.RideUpdateMessage{}, false
	}
}

// Waiters reports the number of currently registered waiters.
func (r *Relay) Waiters() int {
	return int(r.count.Load())
}

// Run sweeps expired cache entries until ctx is cancelled. Intended to be
// started once alongside the broker consumer.
func (r *Relay) Run(ctx context.Context, sweepEvery time.Duration) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.cache.Sweep(); n > 0 {
				r.logger.Debug(ctx, "ride_update_cache_swept", "Evicted expired buffered updates",
					map[string]any{"evicted": n})
			}
		}
	}
}
