package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rideshare/internal/general/contracts"
	"rideshare/internal/general/logger"
)

func newTestRelay(maxWaiters int, ttl time.Duration) *Relay {
	return New(logger.New("relay-test"), NewUpdateCache(ttl), maxWaiters)
}

func acceptedUpdate(userID, rideID string) contracts.RideUpdateMessage {
	return contracts.RideUpdateMessage{
		RideID:      rideID,
		UserID:      userID,
		CaptainID:   "cap-1",
		Status:      "accepted",
		Pickup:      "airport",
		Destination: "downtown",
		Timestamp:   time.Now().UTC(),
	}
}

func TestRelay_AwaitUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a registered waiter When the update arrives Then it is delivered before the deadline", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		type result struct {
			update  *contracts.RideUpdateMessage
			err     error
			elapsed time.Duration
		}
		done := make(chan result, 1)

		start := time.Now()
		go func() {
			upd, err := r.AwaitUpdate(ctx, "u1", "r1", 30*time.Second)
			done <- result{upd, err, time.Since(start)}
		}()

		// let the waiter register, then publish
		time.Sleep(50 * time.Millisecond)
		r.OnUpdate(ctx, acceptedUpdate("u1", "r1"))

		res := <-done
		if res.err != nil {
			t.Fatalf("AwaitUpdate failed: %v", res.err)
		}
		if res.update == nil {
			t.Fatal("expected an update, got timeout")
		}
		if res.update.Status != "accepted" || res.update.RideID != "r1" {
			t.Errorf("wrong update delivered: %+v", res.update)
		}
		if res.elapsed > 5*time.Second {
			t.Errorf("delivery took %v; should resolve as soon as the update arrives, not at the deadline", res.elapsed)
		}
	})

	t.Run("Given an update with no waiter When a caller asks within the TTL Then the cached update is returned immediately", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		upd := acceptedUpdate("u2", "r2")
		upd.Status = "cancelled"
		r.OnUpdate(ctx, upd)

		time.Sleep(20 * time.Millisecond)

		start := time.Now()
		got, err := r.AwaitUpdate(ctx, "u2", "r2", 30*time.Second)
		if err != nil {
			t.Fatalf("AwaitUpdate failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected cached update, got timeout")
		}
		if got.Status != "cancelled" {
			t.Errorf("expected cancelled, got %s", got.Status)
		}
		if time.Since(start) > time.Second {
			t.Errorf("cache hit should not block, took %v", time.Since(start))
		}
	})

	t.Run("Given one update and one waiter Then the update is observed exactly once", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		r.OnUpdate(ctx, acceptedUpdate("u3", "r3"))

		first, err := r.AwaitUpdate(ctx, "u3", "r3", time.Second)
		if err != nil || first == nil {
			t.Fatalf("first call should observe the update, got (%v, %v)", first, err)
		}

		// the cache entry was consumed; a second call must time out
		second, err := r.AwaitUpdate(ctx, "u3", "r3", 100*time.Millisecond)
		if err != nil {
			t.Fatalf("second call errored: %v", err)
		}
		if second != nil {
			t.Errorf("update delivered twice: %+v", second)
		}
	})

	t.Run("Given no update When the timeout elapses Then AwaitUpdate returns empty at about the deadline", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		start := time.Now()
		got, err := r.AwaitUpdate(ctx, "u4", "r4", 200*time.Millisecond)
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("timeout is not an error, got: %v", err)
		}
		if got != nil {
			t.Fatalf("expected no update, got %+v", got)
		}
		if elapsed < 200*time.Millisecond {
			t.Errorf("returned before the deadline: %v", elapsed)
		}
		if elapsed > time.Second {
			t.Errorf("returned far past the deadline: %v", elapsed)
		}
	})

	t.Run("Given a cancelled caller When the update arrives later Then it lands in the cache for the next poll", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		waitCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := r.AwaitUpdate(waitCtx, "u5", "r5", 30*time.Second)
			done <- err
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if r.Waiters() != 0 {
			t.Fatalf("cancelled waiter still registered: %d", r.Waiters())
		}

		// must not error and must buffer for the next caller
		r.OnUpdate(ctx, acceptedUpdate("u5", "r5"))

		got, err := r.AwaitUpdate(ctx, "u5", "r5", time.Second)
		if err != nil || got == nil {
			t.Fatalf("next poll should find the buffered update, got (%v, %v)", got, err)
		}
	})

	t.Run("Given a delivery racing a cancelled caller Then the update is requeued not lost", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		waitCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			_, _ = r.AwaitUpdate(waitCtx, "u6", "r6", 30*time.Second)
			close(done)
		}()

		time.Sleep(50 * time.Millisecond)

		// fire both sides of the race; whichever loses must fall back cleanly
		go cancel()
		go r.OnUpdate(ctx, acceptedUpdate("u6", "r6"))

		<-done
		time.Sleep(50 * time.Millisecond)

		// the update ended up with the first caller or back in the cache;
		// either way a fresh poll within the TTL must not lose it forever
		got, err := r.AwaitUpdate(ctx, "u6", "r6", 100*time.Millisecond)
		if err != nil {
			t.Fatalf("AwaitUpdate errored: %v", err)
		}
		_ = got // may be nil if the racing delivery reached the original caller
		if r.Waiters() != 0 {
			t.Errorf("leaked waiters: %d", r.Waiters())
		}
	})
}

func TestRelay_OnUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Given irrelevant statuses Then they are ignored without error", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		for _, status := range []string{"requested", "completed", "driving", ""} {
			upd := acceptedUpdate("u1", "r1")
			upd.Status = status
			r.OnUpdate(ctx, upd)
		}

		got, err := r.AwaitUpdate(ctx, "u1", "r1", 100*time.Millisecond)
		if err != nil {
			t.Fatalf("AwaitUpdate errored: %v", err)
		}
		if got != nil {
			t.Errorf("ignored status was delivered: %+v", got)
		}
	})

	t.Run("Given a payload missing ids Then it is dropped without crashing", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		upd := acceptedUpdate("", "r1")
		r.OnUpdate(ctx, upd)

		upd = acceptedUpdate("u1", "")
		r.OnUpdate(ctx, upd)
	})

	t.Run("Given two updates before any waiter Then only the latest is buffered", func(t *testing.T) {
		r := newTestRelay(100, time.Minute)

		r.OnUpdate(ctx, acceptedUpdate("u7", "r7"))
		cancelled := acceptedUpdate("u7", "r7")
		cancelled.Status = "cancelled"
		r.OnUpdate(ctx, cancelled)

		got, err := r.AwaitUpdate(ctx, "u7", "r7", time.Second)
		if err != nil || got == nil {
			t.Fatalf("expected buffered update, got (%v, %v)", got, err)
		}
		if got.Status != "cancelled" {
			t.Errorf("newest update should win, got %s", got.Status)
		}
	})
}

func TestRelay_WaiterCap(t *testing.T) {
	ctx := context.Background()
	r := newTestRelay(1, time.Minute)

	release := make(chan struct{})
	go func() {
		_, _ = r.AwaitUpdate(ctx, "u1", "r1", 5*time.Second)
		close(release)
	}()

	time.Sleep(50 * time.Millisecond)

	_, err := r.AwaitUpdate(ctx, "u2", "r2", time.Second)
	if !errors.Is(err, ErrTooManyWaiters) {
		t.Fatalf("expected ErrTooManyWaiters, got %v", err)
	}

	// free the slot and verify registration works again
	r.OnUpdate(ctx, acceptedUpdate("u1", "r1"))
	<-release

	got, err := r.AwaitUpdate(ctx, "u2", "r2", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("slot was not released: %v", err)
	}
	if got != nil {
		t.Errorf("unexpected update: %+v", got)
	}
}

func TestRelay_DuplicateRegistrationReplacesWaiter(t *testing.T) {
	ctx := context.Background()
	r := newTestRelay(100, time.Minute)

	firstDone := make(chan *contracts.RideUpdateMessage, 1)
	go func() {
		upd, _ := r.AwaitUpdate(ctx, "u1", "r1", 5*time.Second)
		firstDone <- upd
	}()

	time.Sleep(50 * time.Millisecond)

	secondDone := make(chan *contracts.RideUpdateMessage, 1)
	go func() {
		upd, _ := r.AwaitUpdate(ctx, "u1", "r1", 5*time.Second)
		secondDone <- upd
	}()

	// the first caller is displaced and observes the timeout outcome
	select {
	case upd := <-firstDone:
		if upd != nil {
			t.Fatalf("displaced waiter received an update: %+v", upd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("displaced waiter did not resolve")
	}

	// delivery reaches the replacement
	r.OnUpdate(ctx, acceptedUpdate("u1", "r1"))
	select {
	case upd := <-secondDone:
		if upd == nil {
			t.Fatal("replacement waiter timed out")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("replacement waiter did not resolve")
	}
}

func TestRelay_IndependentKeys(t *testing.T) {
	ctx := context.Background()
	r := newTestRelay(200, time.Minute)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("u%d", i)
			rideID := fmt.Sprintf("r%d", i)
			upd, err := r.AwaitUpdate(ctx, userID, rideID, 5*time.Second)
			if err != nil {
				errs <- fmt.Errorf("key %d: %w", i, err)
				return
			}
			if upd == nil {
				errs <- fmt.Errorf("key %d: timed out", i)
				return
			}
			if upd.RideID != rideID || upd.UserID != userID {
				errs <- fmt.Errorf("key %d: cross-talk, got %s/%s", i, upd.UserID, upd.RideID)
			}
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < n; i++ {
		r.OnUpdate(ctx, acceptedUpdate(fmt.Sprintf("u%d", i), fmt.Sprintf("r%d", i)))
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if r.Waiters() != 0 {
		t.Errorf("leaked waiters: %d", r.Waiters())
	}
}

func TestRelay_EmptyKeyRejected(t *testing.T) {
	r := newTestRelay(100, time.Minute)

	if _, err := r.AwaitUpdate(context.Background(), "", "r1", time.Second); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if _, err := r.AwaitUpdate(context.Background(), "u1", "", time.Second); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}
