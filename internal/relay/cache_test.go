package relay

import (
	"testing"
	"time"

	"rideshare/internal/general/contracts"
)

func TestUpdateCache_PutAndTake(t *testing.T) {
	c := NewUpdateCache(time.Minute)
	key := Key{UserID: "u1", RideID: "r1"}

	if _, ok := c.TakeAndClear(key); ok {
		t.Fatal("empty cache returned an entry")
	}

	c.Put(key, contracts.RideUpdateMessage{RideID: "r1", UserID: "u1", Status: "accepted"})

	got, ok := c.TakeAndClear(key)
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.Status != "accepted" {
		t.Errorf("wrong entry: %+v", got)
	}

	// the read removed the entry
	if _, ok := c.TakeAndClear(key); ok {
		t.Error("entry survived TakeAndClear")
	}
}

func TestUpdateCache_NewestWins(t *testing.T) {
	c := NewUpdateCache(time.Minute)
	key := Key{UserID: "u1", RideID: "r1"}

	c.Put(key, contracts.RideUpdateMessage{RideID: "r1", UserID: "u1", Status: "accepted"})
	c.Put(key, contracts.RideUpdateMessage{RideID: "r1", UserID: "u1", Status: "cancelled"})

	got, ok := c.TakeAndClear(key)
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.Status != "cancelled" {
		t.Errorf("expected the later update, got %s", got.Status)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestUpdateCache_ExpiredEntryIsAbsent(t *testing.T) {
	c := NewUpdateCache(30 * time.Millisecond)
	key := Key{UserID: "u1", RideID: "r1"}

	c.Put(key, contracts.RideUpdateMessage{RideID: "r1", UserID: "u1", Status: "accepted"})
	time.Sleep(60 * time.Millisecond)

	if _, ok := c.TakeAndClear(key); ok {
		t.Error("expired entry was returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not discarded on access, len=%d", c.Len())
	}
}

func TestUpdateCache_Sweep(t *testing.T) {
	c := NewUpdateCache(30 * time.Millisecond)

	c.Put(Key{UserID: "u1", RideID: "r1"}, contracts.RideUpdateMessage{Status: "accepted"})
	c.Put(Key{UserID: "u2", RideID: "r2"}, contracts.RideUpdateMessage{Status: "cancelled"})

	time.Sleep(60 * time.Millisecond)
	c.Put(Key{UserID: "u3", RideID: "r3"}, contracts.RideUpdateMessage{Status: "accepted"})

	if n := c.Sweep(); n != 2 {
		t.Errorf("expected 2 evictions, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 surviving entry, got %d", c.Len())
	}
	if _, ok := c.TakeAndClear(Key{UserID: "u3", RideID: "r3"}); !ok {
		t.Error("fresh entry was evicted by Sweep")
	}
}
