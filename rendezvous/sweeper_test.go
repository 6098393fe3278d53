package rendezvous

import (
	"testing"
	"time"
)

func TestSweeperAbandonsExpiredRooms(t *testing.T) {
	reg := NewRegistry()
	room, _ := reg.JoinOrCreate("room1", Party{Name: "Alice"})
	room.CreatedAt = time.Now().Add(-time.Hour)

	stop := make(chan struct{})
	defer close(stop)

	sweeper := &Sweeper{
		Registry: reg,
		Interval: 5 * time.Millisecond,
		TTL:      time.Minute,
	}
	go sweeper.Run(stop)

	// The sweeper's Abandon wakes the creator with no partner set.
	if _, err := room.WaitPartner(time.Second); err != ErrNoPartner {
		t.Fatalf("Got: %v; Expected: %v", err, ErrNoPartner)
	}
	if reg.Len() != 0 {
		t.Errorf("Got len: %d; Expected: 0 after sweep", reg.Len())
	}

	// The id is immediately available again.
	if _, created := reg.JoinOrCreate("room1", Party{Name: "Bob"}); !created {
		t.Error("swept id should be reusable")
	}
}

func TestSweeperLeavesFreshRooms(t *testing.T) {
	reg := NewRegistry()
	reg.JoinOrCreate("room1", Party{Name: "Alice"})

	stop := make(chan struct{})
	sweeper := &Sweeper{
		Registry: reg,
		Interval: time.Millisecond,
		TTL:      time.Minute,
	}
	go sweeper.Run(stop)

	time.Sleep(20 * time.Millisecond)
	close(stop)

	if reg.Len() != 1 {
		t.Errorf("Got len: %d; Expected: 1, fresh room swept", reg.Len())
	}
}
