package rendezvous

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/normanw/pairchat/termio"
)

// ErrNoPartner is returned when a room's wait ends without a second party,
// either because the pairing timeout passed or the room was reclaimed.
var ErrNoPartner = errors.New("no partner joined")

// Party is one side of a prospective chat: a line channel and a display name.
type Party struct {
	Channel termio.Channel
	Name    string
}

// NormalizeID maps a caller-supplied room id to its canonical registry key,
// so "abc" and "ABC" denote the same room.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Room is one registry entry awaiting a second party. The creator blocks in
// WaitPartner; whoever removes the room from the registry fires its ready
// signal exactly once, with a partner (Complete) or without one (Abandon).
type Room struct {
	ID        string
	CreatedAt time.Time
	Creator   Party

	mu      sync.Mutex
	partner *Party
	session *Session
	fired   bool
	ready   chan struct{}

	ackOnce sync.Once
	acked   chan struct{}
}

func newRoom(id string, creator Party) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		Creator:   creator,
		ready:     make(chan struct{}),
		acked:     make(chan struct{}),
	}
}

// Complete sets the joining party, creates the shared session, and fires the
// ready signal. Only the caller that removed the room from the registry may
// call it; the returned session is nil if the room was already abandoned.
func (r *Room) Complete(p Party) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fired {
		return nil
	}
	r.partner = &p
	r.session = NewSession(r.Creator, p)
	r.fired = true
	close(r.ready)
	return r.session
}

// Session returns the shared session, non-nil once the ready signal has
// fired with a partner set.
func (r *Room) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Abandon fires the ready signal with no partner set, waking the creator so
// it can deliver the expiry notice and close its own connection.
func (r *Room) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fired {
		return
	}
	r.fired = true
	close(r.ready)
}

// WaitPartner blocks until a partner joins or the timeout passes. A fired
// signal with no partner set is reported as ErrNoPartner as well.
func (r *Room) WaitPartner(timeout time.Duration) (Party, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.ready:
	case <-timer.C:
		return Party{}, ErrNoPartner
	}

	r.mu.Lock()
	p := r.partner
	r.mu.Unlock()
	if p == nil {
		return Party{}, ErrNoPartner
	}
	return *p, nil
}

// AckReady releases the joiner to start relaying. The creator calls it after
// writing its paired notice, so that notice is observed before any chat line.
func (r *Room) AckReady() {
	r.ackOnce.Do(func() {
		close(r.acked)
	})
}

// AwaitAck blocks until the creator acknowledges the pairing, or until the
// grace period passes in case the creator failed right after pairing.
func (r *Room) AwaitAck(grace time.Duration) {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-r.acked:
	case <-timer.C:
	}
}

// Registry is the concurrent room table. A single mutex guards the whole map:
// the table is small and contention windows are short, so the absent/present
// check and the matching insert/remove form one atomic step.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: map[string]*Room{}}
}

// JoinOrCreate finds the room for id, removing it from the table, or creates
// a fresh waiting entry if none exists. When created is false the caller owns
// completing the returned room, outside this registry's lock.
func (reg *Registry) JoinOrCreate(id string, creator Party) (room *Room, created bool) {
	id = NormalizeID(id)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, ok := reg.rooms[id]; ok {
		delete(reg.rooms, id)
		return room, false
	}

	room = newRoom(id, creator)
	reg.rooms[id] = room
	return room, true
}

// Evict removes and returns the room if it is still waiting, else nil. Used
// by the creator's timeout path and as a race guard: once evicted, the id is
// immediately available for reuse.
func (reg *Registry) Evict(id string) *Room {
	id = NormalizeID(id)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	room := reg.rooms[id]
	delete(reg.rooms, id)
	return room
}

// SweepExpired atomically removes and returns every room older than ttl.
func (reg *Registry) SweepExpired(now time.Time, ttl time.Duration) []*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var expired []*Room
	for id, room := range reg.rooms {
		if now.Sub(room.CreatedAt) > ttl {
			delete(reg.rooms, id)
			expired = append(expired, room)
		}
	}
	return expired
}

// Len returns the number of rooms currently waiting.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
