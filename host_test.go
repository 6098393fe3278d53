package pairchat

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/normanw/pairchat/rendezvous"
	"github.com/normanw/pairchat/termio"
)

// MockChannel scripts one side of a chat for testing. Send feeds input lines,
// Disconnect simulates the peer going away, Wrote collects delivered output.
type MockChannel struct {
	mu       sync.Mutex
	deadline time.Time
	wrote    []string
	closes   int

	lines    chan string
	gone     chan struct{}
	goneOnce sync.Once
}

func NewMockChannel() *MockChannel {
	return &MockChannel{
		lines: make(chan string, 16),
		gone:  make(chan struct{}),
	}
}

func (c *MockChannel) Send(line string) {
	c.lines <- line
}

func (c *MockChannel) Disconnect() {
	c.goneOnce.Do(func() {
		close(c.gone)
	})
}

func (c *MockChannel) ReadLine() (string, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		wait := deadline.Sub(time.Now())
		if wait <= 0 {
			return "", termio.ErrTimeout
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case line := <-c.lines:
		return strings.TrimSpace(line), nil
	case <-timeout:
		return "", termio.ErrTimeout
	case <-c.gone:
		return "", termio.ErrClosed
	}
}

func (c *MockChannel) WriteLine(text string) error {
	select {
	case <-c.gone:
		return termio.ErrClosed
	default:
	}
	c.mu.Lock()
	c.wrote = append(c.wrote, text)
	c.mu.Unlock()
	return nil
}

func (c *MockChannel) WriteString(text string) error {
	return c.WriteLine(text)
}

func (c *MockChannel) SetPrompt(prompt string) {}

func (c *MockChannel) SetReadDeadline(d time.Time) error {
	c.mu.Lock()
	c.deadline = d
	c.mu.Unlock()
	return nil
}

func (c *MockChannel) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.Disconnect()
	return nil
}

func (c *MockChannel) Wrote() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.wrote, "\n")
}

func (c *MockChannel) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func waitFor(t *testing.T, ch *MockChannel, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(ch.Wrote(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in output:\n%s", substr, ch.Wrote())
}

func waitClosed(t *testing.T, ch *MockChannel) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ch.CloseCalls() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for the channel to be closed")
}

func testHost() *Host {
	h := NewHost(rendezvous.NewRegistry())
	h.PairingTimeout = 5 * time.Second
	h.IdleTimeout = 20 * time.Millisecond
	return h
}

func TestPairAndRelay(t *testing.T) {
	h := testHost()

	source := make(chan termio.Channel)
	go h.Serve(source)
	defer close(source)

	alice := NewMockChannel()
	bob := NewMockChannel()
	source <- alice
	source <- bob

	alice.Send("Alice")
	alice.Send("room1")
	waitFor(t, alice, "Room [ROOM1] created!")

	bob.Send("Bob")
	bob.Send("ROOM1") // ids are case-insensitive

	waitFor(t, alice, "[Bob joined the room!]")
	waitFor(t, bob, "Connected! You joined room [ROOM1] with Alice.")

	alice.Send("hi")
	waitFor(t, bob, "  Alice: hi")

	bob.Send("/quit")
	waitFor(t, alice, "[Bob has left the chat. Goodbye!]")

	waitClosed(t, alice)
	waitClosed(t, bob)
	if alice.CloseCalls() != 1 || bob.CloseCalls() != 1 {
		t.Errorf("Got closes: %d and %d; Expected exactly one each",
			alice.CloseCalls(), bob.CloseCalls())
	}
}

func TestMessageOrderPreserved(t *testing.T) {
	h := testHost()

	alice := NewMockChannel()
	bob := NewMockChannel()
	go h.handle(alice)
	go h.handle(bob)

	alice.Send("Alice")
	alice.Send("order")
	waitFor(t, alice, "Room [ORDER] created!")

	bob.Send("Bob")
	bob.Send("order")
	waitFor(t, bob, "Connected!")

	alice.Send("a")
	alice.Send("b")
	alice.Send("c")
	waitFor(t, bob, "  Alice: c")

	out := bob.Wrote()
	ia := strings.Index(out, "  Alice: a")
	ib := strings.Index(out, "  Alice: b")
	ic := strings.Index(out, "  Alice: c")
	if ia < 0 || ib < 0 || ic < 0 || !(ia < ib && ib < ic) {
		t.Errorf("lines out of order:\n%s", out)
	}
	for _, line := range []string{"  Alice: a", "  Alice: b", "  Alice: c"} {
		if strings.Count(out, line) != 1 {
			t.Errorf("Got %d copies of %q; Expected exactly one", strings.Count(out, line), line)
		}
	}
}

func TestRejectEmptyName(t *testing.T) {
	h := testHost()

	ch := NewMockChannel()
	go h.handle(ch)

	ch.Send("")
	waitFor(t, ch, "Invalid name. Disconnecting.")
	waitClosed(t, ch)

	if h.Registry.Len() != 0 {
		t.Errorf("Got registry len: %d; Expected: 0", h.Registry.Len())
	}
}

func TestRejectEmptyRoom(t *testing.T) {
	h := testHost()

	ch := NewMockChannel()
	go h.handle(ch)

	ch.Send("Alice")
	ch.Send("   ")
	waitFor(t, ch, "Invalid room ID. Disconnecting.")
	waitClosed(t, ch)
}

func TestPairingTimeout(t *testing.T) {
	h := testHost()
	h.PairingTimeout = 50 * time.Millisecond

	ch := NewMockChannel()
	go h.handle(ch)

	ch.Send("Alice")
	ch.Send("lonely")

	waitFor(t, ch, "[Room expired. No one joined. Goodbye!]")
	waitClosed(t, ch)

	// The id is free for reuse right away.
	if _, created := h.Registry.JoinOrCreate("lonely", rendezvous.Party{Name: "Bob"}); !created {
		t.Error("expired id should be available again")
	}
}

func TestDisconnectEndsSession(t *testing.T) {
	h := testHost()

	alice := NewMockChannel()
	bob := NewMockChannel()
	go h.handle(alice)
	go h.handle(bob)

	alice.Send("Alice")
	alice.Send("room1")
	waitFor(t, alice, "Room [ROOM1] created!")

	bob.Send("Bob")
	bob.Send("room1")
	waitFor(t, bob, "Connected!")

	// Both sides drop at once; teardown must not double-close or wedge.
	alice.Disconnect()
	bob.Disconnect()

	waitClosed(t, alice)
	waitClosed(t, bob)
	if alice.CloseCalls() != 1 || bob.CloseCalls() != 1 {
		t.Errorf("Got closes: %d and %d; Expected exactly one each",
			alice.CloseCalls(), bob.CloseCalls())
	}
}

func TestThirdClientCannotJoinHeldRoom(t *testing.T) {
	h := testHost()

	alice := NewMockChannel()
	bob := NewMockChannel()
	go h.handle(alice)
	go h.handle(bob)

	alice.Send("Alice")
	alice.Send("room1")
	waitFor(t, alice, "Room [ROOM1] created!")

	bob.Send("Bob")
	bob.Send("room1")
	waitFor(t, bob, "Connected!")

	// The pairing consumed the entry, so a third client creates a new room.
	carol := NewMockChannel()
	go h.handle(carol)
	carol.Send("Carol")
	carol.Send("room1")
	waitFor(t, carol, "Room [ROOM1] created!")
}
