package pairchat

import (
	"fmt"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
	uuid "github.com/satori/go.uuid"

	"github.com/normanw/pairchat/internal/humantime"
	"github.com/normanw/pairchat/message"
	"github.com/normanw/pairchat/rendezvous"
	"github.com/normanw/pairchat/termio"
)

const (
	// DefaultPairingTimeout is how long a created room waits for a partner.
	DefaultPairingTimeout = 10 * time.Minute
	// DefaultSweepInterval is how often abandoned rooms are reclaimed.
	DefaultSweepInterval = 30 * time.Second
	// DefaultIdleTimeout bounds each relay read so a session's termination
	// signal is observed promptly.
	DefaultIdleTimeout = time.Second

	// ackGrace bounds the joiner's wait for the creator's pairing ack, in
	// case the creator fails right after being woken.
	ackGrace = 5 * time.Second
)

var defaultMotd = "  ============================================\r\n" +
	"            Welcome to pairchat\r\n" +
	"  ============================================\r\n"

// Host pairs incoming connections through the room registry and relays lines
// between paired parties. One goroutine runs per connection, from greeting to
// the single owned close.
type Host struct {
	Registry *rendezvous.Registry

	// PairingTimeout is how long a created room waits for a partner.
	PairingTimeout time.Duration
	// SweepInterval is how often the registry is swept for abandoned rooms.
	SweepInterval time.Duration
	// IdleTimeout is the read deadline for relay loops.
	IdleTimeout time.Duration

	mu   sync.Mutex
	motd string
}

// NewHost creates a Host around a shared room registry.
func NewHost(registry *rendezvous.Registry) *Host {
	return &Host{
		Registry:       registry,
		PairingTimeout: DefaultPairingTimeout,
		SweepInterval:  DefaultSweepInterval,
		IdleTimeout:    DefaultIdleTimeout,
		motd:           defaultMotd,
	}
}

// SetMotd sets the welcome text sent to each connection.
func (h *Host) SetMotd(motd string) {
	h.mu.Lock()
	h.motd = motd
	h.mu.Unlock()
}

// Motd returns the welcome text.
func (h *Host) Motd() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.motd
}

// Serve consumes every channel source until all of them close, spawning one
// worker per connection. The expiry sweeper runs for the duration.
func (h *Host) Serve(sources ...<-chan termio.Channel) {
	stop := make(chan struct{})
	defer close(stop)

	sweeper := &rendezvous.Sweeper{
		Registry: h.Registry,
		Interval: h.SweepInterval,
		TTL:      h.PairingTimeout,
	}
	go sweeper.Run(stop)

	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func(source <-chan termio.Channel) {
			defer wg.Done()
			for ch := range source {
				go h.handle(ch)
			}
		}(source)
	}
	wg.Wait()
}

// handle drives one connection through its whole lifecycle: greeting,
// identity, room pairing, relay, close. The deferred close is the only close
// of this connection, on every exit path.
func (h *Host) handle(ch termio.Channel) {
	defer ch.Close()

	cid := uuid.NewV4()
	logger.Debugf("[%s] Connected", cid)

	name, roomID, err := h.pair(ch)
	if err != nil {
		logger.Debugf("[%s] Rejected: %s", cid, err)
		return
	}

	self := rendezvous.Party{Channel: ch, Name: name}
	room, created := h.Registry.JoinOrCreate(roomID, self)

	if created {
		logger.Infof("[%s] Room [%s] created by %s", cid, room.ID, name)
		partner, err := h.waitForPartner(ch, room)
		if err != nil {
			// Race guard: evict unless the sweeper or a joiner got here first.
			h.Registry.Evict(room.ID)
			if err == rendezvous.ErrNoPartner {
				ch.WriteLine("")
				ch.WriteLine(message.NewNoticeMsg("Room expired. No one joined. Goodbye!").Render())
				logger.Infof("[%s] Room [%s] abandoned by %s", cid, room.ID, name)
			}
			return
		}
		s := room.Session()
		if s == nil {
			// Defensive: ready fired with a partner but no session.
			logger.Warningf("[%s] Room [%s] paired without a session", cid, room.ID)
			return
		}
		logger.Infof("[%s] %s paired with %s in room [%s]", cid, name, partner.Name, room.ID)
		// The joiner's worker drives the relay; park here until it finishes,
		// then run the deferred close of our own connection.
		s.Wait()
		logger.Debugf("[%s] Session finished in room [%s]", cid, room.ID)
		return
	}

	partner := room.Creator
	s := room.Complete(self)
	if s == nil {
		// Lost the race with the sweeper; the room is gone.
		ch.WriteLine(message.NewNoticeMsg("Room is no longer available. Goodbye!").Render())
		logger.Debugf("[%s] Room [%s] vanished before %s could join", cid, room.ID, name)
		return
	}
	// Whatever happens from here, the creator must not be left parked.
	defer s.Finish()

	if err := h.joinedNotice(ch, room, partner); err != nil {
		return
	}
	// No relay traffic until the creator has observed its paired notice.
	room.AwaitAck(ackGrace)
	logger.Infof("[%s] %s joined room [%s] with %s", cid, name, room.ID, partner.Name)

	started := time.Now()
	h.Relay(s)
	logger.Infof("[%s] Chat ended in room [%s] between %s and %s after %s",
		cid, room.ID, partner.Name, name, humantime.Since(started))
}

// pair collects the display name and room id, rejecting empty or unreadable
// input. The returned room id is already normalized.
func (h *Host) pair(ch termio.Channel) (name string, roomID string, err error) {
	if motd := h.Motd(); motd != "" {
		if err := ch.WriteString(motd + "\r\n"); err != nil {
			return "", "", err
		}
	}

	name, err = h.readInput(ch, "  Enter your display name: ")
	if err != nil {
		ch.WriteLine("  Invalid name. Disconnecting.")
		return "", "", err
	}

	ch.WriteLine("")
	ch.WriteLine("  Enter a Room ID to create or join a room.")
	ch.WriteLine("  (Share this ID with the person you want to chat with)")
	ch.WriteLine("")

	raw, err := h.readInput(ch, "  Room ID: ")
	if err != nil {
		ch.WriteLine("  Invalid room ID. Disconnecting.")
		return "", "", err
	}
	ch.WriteLine("")

	return name, rendezvous.NormalizeID(raw), nil
}

// readInput reads one required line under a generous client deadline.
func (h *Host) readInput(ch termio.Channel, prompt string) (string, error) {
	ch.SetPrompt(prompt)
	ch.SetReadDeadline(time.Now().Add(h.PairingTimeout + time.Minute))
	line, err := ch.ReadLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", ErrInvalidInput
	}
	return line, nil
}

// waitForPartner blocks on the room's ready signal up to the pairing timeout,
// then acknowledges the pairing once the joined notice has gone out.
func (h *Host) waitForPartner(ch termio.Channel, room *rendezvous.Room) (rendezvous.Party, error) {
	expires := room.CreatedAt.Add(h.PairingTimeout)
	ch.WriteLine(fmt.Sprintf("  Room [%s] created!", room.ID))
	ch.WriteLine(fmt.Sprintf("  Waiting for someone to join... (closes %s if still empty)", humanize.Time(expires)))

	partner, err := room.WaitPartner(h.PairingTimeout)
	if err != nil {
		return rendezvous.Party{}, err
	}

	ch.WriteLine("")
	if err := ch.WriteLine(message.NewNoticeMsg(fmt.Sprintf("%s joined the room!", partner.Name)).Render()); err != nil {
		return rendezvous.Party{}, err
	}
	ch.WriteLine(message.NewNoticeMsg(fmt.Sprintf("Type %s anytime to leave", message.LeaveCommand)).Render())
	ch.WriteLine("")

	room.AckReady()
	return partner, nil
}

func (h *Host) joinedNotice(ch termio.Channel, room *rendezvous.Room, partner rendezvous.Party) error {
	if err := ch.WriteLine(fmt.Sprintf("  Connected! You joined room [%s] with %s.", room.ID, partner.Name)); err != nil {
		return err
	}
	ch.WriteLine(message.NewNoticeMsg(fmt.Sprintf("Type %s anytime to leave", message.LeaveCommand)).Render())
	ch.WriteLine("")
	return nil
}
