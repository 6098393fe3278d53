package pairchat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/normanw/pairchat/message"
	"github.com/normanw/pairchat/rendezvous"
	"github.com/normanw/pairchat/termio"
)

// ErrInvalidInput is returned when a required line (display name, room id)
// comes back empty. Always terminal for the connection.
var ErrInvalidInput = errors.New("invalid input")

// Relay forwards lines between the session's two parties until either side
// leaves, disconnects, or fails to receive. Exactly one relay engine runs per
// session, so each connection has a single reader. Relay returns, after
// marking the session finished, once both directions have observed the
// termination signal; it never closes the connections, which stay with the
// workers that own them.
func (h *Host) Relay(s *rendezvous.Session) {
	defer s.Finish()

	s.Creator.Channel.SetPrompt("  You: ")
	s.Joiner.Channel.SetPrompt("  You: ")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.forward(s, s.Creator, s.Joiner)
	}()
	go func() {
		defer wg.Done()
		h.forward(s, s.Joiner, s.Creator)
	}()
	wg.Wait()
}

// forward pumps lines from one party to the other. Each read is bounded by
// the idle deadline so the termination signal is re-checked within one
// interval; a timeout is a re-poll, not an error.
func (h *Host) forward(s *rendezvous.Session, from, to rendezvous.Party) {
	defer s.Stop()

	for !s.Stopped() {
		from.Channel.SetReadDeadline(time.Now().Add(h.IdleTimeout))
		line, err := from.Channel.ReadLine()
		if err != nil {
			if termio.IsTimeout(err) {
				continue
			}
			return
		}
		if line == "" {
			continue
		}
		if message.IsLeave(line) {
			to.Channel.WriteLine("")
			to.Channel.WriteLine(message.NewNoticeMsg(
				fmt.Sprintf("%s has left the chat. Goodbye!", from.Name)).Render())
			return
		}
		if err := to.Channel.WriteLine(message.NewChatMsg(from.Name, line).Render()); err != nil {
			return
		}
	}
}
