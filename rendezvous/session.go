package rendezvous

import "sync"

// Session is the live state of a paired chat: both parties and a single
// shared termination signal. Sessions are process-local and never visible in
// the registry; one exists per pairing, shared by both workers, so exactly
// one relay engine runs per chat.
type Session struct {
	Creator Party
	Joiner  Party

	done     chan struct{}
	stopOnce sync.Once

	finished   chan struct{}
	finishOnce sync.Once
}

func NewSession(creator, joiner Party) *Session {
	return &Session{
		Creator:  creator,
		Joiner:   joiner,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Stop requests termination of both relay directions. Safe to call from
// either direction, any number of times.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Stopped reports whether termination has been requested.
func (s *Session) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Finish marks both relay directions as stopped. Implies Stop.
func (s *Session) Finish() {
	s.Stop()
	s.finishOnce.Do(func() {
		close(s.finished)
	})
}

// Wait blocks until the session is finished. The creator's worker parks here
// while the joiner's worker drives the relay, then performs its own close.
func (s *Session) Wait() {
	<-s.finished
}
