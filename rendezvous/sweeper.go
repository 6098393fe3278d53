package rendezvous

import (
	"time"

	"github.com/normanw/pairchat/internal/humantime"
)

// Sweeper reclaims rooms whose creator has waited past the pairing timeout.
// In steady operation the creator's own blocking wait times out first; the
// sweeper is the backstop against clock and scheduling skew.
type Sweeper struct {
	Registry *Registry
	Interval time.Duration
	TTL      time.Duration
}

// Run polls the registry until stop is closed. Each expired room is
// abandoned, which wakes the creator's worker to deliver the expiry notice
// and perform its single owned close.
func (s *Sweeper) Run(stop <-chan struct{}) {
	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			for _, room := range s.Registry.SweepExpired(time.Now(), s.TTL) {
				logger.Printf("Room [%s] expired after %s", room.ID, humantime.Since(room.CreatedAt))
				room.Abandon()
			}
		case <-stop:
			return
		}
	}
}
