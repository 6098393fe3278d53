package humantime

import (
	"fmt"
	"time"
)

// Duration returns a human-friendly rendering of d.
func Duration(d time.Duration) string {
	switch {
	case d < time.Minute*2:
		return fmt.Sprintf("%0.f seconds", d.Seconds())
	case d < time.Hour*2:
		return fmt.Sprintf("%0.f minutes", d.Minutes())
	case d < time.Hour*48:
		return fmt.Sprintf("%0.1f hours", d.Minutes()/60)
	}
	days := d.Minutes() / (24 * 60)
	return fmt.Sprintf("%0.1f days", days)
}

// Since returns a human-friendly relative time string
func Since(t time.Time) string {
	return Duration(time.Since(t))
}
