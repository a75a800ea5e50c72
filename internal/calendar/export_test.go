package calendar

import "time"

// SetNow replaces the clock a Syncer validates against.
func SetNow(s *Syncer, now func() time.Time) {
	s.now = now
}
