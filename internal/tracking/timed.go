package tracking

import "time"

// TimedConversion measures a conversion and delegates to Tracker.
type TimedConversion struct {
	tracker   *Tracker
	startTime time.Time
}

// Start creates a new TimedConversion. A nil tracker makes Track a no-op.
func Start(tracker *Tracker) *TimedConversion {
	return &TimedConversion{
		tracker:   tracker,
		startTime: time.Now(),
	}
}

// Track records r with the elapsed duration.
func (tc *TimedConversion) Track(r Record) error {
	if tc.tracker == nil {
		return nil
	}
	r.ExecTimeMs = time.Since(tc.startTime).Milliseconds()
	return tc.tracker.Track(r)
}
