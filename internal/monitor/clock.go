package monitor

import "time"

// FallbackLayout formats the system time when the configured Clock fails.
const FallbackLayout = "2006-01-02 15:04:05 -0700"

const clockWarning = "  (WARNING: clock callback raised)"

// Clock produces the display string for "now". It may fail.
type Clock interface {
	Now() (string, error)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() (string, error)

func (f ClockFunc) Now() (string, error) {
	return f()
}

// systemClock is the default Clock.
var systemClock = ClockFunc(func() (string, error) {
	return time.Now().Format(FallbackLayout), nil
})

// timestamp asks the clock for "now" and never fails: an error or a panic in
// the clock yields the fallback string instead.
func (m *Monitor) timestamp() (ts string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("clock panicked, using fallback time", "panic", r)
			ts = fallbackTimestamp()
		}
	}()

	s, err := m.clock.Now()
	if err != nil {
		m.logger.Warn("clock failed, using fallback time", "error", err)
		return fallbackTimestamp()
	}
	return s
}

func fallbackTimestamp() string {
	return time.Now().Format(FallbackLayout) + clockWarning
}
