// Package clock provides display clocks for the monitor trace.
package clock

import (
	"time"
)

// DefaultLayout matches the usual "2006-01-02 15:04:05 -0700" system format.
const DefaultLayout = "2006-01-02 15:04:05 -0700"

// System formats the current time with Layout.
type System struct {
	Layout string
	UTC    bool
	// now is replaced in tests.
	now func() time.Time
}

// New returns a System clock. An empty layout uses DefaultLayout.
func New(layout string, utc bool) *System {
	if layout == "" {
		layout = DefaultLayout
	}
	return &System{Layout: layout, UTC: utc, now: time.Now}
}

// Now returns the formatted current time.
func (c *System) Now() (string, error) {
	t := c.now()
	if c.UTC {
		t = t.UTC()
	}
	return t.Format(c.Layout), nil
}

// Func adapts a plain formatter, such as one from a plugin, to a clock.
type Func func() (string, error)

func (f Func) Now() (string, error) {
	return f()
}
