package ledger

import "time"

// Clock supplies the ledger's notion of now. All calendar-day comparisons
// happen in the clock's location, so one fixed reference zone keeps day
// rollover deterministic no matter where the process runs.
type Clock interface {
	Now() time.Time
}

// ZoneClock is the production clock pinned to a single location.
type ZoneClock struct {
	loc *time.Location
}

// NewZoneClock loads the named zone, e.g. "Asia/Kolkata".
func NewZoneClock(name string) (*ZoneClock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return &ZoneClock{loc: loc}, nil
}

func (c *ZoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// SameDay reports whether two instants fall on the same calendar date.
func SameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
