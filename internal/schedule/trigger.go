package schedule

import "time"

// Trigger decides when the scheduler starts a cycle.
type Trigger interface {
	// Fire reports whether a cycle should start at now. A true result is
	// consumed: the same boundary never fires twice.
	Fire(now time.Time) bool
	// Exhausted reports that the trigger will never fire again.
	Exhausted() bool
}

// OneShot fires once, on the first poll.
type OneShot struct {
	fired bool
}

func (o *OneShot) Fire(time.Time) bool {
	if o.fired {
		return false
	}
	o.fired = true
	return true
}

func (o *OneShot) Exhausted() bool {
	return o.fired
}

// Aligned fires on wall-clock boundaries where the minute of the hour is a
// multiple of Interval and the second is zero.
//
// Without CatchUp a boundary that passes while a cycle is still running is
// skipped. With CatchUp the trigger keeps the next boundary due and fires once
// as soon as it is polled after that time.
type Aligned struct {
	// Interval in minutes.
	Interval int
	CatchUp  bool

	last time.Time
	next time.Time
}

func (a *Aligned) Fire(now time.Time) bool {
	if a.Interval < 1 {
		return false
	}
	if a.CatchUp {
		return a.fireCatchUp(now)
	}

	if now.Second() != 0 || now.Minute()%a.Interval != 0 {
		return false
	}
	boundary := now.Truncate(time.Second)
	if boundary.Equal(a.last) {
		return false
	}
	a.last = boundary
	return true
}

func (a *Aligned) fireCatchUp(now time.Time) bool {
	if a.next.IsZero() {
		a.next = nextBoundary(now, a.Interval, true)
	}
	if now.Before(a.next) {
		return false
	}
	a.next = nextBoundary(now, a.Interval, false)
	return true
}

func (a *Aligned) Exhausted() bool {
	return false
}

// nextBoundary returns the first minute boundary at (inclusive) or after t
// whose minute of the hour is a multiple of interval.
func nextBoundary(t time.Time, interval int, inclusive bool) time.Time {
	m := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	if !inclusive || m.Before(t) {
		m = m.Add(time.Minute)
	}
	for m.Minute()%interval != 0 {
		m = m.Add(time.Minute)
	}
	return m
}
