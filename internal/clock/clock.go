// Package clock is the single source of "now" for the planner and the
// timeline indicator.
package clock

import "time"

const (
	SecondsInDay   = 24 * 60 * 60
	HundredPercent = 100
)

// Source reports the current wall-clock time.
type Source interface {
	Now() time.Time
}

// System reads the local wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant. Useful in tests.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Func adapts a plain function to a Source.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// SecondsSinceMidnight returns the wall-clock seconds elapsed since local
// midnight of t, including the fractional part.
func SecondsSinceMidnight(t time.Time) float64 {
	h, m, s := t.Clock()
	return float64(h*3600+m*60+s) + float64(t.Nanosecond())/float64(time.Second)
}

// PercentOfDay maps t to the percentage of the day elapsed, in [0, 100).
func PercentOfDay(t time.Time) float64 {
	p := SecondsSinceMidnight(t) * HundredPercent / SecondsInDay
	if p >= HundredPercent {
		// leap second (23:59:60) would otherwise land on 100
		return HundredPercent - 1e-9
	}
	return p
}

// FractionOfDay samples src and returns the percentage of the day elapsed.
// The source is read on every call.
func FractionOfDay(src Source) float64 {
	return PercentOfDay(src.Now())
}
