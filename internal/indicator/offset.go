// Package indicator keeps the "now" line of the timeline in sync with the
// wall clock and with the measured height of the timeline container.
package indicator

import (
	"math"

	"github.com/sadopc/dayplan/internal/clock"
)

// ComputeOffset maps a percentage of the day to a distance from the top of a
// container of the given height. The result is always in [0, height) for a
// positive height and 0 otherwise.
func ComputeOffset(fraction, height float64) float64 {
	if !validHeight(height) {
		return 0
	}
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	offset := fraction * height / clock.HundredPercent
	if offset >= height {
		offset = math.Nextafter(height, 0)
	}
	return offset
}

func validHeight(h float64) bool {
	return h > 0 && !math.IsInf(h, 0) && !math.IsNaN(h)
}
