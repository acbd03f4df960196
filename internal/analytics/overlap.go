// Package analytics holds the pure lesson and attendance computations behind the student
// detail view. Nothing here performs I/O or reads the clock; callers pass "now" explicitly.
package analytics

import "math"

const secondsPerHour = 3600

// Overlap returns the seconds shared by [aStart, aEnd] and [bStart, bEnd].
// Disjoint, reversed or degenerate ranges yield zero.
func Overlap(aStart, aEnd, bStart, bEnd int64) int64 {
	lo := max(aStart, bStart)
	hi := min(aEnd, bEnd)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// SecondsToHours converts seconds to hours rounded to one decimal place.
func SecondsToHours(seconds int64) float64 {
	return round1(float64(seconds) / secondsPerHour)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
