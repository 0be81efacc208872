package interval

import "time"

// Overlaps reports whether the half-open intervals [startA, endA) and
// [startB, endB) share at least one instant. Intervals that merely touch
// at a boundary do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return maxTime(startA, startB).Before(minTime(endA, endB))
}

// Contains reports whether [innerStart, innerEnd) fits entirely inside
// [outerStart, outerEnd).
func Contains(outerStart, outerEnd, innerStart, innerEnd time.Time) bool {
	return !innerStart.Before(outerStart) && !innerEnd.After(outerEnd)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
