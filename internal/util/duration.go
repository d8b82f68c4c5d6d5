package util

import (
	"time"
)

var units = []time.Duration{
	time.Nanosecond,
	time.Microsecond,
	time.Millisecond,
	time.Second,
	time.Minute,
	time.Hour,
}

// HumanElapsed returns the time elapsed since the given start time, rounded
// so it prints as a short string (e.g. 725.8ms rather than 725.812398ms).
// Timing lines interleave with per-unit log output, so they stay terse.
func HumanElapsed(start time.Time) time.Duration {
	return roundElapsed(time.Since(start))
}

func roundElapsed(elapsed time.Duration) time.Duration {
	i := 0
	for i < len(units) && elapsed >= units[i] {
		i++
	}

	if i < 2 {
		return elapsed
	}

	resolution := units[i-2]
	if units[i-1]/units[i-2] > 100 {
		// Keep two digits below the leading unit when the step down is a
		// factor of 1000 (ns/us/ms/s). Minutes and hours already carry that
		// much precision in the second position.
		resolution *= 10
	}

	return elapsed.Truncate(resolution)
}
