package reporter

import (
	"math"
	"time"
)

func roundDuration(dur time.Duration) time.Duration {
	if dur > time.Minute {
		return dur.Round(10 * time.Second)
	}
	if dur > time.Second {
		return dur.Round(10 * time.Millisecond)
	}
	if dur > time.Millisecond {
		return dur.Round(10 * time.Microsecond)
	}
	if dur > time.Microsecond {
		return dur.Round(10 * time.Nanosecond)
	}
	return dur
}

// millis converts a duration to milliseconds with two decimal places, so
// sub-millisecond latencies survive the conversion.
func millis(dur time.Duration) float64 {
	return math.Round(float64(dur.Nanoseconds())/1e6*100) / 100
}
