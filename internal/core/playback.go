package core

import (
	"fmt"
	"slices"
	"time"
)

// PlaybackRates is the fixed set of supported rates, in cycling order.
var PlaybackRates = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// ValidRate reports whether r is in PlaybackRates.
func ValidRate(r float64) bool {
	return slices.Contains(PlaybackRates, r)
}

// NextRate returns the rate after r, wrapping to the first. An unknown r
// resets to 1.
func NextRate(r float64) float64 {
	i := slices.Index(PlaybackRates, r)
	if i < 0 {
		return 1
	}
	return PlaybackRates[(i+1)%len(PlaybackRates)]
}

// ClampTime confines t to [0, duration].
func ClampTime(t, duration time.Duration) time.Duration {
	if t < 0 || duration <= 0 {
		return 0
	}
	if t > duration {
		return duration
	}
	return t
}

// FormatTime renders d as m:ss, or h:mm:ss from an hour up.
func FormatTime(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Seconds converts fractional seconds from the wire into a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
