// Package scoring holds the shared score helpers: the recency bucket table
// and clamping. Every score the analyzers emit passes through Clamp01.
package scoring

import "time"

// Clamp01 bounds a score to [0,1].
func Clamp01(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// RecencyWeight maps an age in days to a freshness weight. The table is
// non-increasing in age; content with no known date scores zero elsewhere.
func RecencyWeight(daysOld int) float64 {
	switch {
	case daysOld <= 1:
		return 1.0
	case daysOld <= 7:
		return 0.8
	case daysOld <= 30:
		return 0.6
	case daysOld <= 90:
		return 0.4
	case daysOld <= 365:
		return 0.2
	default:
		return 0.1
	}
}

// DaysSince returns the whole days elapsed since t, never negative.
func DaysSince(t time.Time) int {
	days := int(time.Since(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Freshness scores a single date: the bucket weight of its age, or 0 when
// the date is unknown.
func Freshness(t *time.Time) float64 {
	if t == nil {
		return 0
	}
	return RecencyWeight(DaysSince(*t))
}
