package calendar

import "time"

// TimeRange представляет временной интервал [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Around возвращает окно [center-radius, center+radius].
func Around(center time.Time, radius time.Duration) TimeRange {
	if radius < 0 {
		radius = -radius
	}
	return TimeRange{Start: center.Add(-radius), End: center.Add(radius)}
}

// Contains: попадает ли t в интервал, границы включительно.
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}
