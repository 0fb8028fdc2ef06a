package analytics

import "time"

// Patterns holds event counts bucketed by UTC hour and weekday, plus the peak
// bucket of each dimension. PeakHour and PeakDay are nil for empty input.
type Patterns struct {
	PeakHour   *int
	PeakDay    *time.Weekday
	HourCounts [24]int
	DayCounts  [7]int // indexed by time.Weekday, Sunday first
}

// SummarizePatterns buckets events by hour of day and day of week in UTC.
//
// The bucket with the strictly highest count wins. Ties go to whichever tied
// bucket appeared first in the input, which is arbitrary but stable for a
// given sequence.
func SummarizePatterns(events []EventRecord) Patterns {
	var p Patterns
	hourOrder := make([]int, 0, 24)
	dayOrder := make([]int, 0, 7)

	for _, e := range events {
		ts := e.Timestamp.UTC()
		hour, day := ts.Hour(), int(ts.Weekday())

		if p.HourCounts[hour] == 0 {
			hourOrder = append(hourOrder, hour)
		}
		p.HourCounts[hour]++

		if p.DayCounts[day] == 0 {
			dayOrder = append(dayOrder, day)
		}
		p.DayCounts[day]++
	}

	if hour, ok := peak(p.HourCounts[:], hourOrder); ok {
		p.PeakHour = &hour
	}
	if day, ok := peak(p.DayCounts[:], dayOrder); ok {
		wd := time.Weekday(day)
		p.PeakDay = &wd
	}
	return p
}

func peak(counts []int, order []int) (int, bool) {
	best, bestCount := -1, 0
	for _, bucket := range order {
		if counts[bucket] > bestCount {
			best, bestCount = bucket, counts[bucket]
		}
	}
	return best, best >= 0
}

// DayNumber converts a weekday to the 1=Sunday..7=Saturday numbering used in
// API responses.
func DayNumber(d time.Weekday) int {
	return int(d) + 1
}

// DayName returns the English name of the weekday.
func DayName(d time.Weekday) string {
	return d.String()
}
