package analytics

import (
	"math"
	"sort"
)

// DomainTime is one row of a time-spent report.
type DomainTime struct {
	Domain  string
	Minutes float64
}

// Hours returns the row's minutes expressed in hours.
func (d DomainTime) Hours() float64 {
	return d.Minutes / 60
}

// TopDomains returns up to n domains ordered by minutes descending, with the
// domain name as tie-breaker. n <= 0 returns every domain.
func TopDomains(m DomainTimeMap, n int) []DomainTime {
	rows := make([]DomainTime, 0, len(m))
	for domain, minutes := range m {
		rows = append(rows, DomainTime{Domain: domain, Minutes: minutes})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Minutes != rows[j].Minutes {
			return rows[i].Minutes > rows[j].Minutes
		}
		return rows[i].Domain < rows[j].Domain
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Round2 rounds to two decimal places. Use it only when presenting values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
