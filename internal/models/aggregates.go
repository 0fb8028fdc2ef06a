package models

import "time"

// DomainCount is the number of events recorded for a domain.
type DomainCount struct {
	Domain    string     `json:"domain"`
	Count     int        `json:"count"`
	LastVisit *time.Time `json:"lastVisit"`
}

// TypeCount is the number of events of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// DailyCount is the number of events on one UTC calendar day.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// HourlyCount is the number of events in one UTC hour of the day.
type HourlyCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}
