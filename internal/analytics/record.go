// Package analytics derives usage metrics from browsing telemetry: dwell time
// per domain, a productivity score and peak activity slots. Everything here is
// a pure function over in-memory values.
package analytics

import (
	"sort"
	"time"
)

// EventRecord is the normalized view of one telemetry event used by the
// estimators. Domain is nil when the event carried no URL.
type EventRecord struct {
	Domain    *string
	Timestamp time.Time
	Type      string
}

// DomainTimeMap maps a domain to accumulated minutes. A domain with no
// attributed time has no entry.
type DomainTimeMap map[string]float64

// Total returns the sum of all minutes in the map.
func (m DomainTimeMap) Total() float64 {
	var total float64
	for _, domain := range m.sortedDomains() {
		total += m[domain]
	}
	return total
}

// sortedDomains returns the map keys in lexical order so float sums do not
// depend on map iteration order.
func (m DomainTimeMap) sortedDomains() []string {
	domains := make([]string, 0, len(m))
	for domain := range m {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

// PrepareActivity keeps only events whose type is one of types and which carry
// a non-empty domain, then stable-sorts them ascending by timestamp. The input
// slice is not modified.
func PrepareActivity(records []EventRecord, types ...string) []EventRecord {
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}

	out := make([]EventRecord, 0, len(records))
	for _, r := range records {
		if r.Domain == nil || *r.Domain == "" {
			continue
		}
		if _, ok := allowed[r.Type]; !ok {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
