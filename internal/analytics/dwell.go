package analytics

// DefaultGapMinutes is the inactivity cutoff used when none is configured.
const DefaultGapMinutes = 30.0

// EstimateDwellTime reconstructs time spent per domain from an ordered stream
// of activation events.
//
// The interval between two adjacent events is credited to the domain of the
// earlier one, but only when it is strictly shorter than gapMinutes; longer
// gaps are treated as time away. The last event closes no interval and so
// contributes nothing. Events must already be filtered and sorted (see
// PrepareActivity). Out-of-order pairs yield a negative interval, which is
// dropped rather than reported.
func EstimateDwellTime(events []EventRecord, gapMinutes float64) DomainTimeMap {
	spent := make(DomainTimeMap)

	var prev *EventRecord
	for i := range events {
		current := &events[i]
		if prev != nil {
			delta := current.Timestamp.Sub(prev.Timestamp).Minutes()
			// zero-length intervals add nothing and must not create an entry
			if delta > 0 && delta < gapMinutes && prev.Domain != nil && *prev.Domain != "" {
				spent[*prev.Domain] += delta
			}
		}
		prev = current
	}

	return spent
}
