package analytics

import "strings"

// DefaultProductiveDomains are the substrings treated as productive when no
// list is configured.
var DefaultProductiveDomains = []string{
	"github.com", "stackoverflow.com", "docs.python.org",
	"developer.mozilla.org", "aws.amazon.com", "cloud.google.com",
	"notion.so", "trello.com", "asana.com", "linkedin.com",
}

// DefaultSocialDomains are the substrings treated as social when no list is
// configured.
var DefaultSocialDomains = []string{
	"facebook.com", "twitter.com", "instagram.com", "tiktok.com",
	"reddit.com", "youtube.com", "twitch.tv",
}

// Breakdown is the result of classifying a DomainTimeMap.
type Breakdown struct {
	ProductiveMinutes float64
	SocialMinutes     float64
	TotalMinutes      float64
	Score             float64
}

// ProductivePercentage is the share of total time spent on productive domains.
func (b Breakdown) ProductivePercentage() float64 {
	if b.TotalMinutes == 0 {
		return 0
	}
	return b.ProductiveMinutes / b.TotalMinutes * 100
}

// SocialPercentage is the share of total time spent on social domains.
func (b Breakdown) SocialPercentage() float64 {
	if b.TotalMinutes == 0 {
		return 0
	}
	return b.SocialMinutes / b.TotalMinutes * 100
}

// Classify sums productive, social and total minutes and derives the score.
//
// A domain is productive (or social) when its name contains any of the given
// patterns. The two categories are independent: a domain matching both lists
// counts toward both, and the social share is applied as a separate penalty.
func Classify(domainTime DomainTimeMap, productive, social []string) Breakdown {
	var b Breakdown
	for _, domain := range domainTime.sortedDomains() {
		minutes := domainTime[domain]
		b.TotalMinutes += minutes
		if containsAny(domain, productive) {
			b.ProductiveMinutes += minutes
		}
		if containsAny(domain, social) {
			b.SocialMinutes += minutes
		}
	}

	if b.TotalMinutes == 0 {
		return b
	}

	raw := (b.ProductiveMinutes/b.TotalMinutes)*100 - (b.SocialMinutes/b.TotalMinutes)*25
	b.Score = clamp(raw, 0, 100)
	return b
}

// Score returns the productivity score in [0, 100] for the given time map.
func Score(domainTime DomainTimeMap, productive, social []string) float64 {
	return Classify(domainTime, productive, social).Score
}

func containsAny(domain string, patterns []string) bool {
	for _, p := range patterns {
		// an empty pattern would match every domain
		if p != "" && strings.Contains(domain, p) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
