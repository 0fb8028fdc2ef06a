package insights

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

const systemPrompt = "You analyze a person's web browsing activity and give short, friendly, practical feedback."

// WeeklyData is the aggregate fed to the weekly report prompt.
type WeeklyData struct {
	TotalEvents       int                  `json:"total_events"`
	TopDomains        []models.DomainCount `json:"top_domains"`
	ProductivityScore float64              `json:"productivity_score"`
	PeakHour          string               `json:"peak_hour"`
	PeakDay           string               `json:"peak_day"`
}

type count struct {
	key string
	n   int
}

// byCount orders by count descending, then key.
func byCount(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, n := range m {
		out = append(out, count{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	return out
}

func dailySummaryPrompt(events []analytics.EventRecord) string {
	domains := map[string]int{}
	types := map[string]int{}
	for _, e := range events {
		if e.Domain != nil && *e.Domain != "" {
			domains[*e.Domain]++
		}
		if e.Type != "" {
			types[e.Type]++
		}
	}

	top := byCount(domains)
	if len(top) > 10 {
		top = top[:10]
	}

	var b strings.Builder
	b.WriteString("Analyze this browsing activity data and provide a concise daily summary (3-4 sentences):\n\n")
	fmt.Fprintf(&b, "Total Events: %d\n\n", len(events))
	b.WriteString("Top Domains Visited:\n")
	for _, d := range top {
		fmt.Fprintf(&b, "- %s: %d visits\n", d.key, d.n)
	}
	b.WriteString("\nEvent Types:\n")
	for _, t := range byCount(types) {
		fmt.Fprintf(&b, "- %s: %d\n", t.key, t.n)
	}
	b.WriteString(`
Provide insights about:
1. Main focus areas (work, entertainment, social media, etc.)
2. Productivity level
3. Any interesting patterns

Keep it friendly and actionable.`)
	return b.String()
}

func productivityPrompt(domainTime analytics.DomainTimeMap, score float64) string {
	var b strings.Builder
	b.WriteString("Analyze this productivity data and provide actionable insights (3-4 sentences):\n\n")
	fmt.Fprintf(&b, "Productivity Score: %s/100\n\n", formatFloat(analytics.Round2(score)))
	b.WriteString("Time Spent on Sites:\n")
	for _, row := range analytics.TopDomains(domainTime, 10) {
		fmt.Fprintf(&b, "- %s: %s hours\n", row.Domain, formatFloat(analytics.Round2(row.Hours())))
	}
	b.WriteString(`
Provide:
1. Assessment of productivity level
2. Specific recommendations to improve
3. Positive reinforcement for good habits

Be encouraging and specific.`)
	return b.String()
}

func categorizePrompt(domain, title string) string {
	var b strings.Builder
	b.WriteString(`Categorize this website into ONE of these categories:
- work (productivity tools, work-related sites)
- learning (educational content, documentation, courses)
- social (social media, messaging)
- entertainment (videos, games, music)
- shopping (e-commerce)
- news (news sites, blogs)
- other

`)
	fmt.Fprintf(&b, "Domain: %s\n", domain)
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	b.WriteString("\nRespond with ONLY the category name in lowercase.")
	return b.String()
}

func patternsPrompt(p analytics.Patterns) string {
	var b strings.Builder
	b.WriteString("Analyze these browsing patterns and provide insights (2-3 sentences):\n\n")
	b.WriteString("Activity by Hour:\n")
	for hour, n := range p.HourCounts {
		if n > 0 {
			fmt.Fprintf(&b, "- %d:00 - %d events\n", hour, n)
		}
	}
	b.WriteString("\nActivity by Day of Week:\n")
	for day, n := range p.DayCounts {
		if n > 0 {
			fmt.Fprintf(&b, "- %s: %d events\n", analytics.DayName(time.Weekday(day)), n)
		}
	}
	b.WriteString(`
Identify:
1. Peak productivity times
2. Potential improvements to schedule
3. Work-life balance observations

Be specific and actionable.`)
	return b.String()
}

func weeklyReportPrompt(data WeeklyData) string {
	top := data.TopDomains
	if len(top) > 5 {
		top = top[:5]
	}
	names := make([]string, len(top))
	for i, d := range top {
		names[i] = fmt.Sprintf("%s (%d)", d.Domain, d.Count)
	}

	var b strings.Builder
	b.WriteString("Create a weekly report based on this data. Format as JSON with three sections:\n\n")
	b.WriteString("Data:\n")
	fmt.Fprintf(&b, "- Total Events: %d\n", data.TotalEvents)
	fmt.Fprintf(&b, "- Top Domains: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "- Productivity Score: %s/100\n", formatFloat(data.ProductivityScore))
	fmt.Fprintf(&b, "- Most Active Hour: %s\n", orNA(data.PeakHour))
	fmt.Fprintf(&b, "- Most Active Day: %s\n", orNA(data.PeakDay))
	b.WriteString(`
Respond with ONLY valid JSON in this format:
{
    "summary": "2-3 sentence overview",
    "highlights": ["highlight 1", "highlight 2", "highlight 3"],
    "recommendations": ["recommendation 1", "recommendation 2", "recommendation 3"]
}`)
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
