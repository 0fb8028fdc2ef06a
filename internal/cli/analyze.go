package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
	"github.com/Nikhil-Doal/tracker/internal/config"
	"github.com/Nikhil-Doal/tracker/internal/ingestion"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

const analyzeTopDomains = 10

var (
	analyzeFile   string
	analyzeGap    float64
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report dwell time, productivity and patterns for an event export",
	Long: `Run the analytics offline over a file of extension events.

The file holds either a JSON array of events or a sync body of the form
{"events": [...]}, using the same wire format the extension uploads.

Examples:
  trackerctl analyze --file events.json
  trackerctl analyze --file events.json --gap 15 --format json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Event file to analyze, - for stdin (required)")
	analyzeCmd.Flags().Float64Var(&analyzeGap, "gap", 0, "Idle gap in minutes (defaults to ACTIVITY_GAP_MINUTES)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "Output format: text, json")
	_ = analyzeCmd.MarkFlagRequired("file")
}

// analysisReport is the offline equivalent of the analytics endpoints.
type analysisReport struct {
	Events       int                 `json:"events"`
	Skipped      []string            `json:"skipped,omitempty"`
	GapMinutes   float64             `json:"gap_minutes"`
	TotalMinutes float64             `json:"total_minutes"`
	Productivity productivitySection `json:"productivity"`
	TopDomains   []domainSection     `json:"top_domains"`
	PeakHour     *int                `json:"peak_hour"`
	PeakDay      *string             `json:"peak_day"`
	HourCounts   [24]int             `json:"hour_counts"`
}

type productivitySection struct {
	Score             float64 `json:"score"`
	ProductiveMinutes float64 `json:"productive_minutes"`
	SocialMinutes     float64 `json:"social_minutes"`
}

type domainSection struct {
	Domain   string             `json:"domain"`
	Minutes  float64            `json:"minutes"`
	Category analytics.Category `json:"category"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeGap < 0 {
		return errors.New("--gap must not be negative")
	}
	gap := cfg.Analytics.ActivityGapMinutes
	if analyzeGap > 0 {
		gap = analyzeGap
	}

	var data []byte
	if analyzeFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(analyzeFile)
	}
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	batch, err := decodeEventFile(data)
	if err != nil {
		return err
	}

	report := buildReport(batch, gap, cfg.Analytics, time.Now())

	out := cmd.OutOrStdout()
	switch analyzeFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		return writeReport(out, report)
	default:
		return fmt.Errorf("unknown format %q: want text or json", analyzeFormat)
	}
}

// decodeEventFile accepts a bare array or a {"events": [...]} body.
func decodeEventFile(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("event file is empty")
	}

	var batch []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		return batch, nil
	}

	var body struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if body.Events == nil {
		return nil, errors.New("no events found in file")
	}
	return body.Events, nil
}

func buildReport(batch []json.RawMessage, gap float64, cfg config.AnalyticsConfig, now time.Time) analysisReport {
	events, failures := ingestion.NormalizeBatch("local", batch, now)
	records := models.Records(events)

	activity := analytics.PrepareActivity(records, models.ActivityTypes()...)
	domainTime := analytics.EstimateDwellTime(activity, gap)
	breakdown := analytics.Classify(domainTime, cfg.ProductiveDomains, cfg.SocialDomains)
	patterns := analytics.SummarizePatterns(records)

	report := analysisReport{
		Events:       len(events),
		Skipped:      failures,
		GapMinutes:   gap,
		TotalMinutes: analytics.Round2(domainTime.Total()),
		Productivity: productivitySection{
			Score:             analytics.Round2(breakdown.Score),
			ProductiveMinutes: analytics.Round2(breakdown.ProductiveMinutes),
			SocialMinutes:     analytics.Round2(breakdown.SocialMinutes),
		},
		TopDomains: []domainSection{},
		PeakHour:   patterns.PeakHour,
		HourCounts: patterns.HourCounts,
	}
	for _, d := range analytics.TopDomains(domainTime, analyzeTopDomains) {
		report.TopDomains = append(report.TopDomains, domainSection{
			Domain:   d.Domain,
			Minutes:  analytics.Round2(d.Minutes),
			Category: analytics.Categorize(d.Domain),
		})
	}
	if patterns.PeakDay != nil {
		name := analytics.DayName(*patterns.PeakDay)
		report.PeakDay = &name
	}
	return report
}

func writeReport(out io.Writer, r analysisReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Events\t%d\n", r.Events)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped\t%d\n", len(r.Skipped))
	}
	fmt.Fprintf(w, "Idle gap\t%g min\n", r.GapMinutes)
	fmt.Fprintf(w, "Active time\t%.2f min\n", r.TotalMinutes)
	fmt.Fprintf(w, "Productivity score\t%.2f\n", r.Productivity.Score)
	fmt.Fprintf(w, "Peak hour (UTC)\t%s\n", orNone(r.PeakHour, func(h int) string { return fmt.Sprintf("%02d:00", h) }))
	fmt.Fprintf(w, "Peak day\t%s\n", orNone(r.PeakDay, func(d string) string { return d }))

	if len(r.TopDomains) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "DOMAIN\tMINUTES\tCATEGORY")
		for _, d := range r.TopDomains {
			fmt.Fprintf(w, "%s\t%.2f\t%s\n", d.Domain, d.Minutes, d.Category)
		}
	}
	return w.Flush()
}

func orNone[T any](v *T, format func(T) string) string {
	if v == nil {
		return "none"
	}
	return format(*v)
}
