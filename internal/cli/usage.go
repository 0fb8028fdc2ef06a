package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nikhil-Doal/tracker/internal/database"
)

var (
	usageDays int
	usageUser string
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize AI generation calls",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().IntVar(&usageDays, "days", 30, "Look back this many days (0 for all time)")
	usageCmd.Flags().StringVar(&usageUser, "user", "", "Only count calls made for this user ID")
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dbCfg, err := database.ConfigFrom(cfg.Database)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var since *time.Time
	if usageDays > 0 {
		t := time.Now().UTC().AddDate(0, 0, -usageDays)
		since = &t
	}

	stats, err := database.NewInferenceLogRepository(db).GetStats(ctx, usageUser, since, nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Calls\t%d\n", stats.TotalCalls)
	fmt.Fprintf(w, "Succeeded\t%d\n", stats.SuccessfulCalls)
	fmt.Fprintf(w, "Failed\t%d\n", stats.FailedCalls)
	fmt.Fprintf(w, "Tokens\t%d\n", stats.TotalTokens)
	fmt.Fprintf(w, "Cost (USD)\t%.4f\n", stats.TotalCostUSD)
	fmt.Fprintf(w, "Avg latency\t%.0f ms\n", stats.AvgLatencyMs)
	return w.Flush()
}
