package main

import (
	"fmt"
	"io"
	"path/filepath"

	"care-meal-planner/internal/metrics"
	"care-meal-planner/internal/telegram"

	"github.com/spf13/cobra"
)

func newUsageCmd(e *env) *cobra.Command {
	var (
		days   int
		notify bool
	)
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show token usage and system health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			usage, err := metrics.NewStore(db.SQL).GetDailyUsage(cmd.Context(), days)
			if err != nil {
				return err
			}
			health := metrics.NewHealthChecker(filepath.Dir(e.cfg.DatabasePath), db.SQL).Check(cmd.Context())
			printUsage(cmd.OutOrStdout(), usage, health)

			if notify {
				if e.cfg.TelegramBotToken == "" {
					return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
				}
				n, err := telegram.NewNotifier(e.cfg.TelegramBotToken, e.cfg.TelegramChatID, e.logger)
				if err != nil {
					return err
				}
				n.SendUsageReport(usage, health)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to report")
	cmd.Flags().BoolVar(&notify, "notify", false, "Also post the report to the Telegram chat")
	return cmd
}

func newMetricsCleanupCmd(e *env) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old usage records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			affected, err := metrics.NewStore(db.SQL).Cleanup(cmd.Context(), days)
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep records for the last N days")
	return cmd
}

func printUsage(w io.Writer, usage []metrics.DailyUsage, health metrics.SysHealth) {
	fmt.Fprintln(w, "=== LLM USAGE ===")
	if len(usage) == 0 {
		fmt.Fprintln(w, "No data yet")
	}
	for _, d := range usage {
		fmt.Fprintf(w, "%s  %8d prompt  %8d completion  %4d runs  %4d fallbacks\n",
			d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution, d.Fallbacks)
	}
	fmt.Fprintln(w, "\n=== SYSTEM HEALTH ===")
	fmt.Fprintf(w, "Status:     %s\n", health.Status)
	fmt.Fprintf(w, "RAM:        %dMB alloc / %dMB sys\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(w, "Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(w, "Data size:  %s\n", health.DataDiskSize)
}
