package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/stats"
	"github.com/verte-zerg/radialkb/internal/statsui"
	"github.com/verte-zerg/radialkb/internal/store"
)

const defaultStatsWindow = 7

var (
	statsSince  string
	statsLast   int
	statsTop    int
	statsWindow int
	statsDB     string
	statsTUI    bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage stats from the journal",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsTop, "top", 0, "show only the N most used keys")
	cmd.Flags().IntVar(&statsWindow, "window", defaultStatsWindow, "moving average window in days")
	cmd.Flags().StringVar(&statsDB, "db", "", "usage journal database path")
	cmd.Flags().BoolVar(&statsTUI, "tui", false, "open the interactive dashboard")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig(statsSince, statsLast, statsTop)
	if err != nil {
		return err
	}
	if statsWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyStringFlag(cmd, "db", &settings.Journal.DBPath, statsDB)
	lay, err := settings.BuildLayout()
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}

	st, err := store.Open(settings.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsTUI {
		m := statsui.NewModel(st, lay, cfg, statsWindow)
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return writeReport(cmd.OutOrStdout(), report, lay, cfg.Top, statsWindow)
}

func writeReport(w io.Writer, report stats.Report, lay *layout.Layout, top, window int) error {
	if err := stats.RenderSummary(w, report.Sessions, report.Days); err != nil {
		return err
	}
	if len(report.Keys) == 0 {
		return nil
	}
	if err := stats.RenderKeyTable(w, report.Keys, lay, top); err != nil {
		return err
	}
	if err := stats.RenderSectorUsage(w, report.Keys, lay); err != nil {
		return err
	}
	return stats.RenderDaily(w, report.Days, window)
}
