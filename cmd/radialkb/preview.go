package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/radialkb/internal/commit"
	"github.com/verte-zerg/radialkb/internal/engine"
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/stats"
	"github.com/verte-zerg/radialkb/internal/store"
	"github.com/verte-zerg/radialkb/internal/tui"
	"github.com/verte-zerg/radialkb/internal/wordlist"
)

const (
	defaultDrillWords = 8
	defaultRareTop    = 6
	defaultRareFactor = 2.0
)

var (
	previewWords       string
	previewDrillWords  int
	previewPunct       float64
	previewFocusRare   bool
	previewRareTop     int
	previewRareFactor  float64
	previewEarlyCancel bool
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Try the layout with the mouse in a terminal drill",
		Args:  cobra.NoArgs,
		RunE:  runPreviewCmd,
	}
	cmd.Flags().StringVar(&previewWords, "words", "", "word list file (one word per line)")
	cmd.Flags().IntVar(&previewDrillWords, "drill-words", defaultDrillWords, "words per drill")
	cmd.Flags().Float64Var(&previewPunct, "punct", 0, "punctuation probability per word (0-1)")
	cmd.Flags().BoolVar(&previewFocusRare, "focus-rare", false, "bias drills toward the least used keys in the journal")
	cmd.Flags().IntVar(&previewRareTop, "rare-top", defaultRareTop, "number of rare characters to focus on")
	cmd.Flags().Float64Var(&previewRareFactor, "rare-factor", defaultRareFactor, "weight factor for rare characters")
	cmd.Flags().BoolVar(&previewEarlyCancel, "early-cancel", false, "cancel on a downward flick before release")
	return cmd
}

func validatePreviewFlags() error {
	if previewDrillWords <= 0 {
		return fmt.Errorf("--drill-words must be > 0")
	}
	if previewPunct < 0 || previewPunct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if previewRareTop < 0 {
		return fmt.Errorf("--rare-top must be >= 0")
	}
	if previewRareFactor < 0 {
		return fmt.Errorf("--rare-factor must be >= 0")
	}
	return nil
}

func runPreviewCmd(cmd *cobra.Command, _ []string) error {
	if err := validatePreviewFlags(); err != nil {
		return err
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyBoolFlag(cmd, "early-cancel", &settings.EarlyCancel, previewEarlyCancel)
	lay, err := settings.BuildLayout()
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}

	words, err := loadDrillWords(previewWords, lay)
	if err != nil {
		return err
	}
	var rare map[rune]struct{}
	if previewFocusRare {
		rare, err = loadRareChars(cmd.Context(), settings.Journal.DBPath, lay, previewRareTop)
		if err != nil {
			return err
		}
	}

	// The preview never types into the system.
	router := engine.NewRouter(engine.Options{
		Layout:      lay,
		Tuning:      settings.Tuning,
		Thresholds:  settings.Thresholds,
		EarlyCancel: settings.EarlyCancel,
		Committer:   commit.NewDispatcher(&commit.Recorder{}, nil),
	})

	width, height := 0, 0
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			width, height = w, h
		}
	}

	m := tui.NewModel(tui.Options{
		Layout:     lay,
		Tuning:     settings.Tuning,
		Router:     router,
		Words:      words,
		DrillWords: previewDrillWords,
		PunctPct:   previewPunct,
		Rare:       rare,
		RareFactor: previewRareFactor,
		Width:      width,
		Height:     height,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run preview TUI: %w", err)
	}
	return nil
}

// loadDrillWords reads a word list and keeps the words the layout can type.
// An empty path selects synthesized drills.
func loadDrillWords(path string, lay *layout.Layout) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	words, err := wordlist.LoadWords(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}
	kept := wordlist.Filter(words, wordlist.FilterForAlphabet(lay.Alphabet()))
	if len(kept) == 0 {
		return nil, fmt.Errorf("no word in %s can be typed with this layout", path)
	}
	if dropped := len(words) - len(kept); dropped > 0 {
		logErrf("skipped %d words with characters outside the layout\n", dropped)
	}
	return kept, nil
}

func loadRareChars(ctx context.Context, dbPath string, lay *layout.Layout, top int) (map[rune]struct{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	aggs, err := st.KeyAggregates(ctx, model.StatsConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to load key counts: %w", err)
	}
	return stats.SelectRareChars(aggs, lay.Alphabet(), top), nil
}
