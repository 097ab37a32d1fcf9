// Package main provides the CLI entrypoint for radialkb.
package main

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/radialkb/internal/config"
	"github.com/verte-zerg/radialkb/internal/layout"
	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/stats"
)

const defaultEnvFile = ".env"

var (
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "radialkb",
		Short:         "Radial touch keyboard daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file with RADIALKB_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newCtlCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLayoutCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadSettings resolves defaults, the config file, the environment and the
// global flags. Command flags are applied by the caller, which validates again.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := config.Resolve(fileCfg, envFile)
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid config: %w", err)
	}
	applyStringFlag(cmd, "log-level", &settings.Log.Level, logLevel)
	applyStringFlag(cmd, "log-format", &settings.Log.Format, logFormat)
	return settings, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the resolved sector layout",
		Args:  cobra.NoArgs,
		RunE:  runLayoutCmd,
	}
}

func runLayoutCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	lay, err := settings.BuildLayout()
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, renderLayout(lay)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func renderLayout(lay *layout.Layout) string {
	cfg := lay.Config()
	rows := make([][]string, 0, lay.Sectors())
	for i := 0; i < lay.Sectors(); i++ {
		sector, _ := lay.Sector(i)
		keys := make([]string, 0, len(sector.Keys))
		for _, k := range sector.Keys {
			keys = append(keys, stats.KeyLabel(layout.KeyValue(k)))
		}
		mid := degrees(lay.SectorMidAngle(i))
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			sector.Label,
			fmt.Sprintf("%.1f°", mid),
			strings.Join(keys, " "),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Sector", "Label", "Mid", "Keys").
		Rows(rows...)
	header := fmt.Sprintf("center (%.2f, %.2f), offset %.1f°, %d sectors",
		cfg.CenterX, cfg.CenterY, degrees(cfg.AngleOffsetRad), lay.Sectors())
	return header + "\n" + t.String()
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyBoolFlag(cmd *cobra.Command, name string, target *bool, value bool) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func defaultConfigTemplate() string {
	defaults := config.Defaults()
	return fmt.Sprintf(`# radialkb configuration
# Uncomment a value to enable it. RADIALKB_* environment variables and CLI
# flags override config values.

[server]
# socket = %q
# ws-addr = "127.0.0.1:7420"  # Websocket bridge for the overlay (loopback only)
# early-cancel = false        # Cancel on a downward flick before release

[layout]
# center-x = %.2f
# center-y = %.2f
# angle-offset-deg = 0.0      # Rotates sector 0 counter-clockwise from east
# Each [[layout.sector]] replaces the default sectors. Keys are single
# characters or @space, @backspace, @enter, @tab, @escape; "@@" is '@'.
# [[layout.sector]]
# label = "abc"
# keys = ["a", "b", "c", "@backspace"]

[selection]
# deadzone = %.2f
# inner = %.2f
# inner-hysteresis = %.2f
# angle-hysteresis-deg = %.1f

[gesture]
# min-distance = %.2f
# max-duration-ms = %d
# min-velocity = %.4f

[keyboard]
# enabled = true              # Emit commits through uinput
# path = %q
# cooldown-ms = %d            # Wait before retrying a failed device

[touch]
# device = "/dev/input/event5"
# swap-xy = false
# invert-x = false
# invert-y = false

[journal]
# enabled = false             # Record per-key usage counters
# db = %q

[log]
# level = "info"
# format = "console"          # console or json
`,
		defaults.SocketPath,
		defaults.Layout.CenterX,
		defaults.Layout.CenterY,
		defaults.Tuning.DeadzoneRadius,
		defaults.Tuning.InnerRadius,
		defaults.Tuning.InnerHysteresis,
		degrees(defaults.Tuning.AngleHysteresis),
		defaults.Thresholds.MinDistanceNorm,
		defaults.Thresholds.MaxDurationMs,
		defaults.Thresholds.MinVelocityNormPerMs,
		defaults.Keyboard.Path,
		defaults.Keyboard.Cooldown.Milliseconds(),
		defaults.Journal.DBPath,
	)
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func statsConfig(since string, last, top int) (model.StatsConfig, error) {
	sinceTime, err := parseSince(since)
	if err != nil {
		return model.StatsConfig{}, err
	}
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if top < 0 {
		return model.StatsConfig{}, fmt.Errorf("--top must be >= 0")
	}
	return model.StatsConfig{Since: sinceTime, Last: last, Top: top}, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
