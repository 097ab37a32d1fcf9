package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/commit"
	"github.com/verte-zerg/radialkb/internal/config"
	"github.com/verte-zerg/radialkb/internal/engine"
	"github.com/verte-zerg/radialkb/internal/logging"
	"github.com/verte-zerg/radialkb/internal/server"
	"github.com/verte-zerg/radialkb/internal/store"
	"github.com/verte-zerg/radialkb/internal/touch"
	"github.com/verte-zerg/radialkb/internal/uinput"
)

var (
	serveSocket      string
	serveWSAddr      string
	serveTouchDevice string
	serveKeyboard    bool
	serveJournal     bool
	serveDB          string
	serveEarlyCancel bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the keyboard daemon",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveSocket, "socket", "", "unix socket path")
	cmd.Flags().StringVar(&serveWSAddr, "ws-addr", "", "loopback address for the overlay websocket bridge")
	cmd.Flags().StringVar(&serveTouchDevice, "touch-device", "", "evdev touch device to read")
	cmd.Flags().BoolVar(&serveKeyboard, "keyboard", true, "emit commits through uinput")
	cmd.Flags().BoolVar(&serveJournal, "journal", false, "record per-key usage counters")
	cmd.Flags().StringVar(&serveDB, "db", "", "usage journal database path")
	cmd.Flags().BoolVar(&serveEarlyCancel, "early-cancel", false, "cancel on a downward flick before release")
	return cmd
}

func applyServeFlags(cmd *cobra.Command, settings *config.Settings) error {
	applyStringFlag(cmd, "socket", &settings.SocketPath, serveSocket)
	applyStringFlag(cmd, "ws-addr", &settings.WSAddr, serveWSAddr)
	applyStringFlag(cmd, "touch-device", &settings.Touch.Device, serveTouchDevice)
	applyBoolFlag(cmd, "keyboard", &settings.Keyboard.Enabled, serveKeyboard)
	applyBoolFlag(cmd, "journal", &settings.Journal.Enabled, serveJournal)
	applyStringFlag(cmd, "db", &settings.Journal.DBPath, serveDB)
	applyBoolFlag(cmd, "early-cancel", &settings.EarlyCancel, serveEarlyCancel)
	return settings.Validate()
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, &settings); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	lay, err := settings.BuildLayout()
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: settings.Log.Level, Format: settings.Log.Format})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }() // best-effort
	log := logger.Sugar()

	sessionID := uuid.NewString()
	sessionOpts := []server.SessionOption{server.WithTransport("unix"), server.WithSessionID(sessionID)}
	var dispatchOpts []commit.Option
	if settings.Journal.Enabled {
		st, err := store.Open(settings.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		dispatchOpts = append(dispatchOpts, commit.WithJournal(st, sessionID))
		sessionOpts = append(sessionOpts, server.WithSessionJournal(st))
	}

	emitter, closeEmitter := newEmitter(settings.Keyboard, log)
	defer closeEmitter()

	router := engine.NewRouter(engine.Options{
		Layout:      lay,
		Tuning:      settings.Tuning,
		Thresholds:  settings.Thresholds,
		EarlyCancel: settings.EarlyCancel,
		Committer:   commit.NewDispatcher(emitter, log.Named("commit"), dispatchOpts...),
		Feedback:    engine.LogFeedback{Log: log.Named("feedback")},
		Logger:      log.Named("engine"),
	})
	session := server.NewSession(router, log.Named("session"), sessionOpts...)

	unixSrv, err := server.ListenUnix(settings.SocketPath, session, log.Named("unix"))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	daemon := &server.Daemon{Session: session, Unix: unixSrv, Log: log.Named("daemon")}
	if settings.WSAddr != "" {
		bridge, err := server.ListenWS(settings.WSAddr, session, log.Named("ws"))
		if err != nil {
			if cerr := unixSrv.Close(); cerr != nil {
				logErrf("failed to close socket: %v\n", cerr)
			}
			return fmt.Errorf("failed to start websocket bridge: %w", err)
		}
		daemon.WS = bridge
	}
	if settings.Touch.Device != "" {
		daemon.Touch = touch.Device{
			Path: settings.Touch.Device,
			Transform: touch.Transform{
				SwapXY:  settings.Touch.SwapXY,
				InvertX: settings.Touch.InvertX,
				InvertY: settings.Touch.InvertY,
			},
			Log: log.Named("touch"),
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("daemon started",
		"socket", unixSrv.Addr(),
		"ws", settings.WSAddr,
		"touch", settings.Touch.Device,
		"keyboard", settings.Keyboard.Enabled,
		"journal", settings.Journal.Enabled,
		"session", sessionID,
		"sectors", lay.Sectors(),
	)
	if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon stopped: %w", err)
	}
	log.Infow("daemon stopped", "session", sessionID)
	return nil
}

// newEmitter returns the uinput keyboard, or a dry-run emitter when the
// keyboard is disabled.
func newEmitter(kb config.KeyboardSettings, log *zap.SugaredLogger) (commit.Emitter, func()) {
	if !kb.Enabled {
		log.Infow("keyboard disabled, commits are logged only")
		return commit.LogEmitter{Log: log.Named("emit")}, func() {}
	}
	keyboard := uinput.New(kb.Path, log.Named("uinput"), uinput.WithCooldown(kb.Cooldown))
	return keyboard, func() {
		if err := keyboard.Close(); err != nil {
			logErrf("failed to close keyboard: %v\n", err)
		}
	}
}
