package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/config"
	"hearthstats/internal/scrapers"

	"github.com/spf13/cobra"
)

const (
	exitFailure    = 1
	exitCredential = 2
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

// set up by the root command before any subcommand runs
var (
	cfg         config.Config
	tel         telemetry.API
	otelHandles telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "hearthstats",
	Short: "hearthstats builds card usage statistics from hearthpwn decks and your collection.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(os.Stderr, verbose)

		loaded, source, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.Database.File = dbPath
		}
		if source != "" {
			slog.Debug("loaded config", "path", source)
		}
		cfg = loaded

		otelHandles, err = telemetry.Setup(cmd.Context(), "hearthstats", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("set up telemetry: %w", err)
		}
		tel = telemetry.NewMeteredAPI(telemetry.SlogAPI{})
		if otelHandles.MeterProvider != nil {
			telemetry.InstrumentPerfStats(cmd.Context(), time.Second*5, tel)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		return otelHandles.Shutdown(ctx)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file to read, config.json5 is searched upwards from the working directory by default.")
	flags.StringVar(&dbPath, "db", "", "The sqlite database to use, overrides db.file.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

// signalContext returns a context that is cancelled on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func Execute() {
	ctx, cancel := signalContext()
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fatal(err)
	}
}

// fatal logs err and exits, with a distinct code when the operator has to
// provide a new credential.
func fatal(err error) {
	if scrapers.IsAuth(err) {
		slog.Error(
			"credential rejected, refresh it and run again",
			"err", err.Error(),
			"env", []string{config.EnvCardApiKey, config.EnvAuthSession},
		)
		os.Exit(exitCredential)
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn("interrupted")
		os.Exit(exitFailure)
	}
	slog.Error("hearthstats failed", "err", err.Error())
	os.Exit(exitFailure)
}
