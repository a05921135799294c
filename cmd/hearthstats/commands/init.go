package commands

import (
	"log/slog"
	"os"

	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/config"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Writes a default config file to fill in with credentials.",
	// the config file may not exist yet, so the root setup is skipped
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(os.Stderr, verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.FileName
		}
		written, err := config.WriteDefault(path)
		if err != nil {
			return err
		}
		if !written {
			slog.Info("config already exists, leaving it untouched", "path", path)
			return nil
		}
		slog.Info("wrote default config", "path", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
