package commands

import (
	"fmt"
	"log/slog"
	"time"

	"hearthstats/internal/components/chrono"

	"github.com/spf13/cobra"
)

var (
	scheduleSpec  string
	scheduleBuild buildFlags
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule --cron <spec> [--cards] [--decks] [--collection]",
	Short: "Runs the selected builders on a cron schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scheduleBuild.empty() {
			return fmt.Errorf("select at least one of --cards, --decks or --collection")
		}
		err := scheduleBuild.apply(cmd, &cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var cron chrono.CronAPI = chrono.NewStandardCron(tel)
		defer cron.Stop()

		err = cron.Cron(scheduleSpec, func() {
			summaries, err := runBuild(ctx, cfg, scheduleBuild.selection, tel)
			if err != nil {
				tel.ReportBroken("schedule.build", err)
				return
			}
			renderSummaries(cmd.OutOrStdout(), summaries)
			err = summaryError(summaries)
			if err != nil {
				tel.ReportWarning("schedule.build", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", scheduleSpec, err)
		}

		slog.Info("waiting for schedule", "cron", scheduleSpec, "next", cron.NextRun().Format(time.RFC3339))
		<-ctx.Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "", "Standard 5 field cron spec, or a descriptor like @daily.")
	scheduleCmd.MarkFlagRequired("cron")
	addBuildFlags(scheduleCmd, &scheduleBuild)
	rootCmd.AddCommand(scheduleCmd)
}
