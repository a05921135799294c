package commands

import (
	"hearthstats/internal/db"
	"hearthstats/internal/report"

	"github.com/spf13/cobra"
)

var (
	resultsFormat     string
	resultsSets       []string
	resultsHideUnused bool
)

var resultsCmd = &cobra.Command{
	Use:   "results [--format table|csv] [--set <name>]... [--hide-unused]",
	Short: "Prints how often every card is played and how many copies you own.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(resultsFormat)
		if err != nil {
			return err
		}
		scope := report.Scope{CardSets: cfg.Report.CardSets}
		if cmd.Flags().Changed("set") {
			scope.CardSets = resultsSets
		}
		hideUnused := cfg.Report.HideUnused
		if cmd.Flags().Changed("hide-unused") {
			hideUnused = resultsHideUnused
		}

		database, err := db.Open(cfg.Database.File)
		if err != nil {
			return err
		}
		defer database.Close()

		rows, err := report.NewAggregator(db.New(database), tel).Rows(cmd.Context(), scope)
		if err != nil {
			return err
		}
		return report.Render(cmd.OutOrStdout(), rows, format, hideUnused)
	},
}

func init() {
	flags := resultsCmd.Flags()
	flags.StringVar(&resultsFormat, "format", string(report.FormatTable), "Output format, table or csv.")
	flags.StringArrayVar(&resultsSets, "set", nil, "Card set to include, repeat for several sets. Defaults to report.card_sets.")
	flags.BoolVar(&resultsHideUnused, "hide-unused", false, "Leave out cards no discovered deck plays.")
	rootCmd.AddCommand(resultsCmd)
}
