package commands

import (
	"fmt"

	"hearthstats/internal/cardname"
	"hearthstats/internal/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var unmatchedCmd = &cobra.Command{
	Use:   "unmatched",
	Short: "Lists card names used by decks that are missing from the card catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.Database.File)
		if err != nil {
			return err
		}
		defer database.Close()
		qry := db.New(database)

		unmatched, err := qry.GetUnmatchedDeckCards(cmd.Context())
		if err != nil {
			return err
		}
		catalog, err := qry.GetCardNames(cmd.Context())
		if err != nil {
			return err
		}

		names := make([]string, len(unmatched))
		for i, row := range unmatched {
			names[i] = row.Cardname
		}
		suggestions := cardname.Suggest(names, catalog)

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"deck card", "decks", "closest catalog card", "similarity"})
		for i, s := range suggestions {
			t.AppendRow(table.Row{
				s.Name,
				unmatched[i].Decks,
				s.Closest,
				fmt.Sprintf("%.2f", s.Correlation),
			})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		})
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unmatchedCmd)
}
