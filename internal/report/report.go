package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	report_db_query = "db.query"
)

// Row is the usage of one catalog card across every stored deck.
type Row struct {
	Cardname string
	Hero     string
	// Total is the number of decks that contain the card.
	Total int64
	// Percent is Total over the number of stored decks, 0 without decks.
	Percent float64
	// AvgPerDeck is the mean amount in the decks that contain the card.
	AvgPerDeck float64
	Collected  int64
}

// Scope selects the card sets to report on, no sets means every set.
type Scope struct {
	CardSets []string
}

type Aggregator struct {
	db  *db.Queries
	tel telemetry.API
}

func NewAggregator(db *db.Queries, tel telemetry.API) Aggregator {
	assert.NotNil(db)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("report", tel)

	return Aggregator{db: db, tel: tel}
}

// Rows returns one row per catalog card in scope, ordered by Total
// descending then by name. Cards without decks or copies report zeros.
func (a Aggregator) Rows(ctx context.Context, scope Scope) ([]Row, error) {
	usage, err := a.db.GetCardUsage(ctx, scope.CardSets)
	if err != nil {
		a.tel.ReportBroken(report_db_query, err, "GetCardUsage", scope.CardSets)
		return nil, err
	}

	rows := make([]Row, len(usage))
	for i, u := range usage {
		rows[i] = Row{
			Cardname:   u.Cardname,
			Hero:       u.Hero,
			Total:      u.Total,
			Percent:    u.Percent,
			AvgPerDeck: u.AvgPerDeck,
			Collected:  u.Collected,
		}
	}
	return rows, nil
}

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q, expected %q or %q", s, FormatTable, FormatCSV)
}

var header = []string{"cardname", "hero", "total", "percent", "avg_per_deck", "collected"}

func (r Row) strings() []string {
	return []string{
		r.Cardname,
		r.Hero,
		strconv.FormatInt(r.Total, 10),
		fmt.Sprintf("%.2f", r.Percent),
		fmt.Sprintf("%.2f", r.AvgPerDeck),
		strconv.FormatInt(r.Collected, 10),
	}
}

// Render writes rows as a table or as csv. hideUnused drops cards that no
// deck uses.
func Render(w io.Writer, rows []Row, format Format, hideUnused bool) error {
	var visible []Row
	for _, r := range rows {
		if hideUnused && r.Total == 0 {
			continue
		}
		visible = append(visible, r)
	}

	if format == FormatCSV {
		return renderCSV(w, visible)
	}
	return renderTable(w, visible)
}

// renderCSV quotes fields the way RFC 4180 does, card names may contain
// commas.
func renderCSV(w io.Writer, rows []Row) error {
	out := csv.NewWriter(w)
	err := out.Write(header)
	if err != nil {
		return err
	}
	for _, r := range rows {
		err = out.Write(r.strings())
		if err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

func renderTable(w io.Writer, rows []Row) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, r := range rows {
		cells := r.strings()
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}
