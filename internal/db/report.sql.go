package db

import (
	"context"
	"strings"
)

// the denominator is read from decks on every execution so the percentage
// tracks the live deck count.
const getCardUsage = `-- name: GetCardUsage :many
SELECT
    cards.cardname,
    cards.hero,
    COUNT(DISTINCT deck_lists.deck_id) AS total,
    CASE
        WHEN (SELECT COUNT(*) FROM decks) = 0 THEN 0.0
        ELSE COUNT(DISTINCT deck_lists.deck_id) * 100.0 / (SELECT COUNT(*) FROM decks)
    END AS percent,
    CAST(COALESCE(AVG(deck_lists.amount), 0) AS REAL) AS avg_per_deck,
    COALESCE(MAX(collection.amount), 0) AS collected
FROM cards
LEFT JOIN deck_lists ON deck_lists.cardname = cards.cardname
LEFT JOIN collection ON collection.cardname = cards.cardname
/*WHERE:cardsets*/
GROUP BY cards.cardname
ORDER BY total DESC, cards.cardname ASC
`

type GetCardUsageRow struct {
	Cardname   string
	Hero       string
	Total      int64
	Percent    float64
	AvgPerDeck float64
	Collected  int64
}

// GetCardUsage returns one row per card whose set is in cardsets, or every
// card when cardsets is empty.
func (q *Queries) GetCardUsage(ctx context.Context, cardsets []string) ([]GetCardUsageRow, error) {
	query := getCardUsage
	var queryParams []interface{}
	if len(cardsets) > 0 {
		placeholders := strings.Repeat(",?", len(cardsets))[1:]
		query = strings.Replace(query, "/*WHERE:cardsets*/", "WHERE cards.cardset IN ("+placeholders+")", 1)
		for _, set := range cardsets {
			queryParams = append(queryParams, set)
		}
	}

	rows, err := q.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCardUsageRow
	for rows.Next() {
		var i GetCardUsageRow
		if err := rows.Scan(
			&i.Cardname,
			&i.Hero,
			&i.Total,
			&i.Percent,
			&i.AvgPerDeck,
			&i.Collected,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
