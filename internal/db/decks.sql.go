package db

import (
	"context"
)

const upsertDeck = `-- name: UpsertDeck :exec
INSERT INTO decks (deck_id, class, name, type, rating, dust, updated, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (deck_id) DO UPDATE SET
    class = excluded.class,
    name = excluded.name,
    type = excluded.type,
    rating = excluded.rating,
    dust = excluded.dust,
    updated = excluded.updated,
    scraped_at = excluded.scraped_at
`

type UpsertDeckParams struct {
	DeckID    int64
	Class     string
	Name      string
	Type      string
	Rating    int64
	Dust      int64
	Updated   int64
	ScrapedAt int64
}

func (q *Queries) UpsertDeck(ctx context.Context, arg UpsertDeckParams) error {
	_, err := q.db.ExecContext(ctx, upsertDeck,
		arg.DeckID,
		arg.Class,
		arg.Name,
		arg.Type,
		arg.Rating,
		arg.Dust,
		arg.Updated,
		arg.ScrapedAt,
	)
	return err
}

const getDeck = `-- name: GetDeck :one
SELECT deck_id, class, name, type, rating, dust, updated, scraped_at FROM decks
WHERE deck_id = ?
`

func (q *Queries) GetDeck(ctx context.Context, deckID int64) (Deck, error) {
	row := q.db.QueryRowContext(ctx, getDeck, deckID)
	var i Deck
	err := row.Scan(
		&i.DeckID,
		&i.Class,
		&i.Name,
		&i.Type,
		&i.Rating,
		&i.Dust,
		&i.Updated,
		&i.ScrapedAt,
	)
	return i, err
}

const countDecks = `-- name: CountDecks :one
SELECT COUNT(*) FROM decks
`

func (q *Queries) CountDecks(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countDecks)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteDeckList = `-- name: DeleteDeckList :exec
DELETE FROM deck_lists
WHERE deck_id = ?
`

func (q *Queries) DeleteDeckList(ctx context.Context, deckID int64) error {
	_, err := q.db.ExecContext(ctx, deleteDeckList, deckID)
	return err
}

// a card listed twice for the same deck (ex. once in the class section and
// once in the neutral section) has its amounts added together.
const addDeckCard = `-- name: AddDeckCard :exec
INSERT INTO deck_lists (deck_id, cardname, amount)
VALUES (?, ?, ?)
ON CONFLICT (deck_id, cardname) DO UPDATE SET
    amount = deck_lists.amount + excluded.amount
`

type AddDeckCardParams struct {
	DeckID   int64
	Cardname string
	Amount   int64
}

func (q *Queries) AddDeckCard(ctx context.Context, arg AddDeckCardParams) error {
	_, err := q.db.ExecContext(ctx, addDeckCard, arg.DeckID, arg.Cardname, arg.Amount)
	return err
}

const getDeckList = `-- name: GetDeckList :many
SELECT deck_id, cardname, amount FROM deck_lists
WHERE deck_id = ?
ORDER BY cardname
`

func (q *Queries) GetDeckList(ctx context.Context, deckID int64) ([]DeckList, error) {
	rows, err := q.db.QueryContext(ctx, getDeckList, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DeckList
	for rows.Next() {
		var i DeckList
		if err := rows.Scan(&i.DeckID, &i.Cardname, &i.Amount); err != nil {
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

const getUnmatchedDeckCards = `-- name: GetUnmatchedDeckCards :many
SELECT deck_lists.cardname, COUNT(DISTINCT deck_lists.deck_id) AS decks
FROM deck_lists
LEFT JOIN cards ON cards.cardname = deck_lists.cardname
WHERE cards.cardname IS NULL
GROUP BY deck_lists.cardname
ORDER BY decks DESC, deck_lists.cardname ASC
`

type GetUnmatchedDeckCardsRow struct {
	Cardname string
	Decks    int64
}

// GetUnmatchedDeckCards lists names used in decks that the catalog does not contain.
func (q *Queries) GetUnmatchedDeckCards(ctx context.Context) ([]GetUnmatchedDeckCardsRow, error) {
	rows, err := q.db.QueryContext(ctx, getUnmatchedDeckCards)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetUnmatchedDeckCardsRow
	for rows.Next() {
		var i GetUnmatchedDeckCardsRow
		if err := rows.Scan(&i.Cardname, &i.Decks); err != nil {
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
