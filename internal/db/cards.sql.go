package db

import (
	"context"
)

const upsertCard = `-- name: UpsertCard :exec
INSERT INTO cards (cardname, hero, cardset, cost, type, rarity)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (cardname) DO UPDATE SET
    hero = excluded.hero,
    cardset = excluded.cardset,
    cost = excluded.cost,
    type = excluded.type,
    rarity = excluded.rarity
`

type UpsertCardParams struct {
	Cardname string
	Hero     string
	Cardset  string
	Cost     int64
	Type     string
	Rarity   string
}

func (q *Queries) UpsertCard(ctx context.Context, arg UpsertCardParams) error {
	_, err := q.db.ExecContext(ctx, upsertCard,
		arg.Cardname,
		arg.Hero,
		arg.Cardset,
		arg.Cost,
		arg.Type,
		arg.Rarity,
	)
	return err
}

const getCard = `-- name: GetCard :one
SELECT cardname, hero, cardset, cost, type, rarity FROM cards
WHERE cardname = ?
`

func (q *Queries) GetCard(ctx context.Context, cardname string) (Card, error) {
	row := q.db.QueryRowContext(ctx, getCard, cardname)
	var i Card
	err := row.Scan(
		&i.Cardname,
		&i.Hero,
		&i.Cardset,
		&i.Cost,
		&i.Type,
		&i.Rarity,
	)
	return i, err
}

const countCards = `-- name: CountCards :one
SELECT COUNT(*) FROM cards
`

func (q *Queries) CountCards(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCards)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getAllCards = `-- name: GetAllCards :many
SELECT cardname, hero, cardset, cost, type, rarity FROM cards
ORDER BY cardname
`

func (q *Queries) GetAllCards(ctx context.Context) ([]Card, error) {
	rows, err := q.db.QueryContext(ctx, getAllCards)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Card
	for rows.Next() {
		var i Card
		if err := rows.Scan(
			&i.Cardname,
			&i.Hero,
			&i.Cardset,
			&i.Cost,
			&i.Type,
			&i.Rarity,
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

const getCardNames = `-- name: GetCardNames :many
SELECT cardname FROM cards
ORDER BY cardname
`

func (q *Queries) GetCardNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getCardNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var cardname string
		if err := rows.Scan(&cardname); err != nil {
			return nil, err
		}
		items = append(items, cardname)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCardIDName = `-- name: GetCardIDName :one
SELECT cardname FROM card_ids
WHERE card_id = ?
`

func (q *Queries) GetCardIDName(ctx context.Context, cardID int64) (string, error) {
	row := q.db.QueryRowContext(ctx, getCardIDName, cardID)
	var cardname string
	err := row.Scan(&cardname)
	return cardname, err
}

const upsertCardID = `-- name: UpsertCardID :exec
INSERT INTO card_ids (card_id, cardname)
VALUES (?, ?)
ON CONFLICT (card_id) DO UPDATE SET
    cardname = excluded.cardname
`

type UpsertCardIDParams struct {
	CardID   int64
	Cardname string
}

func (q *Queries) UpsertCardID(ctx context.Context, arg UpsertCardIDParams) error {
	_, err := q.db.ExecContext(ctx, upsertCardID, arg.CardID, arg.Cardname)
	return err
}
