package db

import (
	"context"
)

const deleteCollection = `-- name: DeleteCollection :exec
DELETE FROM collection
`

func (q *Queries) DeleteCollection(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteCollection)
	return err
}

const setCollectionCard = `-- name: SetCollectionCard :exec
INSERT INTO collection (cardname, amount)
VALUES (?, ?)
ON CONFLICT (cardname) DO UPDATE SET
    amount = excluded.amount
`

type SetCollectionCardParams struct {
	Cardname string
	Amount   int64
}

func (q *Queries) SetCollectionCard(ctx context.Context, arg SetCollectionCardParams) error {
	_, err := q.db.ExecContext(ctx, setCollectionCard, arg.Cardname, arg.Amount)
	return err
}

const getCollection = `-- name: GetCollection :many
SELECT cardname, amount FROM collection
ORDER BY cardname
`

func (q *Queries) GetCollection(ctx context.Context) ([]Collection, error) {
	rows, err := q.db.QueryContext(ctx, getCollection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Collection
	for rows.Next() {
		var i Collection
		if err := rows.Scan(&i.Cardname, &i.Amount); err != nil {
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
