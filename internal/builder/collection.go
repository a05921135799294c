package builder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/db"
	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/hearthpwn"
)

const (
	report_collection_fetch     = "collection.fetch"
	report_collection_card_name = "collection.card-name"
)

// CollectionImporter replaces the collection table with the owned cards of
// the account a session belongs to.
type CollectionImporter struct {
	source    CollectionSource
	db        *db.Queries
	makeTx    db.MakeTx
	retry     scrapers.RetryPolicy
	maxCopies int
	tel       telemetry.API
}

// NewCollectionImporter creates an importer, maxCopies > 0 caps the owned
// count of every card.
func NewCollectionImporter(
	source CollectionSource,
	db *db.Queries,
	makeTx db.MakeTx,
	retry scrapers.RetryPolicy,
	maxCopies int,
	tel telemetry.API,
) CollectionImporter {
	assert.NotNil(source)
	assert.NotNil(db)
	assert.NotNil(makeTx)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("collection", tel)

	return CollectionImporter{
		source:    source,
		db:        db,
		makeTx:    makeTx,
		retry:     retry,
		maxCopies: maxCopies,
		tel:       tel,
	}
}

// Import fetches the collection and replaces the stored one in a single
// transaction. Base and golden copies of a card are summed. When the
// collection cannot be fetched, including when the session is rejected, the
// stored collection is left untouched. The same holds when a card name
// lookup fails for any reason other than an unparseable card page, or when
// no card resolves at all.
func (c CollectionImporter) Import(ctx context.Context, session string) (Summary, error) {
	summary := Summary{Builder: "collection"}
	defer func() { summary.report(c.tel) }()

	fail := func(err error) (Summary, error) {
		summary.Fatal = err
		return summary, err
	}

	if session == "" {
		return fail(&scrapers.AuthError{Reason: "session is not configured"})
	}

	collection, err := scrapers.Retry(ctx, c.retry, nil, func() (hearthpwn.Collection, error) {
		return c.source.Collection(ctx, session)
	})
	if err != nil {
		c.tel.ReportBroken(report_collection_fetch, err)
		return fail(fmt.Errorf("fetch collection: %w", err))
	}

	owned := make(map[string]int64)
	// the first lookup failure that is not a bad card page, it means the
	// resolved subset does not reflect the collection
	var lookupErr error
	for _, card := range collection.Cards {
		name, err := c.cardName(ctx, card.ExternalID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ctxErr)
			}
			c.tel.ReportWarning(report_collection_card_name, card.ExternalID, err)
			summary.add(err)
			if lookupErr == nil && !scrapers.IsParse(err) && !scrapers.IsValidation(err) {
				lookupErr = err
			}
			continue
		}
		owned[name] += int64(card.Count)
		summary.add(nil)
	}

	if lookupErr != nil {
		c.tel.ReportBroken(report_collection_card_name, lookupErr)
		return fail(fmt.Errorf("resolve card names: %w", lookupErr))
	}
	if len(collection.Cards) > 0 && len(owned) == 0 {
		err := fmt.Errorf("none of %d collection cards could be resolved", len(collection.Cards))
		c.tel.ReportBroken(report_collection_card_name, err)
		return fail(err)
	}

	err = c.replace(ctx, owned)
	if err != nil {
		c.tel.ReportBroken(report_db_query, err, "replace collection")
		return fail(err)
	}
	return summary, nil
}

// cardName resolves a site card id through the card_ids cache, fetching and
// caching the name on a miss.
func (c CollectionImporter) cardName(ctx context.Context, id int64) (string, error) {
	name, err := c.db.GetCardIDName(ctx, id)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	name, err = scrapers.Retry(ctx, c.retry, func(err error, wait time.Duration) {
		c.tel.ReportWarning(report_collection_card_name, id, wait.String(), err)
	}, func() (string, error) {
		return c.source.CardName(ctx, id)
	})
	if err != nil {
		return "", err
	}

	err = c.db.UpsertCardID(ctx, db.UpsertCardIDParams{CardID: id, Cardname: name})
	if err != nil {
		c.tel.ReportBroken(report_db_query, err, "UpsertCardID", id)
	}
	return name, nil
}

func (c CollectionImporter) replace(ctx context.Context, owned map[string]int64) error {
	names := make([]string, 0, len(owned))
	for name := range owned {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, discard, commit, err := c.makeTx(ctx)
	if err != nil {
		return fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	err = tx.DeleteCollection(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		amount := owned[name]
		if c.maxCopies > 0 && amount > int64(c.maxCopies) {
			amount = int64(c.maxCopies)
		}
		err = tx.SetCollectionCard(ctx, db.SetCollectionCardParams{
			Cardname: name,
			Amount:   amount,
		})
		if err != nil {
			return err
		}
	}
	return commit()
}
