package builder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hearthstats/internal/cardname"
	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/chrono"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/db"
	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/hearthpwn"

	"golang.org/x/sync/errgroup"
)

const (
	report_extract_deck  = "extract.deck"
	report_extract_retry = "extract.retry"
)

// DeckExtractor fetches deck pages and replaces the stored card list of each
// deck.
type DeckExtractor struct {
	source      DeckSource
	makeTx      db.MakeTx
	names       cardname.Resolver
	retry       scrapers.RetryPolicy
	concurrency int
	time        chrono.TimeAPI
	tel         telemetry.API
}

func NewDeckExtractor(
	source DeckSource,
	makeTx db.MakeTx,
	names cardname.Resolver,
	retry scrapers.RetryPolicy,
	concurrency int,
	time chrono.TimeAPI,
	tel telemetry.API,
) DeckExtractor {
	assert.NotNil(source)
	assert.NotNil(makeTx)
	assert.NotNil(names)
	assert.NotNil(time)
	assert.NotNil(tel)
	assert.Positive(concurrency)

	tel = telemetry.NewScopedAPI("decks", tel)

	return DeckExtractor{
		source:      source,
		makeTx:      makeTx,
		names:       names,
		retry:       retry,
		concurrency: concurrency,
		time:        time,
		tel:         tel,
	}
}

// Extract fetches a deck page and stores the deck with its card list. The
// deck row upsert, the removal of its previous entries and the insertion of
// the new ones happen in a single transaction that is only opened once the
// page has been fetched.
func (e DeckExtractor) Extract(ctx context.Context, summary hearthpwn.DeckSummary) error {
	detail, err := scrapers.Retry(ctx, e.retry, func(err error, wait time.Duration) {
		e.tel.ReportWarning(report_extract_retry, summary.ID, wait.String(), err)
	}, func() (hearthpwn.DeckDetail, error) {
		return e.source.Deck(ctx, summary.ID)
	})
	if err != nil {
		return fmt.Errorf("deck %d: %w", summary.ID, err)
	}

	deck := db.UpsertDeckParams{
		DeckID:    summary.ID,
		Class:     summary.Class,
		Name:      summary.Name,
		Type:      summary.Type,
		Rating:    summary.Rating,
		Dust:      summary.Dust,
		Updated:   summary.Updated,
		ScrapedAt: e.time.Now().Unix(),
	}
	if detail.Name != "" {
		deck.Name = detail.Name
	}
	if detail.Class != "" {
		deck.Class = detail.Class
	}
	if detail.Type != "" {
		deck.Type = detail.Type
	}
	if detail.HasRating {
		deck.Rating = detail.Rating
	}

	err = e.store(ctx, deck, detail.Cards)
	if err != nil {
		e.tel.ReportBroken(report_db_query, err, "store deck", summary.ID)
		return fmt.Errorf("deck %d: %w", summary.ID, err)
	}
	return nil
}

func (e DeckExtractor) store(ctx context.Context, deck db.UpsertDeckParams, cards []hearthpwn.DeckCard) error {
	tx, discard, commit, err := e.makeTx(ctx)
	if err != nil {
		return fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	err = tx.UpsertDeck(ctx, deck)
	if err != nil {
		return err
	}
	err = tx.DeleteDeckList(ctx, deck.DeckID)
	if err != nil {
		return err
	}
	for _, card := range cards {
		err = tx.AddDeckCard(ctx, db.AddDeckCardParams{
			DeckID:   deck.DeckID,
			Cardname: e.names.Resolve(card.Name),
			Amount:   int64(card.Amount),
		})
		if err != nil {
			return err
		}
	}
	return commit()
}

// ExtractAll extracts every deck with at most `concurrency` fetches in
// flight. Failures are counted in the summary and never stop the run. When
// ctx is cancelled no further decks are started.
func (e DeckExtractor) ExtractAll(ctx context.Context, decks []hearthpwn.DeckSummary) Summary {
	summary := Summary{Builder: "decks"}
	var mutex sync.Mutex

	group := errgroup.Group{}
	group.SetLimit(e.concurrency)
	for _, deck := range decks {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			err := e.Extract(ctx, deck)
			if err != nil {
				e.tel.ReportWarning(report_extract_deck, deck.ID, err)
			}

			mutex.Lock()
			defer mutex.Unlock()
			summary.add(err)
			return nil
		})
	}
	group.Wait()

	if err := ctx.Err(); err != nil {
		summary.Fatal = err
	}
	summary.report(e.tel)
	return summary
}
