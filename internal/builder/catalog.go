package builder

import (
	"context"
	"fmt"

	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/db"
	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/cardapi"
)

const (
	report_catalog_normalize = "catalog.normalize"
	report_catalog_page      = "catalog.page"
	report_db_query          = "db.query"
)

// CatalogBuilder loads the card catalog from the card api into the cards
// table, one transaction per page.
type CatalogBuilder struct {
	source CardSource
	makeTx db.MakeTx
	retry  scrapers.RetryPolicy
	tel    telemetry.API
}

func NewCatalogBuilder(
	source CardSource,
	makeTx db.MakeTx,
	retry scrapers.RetryPolicy,
	tel telemetry.API,
) CatalogBuilder {
	assert.NotNil(source)
	assert.NotNil(makeTx)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("catalog", tel)

	return CatalogBuilder{
		source: source,
		makeTx: makeTx,
		retry:  retry,
		tel:    tel,
	}
}

// Build walks every page of the card api. Cards that share a name collapse
// into one row, the last one seen wins. Pages committed before a fatal error
// are kept.
func (b CatalogBuilder) Build(ctx context.Context) (Summary, error) {
	summary := Summary{Builder: "cards"}
	defer func() { summary.report(b.tel) }()

	pager := scrapers.NewPager(b.source.Page, b.retry, b.tel)
	for pager.Next(ctx) {
		var cards []cardapi.Card
		for _, record := range pager.Items() {
			card, err := cardapi.Normalize(record)
			if err != nil {
				b.tel.ReportWarning(report_catalog_normalize, pager.Page(), err)
				summary.add(err)
				continue
			}
			cards = append(cards, card)
		}

		err := b.store(ctx, cards)
		if err != nil {
			b.tel.ReportBroken(report_db_query, err, "UpsertCard", pager.Page())
			for range cards {
				summary.add(err)
			}
			summary.Fatal = err
			return summary, err
		}
		for range cards {
			summary.add(nil)
		}
		b.tel.ReportDebug(report_catalog_page, pager.Page(), len(cards))
	}

	if pager.State() == scrapers.Failed {
		summary.Fatal = fmt.Errorf("card page %d: %w", pager.Page()+1, pager.Err())
		return summary, summary.Fatal
	}
	return summary, nil
}

func (b CatalogBuilder) store(ctx context.Context, cards []cardapi.Card) error {
	if len(cards) == 0 {
		return nil
	}

	tx, discard, commit, err := b.makeTx(ctx)
	if err != nil {
		return fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	for _, card := range cards {
		err := tx.UpsertCard(ctx, db.UpsertCardParams{
			Cardname: card.Name,
			Hero:     card.Hero,
			Cardset:  card.CardSet,
			Cost:     int64(card.Cost),
			Type:     card.Type,
			Rarity:   card.Rarity,
		})
		if err != nil {
			return err
		}
	}
	return commit()
}
