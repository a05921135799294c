package builder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hearthstats/internal/cardname"
	"hearthstats/internal/components/chrono"
	"hearthstats/internal/db"
	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/hearthpwn"

	"github.com/stretchr/testify/require"
)

var scrapedAt = time.Date(2017, 4, 21, 0, 0, 0, 0, time.UTC)

func newExtractor(env testEnv, source DeckSource, concurrency int) DeckExtractor {
	return NewDeckExtractor(
		source,
		env.makeTx,
		cardname.Exact{},
		testRetry,
		concurrency,
		chrono.FixedTime{At: scrapedAt},
		env.tel,
	)
}

func TestExtractReplacesDeckList(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	source := &fakeDecks{decks: map[int64]hearthpwn.DeckDetail{
		7: {
			Name:      "Freeze Mage",
			Rating:    40,
			HasRating: true,
			Cards: []hearthpwn.DeckCard{
				{Name: "Fireball", Amount: 2},
				{Name: "Frostbolt", Amount: 2},
				{Name: "Ice Block", Amount: 2},
			},
		},
	}}
	extractor := newExtractor(env, source, 1)
	summary := hearthpwn.DeckSummary{ID: 7, Name: "listing name", Class: "Mage", Type: "Ranked Deck", Rating: 12, Dust: 4000}

	require.NoError(t, extractor.Extract(ctx, summary))

	deck, err := env.qry.GetDeck(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, db.Deck{
		DeckID:    7,
		Class:     "Mage",
		Name:      "Freeze Mage",
		Type:      "Ranked Deck",
		Rating:    40,
		Dust:      4000,
		ScrapedAt: scrapedAt.Unix(),
	}, deck)

	list, err := env.qry.GetDeckList(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// the deck changed upstream: 3 entries become 2
	source.decks[7] = hearthpwn.DeckDetail{
		Name: "Freeze Mage",
		Cards: []hearthpwn.DeckCard{
			{Name: "Fireball", Amount: 1},
			{Name: "Frostbolt", Amount: 2},
		},
	}
	require.NoError(t, extractor.Extract(ctx, summary))

	list, err = env.qry.GetDeckList(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []db.DeckList{
		{DeckID: 7, Cardname: "Fireball", Amount: 1},
		{DeckID: 7, Cardname: "Frostbolt", Amount: 2},
	}, list)

	// the rating falls back to the listing when the page has none
	deck, err = env.qry.GetDeck(ctx, 7)
	require.NoError(t, err)
	require.EqualValues(t, 12, deck.Rating)

	// extracting the same deck again is idempotent
	require.NoError(t, extractor.Extract(ctx, summary))
	again, err := env.qry.GetDeckList(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, list, again)

	count, err := env.qry.CountDecks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestExtractEmptyDeck(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	source := &fakeDecks{decks: map[int64]hearthpwn.DeckDetail{
		9: {Name: "Nothing Yet", Cards: []hearthpwn.DeckCard{}},
	}}

	require.NoError(t, newExtractor(env, source, 1).Extract(ctx, hearthpwn.DeckSummary{ID: 9, Class: "Priest"}))

	deck, err := env.qry.GetDeck(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, "Nothing Yet", deck.Name)
	list, err := env.qry.GetDeckList(ctx, 9)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestExtractUsesResolver(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	source := &fakeDecks{decks: map[int64]hearthpwn.DeckDetail{
		3: {Name: "Control Priest", Cards: []hearthpwn.DeckCard{{Name: "kel’thuzad", Amount: 1}}},
	}}
	extractor := NewDeckExtractor(
		source,
		env.makeTx,
		cardname.NewFolded([]string{"Kel'Thuzad"}),
		testRetry,
		1,
		chrono.FixedTime{At: scrapedAt},
		env.tel,
	)

	require.NoError(t, extractor.Extract(ctx, hearthpwn.DeckSummary{ID: 3}))
	list, err := env.qry.GetDeckList(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []db.DeckList{{DeckID: 3, Cardname: "Kel'Thuzad", Amount: 1}}, list)
}

func TestExtractAll(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	source := &fakeDecks{
		decks: map[int64]hearthpwn.DeckDetail{},
		errs: map[int64]error{
			5: &scrapers.ParseError{Entity: "deck 5", Err: fmt.Errorf("no deck title or card table")},
			6: &scrapers.TransportError{URL: "/decks/6", Status: 503, Retryable: true},
		},
	}
	var decks []hearthpwn.DeckSummary
	for id := int64(1); id <= 20; id++ {
		decks = append(decks, hearthpwn.DeckSummary{ID: id, Class: "Shaman"})
		if id == 5 || id == 6 {
			continue
		}
		source.decks[id] = hearthpwn.DeckDetail{
			Name:  fmt.Sprintf("deck %d", id),
			Cards: []hearthpwn.DeckCard{{Name: "Wisp", Amount: 2}},
		}
	}

	summary := newExtractor(env, source, 4).ExtractAll(ctx, decks)
	require.Equal(t, 20, summary.Attempted)
	require.Equal(t, 18, summary.Succeeded)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.TransportFailures)
	require.NoError(t, summary.Fatal)
	require.LessOrEqual(t, source.maxSeen, 4)

	count, err := env.qry.CountDecks(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 18, count)
}

func TestExtractAllCancelled(t *testing.T) {
	env := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeDecks{decks: map[int64]hearthpwn.DeckDetail{1: {Name: "a"}}}
	summary := newExtractor(env, source, 1).ExtractAll(ctx, []hearthpwn.DeckSummary{{ID: 1}})
	require.Zero(t, summary.Attempted)
	require.ErrorIs(t, summary.Fatal, context.Canceled)
	require.True(t, summary.Transient())
}
