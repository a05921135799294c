package builder

import (
	"context"
	"testing"

	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/hearthpwn"

	"github.com/stretchr/testify/require"
)

func deckIDs(decks []hearthpwn.DeckSummary) []int64 {
	ids := make([]int64, len(decks))
	for i, d := range decks {
		ids[i] = d.ID
	}
	return ids
}

func TestDiscoverFlat(t *testing.T) {
	env := setup(t)
	page1 := summaries("Mage", 1, 25)
	page2 := append(summaries("Mage", 20, 22), summaries("Mage", 26, 50)...)
	// listing order is kept, ids are not sorted
	page1[0], page1[1] = page1[1], page1[0]

	source := &fakeListing{
		patch:   36,
		byClass: map[int][][]hearthpwn.DeckSummary{0: {page1, page2, summaries("Mage", 51, 75)}},
	}
	discoverer := NewDiscoverer(source, testRetry, env.tel)

	discovery, err := discoverer.Discover(context.Background(), DiscoverOptions{Count: 30})
	require.NoError(t, err)

	ids := deckIDs(discovery.Decks)
	require.Len(t, ids, 30)
	require.Equal(t, []int64{2, 1, 3}, ids[:3])
	// ids 20-22 were already seen on page 1
	require.Equal(t, []int64{26, 27, 28, 29, 30}, ids[25:])
	require.Equal(t, 2, discovery.Summary.Succeeded)

	for _, q := range source.queries {
		require.Equal(t, 36, q.Patch)
		require.Zero(t, q.ClassID)
	}
}

func TestDiscoverDefaultCount(t *testing.T) {
	env := setup(t)
	var pages [][]hearthpwn.DeckSummary
	for i := int64(0); i < 8; i++ {
		pages = append(pages, summaries("Druid", i*25+1, i*25+25))
	}
	source := &fakeListing{byClass: map[int][][]hearthpwn.DeckSummary{0: pages}}
	discoverer := NewDiscoverer(source, testRetry, env.tel)

	discovery, err := discoverer.Discover(context.Background(), DiscoverOptions{Patch: 30})
	require.NoError(t, err)
	// a tenth of 8 pages of 25 decks
	require.Len(t, discovery.Decks, 20)
}

func TestDiscoverPerClass(t *testing.T) {
	env := setup(t)
	byClass := map[int][][]hearthpwn.DeckSummary{}
	for i, class := range hearthpwn.Classes {
		base := int64(i * 1000)
		byClass[class.ID] = [][]hearthpwn.DeckSummary{
			summaries(class.Name, base+1, base+25),
			summaries(class.Name, base+26, base+50),
		}
	}
	// a class with fewer decks than requested
	byClass[hearthpwn.Classes[0].ID] = [][]hearthpwn.DeckSummary{summaries("Druid", 1, 4)}

	source := &fakeListing{byClass: byClass}
	discoverer := NewDiscoverer(source, testRetry, env.tel)

	discovery, err := discoverer.Discover(context.Background(), DiscoverOptions{
		Patch:    30,
		Count:    10,
		PerClass: true,
	})
	require.NoError(t, err)

	perClass := map[string]int{}
	for _, deck := range discovery.Decks {
		perClass[deck.Class]++
	}
	for _, class := range hearthpwn.Classes {
		require.LessOrEqual(t, perClass[class.Name], 10, class.Name)
	}
	require.Equal(t, 4, perClass["Druid"])
	require.Equal(t, 10, perClass["Warrior"])
	require.LessOrEqual(t, len(discovery.Decks), 10*len(hearthpwn.Classes))
	require.Len(t, discovery.Decks, 4+8*10)

	// classes are walked in order
	require.Equal(t, "Druid", discovery.Decks[0].Class)
	require.Equal(t, "Warrior", discovery.Decks[len(discovery.Decks)-1].Class)
}

func TestDiscoverPartialResult(t *testing.T) {
	env := setup(t)
	source := &fakeListing{
		byClass: map[int][][]hearthpwn.DeckSummary{0: {
			summaries("Rogue", 1, 25),
			summaries("Rogue", 26, 50),
		}},
		failPage: map[int]error{2: &scrapers.TransportError{URL: "/decks", Status: 502, Retryable: true}},
	}
	discoverer := NewDiscoverer(source, testRetry, env.tel)

	discovery, err := discoverer.Discover(context.Background(), DiscoverOptions{Patch: 30, Count: 40})
	require.NoError(t, err)
	require.Len(t, discovery.Decks, 25)
	require.Equal(t, 1, discovery.Summary.Failed)
	require.True(t, discovery.Summary.Transient())
}

func TestDiscoverAuthFailure(t *testing.T) {
	env := setup(t)
	source := &fakeListing{
		byClass:  map[int][][]hearthpwn.DeckSummary{0: {summaries("Rogue", 1, 25)}},
		failPage: map[int]error{1: &scrapers.AuthError{Reason: "status 403"}},
	}
	discoverer := NewDiscoverer(source, testRetry, env.tel)

	discovery, err := discoverer.Discover(context.Background(), DiscoverOptions{Patch: 30, Count: 10})
	require.True(t, scrapers.IsAuth(err))
	require.True(t, discovery.Summary.NeedsCredential())
}
