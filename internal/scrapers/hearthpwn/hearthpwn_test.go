package hearthpwn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/scrapers"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t testing.TB, name string) []byte {
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return body
}

func newTestClient(t testing.TB, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BaseUrl:           server.URL,
		RequestsPerSecond: 100,
	}, telemetry.NewRecorder())
	require.NoError(t, err)
	return client
}

func TestListingQueryValues(t *testing.T) {
	values, err := ListingQuery{Patch: 36, ClassID: 16}.Values(3)
	require.NoError(t, err)
	require.Equal(t, "36", values.Get("filter-build"))
	require.Equal(t, "16", values.Get("filter-class"))
	require.Equal(t, DefaultSort, values.Get("sort"))
	require.Equal(t, "3", values.Get("page"))
	require.Equal(t, "2", values.Get("filter-is-forge"))
	require.Equal(t, "29", values.Get("filter-quality-free-max"))

	values, err = ListingQuery{Filter: "?filter-deck-tag=3&", Sort: "-rating"}.Values(1)
	require.NoError(t, err)
	require.Equal(t, "3", values.Get("filter-deck-tag"))
	require.Equal(t, "-rating", values.Get("sort"))
	require.False(t, values.Has("page"))
	require.False(t, values.Has("filter-build"))
	require.False(t, values.Has("filter-class"))
}

func TestParseListing(t *testing.T) {
	listing, skipped, err := ParseListing(fixture(t, "listing.html"))
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Equal(t, 40, listing.PageCount)

	expected := []DeckSummary{
		{ID: 812345, Name: "Jade Druid", Class: "Druid", Type: "Ranked Deck", Rating: 152, Dust: 8480, Updated: 1492732794},
		{ID: 799001, Name: "Freeze Mage", Class: "Mage", Type: "Ranked Deck", Rating: -3, Dust: 1600, Updated: 1492000000},
	}
	if diff := cmp.Diff(expected, listing.Decks); diff != "" {
		t.Fatal(diff)
	}

	_, _, err = ParseListing([]byte(`<html><body>down for maintenance</body></html>`))
	require.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	id, err := ParseDeckID("/decks/812345-jade-druid")
	require.NoError(t, err)
	require.EqualValues(t, 812345, id)

	id, err = ParseDeckID("https://www.hearthpwn.com/decks/7")
	require.NoError(t, err)
	require.EqualValues(t, 7, id)

	_, err = ParseDeckID("/cards/7")
	require.Error(t, err)

	for text, expected := range map[string]int64{
		"8,480": 8480,
		"1.6k":  1600,
		"12K":   12000,
		"":      0,
		"40":    40,
	} {
		dust, err := ParseDust(text)
		require.NoError(t, err, text)
		require.Equal(t, expected, dust, text)
	}

	patch, err := ParseLatestPatch(fixture(t, "listing.html"))
	require.NoError(t, err)
	require.Equal(t, 36, patch)
}

func TestParseDeck(t *testing.T) {
	detail, err := ParseDeck(fixture(t, "deck.html"))
	require.NoError(t, err)
	require.Equal(t, "Jade Druid", detail.Name)
	require.Equal(t, "Druid", detail.Class)
	require.Equal(t, "Ranked Deck", detail.Type)
	require.True(t, detail.HasRating)
	require.EqualValues(t, 152, detail.Rating)
	require.Equal(t, []DeckCard{
		{Name: "Jade Idol", Amount: 2},
		{Name: "Wild Growth", Amount: 1},
		{Name: "Kel'Thuzad", Amount: 1},
	}, detail.Cards)
	require.Equal(t, []string{"Kel'Thuzad"}, detail.MissingAmounts)

	detail, err = ParseDeck(fixture(t, "deck_empty.html"))
	require.NoError(t, err)
	require.Equal(t, "Nothing Yet", detail.Name)
	require.False(t, detail.HasRating)
	require.NotNil(t, detail.Cards)
	require.Empty(t, detail.Cards)

	_, err = ParseDeck(fixture(t, "login.html"))
	require.Error(t, err)

	// a changed card list markup must not read as an empty deck
	_, err = ParseDeck([]byte(`<html><body>
		<h2 class="deck-title">Tempo Mage</h2>
		<div id="deck-cards-v2"><ul><li>Fireball ×2</li></ul></div>
	</body></html>`))
	require.ErrorContains(t, err, "no card table")
}

func TestClientListingAndDeck(t *testing.T) {
	listingHTML := fixture(t, "listing.html")
	deckHTML := fixture(t, "deck.html")
	loginHTML := fixture(t, "login.html")

	mux := http.NewServeMux()
	mux.HandleFunc("/decks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "36", r.URL.Query().Get("filter-build"))
		w.Write(listingHTML)
	})
	mux.HandleFunc("/decks/812345", func(w http.ResponseWriter, r *http.Request) {
		w.Write(deckHTML)
	})
	mux.HandleFunc("/decks/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginHTML)
	})
	mux.HandleFunc("/decks/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	listing, err := client.Listing(ctx, ListingQuery{Patch: 36}, 1)
	require.NoError(t, err)
	require.Len(t, listing.Decks, 2)

	detail, err := client.Deck(ctx, 812345)
	require.NoError(t, err)
	require.Len(t, detail.Cards, 3)

	_, err = client.Deck(ctx, 1)
	require.True(t, scrapers.IsParse(err))

	_, err = client.Deck(ctx, 2)
	require.True(t, scrapers.IsRetryable(err))

	_, err = client.Deck(ctx, 3)
	require.True(t, scrapers.IsTransport(err))
	require.False(t, scrapers.IsRetryable(err))
}

func TestClientCollection(t *testing.T) {
	loginHTML := fixture(t, "login.html")

	mux := http.NewServeMux()
	mux.HandleFunc("/ajax/collection", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		switch {
		case err != nil:
			w.WriteHeader(http.StatusUnauthorized)
		case cookie.Value == "expired":
			http.Redirect(w, r, "/login?returnUrl=/ajax/collection", http.StatusFound)
		case cookie.Value == "html":
			w.Write(loginHTML)
		default:
			fmt.Fprint(w, `{"updatedDate": "4/20/2017 2:39:54 PM", "cards": [
				{"externalID": 315, "count": 2, "isGolden": false},
				{"externalID": 315, "count": 1, "isGolden": true}
			]}`)
		}
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write(loginHTML)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	collection, err := client.Collection(ctx, "valid")
	require.NoError(t, err)
	require.Equal(t, "4/20/2017 2:39:54 PM", collection.UpdatedDate)
	require.Equal(t, []CollectionCard{
		{ExternalID: 315, Count: 2},
		{ExternalID: 315, Count: 1, IsGolden: true},
	}, collection.Cards)

	for _, session := range []string{"", "expired", "html"} {
		_, err := client.Collection(ctx, session)
		require.True(t, scrapers.IsAuth(err), session)
	}
}

func TestClientCollectionCrossHostRedirect(t *testing.T) {
	var loginHits atomic.Int32
	login := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loginHits.Add(1)
		w.Write([]byte(`<html><body>sign in</body></html>`))
	}))
	t.Cleanup(login.Close)

	var collectionHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ajax/collection", func(w http.ResponseWriter, r *http.Request) {
		collectionHits.Add(1)
		http.Redirect(w, r, login.URL+"/login?returnUrl=/ajax/collection", http.StatusFound)
	})
	client := newTestClient(t, mux)

	_, err := client.Collection(context.Background(), "expired")
	require.True(t, scrapers.IsAuth(err), err)
	require.False(t, scrapers.IsRetryable(err))
	require.ErrorContains(t, err, "/login")

	// the refusal is final, nothing is retried and the login page is not fetched
	_, err = scrapers.Retry(context.Background(), scrapers.RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond}, nil, func() (Collection, error) {
		return client.Collection(context.Background(), "expired")
	})
	require.True(t, scrapers.IsAuth(err))
	require.EqualValues(t, 2, collectionHits.Load())
	require.Zero(t, loginHits.Load())
}

func TestClientCardName(t *testing.T) {
	cardHTML := fixture(t, "card.html")

	mux := http.NewServeMux()
	mux.HandleFunc("/cards/315", func(w http.ResponseWriter, r *http.Request) {
		w.Write(cardHTML)
	})
	mux.HandleFunc("/cards/316", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	})
	client := newTestClient(t, mux)

	name, err := client.CardName(context.Background(), 315)
	require.NoError(t, err)
	require.Equal(t, "Fireball", name)

	_, err = client.CardName(context.Background(), 316)
	require.True(t, scrapers.IsParse(err))
}
