package builder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/db"
	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/cardapi"
	"hearthstats/internal/scrapers/hearthpwn"

	"github.com/stretchr/testify/require"
)

var testRetry = scrapers.RetryPolicy{
	MaxRetries:      1,
	InitialInterval: time.Millisecond,
	MaxInterval:     time.Millisecond,
}

type testEnv struct {
	qry    *db.Queries
	makeTx db.MakeTx
	tel    *telemetry.Recorder
}

func setup(t testing.TB) testEnv {
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return testEnv{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		tel:    telemetry.NewRecorder(),
	}
}

type fakeCards struct {
	pages [][]cardapi.Record
	err   error
	calls int
}

func (f *fakeCards) Page(ctx context.Context, page int) ([]cardapi.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if page > len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

// fakeListing serves listings keyed by class id, 0 is the unfiltered
// listing.
type fakeListing struct {
	mutex    sync.Mutex
	patch    int
	byClass  map[int][][]hearthpwn.DeckSummary
	failPage map[int]error
	queries  []hearthpwn.ListingQuery
}

func (f *fakeListing) Listing(ctx context.Context, q hearthpwn.ListingQuery, page int) (hearthpwn.ListingPage, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.queries = append(f.queries, q)

	if err, ok := f.failPage[page]; ok {
		return hearthpwn.ListingPage{}, err
	}
	pages := f.byClass[q.ClassID]
	if page > len(pages) {
		return hearthpwn.ListingPage{PageCount: len(pages)}, nil
	}
	return hearthpwn.ListingPage{Decks: pages[page-1], PageCount: len(pages)}, nil
}

func (f *fakeListing) LatestPatch(ctx context.Context) (int, error) {
	return f.patch, nil
}

func summaries(class string, from, to int64) []hearthpwn.DeckSummary {
	var out []hearthpwn.DeckSummary
	for id := from; id <= to; id++ {
		out = append(out, hearthpwn.DeckSummary{
			ID:    id,
			Name:  fmt.Sprintf("%s deck %d", class, id),
			Class: class,
		})
	}
	return out
}

type fakeDecks struct {
	mutex    sync.Mutex
	decks    map[int64]hearthpwn.DeckDetail
	errs     map[int64]error
	inFlight int
	maxSeen  int
}

func (f *fakeDecks) Deck(ctx context.Context, id int64) (hearthpwn.DeckDetail, error) {
	f.mutex.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mutex.Unlock()

	time.Sleep(time.Millisecond)

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.inFlight--

	if err, ok := f.errs[id]; ok {
		return hearthpwn.DeckDetail{}, err
	}
	detail, ok := f.decks[id]
	if !ok {
		return hearthpwn.DeckDetail{}, &scrapers.TransportError{URL: fmt.Sprintf("/decks/%d", id), Status: 404}
	}
	return detail, nil
}

type fakeCollection struct {
	collection hearthpwn.Collection
	err        error
	names      map[int64]string
	nameErr    error
	nameCalls  int
}

func (f *fakeCollection) Collection(ctx context.Context, session string) (hearthpwn.Collection, error) {
	if f.err != nil {
		return hearthpwn.Collection{}, f.err
	}
	return f.collection, nil
}

func (f *fakeCollection) CardName(ctx context.Context, id int64) (string, error) {
	f.nameCalls++
	if f.nameErr != nil {
		return "", f.nameErr
	}
	name, ok := f.names[id]
	if !ok {
		return "", &scrapers.ParseError{Entity: fmt.Sprintf("card %d", id), Err: fmt.Errorf("no card title")}
	}
	return name, nil
}
