package builder

import (
	"context"
	"fmt"

	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/scrapers"
	"hearthstats/internal/scrapers/hearthpwn"
)

const (
	report_discover_patch = "discover.patch"
	report_discover_count = "discover.default-count"
	report_discover_class = "discover.class"
)

type DiscoverOptions struct {
	Filter string
	Sort   string
	// Patch 0 means the latest patch.
	Patch int
	// Count 0 means a sample of a tenth of all listed decks.
	Count int
	// PerClass runs discovery once per class, Count applies to each class.
	PerClass bool
}

// Discovery holds the decks found in listing order.
type Discovery struct {
	Decks   []hearthpwn.DeckSummary
	Summary Summary
}

// Discoverer finds deck ids on the listing pages. It keeps the listing's own
// order and never sorts.
type Discoverer struct {
	source ListingSource
	retry  scrapers.RetryPolicy
	tel    telemetry.API
}

func NewDiscoverer(source ListingSource, retry scrapers.RetryPolicy, tel telemetry.API) Discoverer {
	assert.NotNil(source)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("decks", tel)

	return Discoverer{
		source: source,
		retry:  retry,
		tel:    tel,
	}
}

// Discover returns up to Count deck summaries (per class in per class mode).
// A listing that fails part way yields the decks collected so far, only a
// credential failure or a failure to resolve the defaults is fatal.
func (d Discoverer) Discover(ctx context.Context, opts DiscoverOptions) (Discovery, error) {
	discovery := Discovery{Summary: Summary{Builder: "discover"}}
	defer func() { discovery.Summary.report(d.tel) }()

	fail := func(err error) (Discovery, error) {
		discovery.Summary.Fatal = err
		return discovery, err
	}

	query := hearthpwn.ListingQuery{
		Filter: opts.Filter,
		Sort:   opts.Sort,
		Patch:  opts.Patch,
	}
	if query.Patch == 0 {
		patch, err := scrapers.Retry(ctx, d.retry, nil, func() (int, error) {
			return d.source.LatestPatch(ctx)
		})
		if err != nil {
			d.tel.ReportBroken(report_discover_patch, err)
			return fail(fmt.Errorf("resolve latest patch: %w", err))
		}
		query.Patch = patch
	}

	count := opts.Count
	if count == 0 {
		var err error
		count, err = d.defaultCount(ctx, query, opts.PerClass)
		if err != nil {
			d.tel.ReportBroken(report_discover_count, err)
			return fail(fmt.Errorf("resolve default count: %w", err))
		}
	}

	seen := make(map[int64]struct{})
	if !opts.PerClass {
		err := d.discover(ctx, query, count, seen, &discovery)
		if err != nil {
			return fail(err)
		}
		return discovery, nil
	}

	for _, class := range hearthpwn.Classes {
		classQuery := query
		classQuery.ClassID = class.ID

		before := len(discovery.Decks)
		err := d.discover(ctx, classQuery, count, seen, &discovery)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", class.Name, err))
		}
		d.tel.ReportDebug(report_discover_class, class.Name, len(discovery.Decks)-before)
	}
	return discovery, nil
}

// defaultCount samples a tenth of the decks the query lists, split evenly
// between the classes in per class mode.
func (d Discoverer) defaultCount(ctx context.Context, query hearthpwn.ListingQuery, perClass bool) (int, error) {
	first, err := scrapers.Retry(ctx, d.retry, nil, func() (hearthpwn.ListingPage, error) {
		return d.source.Listing(ctx, query, 1)
	})
	if err != nil {
		return 0, err
	}

	total := first.PageCount * hearthpwn.DecksPerPage / 10
	if perClass {
		total /= len(hearthpwn.Classes)
	}
	return max(total, 1), nil
}

// discover appends up to count unseen decks of a single listing to the
// discovery. Only fatal errors are returned.
func (d Discoverer) discover(
	ctx context.Context,
	query hearthpwn.ListingQuery,
	count int,
	seen map[int64]struct{},
	discovery *Discovery,
) error {
	found := 0
	var pager *scrapers.Pager[hearthpwn.DeckSummary]
	pager = scrapers.NewPager(func(ctx context.Context, page int) ([]hearthpwn.DeckSummary, error) {
		listing, err := d.source.Listing(ctx, query, page)
		if err != nil {
			return nil, err
		}
		if page == 1 {
			pager.SetLastPage(listing.PageCount)
		}
		return listing.Decks, nil
	}, d.retry, d.tel)

	for found < count && pager.Next(ctx) {
		discovery.Summary.add(nil)
		for _, deck := range pager.Items() {
			if found >= count {
				break
			}
			if _, ok := seen[deck.ID]; ok {
				continue
			}
			seen[deck.ID] = struct{}{}
			discovery.Decks = append(discovery.Decks, deck)
			found++
		}
	}

	if pager.State() == scrapers.Failed {
		err := pager.Err()
		if scrapers.IsAuth(err) {
			return err
		}
		discovery.Summary.add(err)
	}
	return nil
}
