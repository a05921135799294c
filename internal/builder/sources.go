package builder

import (
	"context"

	"hearthstats/internal/scrapers/cardapi"
	"hearthstats/internal/scrapers/hearthpwn"
)

// CardSource is a paginated card api, see cardapi.Client.
type CardSource interface {
	Page(ctx context.Context, page int) ([]cardapi.Record, error)
}

// ListingSource lists decks, see hearthpwn.Client.
type ListingSource interface {
	Listing(ctx context.Context, q hearthpwn.ListingQuery, page int) (hearthpwn.ListingPage, error)
	LatestPatch(ctx context.Context) (int, error)
}

// DeckSource fetches the page of a single deck, see hearthpwn.Client.
type DeckSource interface {
	Deck(ctx context.Context, id int64) (hearthpwn.DeckDetail, error)
}

// CollectionSource fetches the owned cards of an account and resolves site
// card ids into names, see hearthpwn.Client.
type CollectionSource interface {
	Collection(ctx context.Context, session string) (hearthpwn.Collection, error)
	CardName(ctx context.Context, id int64) (string, error)
}
