package hearthpwn

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"hearthstats/internal/scrapers"
	"hearthstats/pkg/htmlutil"
)

const (
	report_client_listing      = "client.listing"
	report_client_latest_patch = "client.latest-patch"
)

const (
	DefaultFilter = "filter-is-forge=2&filter-unreleased-cards=f&filter-deck-tag=1&filter-deck-type-val=8&filter-deck-type-op=4&filter-quality-free-max=29"
	DefaultSort   = "-viewcount"
	DecksPerPage  = 25
)

type Class struct {
	ID   int
	Name string
}

// Classes are the class filters of the listing page. Their ids are powers of
// two so the site can combine them as a bit set.
var Classes = []Class{
	{ID: 4, Name: "Druid"},
	{ID: 8, Name: "Hunter"},
	{ID: 16, Name: "Mage"},
	{ID: 32, Name: "Paladin"},
	{ID: 64, Name: "Priest"},
	{ID: 128, Name: "Rogue"},
	{ID: 256, Name: "Shaman"},
	{ID: 512, Name: "Warlock"},
	{ID: 1024, Name: "Warrior"},
}

// ListingQuery selects the decks shown on the listing pages. Zero values for
// Patch and ClassID leave that filter out.
type ListingQuery struct {
	Filter  string
	Sort    string
	Patch   int
	ClassID int
}

func (q ListingQuery) Values(page int) (url.Values, error) {
	filter := q.Filter
	if filter == "" {
		filter = DefaultFilter
	}
	values, err := url.ParseQuery(strings.Trim(filter, "?&"))
	if err != nil {
		return nil, fmt.Errorf("parse filter %q: %w", filter, err)
	}
	if q.Patch > 0 {
		values.Set("filter-build", strconv.Itoa(q.Patch))
	}
	if q.ClassID > 0 {
		values.Set("filter-class", strconv.Itoa(q.ClassID))
	}
	sort := q.Sort
	if sort == "" {
		sort = DefaultSort
	}
	values.Set("sort", sort)
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	return values, nil
}

// DeckSummary is a deck as it appears on a listing page.
type DeckSummary struct {
	ID      int64
	Name    string
	Class   string
	Type    string
	Rating  int64
	Dust    int64
	Updated int64
}

type ListingPage struct {
	Decks []DeckSummary
	// PageCount is the number of listing pages reported by the pagination
	// control, 0 when it is absent.
	PageCount int
}

// Listing fetches one 1-indexed listing page.
func (c *Client) Listing(ctx context.Context, q ListingQuery, page int) (ListingPage, error) {
	values, err := q.Values(page)
	if err != nil {
		return ListingPage{}, &scrapers.ValidationError{Field: "filter", Reason: err.Error()}
	}
	res, err := c.get(ctx, "/decks", values)
	if err != nil {
		return ListingPage{}, err
	}

	listing, skipped, err := ParseListing(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_listing, page, err)
		return ListingPage{}, &scrapers.ParseError{
			Entity: fmt.Sprintf("listing page %d", page),
			Err:    err,
		}
	}
	if skipped > 0 {
		c.tel.ReportWarning(report_client_listing, page, fmt.Sprintf("skipped %d unparseable rows", skipped))
	}
	return listing, nil
}

// LatestPatch returns the newest build id offered by the listing's patch
// filter.
func (c *Client) LatestPatch(ctx context.Context) (int, error) {
	res, err := c.get(ctx, "/decks", nil)
	if err != nil {
		return 0, err
	}
	patch, err := ParseLatestPatch(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_latest_patch, err)
		return 0, &scrapers.ParseError{Entity: "patch filter", Err: err}
	}
	c.tel.ReportDebug(report_client_latest_patch, patch)
	return patch, nil
}

var (
	listingRows   = "#decks > tbody > tr"
	listingFields = []htmlutil.Field{
		{Selector: "td.col-name > div > span > a", Attr: "href"},
		{Selector: "td.col-name > div > span > a"},
		{Selector: "td.col-class"},
		{Selector: "td.col-deck-type > span"},
		{Selector: "td.col-ratings > div"},
		{Selector: "td.col-dust-cost"},
		{Selector: "td.col-updated > abbr", Attr: "data-epoch"},
	}
	paginationLinks = htmlutil.Field{Selector: ".b-pagination li a"}
	patchOptions    = htmlutil.Field{Selector: "#filter-build > option", Attr: "value"}

	deckHrefRegex = regexp.MustCompile(`^\s*(?:https?://[^/]+)?/decks/(\d+)`)
)

// ParseDeckID extracts the numeric id from a deck link like /decks/123-slug.
func ParseDeckID(href string) (int64, error) {
	groups := deckHrefRegex.FindStringSubmatch(href)
	if len(groups) < 2 {
		return 0, fmt.Errorf("no deck id in %q", href)
	}
	return strconv.ParseInt(groups[1], 10, 64)
}

// ParseDust reads dust costs like "1,600" or "1.6k".
func ParseDust(text string) (int64, error) {
	text = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if text == "" {
		return 0, nil
	}
	if strings.HasSuffix(text, "k") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(text, "k"), 64)
		if err != nil {
			return 0, err
		}
		return int64(f*1000 + 0.5), nil
	}
	return strconv.ParseInt(text, 10, 64)
}

func parseOptionalInt(text string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseListing reads the deck rows and page count of a listing page. Rows
// without a readable deck id are counted and skipped.
func ParseListing(body []byte) (ListingPage, int, error) {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return ListingPage{}, 0, err
	}
	if !doc.Has("#decks") {
		return ListingPage{}, 0, fmt.Errorf("no #decks table")
	}

	var listing ListingPage
	skipped := 0
	for _, row := range doc.Rows(listingRows, listingFields...) {
		id, err := ParseDeckID(row.Get(0))
		if err != nil {
			skipped++
			continue
		}
		dust, err := ParseDust(row.Get(5))
		if err != nil {
			dust = 0
		}
		listing.Decks = append(listing.Decks, DeckSummary{
			ID:      id,
			Name:    row.Get(1),
			Class:   row.Get(2),
			Type:    row.Get(3),
			Rating:  parseOptionalInt(row.Get(4)),
			Dust:    dust,
			Updated: parseOptionalInt(row.Get(6)),
		})
	}

	for _, text := range doc.Values(paginationLinks) {
		n, err := strconv.Atoi(text)
		if err == nil && n > listing.PageCount {
			listing.PageCount = n
		}
	}
	if listing.PageCount == 0 && len(listing.Decks) > 0 {
		listing.PageCount = 1
	}

	return listing, skipped, nil
}

func ParseLatestPatch(body []byte) (int, error) {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return 0, err
	}
	latest := 0
	for _, value := range doc.Values(patchOptions) {
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		if n > latest {
			latest = n
		}
	}
	if latest == 0 {
		return 0, fmt.Errorf("no patch options")
	}
	return latest, nil
}
