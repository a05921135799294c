package hearthpwn

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"hearthstats/internal/scrapers"
	"hearthstats/pkg/htmlutil"
)

const (
	report_client_deck = "client.deck"
)

type DeckCard struct {
	Name   string
	Amount int
}

// DeckDetail is the content of a deck page. Attributes that could not be
// found are left empty.
type DeckDetail struct {
	Name   string
	Class  string
	Type   string
	Rating int64
	// HasRating is false when the page shows no rating.
	HasRating bool
	Cards     []DeckCard

	// MissingAmounts lists cards whose copy count was not found, they are
	// recorded with an amount of 1.
	MissingAmounts []string
}

var (
	deckTitle  = htmlutil.Field{Selector: "h2.deck-title"}
	deckClass  = htmlutil.Field{Selector: ".deck-class, span.class"}
	deckRating = htmlutil.Field{Selector: ".deck-rating"}
	deckType   = htmlutil.Field{Selector: ".deck-type"}

	deckCardRows   = "#cards > tbody > tr > td.col-name"
	deckCardFields = []htmlutil.Field{
		{Selector: "a"},
		{},
	}

	amountRegex = regexp.MustCompile(`(?:×|&#215;)\s*(\d+)`)
)

// Deck fetches and parses the page of a single deck.
func (c *Client) Deck(ctx context.Context, id int64) (DeckDetail, error) {
	res, err := c.get(ctx, fmt.Sprintf("/decks/%d", id), nil)
	if err != nil {
		return DeckDetail{}, err
	}

	detail, err := ParseDeck(res.Body())
	if err != nil {
		c.tel.ReportWarning(report_client_deck, id, err)
		return DeckDetail{}, &scrapers.ParseError{
			Entity: fmt.Sprintf("deck %d", id),
			Err:    err,
		}
	}
	for _, name := range detail.MissingAmounts {
		c.tel.ReportWarning(report_client_deck, id, fmt.Sprintf("no amount for %s, assuming 1", name))
	}
	return detail, nil
}

// ParseDeck reads a deck page. A page without the card table is not a deck
// page, a card table without rows is an empty deck.
func ParseDeck(body []byte) (DeckDetail, error) {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return DeckDetail{}, err
	}

	detail := DeckDetail{
		Name:  doc.First(deckTitle),
		Class: doc.First(deckClass),
		Type:  doc.First(deckType),
	}
	rating, err := strconv.ParseInt(doc.First(deckRating), 10, 64)
	if err == nil {
		detail.Rating = rating
		detail.HasRating = true
	}
	if !doc.Has("#cards") {
		return DeckDetail{}, fmt.Errorf("no card table")
	}

	detail.Cards = []DeckCard{}
	for _, row := range doc.Rows(deckCardRows, deckCardFields...) {
		name := row.Get(0)
		if name == "" {
			continue
		}
		amount := 1
		groups := amountRegex.FindStringSubmatch(row.Get(1))
		if len(groups) < 2 {
			groups = amountRegex.FindStringSubmatch(row.HTML())
		}
		if len(groups) >= 2 {
			n, err := strconv.Atoi(groups[1])
			if err == nil && n > 0 {
				amount = n
			} else {
				detail.MissingAmounts = append(detail.MissingAmounts, name)
			}
		} else {
			detail.MissingAmounts = append(detail.MissingAmounts, name)
		}
		detail.Cards = append(detail.Cards, DeckCard{Name: name, Amount: amount})
	}

	return detail, nil
}
