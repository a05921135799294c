package cardapi

import (
	"fmt"
	"strings"

	"hearthstats/internal/scrapers"
)

const Neutral = "Neutral"

// Record is a card as the api returns it.
type Record struct {
	CardID      string  `json:"cardId"`
	Name        string  `json:"name"`
	CardSet     string  `json:"cardSet"`
	Type        string  `json:"type"`
	Rarity      string  `json:"rarity"`
	Cost        *int    `json:"cost"`
	PlayerClass *string `json:"playerClass"`

	// DecodeErr is set when the record was not valid json for this type.
	DecodeErr error `json:"-"`
}

// Card is a normalized catalog entry.
type Card struct {
	Name    string
	Hero    string
	CardSet string
	Cost    int
	Type    string
	Rarity  string
}

// NormalizeHero maps every spelling of "no class" onto Neutral.
func NormalizeHero(playerClass *string) string {
	if playerClass == nil {
		return Neutral
	}
	hero := strings.TrimSpace(*playerClass)
	if hero == "" || strings.EqualFold(hero, Neutral) {
		return Neutral
	}
	return hero
}

// Normalize validates a record and converts it into a Card. Hero cards and
// hero skins are rejected with a ValidationError like malformed records.
func Normalize(r Record) (Card, error) {
	if r.DecodeErr != nil {
		return Card{}, &scrapers.ValidationError{
			Field:  "record",
			Reason: fmt.Sprintf("card %q (%s) could not be decoded: %v", r.CardID, r.Name, r.DecodeErr),
		}
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Card{}, &scrapers.ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("card %q has no name", r.CardID),
		}
	}
	if r.Type == "Hero" || r.CardSet == "Hero Skins" {
		return Card{}, &scrapers.ValidationError{
			Field:  "type",
			Reason: fmt.Sprintf("%s is a hero card", name),
		}
	}

	cost := 0
	if r.Cost != nil {
		cost = *r.Cost
	}
	if cost < 0 {
		return Card{}, &scrapers.ValidationError{
			Field:  "cost",
			Reason: fmt.Sprintf("%s has negative cost %d", name, cost),
		}
	}

	return Card{
		Name:    name,
		Hero:    NormalizeHero(r.PlayerClass),
		CardSet: strings.TrimSpace(r.CardSet),
		Cost:    cost,
		Type:    r.Type,
		Rarity:  r.Rarity,
	}, nil
}
