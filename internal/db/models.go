package db

type Card struct {
	Cardname string
	Hero     string
	Cardset  string
	Cost     int64
	Type     string
	Rarity   string
}

type Deck struct {
	DeckID    int64
	Class     string
	Name      string
	Type      string
	Rating    int64
	Dust      int64
	Updated   int64
	ScrapedAt int64
}

type DeckList struct {
	DeckID   int64
	Cardname string
	Amount   int64
}

type Collection struct {
	Cardname string
	Amount   int64
}

type CardID struct {
	CardID   int64
	Cardname string
}
