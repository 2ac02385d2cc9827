// internal/catalog/catalog.go
package catalog

import (
	"math/rand"
	"time"

	"github.com/dealtable/dealtable/internal/models"
)

// Entry is one catalog card plus its playable flag. Reference cards ship
// in the box but never enter the draw pile.
type Entry struct {
	Card     models.Card
	Playable bool
}

// Catalog is the immutable card list a room is built from. The catalog
// itself is never mutated; every game deep-clones the entries it uses.
type Catalog []Entry

// Build filters the catalog to playable entries, deep-clones each card so
// the catalog survives across games, and shuffles the result into a draw
// pile (Fisher-Yates via rand.Shuffle).
func (c Catalog) Build(rng *rand.Rand) []*models.Card {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	deck := make([]*models.Card, 0, len(c))
	for i := range c {
		if !c[i].Playable {
			continue
		}
		deck = append(deck, c[i].Card.Clone())
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// builder assigns sequential card ids while assembling the default set.
type builder struct {
	next    int
	entries Catalog
}

func (b *builder) add(n int, playable bool, card models.Card) {
	for i := 0; i < n; i++ {
		c := card
		c.Colors = append([]models.Color(nil), card.Colors...)
		c.RentColors = append([]models.Color(nil), card.RentColors...)
		c.ID = b.next
		b.next++
		b.entries = append(b.entries, Entry{Card: c, Playable: playable})
	}
}

func (b *builder) money(n, value int, name string) {
	b.add(n, true, models.Card{Name: name, Category: models.CategoryMoney, Value: value})
}

func (b *builder) property(n int, color models.Color, value int, name string) {
	b.add(n, true, models.Card{
		Name:     name,
		Category: models.CategoryProperty,
		Value:    value,
		Colors:   []models.Color{color},
	})
}

func (b *builder) wildcard(value int, name string, colors ...models.Color) {
	b.add(1, true, models.Card{
		Name:     name,
		Category: models.CategoryWildcard,
		Value:    value,
		Colors:   colors,
	})
}

func (b *builder) action(n, value int, kind models.ActionKind, name string) {
	b.add(n, true, models.Card{
		Name:       name,
		Category:   models.CategoryAction,
		Value:      value,
		ActionKind: kind,
	})
}

func (b *builder) rent(n, value int, name string, colors ...models.Color) {
	b.add(n, true, models.Card{
		Name:       name,
		Category:   models.CategoryRent,
		Value:      value,
		RentColors: colors,
	})
}

// Default returns the standard 110-entry box: 106 playable cards plus
// four rule reference cards.
func Default() Catalog {
	b := &builder{next: 1}

	// Money: 20 cards.
	b.money(1, 10, "10M")
	b.money(2, 5, "5M")
	b.money(3, 4, "4M")
	b.money(3, 3, "3M")
	b.money(5, 2, "2M")
	b.money(6, 1, "1M")

	// Properties: 28 cards.
	b.property(2, models.ColorBrown, 1, "Brown Property")
	b.property(3, models.ColorSkyBlue, 1, "Sky Blue Property")
	b.property(3, models.ColorPink, 2, "Pink Property")
	b.property(3, models.ColorOrange, 2, "Orange Property")
	b.property(3, models.ColorRed, 3, "Red Property")
	b.property(3, models.ColorYellow, 3, "Yellow Property")
	b.property(3, models.ColorGreen, 4, "Green Property")
	b.property(2, models.ColorDarkBlue, 4, "Dark Blue Property")
	b.property(4, models.ColorRailroad, 2, "Railroad")
	b.property(2, models.ColorUtility, 2, "Utility")

	// Wildcards: 11 cards.
	b.wildcard(0, "Ten-Color Wildcard", models.ColorAny)
	b.wildcard(0, "Ten-Color Wildcard", models.ColorAny)
	b.wildcard(4, "Dark Blue/Green Wildcard", models.ColorDarkBlue, models.ColorGreen)
	b.wildcard(4, "Green/Railroad Wildcard", models.ColorGreen, models.ColorRailroad)
	b.wildcard(2, "Utility/Railroad Wildcard", models.ColorUtility, models.ColorRailroad)
	b.wildcard(1, "Sky Blue/Brown Wildcard", models.ColorSkyBlue, models.ColorBrown)
	b.wildcard(4, "Sky Blue/Railroad Wildcard", models.ColorSkyBlue, models.ColorRailroad)
	b.wildcard(2, "Pink/Orange Wildcard", models.ColorPink, models.ColorOrange)
	b.wildcard(2, "Pink/Orange Wildcard", models.ColorPink, models.ColorOrange)
	b.wildcard(3, "Red/Yellow Wildcard", models.ColorRed, models.ColorYellow)
	b.wildcard(3, "Red/Yellow Wildcard", models.ColorRed, models.ColorYellow)

	// Actions: 34 cards.
	b.action(2, 5, models.ActionDealBreaker, "Deal Breaker")
	b.action(3, 4, models.ActionJustSayNo, "Just Say No")
	b.action(3, 3, models.ActionSlyDeal, "Sly Deal")
	b.action(3, 3, models.ActionForcedDeal, "Forced Deal")
	b.action(3, 3, models.ActionDebtCollector, "Debt Collector")
	b.action(3, 2, models.ActionBirthday, "It's My Birthday")
	b.action(10, 1, models.ActionPassGo, "Pass Go")
	b.action(3, 3, models.ActionHouse, "House")
	b.action(2, 4, models.ActionHotel, "Hotel")
	b.action(2, 1, models.ActionDoubleRent, "Double The Rent")

	// Rent: 13 cards.
	b.rent(3, 3, "Wild Rent", models.ColorAny)
	b.rent(2, 1, "Rent: Dark Blue/Green", models.ColorDarkBlue, models.ColorGreen)
	b.rent(2, 1, "Rent: Railroad/Utility", models.ColorRailroad, models.ColorUtility)
	b.rent(2, 1, "Rent: Pink/Orange", models.ColorPink, models.ColorOrange)
	b.rent(2, 1, "Rent: Sky Blue/Brown", models.ColorSkyBlue, models.ColorBrown)
	b.rent(2, 1, "Rent: Red/Yellow", models.ColorRed, models.ColorYellow)

	// Rule reference cards are not playable and never built into a deck.
	b.add(4, false, models.Card{Name: "Rules Reference", Category: models.CategoryReference})

	return b.entries
}
