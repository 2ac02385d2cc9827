// internal/models/card.go
package models

// Category classifies a card by how it may be played.
type Category string

const (
	CategoryProperty  Category = "property"
	CategoryWildcard  Category = "wildcard"
	CategoryAction    Category = "action"
	CategoryRent      Category = "rent"
	CategoryMoney     Category = "money"
	CategoryReference Category = "reference" // rule reference card, never enters the deck
)

// Color is the closed set of property colors. ColorAny marks wild rent
// cards and ten-color wildcards; ColorNone marks "not assigned".
type Color string

const (
	ColorNone     Color = ""
	ColorAny      Color = "any"
	ColorBrown    Color = "brown"
	ColorSkyBlue  Color = "skyblue"
	ColorPink     Color = "pink"
	ColorOrange   Color = "orange"
	ColorRed      Color = "red"
	ColorYellow   Color = "yellow"
	ColorGreen    Color = "green"
	ColorDarkBlue Color = "darkblue"
	ColorRailroad Color = "railroad"
	ColorUtility  Color = "utility"
)

// Colors lists every concrete property color in display order. Property
// group maps are initialized over exactly this set at room creation.
var Colors = []Color{
	ColorBrown, ColorSkyBlue, ColorPink, ColorOrange, ColorRed,
	ColorYellow, ColorGreen, ColorDarkBlue, ColorRailroad, ColorUtility,
}

// ActionKind identifies the effect of an action card.
type ActionKind string

const (
	ActionNone          ActionKind = ""
	ActionPassGo        ActionKind = "pass_go"
	ActionBirthday      ActionKind = "birthday"
	ActionDebtCollector ActionKind = "debt_collector"
	ActionSlyDeal       ActionKind = "sly_deal"
	ActionForcedDeal    ActionKind = "forced_deal"
	ActionDealBreaker   ActionKind = "deal_breaker"
	ActionJustSayNo     ActionKind = "just_say_no"
	ActionDoubleRent    ActionKind = "double_rent"
	ActionHouse         ActionKind = "house"
	ActionHotel         ActionKind = "hotel"
)

// Card is a single physical card. A card lives in exactly one container
// at a time (deck, discard, a hand, a bank, or one property group);
// moving it is always remove-then-insert, never copy.
type Card struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Value    int      `json:"value"`

	// Colors holds the property affinities for property and wildcard
	// cards (first entry is the native color). RentColors holds the
	// colors a rent card may charge; a single ColorAny entry means wild.
	Colors     []Color `json:"colors,omitempty"`
	RentColors []Color `json:"rentColors,omitempty"`

	ActionKind ActionKind `json:"actionKind,omitempty"`

	// AssignedColor is set while the card sits in a property group and
	// equals that group's color. Cleared whenever the card leaves.
	AssignedColor Color `json:"assignedColor,omitempty"`
}

// Clone returns an independent copy of the card. Used when rebuilding the
// draw pile from the discard so the two piles never alias.
func (c *Card) Clone() *Card {
	dup := *c
	dup.Colors = append([]Color(nil), c.Colors...)
	dup.RentColors = append([]Color(nil), c.RentColors...)
	return &dup
}

// NativeColor is the first color affinity, or ColorNone for colorless cards.
func (c *Card) NativeColor() Color {
	if len(c.Colors) == 0 {
		return ColorNone
	}
	return c.Colors[0]
}

// HasColorAffinity reports whether the card may be placed into the given
// property group. A ColorAny affinity matches every concrete color.
func (c *Card) HasColorAffinity(color Color) bool {
	for _, col := range c.Colors {
		if col == color || col == ColorAny {
			return true
		}
	}
	return false
}

// HasRentAffinity reports whether a rent card may charge the given color.
func (c *Card) HasRentAffinity(color Color) bool {
	for _, col := range c.RentColors {
		if col == color || col == ColorAny {
			return true
		}
	}
	return false
}

// IsBuilding reports whether the card is a house or hotel.
func (c *Card) IsBuilding() bool {
	return c.ActionKind == ActionHouse || c.ActionKind == ActionHotel
}
