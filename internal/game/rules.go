// internal/game/rules.go
package game

import "github.com/dealtable/dealtable/internal/models"

// setSizes holds the fixed full-set requirement per color. Colors absent
// from this table can never complete a set.
var setSizes = map[models.Color]int{
	models.ColorBrown:    2,
	models.ColorSkyBlue:  3,
	models.ColorPink:     3,
	models.ColorOrange:   3,
	models.ColorRed:      3,
	models.ColorYellow:   3,
	models.ColorGreen:    3,
	models.ColorDarkBlue: 2,
	models.ColorRailroad: 4,
	models.ColorUtility:  2,
}

// rentSchedules holds base rent per color, indexed by owned-card count.
var rentSchedules = map[models.Color][]int{
	models.ColorBrown:    {1, 2},
	models.ColorSkyBlue:  {1, 2, 3},
	models.ColorPink:     {1, 2, 4},
	models.ColorOrange:   {1, 3, 5},
	models.ColorRed:      {2, 3, 6},
	models.ColorYellow:   {2, 4, 6},
	models.ColorGreen:    {2, 4, 7},
	models.ColorDarkBlue: {3, 8},
	models.ColorRailroad: {1, 2, 3, 4},
	models.ColorUtility:  {1, 2},
}

// nonBuildable marks the two colors that never take houses or hotels.
var nonBuildable = map[models.Color]bool{
	models.ColorRailroad: true,
	models.ColorUtility:  true,
}

const (
	houseRentBonus = 3
	hotelRentBonus = 4
)

// SetSize returns the full-set requirement for a color. Unknown colors
// return a requirement no group can meet.
func SetSize(color models.Color) int {
	if n, ok := setSizes[color]; ok {
		return n
	}
	return int(^uint(0) >> 1)
}

// IsFullSet reports whether a property group meets its color's requirement.
func IsFullSet(cards []*models.Card, color models.Color) bool {
	return len(cards) >= SetSize(color)
}

// RentDue computes the rent a group charges. Buildings only count once
// the set is full and the color is buildable.
func RentDue(cards []*models.Card, color models.Color) int {
	schedule, ok := rentSchedules[color]
	if !ok || len(cards) == 0 {
		return 0
	}
	idx := len(cards)
	if idx > len(schedule) {
		idx = len(schedule)
	}
	rent := schedule[idx-1]
	if IsFullSet(cards, color) && !nonBuildable[color] {
		for _, c := range cards {
			switch c.ActionKind {
			case models.ActionHouse:
				rent += houseRentBonus
			case models.ActionHotel:
				rent += hotelRentBonus
			}
		}
	}
	return rent
}

// CanAttachBuilding reports whether a house or hotel may join the group.
func CanAttachBuilding(cards []*models.Card, color models.Color) bool {
	return IsFullSet(cards, color) && !nonBuildable[color]
}
