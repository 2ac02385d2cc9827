// internal/game/table.go
package game

import "github.com/dealtable/dealtable/internal/models"

// Table helpers. Every card movement here is remove-then-insert against a
// single player's containers; callers hold the room lock.

// TableValue sums a player's bank and property card face values.
func TableValue(p *models.Player) int {
	total := 0
	for _, c := range p.Bank {
		total += c.Value
	}
	for _, color := range models.Colors {
		for _, c := range p.Properties[color] {
			total += c.Value
		}
	}
	return total
}

// findTableCard locates a card on the payer's table (bank or any property
// group) without removing it.
func findTableCard(p *models.Player, cardID int) *models.Card {
	for _, c := range p.Bank {
		if c.ID == cardID {
			return c
		}
	}
	for _, color := range models.Colors {
		for _, c := range p.Properties[color] {
			if c.ID == cardID {
				return c
			}
		}
	}
	return nil
}

// removeFromTable detaches the card from the player's bank or property
// groups. The card keeps its AssignedColor so the receiver can re-home it.
func removeFromTable(p *models.Player, cardID int) *models.Card {
	for i, c := range p.Bank {
		if c.ID == cardID {
			p.Bank = append(p.Bank[:i], p.Bank[i+1:]...)
			return c
		}
	}
	for _, color := range models.Colors {
		group := p.Properties[color]
		for i, c := range group {
			if c.ID == cardID {
				p.Properties[color] = append(group[:i], group[i+1:]...)
				return c
			}
		}
	}
	return nil
}

// removeFromGroup detaches a card from one specific property group.
func removeFromGroup(p *models.Player, color models.Color, cardID int) *models.Card {
	group := p.Properties[color]
	for i, c := range group {
		if c.ID == cardID {
			p.Properties[color] = append(group[:i], group[i+1:]...)
			return c
		}
	}
	return nil
}

// placeProperty inserts a card into the given property group and stamps
// its assigned color.
func placeProperty(p *models.Player, color models.Color, card *models.Card) {
	card.AssignedColor = color
	p.Properties[color] = append(p.Properties[color], card)
}

// depositToBank inserts a card into the bank, clearing any set assignment.
func depositToBank(p *models.Player, card *models.Card) {
	card.AssignedColor = models.ColorNone
	p.Bank = append(p.Bank, card)
}

// deposit routes a surrendered card onto the receiver's table. Properties
// go to their assigned (else native) color group; wildcards with a
// concrete assigned color behave as properties; money, actions and
// unresolved wildcards land in the bank.
func deposit(receiver *models.Player, card *models.Card) {
	switch card.Category {
	case models.CategoryProperty:
		color := card.AssignedColor
		if color == models.ColorNone || color == models.ColorAny {
			color = card.NativeColor()
		}
		placeProperty(receiver, color, card)
	case models.CategoryWildcard:
		if color := card.AssignedColor; color != models.ColorNone && color != models.ColorAny {
			placeProperty(receiver, color, card)
			return
		}
		depositToBank(receiver, card)
	default:
		depositToBank(receiver, card)
	}
}

// handCard finds a card in the player's hand.
func handCard(p *models.Player, cardID int) *models.Card {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// removeFromHand detaches a card from the player's hand.
func removeFromHand(p *models.Player, cardID int) *models.Card {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c
		}
	}
	return nil
}

// fullSetColors lists the colors whose groups currently meet their
// full-set requirement.
func fullSetColors(p *models.Player) []models.Color {
	var full []models.Color
	for _, color := range models.Colors {
		if group := p.Properties[color]; len(group) > 0 && IsFullSet(group, color) {
			full = append(full, color)
		}
	}
	return full
}

// HasWon reports the win condition: at least three distinct full sets.
func HasWon(p *models.Player) bool {
	return len(fullSetColors(p)) >= 3
}

// stealableCards lists the target's property cards eligible for sly and
// forced deals: not part of a full set and not a building.
func stealableCards(p *models.Player) []*models.Card {
	var eligible []*models.Card
	for _, color := range models.Colors {
		group := p.Properties[color]
		if IsFullSet(group, color) {
			continue
		}
		for _, c := range group {
			if c.IsBuilding() {
				continue
			}
			eligible = append(eligible, c)
		}
	}
	return eligible
}
