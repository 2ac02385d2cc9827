// internal/game/payment.go
package game

import (
	"fmt"

	"github.com/dealtable/dealtable/internal/models"
)

// PaymentResult reports the outcome of a settled debt.
type PaymentResult struct {
	Paid        int            `json:"paid"`
	Requested   int            `json:"requested"`
	Remaining   int            `json:"remaining"`
	Transferred []*models.Card `json:"transferred"`
}

// ResolvePayment validates the payer's chosen cards against the amount
// due and, on success, transfers them to the receiver. It mutates nothing
// on failure.
//
// Solvency contract: with table total T, amount due A and selection sum S,
// the selection is accepted iff (T >= A && S >= A) || (T < A && S == T).
// A broke payer (T == 0) must submit an empty selection; the debt is then
// recorded as fully short.
func ResolvePayment(payer, receiver *models.Player, amount int, cardIDs []int) (*PaymentResult, error) {
	total := TableValue(payer)
	if total == 0 {
		if len(cardIDs) > 0 {
			return nil, fmt.Errorf("nothing on your table to pay with")
		}
		return &PaymentResult{Paid: 0, Requested: amount, Remaining: amount}, nil
	}

	chosen := make([]*models.Card, 0, len(cardIDs))
	seen := make(map[int]bool, len(cardIDs))
	sum := 0
	for _, id := range cardIDs {
		if seen[id] {
			return nil, fmt.Errorf("card %d selected twice", id)
		}
		seen[id] = true
		card := findTableCard(payer, id)
		if card == nil {
			return nil, fmt.Errorf("card %d is not on your table", id)
		}
		chosen = append(chosen, card)
		sum += card.Value
	}

	if total >= amount {
		if sum < amount {
			return nil, fmt.Errorf("selection worth %d does not cover the %d due", sum, amount)
		}
	} else if sum != total {
		// Insolvent payers surrender the whole table, nothing less.
		return nil, fmt.Errorf("you cannot cover %d; surrender your entire table (worth %d)", amount, total)
	}

	for _, card := range chosen {
		removeFromTable(payer, card.ID)
		deposit(receiver, card)
	}

	remaining := amount - sum
	if remaining < 0 {
		remaining = 0
	}
	return &PaymentResult{
		Paid:        sum,
		Requested:   amount,
		Remaining:   remaining,
		Transferred: chosen,
	}, nil
}
