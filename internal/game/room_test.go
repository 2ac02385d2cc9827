// internal/game/room_test.go
package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealtable/dealtable/internal/catalog"
	"github.com/dealtable/dealtable/internal/models"
)

// mockBroadcaster records events per player. Safe to install as
// BroadcastToPlayerFn: it never touches the room.
type mockBroadcaster struct {
	mu     sync.Mutex
	events map[uuid.UUID][]RoomEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{events: make(map[uuid.UUID][]RoomEvent)}
}

func (m *mockBroadcaster) fn() func(uuid.UUID, RoomEvent) {
	return func(playerID uuid.UUID, ev RoomEvent) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.events[playerID] = append(m.events[playerID], ev)
	}
}

func (m *mockBroadcaster) lastState(playerID uuid.UUID) *RoomSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	evs := m.events[playerID]
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == EventRoomState {
			return evs[i].State
		}
	}
	return nil
}

func actionCard(id int, kind models.ActionKind, value int) *models.Card {
	return &models.Card{ID: id, Name: string(kind), Category: models.CategoryAction, Value: value, ActionKind: kind}
}

func rentCard(id int, colors ...models.Color) *models.Card {
	return &models.Card{ID: id, Name: "rent", Category: models.CategoryRent, Value: 1, RentColors: colors}
}

func wildcard(id int, colors ...models.Color) *models.Card {
	return &models.Card{ID: id, Name: "wildcard", Category: models.CategoryWildcard, Value: 2, Colors: colors}
}

// setupRoom seats the named players with the host first and installs a
// recording broadcaster. The reaction window is pushed out so timers
// never race the test body.
func setupRoom(t *testing.T, names ...string) (*Room, []uuid.UUID, *mockBroadcaster) {
	t.Helper()
	require.NotEmpty(t, names)
	ids := make([]uuid.UUID, len(names))
	for i := range names {
		ids[i] = uuid.New()
	}
	r := NewRoom("test-room", ids[0], names[0], catalog.Default(), nil)
	mb := newMockBroadcaster()
	r.BroadcastToPlayerFn = mb.fn()
	r.ReactionWindow = time.Hour
	for i := 1; i < len(names); i++ {
		require.NoError(t, r.AddPlayer(ids[i], names[i]))
	}
	return r, ids, mb
}

// assertCardsUnique sweeps every container in the room (deck, discard,
// each hand, bank and property group) and fails if any card id appears
// in more than one place.
func assertCardsUnique(t *testing.T, r *Room) {
	t.Helper()
	seen := map[int]string{}
	record := func(where string, cards []*models.Card) {
		for _, c := range cards {
			if prev, dup := seen[c.ID]; dup {
				t.Fatalf("card %d is in both %s and %s", c.ID, prev, where)
			}
			seen[c.ID] = where
		}
	}
	record("deck", r.Deck)
	record("discard", r.Discard)
	for _, p := range r.Players {
		record(p.Name+"'s hand", p.Hand)
		record(p.Name+"'s bank", p.Bank)
		for _, color := range models.Colors {
			record(fmt.Sprintf("%s's %s group", p.Name, color), p.Properties[color])
		}
	}
}

// startTurnFor begins the game and clears the host's mandatory draw so
// plays are immediately legal.
func startTurnFor(t *testing.T, r *Room, hostID uuid.UUID) {
	t.Helper()
	require.NoError(t, r.HandleStartGame(hostID))
	require.NoError(t, r.HandleDrawTurnCards(hostID))
}

func TestStartGameDeals(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	require.NoError(t, r.HandleStartGame(ids[0]))

	assert.True(t, r.Started)
	for _, p := range r.Players {
		assert.Len(t, p.Hand, 5)
	}
	assert.Equal(t, 106-2*5, len(r.Deck))
	require.NotNil(t, r.PendingTurnDraw)
	assert.Equal(t, ids[0], r.PendingTurnDraw.PlayerID)
	assert.Equal(t, 2, r.PendingTurnDraw.Count)
}

func TestStartGameGuards(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	assert.Error(t, r.HandleStartGame(ids[1]))

	solo, soloIDs, _ := setupRoom(t, "alone")
	assert.Error(t, solo.HandleStartGame(soloIDs[0]))

	require.NoError(t, r.HandleStartGame(ids[0]))
	assert.Error(t, r.HandleStartGame(ids[0]))
}

func TestJoinAfterStartRejected(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	require.NoError(t, r.HandleStartGame(ids[0]))
	assert.Error(t, r.AddPlayer(uuid.New(), "late"))
}

func TestTurnDrawBlocksPlays(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	require.NoError(t, r.HandleStartGame(ids[0]))

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{money(901, 3)}
	err := r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayToBank})
	assert.Error(t, err)

	require.NoError(t, r.HandleDrawTurnCards(ids[0]))
	assert.Nil(t, r.PendingTurnDraw)
	assert.Len(t, alice.Hand, 3)
}

func TestEmptyHandDrawsFive(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	r.getPlayerByID(ids[1]).Hand = nil
	require.NoError(t, r.HandleEndTurn(ids[0]))

	require.NotNil(t, r.PendingTurnDraw)
	assert.Equal(t, ids[1], r.PendingTurnDraw.PlayerID)
	assert.Equal(t, 5, r.PendingTurnDraw.Count)
}

func TestPlayCapPerTurn(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{money(901, 1), money(902, 1), money(903, 1), money(904, 1)}
	for _, id := range []int{901, 902, 903} {
		require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: id, Mode: models.PlayToBank}))
	}
	assert.Equal(t, 3, r.CardsPlayedThisTurn)
	err := r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 904, Mode: models.PlayToBank})
	assert.Error(t, err)
	assert.Len(t, alice.Hand, 1)
	assert.Len(t, alice.Bank, 3)
}

func TestPlayPropertyAndWildcard(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	green := prop(901, models.ColorGreen, 4)
	green.AssignedColor = models.ColorNone
	alice.Hand = []*models.Card{green, wildcard(902, models.ColorGreen, models.ColorDarkBlue)}

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayToProperty}))
	assert.Len(t, alice.Properties[models.ColorGreen], 1)

	// A wildcard with an invalid chosen color falls back to its first
	// affinity.
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 902, Mode: models.PlayToProperty, ChosenColor: models.ColorRed,
	}))
	assert.Len(t, alice.Properties[models.ColorGreen], 2)
}

func TestBuildingRules(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	placeProperty(alice, models.ColorBrown, prop(901, models.ColorBrown, 1))
	house := actionCard(903, models.ActionHouse, 3)
	hotel := actionCard(904, models.ActionHotel, 4)
	alice.Hand = []*models.Card{prop(902, models.ColorBrown, 1), house, hotel}

	// No full set yet: the house bounces back to the hand.
	err := r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 903, Mode: models.PlayToProperty, SetColor: models.ColorBrown})
	require.Error(t, err)
	assert.Len(t, alice.Hand, 3)
	assert.Equal(t, 0, r.CardsPlayedThisTurn)

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 902, Mode: models.PlayToProperty}))

	// Hotel before house is still illegal.
	err = r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 904, Mode: models.PlayToProperty, SetColor: models.ColorBrown})
	require.Error(t, err)

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 903, Mode: models.PlayToProperty, SetColor: models.ColorBrown}))
	assert.Len(t, alice.Properties[models.ColorBrown], 3)
}

func TestPassGo(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionPassGo, 1)}
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayAsAction}))
	assert.Len(t, alice.Hand, 2)
	assert.Equal(t, 1, r.CardsPlayedThisTurn)
	assert.Len(t, r.Discard, 1)
}

func TestActionNeedsOpponentTarget(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDebtCollector, 3)}

	err := r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayAsAction})
	require.Error(t, err)

	err = r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[0]})
	require.Error(t, err)

	// Both failures restored the hand and consumed nothing.
	assert.Len(t, alice.Hand, 1)
	assert.Equal(t, 0, r.CardsPlayedThisTurn)
	assert.Nil(t, r.PendingReaction)
}

func TestDebtCollectorFlow(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDebtCollector, 3)}
	bob.Bank = []*models.Card{money(911, 3), money(912, 3)}

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1],
	}))
	reaction := r.PendingReaction
	require.NotNil(t, reaction)
	assert.Equal(t, models.ActionDebtCollector, reaction.Kind)

	// Further plays are blocked while the window is open.
	alice.Hand = []*models.Card{money(902, 1)}
	assert.Error(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 902, Mode: models.PlayToBank}))

	r.resolveReaction(reaction.ID, false)
	pay := r.PendingPayment
	require.NotNil(t, pay)
	assert.Equal(t, ids[1], pay.CurrentPayer())
	assert.Equal(t, 5, pay.Queue[0].Amount)

	require.NoError(t, r.HandleSubmitPayment(ids[1], pay.ID, []int{911, 912}))
	assert.Nil(t, r.PendingPayment)
	assert.Len(t, alice.Bank, 2)
	assert.Empty(t, bob.Bank)
	assertCardsUnique(t, r)
}

func TestJustSayNoCancels(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDebtCollector, 3)}
	bob.Hand = []*models.Card{actionCard(911, models.ActionJustSayNo, 4)}
	bob.Bank = []*models.Card{money(912, 5)}

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1],
	}))

	// Alice is not a target; she cannot counter her own action.
	assert.Error(t, r.HandleJustSayNo(ids[0]))

	require.NoError(t, r.HandleJustSayNo(ids[1]))
	assert.Nil(t, r.PendingReaction)
	assert.Nil(t, r.PendingPayment)
	assert.Empty(t, bob.Hand)
	assert.Len(t, bob.Bank, 1)
}

func TestBirthdayJustSayNoCancelsForEveryTarget(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	charlie := r.getPlayerByID(ids[2])
	alice.Hand = []*models.Card{actionCard(901, models.ActionBirthday, 2)}
	bob.Hand = []*models.Card{actionCard(911, models.ActionJustSayNo, 4)}
	bob.Bank = []*models.Card{money(912, 2)}
	charlie.Bank = []*models.Card{money(921, 2)}

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayAsAction}))
	require.NoError(t, r.HandleJustSayNo(ids[1]))

	// One counter kills the whole collection; charlie owes nothing either.
	assert.Nil(t, r.PendingReaction)
	assert.Nil(t, r.PendingPayment)
	assert.Len(t, bob.Bank, 1)
	assert.Len(t, charlie.Bank, 1)
	assert.Empty(t, alice.Bank)
}

func TestJustSayNoRequiresTheCard(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDebtCollector, 3)}
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1],
	}))

	r.getPlayerByID(ids[1]).Hand = nil
	assert.Error(t, r.HandleJustSayNo(ids[1]))
	assert.NotNil(t, r.PendingReaction)
}

func TestReactionExpiryAppliesOnce(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	r.ReactionWindow = 30 * time.Millisecond
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDebtCollector, 3)}
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1],
	}))
	reactionID := r.PendingReaction.ID

	require.Eventually(t, func() bool {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		return r.PendingReaction == nil && r.PendingPayment != nil
	}, time.Second, 5*time.Millisecond)

	r.Mu.Lock()
	paymentID := r.PendingPayment.ID
	// A stale resolve for the already-expired reaction changes nothing.
	r.resolveReaction(reactionID, false)
	r.Mu.Unlock()

	r.Mu.Lock()
	defer r.Mu.Unlock()
	require.NotNil(t, r.PendingPayment)
	assert.Equal(t, paymentID, r.PendingPayment.ID)
}

func TestBirthdayPaymentQueue(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	charlie := r.getPlayerByID(ids[2])
	alice.Hand = []*models.Card{actionCard(901, models.ActionBirthday, 2)}
	bob.Bank = []*models.Card{money(911, 2)}
	charlie.Bank = []*models.Card{money(921, 1)}

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayAsAction}))
	reaction := r.PendingReaction
	require.NotNil(t, reaction)
	assert.Len(t, reaction.TargetIDs, 2)

	r.resolveReaction(reaction.ID, false)
	pay := r.PendingPayment
	require.NotNil(t, pay)
	require.Len(t, pay.Queue, 2)
	assert.Equal(t, ids[1], pay.CurrentPayer())

	// Charlie cannot jump the queue.
	assert.Error(t, r.HandleSubmitPayment(ids[2], pay.ID, []int{921}))

	require.NoError(t, r.HandleSubmitPayment(ids[1], pay.ID, []int{911}))
	assert.Equal(t, ids[2], pay.CurrentPayer())

	// Charlie's table is short; the whole of it settles the debt.
	require.NoError(t, r.HandleSubmitPayment(ids[2], pay.ID, []int{921}))
	assert.Nil(t, r.PendingPayment)
	assert.Len(t, alice.Bank, 2)
}

func TestSubmitPaymentStaleIDIsSilent(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])
	assert.NoError(t, r.HandleSubmitPayment(ids[1], uuid.New(), []int{1}))
}

func TestDoubleRentSingleUse(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	placeProperty(alice, models.ColorGreen, prop(901, models.ColorGreen, 4))
	placeProperty(alice, models.ColorGreen, prop(902, models.ColorGreen, 4))
	alice.Hand = []*models.Card{
		actionCard(903, models.ActionDoubleRent, 1),
		rentCard(904, models.ColorGreen, models.ColorDarkBlue),
	}

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 903, Mode: models.PlayAsAction}))
	assert.Equal(t, 2, alice.Effects.RentMultiplier)

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 904, TargetPlayerID: ids[1], RentColor: models.ColorGreen,
	}))
	reaction := r.PendingReaction
	require.NotNil(t, reaction)
	// Two green cards rent 4, doubled to 8, and the multiplier is spent.
	assert.Equal(t, 8, reaction.Effect.Charges[0].Amount)
	assert.Equal(t, 1, alice.Effects.RentMultiplier)
	assert.Equal(t, 2, r.CardsPlayedThisTurn)
}

func TestRentCardCanBeBanked(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{rentCard(901, models.ColorGreen, models.ColorDarkBlue)}

	// Banking beats the rent category: no target or color needed.
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayToBank}))
	assert.Empty(t, alice.Hand)
	require.Len(t, alice.Bank, 1)
	assert.Equal(t, 901, alice.Bank[0].ID)
	assert.Nil(t, r.PendingReaction)
	assert.Equal(t, 1, r.CardsPlayedThisTurn)
}

func TestRentValidation(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{rentCard(901, models.ColorGreen, models.ColorDarkBlue)}

	// No green properties owned.
	err := r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, TargetPlayerID: ids[1], RentColor: models.ColorGreen,
	})
	require.Error(t, err)

	// Color outside the card's affinity.
	placeProperty(alice, models.ColorRed, prop(902, models.ColorRed, 3))
	err = r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, TargetPlayerID: ids[1], RentColor: models.ColorRed,
	})
	require.Error(t, err)
	assert.Len(t, alice.Hand, 1)
}

func TestSlyDealTakesEligibleCard(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	alice.Hand = []*models.Card{actionCard(901, models.ActionSlyDeal, 3)}
	placeProperty(bob, models.ColorRed, prop(911, models.ColorRed, 3))

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1], TargetCardID: 911,
	}))
	r.resolveReaction(r.PendingReaction.ID, false)

	assert.Empty(t, bob.Properties[models.ColorRed])
	assert.Len(t, alice.Properties[models.ColorRed], 1)
}

func TestSlyDealSparesFullSets(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	alice.Hand = []*models.Card{actionCard(901, models.ActionSlyDeal, 3)}
	placeProperty(bob, models.ColorBrown, prop(911, models.ColorBrown, 1))
	placeProperty(bob, models.ColorBrown, prop(912, models.ColorBrown, 1))

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1], TargetCardID: 911,
	}))
	r.resolveReaction(r.PendingReaction.ID, false)

	assert.Len(t, bob.Properties[models.ColorBrown], 2)
	assert.Empty(t, alice.Properties[models.ColorBrown])
}

func TestForcedDealSwaps(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	alice.Hand = []*models.Card{actionCard(901, models.ActionForcedDeal, 3)}
	placeProperty(alice, models.ColorYellow, prop(902, models.ColorYellow, 3))
	placeProperty(bob, models.ColorRed, prop(911, models.ColorRed, 3))

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1],
		TargetCardID: 911, ActorCardID: 902,
	}))
	r.resolveReaction(r.PendingReaction.ID, false)

	assert.Len(t, alice.Properties[models.ColorRed], 1)
	assert.Len(t, bob.Properties[models.ColorYellow], 1)
	assert.Empty(t, alice.Properties[models.ColorYellow])
	assert.Empty(t, bob.Properties[models.ColorRed])
}

func TestDealBreakerMovesWholeSet(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	bob := r.getPlayerByID(ids[1])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDealBreaker, 5)}
	placeProperty(bob, models.ColorBrown, prop(911, models.ColorBrown, 1))
	placeProperty(bob, models.ColorBrown, prop(912, models.ColorBrown, 1))
	placeProperty(bob, models.ColorBrown, actionCard(913, models.ActionHouse, 3))

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1], SetColor: models.ColorBrown,
	}))
	r.resolveReaction(r.PendingReaction.ID, false)

	// The set moves whole, buildings included.
	assert.Len(t, alice.Properties[models.ColorBrown], 3)
	assert.Empty(t, bob.Properties[models.ColorBrown])
	assertCardsUnique(t, r)
}

func TestMoveWildcard(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	wild := wildcard(901, models.ColorGreen, models.ColorDarkBlue)
	placeProperty(alice, models.ColorGreen, wild)

	assert.Error(t, r.HandleMoveWildcard(ids[1], 901, models.ColorDarkBlue))
	assert.Error(t, r.HandleMoveWildcard(ids[0], 901, models.ColorRed))

	require.NoError(t, r.HandleMoveWildcard(ids[0], 901, models.ColorDarkBlue))
	assert.Empty(t, alice.Properties[models.ColorGreen])
	assert.Len(t, alice.Properties[models.ColorDarkBlue], 1)
	assert.Equal(t, models.ColorDarkBlue, wild.AssignedColor)
	// Moving a wildcard never consumes a play.
	assert.Equal(t, 0, r.CardsPlayedThisTurn)
}

func TestEndTurnEnforcesHandLimit(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	hand := make([]*models.Card, 0, 9)
	for i := 0; i < 9; i++ {
		hand = append(hand, money(901+i, 1))
	}
	alice.Hand = hand
	discardBefore := len(r.Discard)

	require.NoError(t, r.HandleEndTurn(ids[0]))
	assert.Len(t, alice.Hand, HandLimit)
	assert.Equal(t, discardBefore+2, len(r.Discard))

	require.NotNil(t, r.PendingTurnDraw)
	assert.Equal(t, ids[1], r.PendingTurnDraw.PlayerID)
	assert.Equal(t, ids[1], r.currentPlayer().ID)
	assertCardsUnique(t, r)
}

func TestEndTurnWrapsAround(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])
	require.NoError(t, r.HandleEndTurn(ids[0]))
	require.NoError(t, r.HandleDrawTurnCards(ids[1]))
	require.NoError(t, r.HandleEndTurn(ids[1]))
	assert.Equal(t, ids[0], r.currentPlayer().ID)
}

func TestDrawReshufflesDiscard(t *testing.T) {
	r, _, _ := setupRoom(t, "alice", "bob")
	for i := 0; i < 5; i++ {
		r.Deck = append(r.Deck, money(901+i, 1))
	}
	for i := 0; i < 10; i++ {
		r.Discard = append(r.Discard, money(911+i, 1))
	}

	drawn := r.draw(8)
	assert.Len(t, drawn, 8)
	assert.Len(t, r.Deck, 7)
	assert.Empty(t, r.Discard)

	// Rebuilding the pile must not duplicate any card across containers.
	r.Players[0].Hand = drawn
	assertCardsUnique(t, r)
}

func TestDrawComesUpShortWhenBothPilesEmpty(t *testing.T) {
	r, _, _ := setupRoom(t, "alice", "bob")
	r.Deck = []*models.Card{money(901, 1)}
	drawn := r.draw(3)
	assert.Len(t, drawn, 1)
	assert.Empty(t, r.Deck)
}

func TestWinOnThirdFullSet(t *testing.T) {
	r, ids, mb := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	placeProperty(alice, models.ColorBrown, prop(901, models.ColorBrown, 1))
	placeProperty(alice, models.ColorBrown, prop(902, models.ColorBrown, 1))
	placeProperty(alice, models.ColorDarkBlue, prop(903, models.ColorDarkBlue, 4))
	placeProperty(alice, models.ColorDarkBlue, prop(904, models.ColorDarkBlue, 4))
	placeProperty(alice, models.ColorUtility, prop(905, models.ColorUtility, 2))
	util := prop(906, models.ColorUtility, 2)
	util.AssignedColor = models.ColorNone
	alice.Hand = []*models.Card{util}

	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 906, Mode: models.PlayToProperty}))
	assert.Equal(t, ids[0], r.WinnerID)

	// The frozen room rejects further intents.
	assert.Error(t, r.HandleEndTurn(ids[0]))

	snap := mb.lastState(ids[1])
	require.NotNil(t, snap)
	assert.Equal(t, ids[0], snap.WinnerID)
}

func TestRestartAfterWin(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	startTurnFor(t, r, ids[0])
	r.WinnerID = ids[0]

	require.NoError(t, r.HandleStartGame(ids[0]))
	assert.Equal(t, uuid.Nil, r.WinnerID)
	for _, p := range r.Players {
		assert.Len(t, p.Hand, 5)
		assert.Empty(t, p.Bank)
	}
}

func TestRemoveCurrentPlayerAdvancesTurn(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	require.NoError(t, r.HandleStartGame(ids[0]))

	r.RemovePlayer(ids[0])
	assert.Len(t, r.Players, 2)
	assert.Equal(t, ids[1], r.HostID)
	assert.Equal(t, ids[1], r.currentPlayer().ID)
	require.NotNil(t, r.PendingTurnDraw)
	assert.Equal(t, ids[1], r.PendingTurnDraw.PlayerID)
}

func TestRemoveEarlierSeatKeepsCurrent(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	startTurnFor(t, r, ids[0])
	require.NoError(t, r.HandleEndTurn(ids[0]))

	// Bob (seat 1) is up; removing alice (seat 0) must not shift the turn.
	r.RemovePlayer(ids[0])
	assert.Equal(t, ids[1], r.currentPlayer().ID)
}

func TestRemoveReactionSourceCancels(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDebtCollector, 3)}
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1],
	}))

	r.RemovePlayer(ids[0])
	assert.Nil(t, r.PendingReaction)
	assert.Nil(t, r.PendingPayment)
}

func TestRemoveSoleReactionTargetResolves(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionDebtCollector, 3)}
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{
		CardID: 901, Mode: models.PlayAsAction, TargetPlayerID: ids[1],
	}))

	// With its only debtor gone there is nobody left to charge.
	r.RemovePlayer(ids[1])
	assert.Nil(t, r.PendingReaction)
	assert.Nil(t, r.PendingPayment)
}

func TestRemovePayerAutoSettles(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionBirthday, 2)}
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayAsAction}))
	r.resolveReaction(r.PendingReaction.ID, false)
	require.NotNil(t, r.PendingPayment)

	// Bob leaves mid-queue; his debt zeroes out and charlie is up.
	r.RemovePlayer(ids[1])
	pay := r.PendingPayment
	require.NotNil(t, pay)
	assert.Equal(t, ids[2], pay.CurrentPayer())

	charlie := r.getPlayerByID(ids[2])
	charlie.Bank = []*models.Card{money(921, 2)}
	require.NoError(t, r.HandleSubmitPayment(ids[2], pay.ID, []int{921}))
	assert.Nil(t, r.PendingPayment)
}

func TestRemoveReceiverCancelsPayment(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob", "charlie")
	startTurnFor(t, r, ids[0])

	alice := r.getPlayerByID(ids[0])
	alice.Hand = []*models.Card{actionCard(901, models.ActionBirthday, 2)}
	require.NoError(t, r.HandlePlayCard(ids[0], models.PlayCardIntent{CardID: 901, Mode: models.PlayAsAction}))
	r.resolveReaction(r.PendingReaction.ID, false)
	require.NotNil(t, r.PendingPayment)

	r.RemovePlayer(ids[0])
	assert.Nil(t, r.PendingPayment)
}

func TestLastPlayerLeavingTearsDown(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	var emptied string
	r.OnEmpty = func(roomID string) { emptied = roomID }

	r.RemovePlayer(ids[0])
	r.RemovePlayer(ids[1])
	assert.Equal(t, "test-room", emptied)
}

func TestSnapshotHidesOtherHands(t *testing.T) {
	r, ids, _ := setupRoom(t, "alice", "bob")
	require.NoError(t, r.HandleStartGame(ids[0]))

	snap := r.Snapshot(ids[1])
	require.Len(t, snap.Players, 2)
	assert.Nil(t, snap.Players[0].Hand)
	assert.Equal(t, 5, snap.Players[0].HandCount)
	assert.Len(t, snap.Players[1].Hand, 5)
	assert.True(t, snap.Players[0].IsHost)
	assert.True(t, snap.Players[0].IsCurrent)
}
