// internal/game/room.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealtable/dealtable/internal/catalog"
	"github.com/dealtable/dealtable/internal/models"
)

const (
	// MaxPlayers is the room capacity; MinPlayers the start threshold.
	MaxPlayers = 5
	MinPlayers = 2

	// MaxPlaysPerTurn caps successful card plays between turn starts.
	MaxPlaysPerTurn = 3

	// HandLimit is the soft cap enforced at end of turn.
	HandLimit = 7

	// DefaultReactionWindow is how long targets may counter an offensive
	// action before its effect applies.
	DefaultReactionWindow = 10 * time.Second

	initialDealCount    = 5
	turnDrawCount       = 2
	emptyHandDrawCount  = 5
	birthdayAmount      = 2
	debtCollectorAmount = 5
)

// reactionRent tags rent charges inside the reaction protocol; rent cards
// have a category rather than an ActionKind of their own.
const reactionRent = models.ActionKind("rent")

// PendingTurnDraw records the mandatory draw owed at the start of a turn.
// All card plays are blocked until it is fulfilled.
type PendingTurnDraw struct {
	PlayerID uuid.UUID `json:"playerId"`
	Count    int       `json:"count"`
}

// reactionEffect is the recorded payload a pending reaction applies when
// it expires uncancelled.
type reactionEffect struct {
	// Charges drives the payment queue for debt/birthday/rent.
	Charges []PaymentEntry
	// Caller preferences for steal/swap/break resolution; zero values
	// mean "first eligible".
	TargetCardID int
	ActorCardID  int
	SetColor     models.Color
}

// PendingReaction is the single timed counter window. At most one exists
// per room; installing a new one supersedes (and cancels the timer of)
// any prior one.
type PendingReaction struct {
	ID        uuid.UUID
	SourceID  uuid.UUID
	TargetIDs []uuid.UUID
	Kind      models.ActionKind
	Effect    reactionEffect
	ExpiresAt time.Time
}

func (r *PendingReaction) targets(id uuid.UUID) bool {
	for _, t := range r.TargetIDs {
		if t == id {
			return true
		}
	}
	return false
}

// PaymentEntry is one debtor's slot in a payment queue. Paid stays nil
// until the debtor settles (or is auto-settled at 0 on departure).
type PaymentEntry struct {
	PayerID uuid.UUID `json:"payerId"`
	Amount  int       `json:"amount"`
	Paid    *int      `json:"paid,omitempty"`
}

// PendingPayment is the interactive debt-settlement queue. Only the entry
// at Index may submit; everything else in the room is blocked until the
// queue drains.
type PendingPayment struct {
	ID         uuid.UUID
	ReceiverID uuid.UUID
	Queue      []PaymentEntry
	Index      int
}

// CurrentPayer returns the debtor whose turn it is to pay, or uuid.Nil
// once the queue is exhausted.
func (p *PendingPayment) CurrentPayer() uuid.UUID {
	if p.Index >= len(p.Queue) {
		return uuid.Nil
	}
	return p.Queue[p.Index].PayerID
}

// Room holds the entire state for one table. All intent handling methods
// assume the caller holds Mu: a room is a sequential actor and two
// intents for the same room must never interleave.
type Room struct {
	ID     string
	HostID uuid.UUID

	Players []*models.Player
	Started bool

	Catalog catalog.Catalog
	Deck    []*models.Card
	Discard []*models.Card

	CurrentPlayerIndex  int
	CardsPlayedThisTurn int
	PendingTurnDraw     *PendingTurnDraw
	PendingReaction     *PendingReaction
	PendingPayment      *PendingPayment
	WinnerID            uuid.UUID

	ReactionWindow time.Duration
	reactionTimer  *time.Timer

	Mu sync.Mutex

	Logger *logrus.Logger

	// BroadcastToPlayerFn sends an event to one player. Called with Mu
	// held; implementations must not re-acquire it.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev RoomEvent)

	// OnEmpty fires after the last player leaves, typically to delete the
	// room from its store.
	OnEmpty func(roomID string)

	rng *rand.Rand
}

// NewRoom creates a room with its creator seated as host.
func NewRoom(id string, hostID uuid.UUID, hostName string, cat catalog.Catalog, logger *logrus.Logger) *Room {
	r := &Room{
		ID:             id,
		HostID:         hostID,
		Catalog:        cat,
		ReactionWindow: DefaultReactionWindow,
		Logger:         logger,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	r.Players = append(r.Players, models.NewPlayer(hostID, hostName))
	return r
}

// getPlayerByID returns the seated player or nil.
func (r *Room) getPlayerByID(id uuid.UUID) *models.Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerIndex(id uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) currentPlayer() *models.Player {
	if len(r.Players) == 0 || r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}

// AddPlayer seats a new player. Joining is only possible before the game
// starts and while a seat is free.
func (r *Room) AddPlayer(id uuid.UUID, name string) error {
	if r.getPlayerByID(id) != nil {
		return fmt.Errorf("you are already seated in room %s", r.ID)
	}
	if r.Started && r.WinnerID == uuid.Nil {
		return fmt.Errorf("room %s has already started", r.ID)
	}
	if len(r.Players) >= MaxPlayers {
		return fmt.Errorf("room %s is full", r.ID)
	}
	r.Players = append(r.Players, models.NewPlayer(id, name))
	r.broadcastState()
	return nil
}

// HandleStartGame resets the room and deals a fresh game. Host only,
// minimum two players. Starting again after a win replays with the
// current roster.
func (r *Room) HandleStartGame(playerID uuid.UUID) error {
	if playerID != r.HostID {
		return fmt.Errorf("only the host can start the game")
	}
	if r.Started && r.WinnerID == uuid.Nil {
		return fmt.Errorf("game already in progress")
	}
	if len(r.Players) < MinPlayers {
		return fmt.Errorf("need at least %d players to start", MinPlayers)
	}

	r.stopReactionTimer()
	r.PendingReaction = nil
	r.PendingPayment = nil
	r.PendingTurnDraw = nil
	r.WinnerID = uuid.Nil
	r.Discard = nil
	r.Deck = r.Catalog.Build(r.rng)

	for _, p := range r.Players {
		fresh := models.NewPlayer(p.ID, p.Name)
		fresh.Conn = p.Conn
		*p = *fresh
		p.Hand = r.draw(initialDealCount)
	}

	r.Started = true
	r.CurrentPlayerIndex = 0
	if r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{"room": r.ID, "players": len(r.Players)}).Info("game started")
	}
	r.startTurn()
	return nil
}

// startTurn resets per-turn state for the current player and installs
// their mandatory draw. Assumes Mu is held.
func (r *Room) startTurn() {
	p := r.currentPlayer()
	if p == nil {
		return
	}
	r.CardsPlayedThisTurn = 0
	p.Effects.RentMultiplier = 1
	count := turnDrawCount
	if len(p.Hand) == 0 {
		count = emptyHandDrawCount
	}
	r.PendingTurnDraw = &PendingTurnDraw{PlayerID: p.ID, Count: count}
	r.broadcastState()
}

// draw pops up to n cards from the pile's end. When the pile empties the
// discard is cloned, shuffled and becomes the new draw pile; if both run
// dry the draw comes up short. Assumes Mu is held.
func (r *Room) draw(n int) []*models.Card {
	drawn := make([]*models.Card, 0, n)
	for len(drawn) < n {
		if len(r.Deck) == 0 {
			if len(r.Discard) == 0 {
				break
			}
			rebuilt := make([]*models.Card, 0, len(r.Discard))
			for _, c := range r.Discard {
				rebuilt = append(rebuilt, c.Clone())
			}
			r.rng.Shuffle(len(rebuilt), func(i, j int) {
				rebuilt[i], rebuilt[j] = rebuilt[j], rebuilt[i]
			})
			r.Deck = rebuilt
			r.Discard = nil
			if r.Logger != nil {
				r.Logger.WithField("room", r.ID).Infof("rebuilt draw pile from discard (%d cards)", len(rebuilt))
			}
		}
		last := len(r.Deck) - 1
		card := r.Deck[last]
		r.Deck = r.Deck[:last]
		drawn = append(drawn, card)
	}
	return drawn
}

// discardCard drops a card onto the discard pile, clearing any set
// assignment it carried.
func (r *Room) discardCard(card *models.Card) {
	card.AssignedColor = models.ColorNone
	r.Discard = append(r.Discard, card)
}

// HandleDrawTurnCards fulfills the turn's mandatory draw. A short draw
// (both piles empty) still counts as fulfilled so the turn can proceed.
func (r *Room) HandleDrawTurnCards(playerID uuid.UUID) error {
	if err := r.requireRunning(); err != nil {
		return err
	}
	if r.PendingReaction != nil || r.PendingPayment != nil {
		return fmt.Errorf("waiting on a pending %s", r.pendingName())
	}
	if r.PendingTurnDraw == nil || r.PendingTurnDraw.PlayerID != playerID {
		return fmt.Errorf("no draw pending for you")
	}
	p := r.getPlayerByID(playerID)
	if p == nil {
		return fmt.Errorf("you are not seated in this room")
	}
	cards := r.draw(r.PendingTurnDraw.Count)
	p.Hand = append(p.Hand, cards...)
	r.PendingTurnDraw = nil
	r.broadcastState()
	return nil
}

func (r *Room) requireRunning() error {
	if !r.Started {
		return fmt.Errorf("game has not started")
	}
	if r.WinnerID != uuid.Nil {
		return fmt.Errorf("game is over")
	}
	return nil
}

func (r *Room) pendingName() string {
	if r.PendingReaction != nil {
		return "reaction"
	}
	return "payment"
}

// HandlePlayCard validates and resolves one card play. On any validation
// failure the card returns to the hand untouched and no play is consumed.
func (r *Room) HandlePlayCard(playerID uuid.UUID, intent models.PlayCardIntent) error {
	if err := r.requireRunning(); err != nil {
		return err
	}
	cur := r.currentPlayer()
	if cur == nil || cur.ID != playerID {
		return fmt.Errorf("it's not your turn")
	}
	if r.PendingReaction != nil || r.PendingPayment != nil {
		return fmt.Errorf("waiting on a pending %s", r.pendingName())
	}
	if r.PendingTurnDraw != nil {
		return fmt.Errorf("draw your turn cards first")
	}
	if r.CardsPlayedThisTurn >= MaxPlaysPerTurn {
		return fmt.Errorf("you have already played %d cards this turn", MaxPlaysPerTurn)
	}

	card := removeFromHand(cur, intent.CardID)
	if card == nil {
		return fmt.Errorf("card %d is not in your hand", intent.CardID)
	}

	var err error
	switch {
	case intent.Mode == models.PlayToBank:
		// Banking is always legal, rent cards included.
		depositToBank(cur, card)
	case card.Category == models.CategoryRent:
		err = r.playRent(cur, card, intent)
	case intent.Mode == models.PlayToProperty:
		err = r.playToProperty(cur, card, intent)
	case intent.Mode == models.PlayAsAction:
		err = r.playAction(cur, card, intent)
	default:
		err = fmt.Errorf("unknown play mode %q", intent.Mode)
	}

	if err != nil {
		// Restore the hand exactly as it was before validation touched it.
		cur.Hand = append(cur.Hand, card)
		return err
	}

	r.CardsPlayedThisTurn++
	r.checkWinner()
	r.broadcastState()
	return nil
}

// playToProperty handles mode "property": native properties, wildcards
// with color choice, and buildings onto full buildable sets.
func (r *Room) playToProperty(p *models.Player, card *models.Card, intent models.PlayCardIntent) error {
	switch {
	case card.Category == models.CategoryProperty:
		placeProperty(p, card.NativeColor(), card)
		return nil

	case card.Category == models.CategoryWildcard:
		color := intent.ChosenColor
		if !isConcreteColor(color) || !card.HasColorAffinity(color) {
			color = card.NativeColor()
		}
		if !isConcreteColor(color) {
			// Ten-color wildcard without a usable choice: first color wins.
			color = models.Colors[0]
		}
		placeProperty(p, color, card)
		return nil

	case card.IsBuilding():
		color := intent.SetColor
		group := p.Properties[color]
		if !isConcreteColor(color) || !CanAttachBuilding(group, color) {
			return fmt.Errorf("%s needs a completed set of a buildable color", card.Name)
		}
		if card.ActionKind == models.ActionHotel && !groupHasBuilding(group, models.ActionHouse) {
			return fmt.Errorf("a hotel needs a house on the set first")
		}
		placeProperty(p, color, card)
		return nil
	}
	return fmt.Errorf("%s cannot be played as a property", card.Name)
}

func isConcreteColor(c models.Color) bool {
	for _, col := range models.Colors {
		if col == c {
			return true
		}
	}
	return false
}

func groupHasBuilding(group []*models.Card, kind models.ActionKind) bool {
	for _, c := range group {
		if c.ActionKind == kind {
			return true
		}
	}
	return false
}

// playAction handles mode "action" for category action cards.
func (r *Room) playAction(p *models.Player, card *models.Card, intent models.PlayCardIntent) error {
	if card.Category != models.CategoryAction {
		return fmt.Errorf("%s cannot be played as an action", card.Name)
	}

	switch card.ActionKind {
	case models.ActionJustSayNo:
		return fmt.Errorf("Just Say No can only answer an action played against you")

	case models.ActionHouse, models.ActionHotel:
		return fmt.Errorf("play %s onto a property set instead", card.Name)

	case models.ActionPassGo:
		r.discardCard(card)
		p.Hand = append(p.Hand, r.draw(2)...)
		return nil

	case models.ActionDoubleRent:
		r.discardCard(card)
		p.Effects.RentMultiplier = 2
		r.notice(fmt.Sprintf("%s will charge double on their next rent", p.Name))
		return nil

	case models.ActionBirthday:
		var targets []uuid.UUID
		var charges []PaymentEntry
		for _, other := range r.Players {
			if other.ID == p.ID {
				continue
			}
			targets = append(targets, other.ID)
			charges = append(charges, PaymentEntry{PayerID: other.ID, Amount: birthdayAmount})
		}
		if len(targets) == 0 {
			return fmt.Errorf("no opponents to collect from")
		}
		r.discardCard(card)
		r.notice(fmt.Sprintf("%s says it's their birthday: %d from everyone", p.Name, birthdayAmount))
		r.beginReaction(p.ID, targets, card.ActionKind, reactionEffect{Charges: charges})
		return nil

	case models.ActionDebtCollector:
		target, err := r.opposingTarget(p, intent.TargetPlayerID)
		if err != nil {
			return err
		}
		r.discardCard(card)
		r.notice(fmt.Sprintf("%s sends the debt collector to %s for %d", p.Name, target.Name, debtCollectorAmount))
		r.beginReaction(p.ID, []uuid.UUID{target.ID}, card.ActionKind, reactionEffect{
			Charges: []PaymentEntry{{PayerID: target.ID, Amount: debtCollectorAmount}},
		})
		return nil

	case models.ActionSlyDeal:
		target, err := r.opposingTarget(p, intent.TargetPlayerID)
		if err != nil {
			return err
		}
		r.discardCard(card)
		r.notice(fmt.Sprintf("%s attempts a sly deal on %s", p.Name, target.Name))
		r.beginReaction(p.ID, []uuid.UUID{target.ID}, card.ActionKind, reactionEffect{
			TargetCardID: intent.TargetCardID,
		})
		return nil

	case models.ActionForcedDeal:
		target, err := r.opposingTarget(p, intent.TargetPlayerID)
		if err != nil {
			return err
		}
		r.discardCard(card)
		r.notice(fmt.Sprintf("%s attempts a forced deal with %s", p.Name, target.Name))
		r.beginReaction(p.ID, []uuid.UUID{target.ID}, card.ActionKind, reactionEffect{
			TargetCardID: intent.TargetCardID,
			ActorCardID:  intent.ActorCardID,
		})
		return nil

	case models.ActionDealBreaker:
		target, err := r.opposingTarget(p, intent.TargetPlayerID)
		if err != nil {
			return err
		}
		r.discardCard(card)
		r.notice(fmt.Sprintf("%s attempts to break one of %s's sets", p.Name, target.Name))
		r.beginReaction(p.ID, []uuid.UUID{target.ID}, card.ActionKind, reactionEffect{
			SetColor: intent.SetColor,
		})
		return nil
	}
	return fmt.Errorf("%s has no playable effect", card.Name)
}

// opposingTarget resolves a required opponent target id. Targeting
// yourself or nobody is a validation error.
func (r *Room) opposingTarget(p *models.Player, targetID uuid.UUID) (*models.Player, error) {
	if targetID == uuid.Nil || targetID == p.ID {
		return nil, fmt.Errorf("this card needs an opponent as its target")
	}
	target := r.getPlayerByID(targetID)
	if target == nil {
		return nil, fmt.Errorf("target player is not in this room")
	}
	return target, nil
}

// playRent handles category rent: validates target and color, applies the
// single-use rent multiplier, and opens the reaction window.
func (r *Room) playRent(p *models.Player, card *models.Card, intent models.PlayCardIntent) error {
	target, err := r.opposingTarget(p, intent.TargetPlayerID)
	if err != nil {
		return err
	}
	color := intent.RentColor
	if !isConcreteColor(color) || !card.HasRentAffinity(color) {
		return fmt.Errorf("choose one of this rent card's colors")
	}
	group := p.Properties[color]
	if len(group) == 0 {
		return fmt.Errorf("you own no %s properties to charge rent on", color)
	}

	amount := RentDue(group, color) * p.Effects.RentMultiplier
	p.Effects.RentMultiplier = 1
	r.discardCard(card)
	r.notice(fmt.Sprintf("%s charges %s %d rent on %s", p.Name, target.Name, amount, color))
	r.beginReaction(p.ID, []uuid.UUID{target.ID}, reactionRent, reactionEffect{
		Charges: []PaymentEntry{{PayerID: target.ID, Amount: amount}},
	})
	return nil
}

// beginReaction installs the single reaction window and schedules its
// expiry. Any prior reaction is superseded and its timer cancelled.
// Assumes Mu is held.
func (r *Room) beginReaction(sourceID uuid.UUID, targets []uuid.UUID, kind models.ActionKind, effect reactionEffect) {
	r.stopReactionTimer()
	reaction := &PendingReaction{
		ID:        uuid.New(),
		SourceID:  sourceID,
		TargetIDs: targets,
		Kind:      kind,
		Effect:    effect,
		ExpiresAt: time.Now().Add(r.ReactionWindow),
	}
	r.PendingReaction = reaction

	reactionID := reaction.ID
	r.reactionTimer = time.AfterFunc(r.ReactionWindow, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		// Stale timers for superseded or already-resolved reactions are
		// no-ops; resolveReaction checks the id.
		r.resolveReaction(reactionID, false)
	})
}

func (r *Room) stopReactionTimer() {
	if r.reactionTimer != nil {
		r.reactionTimer.Stop()
		r.reactionTimer = nil
	}
}

// HandleJustSayNo spends a target's counter card against the pending
// reaction. Only one counter is consumed; the first to act wins.
func (r *Room) HandleJustSayNo(playerID uuid.UUID) error {
	if err := r.requireRunning(); err != nil {
		return err
	}
	reaction := r.PendingReaction
	if reaction == nil {
		return fmt.Errorf("there is nothing to say no to")
	}
	if !reaction.targets(playerID) {
		return fmt.Errorf("that action is not aimed at you")
	}
	p := r.getPlayerByID(playerID)
	if p == nil {
		return fmt.Errorf("you are not seated in this room")
	}
	var jsn *models.Card
	for _, c := range p.Hand {
		if c.ActionKind == models.ActionJustSayNo {
			jsn = c
			break
		}
	}
	if jsn == nil {
		return fmt.Errorf("you have no Just Say No card")
	}
	removeFromHand(p, jsn.ID)
	r.discardCard(jsn)
	r.notice(fmt.Sprintf("%s just says no!", p.Name))
	r.resolveReaction(reaction.ID, true)
	return nil
}

// resolveReaction finishes the reaction identified by id. Idempotent: a
// stale call (timer firing twice, timer racing a counter) is a no-op.
// Assumes Mu is held.
func (r *Room) resolveReaction(id uuid.UUID, cancelled bool) {
	reaction := r.PendingReaction
	if reaction == nil || reaction.ID != id {
		return
	}
	r.stopReactionTimer()
	r.PendingReaction = nil

	if !cancelled {
		r.applyReactionEffect(reaction)
		r.checkWinner()
	}
	r.broadcastState()
}

// applyReactionEffect executes the recorded payload against the table.
// Missing players (departed mid-window) degrade to partial or no effect,
// never to an error. Assumes Mu is held.
func (r *Room) applyReactionEffect(reaction *PendingReaction) {
	source := r.getPlayerByID(reaction.SourceID)
	if source == nil {
		return
	}

	switch reaction.Kind {
	case models.ActionBirthday, models.ActionDebtCollector, reactionRent:
		var entries []PaymentEntry
		for _, e := range reaction.Effect.Charges {
			if r.getPlayerByID(e.PayerID) != nil {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			r.notice("nobody is left to pay")
			return
		}
		r.beginPayment(source.ID, entries)

	case models.ActionSlyDeal:
		r.applySlyDeal(source, reaction)

	case models.ActionForcedDeal:
		r.applyForcedDeal(source, reaction)

	case models.ActionDealBreaker:
		r.applyDealBreaker(source, reaction)
	}
}

// pickStealable honors the caller's card preference, falling back to the
// first eligible card when the preference is absent or ineligible.
func pickStealable(p *models.Player, preferredID int) *models.Card {
	eligible := stealableCards(p)
	if len(eligible) == 0 {
		return nil
	}
	for _, c := range eligible {
		if c.ID == preferredID {
			return c
		}
	}
	return eligible[0]
}

func (r *Room) applySlyDeal(source *models.Player, reaction *PendingReaction) {
	target := r.firstTarget(reaction)
	if target == nil {
		return
	}
	card := pickStealable(target, reaction.Effect.TargetCardID)
	if card == nil {
		r.notice(fmt.Sprintf("%s has nothing %s can slyly take", target.Name, source.Name))
		return
	}
	removeFromTable(target, card.ID)
	deposit(source, card)
	r.notice(fmt.Sprintf("%s slyly takes %s from %s", source.Name, card.Name, target.Name))
}

func (r *Room) applyForcedDeal(source *models.Player, reaction *PendingReaction) {
	target := r.firstTarget(reaction)
	if target == nil {
		return
	}
	theirs := pickStealable(target, reaction.Effect.TargetCardID)
	ours := pickStealable(source, reaction.Effect.ActorCardID)
	if theirs == nil || ours == nil {
		r.notice(fmt.Sprintf("the forced deal between %s and %s falls through", source.Name, target.Name))
		return
	}
	removeFromTable(target, theirs.ID)
	removeFromTable(source, ours.ID)
	deposit(source, theirs)
	deposit(target, ours)
	r.notice(fmt.Sprintf("%s swaps %s for %s's %s", source.Name, ours.Name, target.Name, theirs.Name))
}

func (r *Room) applyDealBreaker(source *models.Player, reaction *PendingReaction) {
	target := r.firstTarget(reaction)
	if target == nil {
		return
	}
	full := fullSetColors(target)
	if len(full) == 0 {
		r.notice(fmt.Sprintf("%s has no completed set for %s to break", target.Name, source.Name))
		return
	}
	color := full[0]
	for _, c := range full {
		if c == reaction.Effect.SetColor {
			color = c
			break
		}
	}
	group := target.Properties[color]
	target.Properties[color] = []*models.Card{}
	for _, card := range group {
		// The whole group moves as-is, buildings included.
		placeProperty(source, color, card)
	}
	r.notice(fmt.Sprintf("%s breaks %s's %s set", source.Name, target.Name, color))
}

func (r *Room) firstTarget(reaction *PendingReaction) *models.Player {
	for _, id := range reaction.TargetIDs {
		if p := r.getPlayerByID(id); p != nil {
			return p
		}
	}
	return nil
}

// beginPayment installs the payment queue. Entries whose payer has
// already left settle themselves at 0. Assumes Mu is held.
func (r *Room) beginPayment(receiverID uuid.UUID, entries []PaymentEntry) {
	r.PendingPayment = &PendingPayment{
		ID:         uuid.New(),
		ReceiverID: receiverID,
		Queue:      entries,
	}
	r.advancePaymentQueue()
}

// advancePaymentQueue skips departed payers and closes the payment when
// the queue drains. Assumes Mu is held.
func (r *Room) advancePaymentQueue() {
	pay := r.PendingPayment
	if pay == nil {
		return
	}
	zero := 0
	for pay.Index < len(pay.Queue) {
		entry := &pay.Queue[pay.Index]
		if entry.Paid != nil {
			pay.Index++
			continue
		}
		if r.getPlayerByID(entry.PayerID) == nil {
			entry.Paid = &zero
			pay.Index++
			continue
		}
		break
	}
	if pay.Index >= len(pay.Queue) {
		r.finishPayment()
	}
}

func (r *Room) finishPayment() {
	pay := r.PendingPayment
	r.PendingPayment = nil
	if pay == nil {
		return
	}
	total := 0
	for _, e := range pay.Queue {
		if e.Paid != nil {
			total += *e.Paid
		}
	}
	if receiver := r.getPlayerByID(pay.ReceiverID); receiver != nil {
		r.notice(fmt.Sprintf("%s collected %d in total", receiver.Name, total))
	}
	r.checkWinner()
}

// HandleSubmitPayment settles the current debtor's selection. Submissions
// for a stale payment id are silent no-ops; submissions by anyone but the
// queue's current payer are rejected.
func (r *Room) HandleSubmitPayment(playerID uuid.UUID, paymentID uuid.UUID, cardIDs []int) error {
	if err := r.requireRunning(); err != nil {
		return err
	}
	pay := r.PendingPayment
	if pay == nil || pay.ID != paymentID {
		return nil
	}
	if pay.CurrentPayer() != playerID {
		return fmt.Errorf("it's not your turn to pay")
	}
	payer := r.getPlayerByID(playerID)
	receiver := r.getPlayerByID(pay.ReceiverID)
	if payer == nil || receiver == nil {
		// Structural inconsistency; let the queue clean itself up.
		r.advancePaymentQueue()
		r.broadcastState()
		return nil
	}

	entry := &pay.Queue[pay.Index]
	result, err := ResolvePayment(payer, receiver, entry.Amount, cardIDs)
	if err != nil {
		return err
	}
	paid := result.Paid
	entry.Paid = &paid
	r.notice(fmt.Sprintf("%s pays %s %d of %d", payer.Name, receiver.Name, result.Paid, result.Requested))
	pay.Index++
	r.advancePaymentQueue()
	r.broadcastState()
	return nil
}

// HandleMoveWildcard relocates an already-placed wildcard to another of
// its colors. Free (no play consumed), current player only.
func (r *Room) HandleMoveWildcard(playerID uuid.UUID, cardID int, newColor models.Color) error {
	if err := r.requireRunning(); err != nil {
		return err
	}
	cur := r.currentPlayer()
	if cur == nil || cur.ID != playerID {
		return fmt.Errorf("it's not your turn")
	}
	if r.PendingReaction != nil || r.PendingPayment != nil {
		return fmt.Errorf("waiting on a pending %s", r.pendingName())
	}
	if !isConcreteColor(newColor) {
		return fmt.Errorf("unknown color %q", newColor)
	}
	card := findTableCard(cur, cardID)
	if card == nil || card.Category != models.CategoryWildcard {
		return fmt.Errorf("card %d is not one of your placed wildcards", cardID)
	}
	if !card.HasColorAffinity(newColor) {
		return fmt.Errorf("that wildcard cannot stand in for %s", newColor)
	}
	if card.AssignedColor == newColor {
		return nil
	}
	removeFromGroup(cur, card.AssignedColor, card.ID)
	placeProperty(cur, newColor, card)
	r.checkWinner()
	r.broadcastState()
	return nil
}

// HandleEndTurn closes the turn, enforcing the hand cap, and hands play
// to the next seat.
func (r *Room) HandleEndTurn(playerID uuid.UUID) error {
	if err := r.requireRunning(); err != nil {
		return err
	}
	cur := r.currentPlayer()
	if cur == nil || cur.ID != playerID {
		return fmt.Errorf("it's not your turn")
	}
	if r.PendingReaction != nil || r.PendingPayment != nil {
		return fmt.Errorf("waiting on a pending %s", r.pendingName())
	}
	if r.PendingTurnDraw != nil {
		return fmt.Errorf("draw your turn cards first")
	}

	// Excess cards are discarded from the end of the hand.
	for len(cur.Hand) > HandLimit {
		last := len(cur.Hand) - 1
		card := cur.Hand[last]
		cur.Hand = cur.Hand[:last]
		r.discardCard(card)
	}

	r.CurrentPlayerIndex = (r.CurrentPlayerIndex + 1) % len(r.Players)
	r.startTurn()
	return nil
}

// checkWinner declares the first player holding three full sets and
// freezes the room. Assumes Mu is held.
func (r *Room) checkWinner() {
	if r.WinnerID != uuid.Nil {
		return
	}
	for _, p := range r.Players {
		if HasWon(p) {
			r.WinnerID = p.ID
			r.stopReactionTimer()
			r.PendingReaction = nil
			r.PendingPayment = nil
			r.PendingTurnDraw = nil
			r.notice(fmt.Sprintf("%s wins with three completed sets!", p.Name))
			if r.Logger != nil {
				r.Logger.WithFields(logrus.Fields{"room": r.ID, "winner": p.ID}).Info("game over")
			}
			return
		}
	}
}

// RemovePlayer unseats a player (disconnect or leave), fixing up turn
// order, any pending reaction or payment, and host assignment. Assumes
// Mu is held.
func (r *Room) RemovePlayer(playerID uuid.UUID) {
	idx := r.playerIndex(playerID)
	if idx < 0 {
		return
	}
	wasCurrent := r.Started && idx == r.CurrentPlayerIndex
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if len(r.Players) == 0 {
		r.teardown()
		return
	}

	if r.HostID == playerID {
		r.HostID = r.Players[0].ID
	}
	if idx < r.CurrentPlayerIndex {
		r.CurrentPlayerIndex--
	}
	if r.CurrentPlayerIndex >= len(r.Players) {
		r.CurrentPlayerIndex = 0
	}

	if reaction := r.PendingReaction; reaction != nil {
		if reaction.SourceID == playerID {
			// The effect has no author anymore; resolve as cancelled.
			r.resolveReaction(reaction.ID, true)
		} else if reaction.targets(playerID) {
			r.resolveReaction(reaction.ID, false)
		}
	}

	if pay := r.PendingPayment; pay != nil {
		if pay.ReceiverID == playerID {
			r.PendingPayment = nil
			r.notice("the debt collection lapsed")
		} else {
			zero := 0
			for i := range pay.Queue {
				if pay.Queue[i].PayerID == playerID && pay.Queue[i].Paid == nil {
					pay.Queue[i].Paid = &zero
				}
			}
			r.advancePaymentQueue()
		}
	}

	if pending := r.PendingTurnDraw; pending != nil && pending.PlayerID == playerID {
		r.PendingTurnDraw = nil
	}

	if wasCurrent && r.WinnerID == uuid.Nil {
		r.startTurn()
	} else {
		r.broadcastState()
	}
}

// teardown releases the room: timers stopped, store notified.
func (r *Room) teardown() {
	r.stopReactionTimer()
	r.PendingReaction = nil
	r.PendingPayment = nil
	if r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}

// notice sends a public narrative line to every seated player.
func (r *Room) notice(message string) {
	if r.BroadcastToPlayerFn == nil {
		return
	}
	ev := RoomEvent{Type: EventNotice, Message: message}
	for _, p := range r.Players {
		r.BroadcastToPlayerFn(p.ID, ev)
	}
}

// broadcastState sends each seated player their own view of the room.
func (r *Room) broadcastState() {
	if r.BroadcastToPlayerFn == nil {
		return
	}
	for _, p := range r.Players {
		snap := r.Snapshot(p.ID)
		r.BroadcastToPlayerFn(p.ID, RoomEvent{Type: EventRoomState, State: &snap})
	}
}
