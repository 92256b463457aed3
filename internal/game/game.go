// Package game implements the per-table Pineapple hold'em engine: blind
// posting, the discard rule, betting rounds, turn timers, showdown and
// hand rotation. A Game covers one table session (many hands) and is
// always driven under its table's lock; the lock is injected so timer
// callbacks can serialize with request handlers.
package game

import (
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/c32poker/pineapple/internal/deck"
	"github.com/c32poker/pineapple/internal/poker"
	"github.com/c32poker/pineapple/internal/randutil"
)

// MaxSeats is the hard seat limit per table.
const MaxSeats = 8

// NoSeat marks the absence of a seat (no current actor, unseated player).
const NoSeat = -1

// nextHandDelay is the gap between hand settlement and the next deal.
const nextHandDelay = 5 * time.Second

var (
	ErrNotEnoughPlayers = errors.New("game: need at least 2 players with chips")
	ErrHandInProgress   = errors.New("game: hand already in progress")
	ErrNoHand           = errors.New("game: no hand in progress")
	ErrInvalidSeat      = errors.New("game: invalid seat")
	ErrSeatTaken        = errors.New("game: seat is taken")
	ErrNotInHand        = errors.New("game: player is not in this hand")
	ErrNotYourTurn      = errors.New("game: not your turn")
	ErrMustDiscard      = errors.New("game: must discard a card before betting")
	ErrAlreadyDiscarded = errors.New("game: already discarded")
	ErrInvalidCardIndex = errors.New("game: invalid card index")
	ErrCannotCheck      = errors.New("game: cannot check against a bet")
	ErrRaiseTooSmall    = errors.New("game: raise below minimum")
	ErrInsufficientChip = errors.New("game: not enough chips")
	ErrNotShowdown      = errors.New("game: hand is not at showdown")
)

// Hooks connect the engine to the room and hub layers. Every hook is
// invoked with the table lock held and must not block or call back into
// the engine; fan-out goes through buffered sends.
type Hooks struct {
	// OnUpdate fires once per accepted mutation with a fresh snapshot.
	OnUpdate func(st *State, reason string, isKey bool)
	// OnHand delivers a player's private cards after dealing or discarding.
	OnHand func(player string, hand []deck.Card, discarded *deck.Card)
	// OnResult fires when a hand settles.
	OnResult func(res HandResult)
	// OnGap fires at the hand boundary, after pending buy-ins are applied
	// and leavers unseated, before the next hand is dealt.
	OnGap func()
	// OnPause fires when fewer than 2 playable seats remain at a boundary.
	OnPause func()
	// OnSessionEnd fires when the session deadline has passed at a boundary.
	OnSessionEnd func()
}

// Config carries the table parameters and runtime plumbing for a Game.
type Config struct {
	SmallBlind Chips
	BigBlind   Chips
	MaxSeats   int
	TurnTime   time.Duration
	Seed       int64 // 0 seeds from the wall clock
	Logger     *log.Logger
	Clock      quartz.Clock
	Locker     sync.Locker
	Hooks      Hooks
}

// Game is the betting state machine for one table session.
type Game struct {
	logger *log.Logger
	clock  quartz.Clock
	rng    *rand.Rand
	mu     sync.Locker
	hooks  Hooks

	smallBlind Chips
	bigBlind   Chips
	maxSeats   int
	turnTime   time.Duration
	deadline   time.Time

	seats map[int]*Player

	handID      string
	deck        *deck.Deck
	community   []deck.Card
	pot         Chips
	currentBet  Chips
	round       int
	phase       Phase
	dealer      int
	current     int
	turnStart   time.Time
	handsPlayed int
	winners     []Winner
	history     []HandEvent

	gen       uint64
	turnTimer *quartz.Timer
	gapTimer  *quartz.Timer
	stopped   bool
}

// New creates an idle Game. Seats are added with Seat; the first hand
// starts with StartRound.
func New(cfg Config) *Game {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Locker == nil {
		cfg.Locker = &sync.Mutex{}
	}
	if cfg.MaxSeats <= 0 || cfg.MaxSeats > MaxSeats {
		cfg.MaxSeats = MaxSeats
	}
	if cfg.TurnTime <= 0 {
		cfg.TurnTime = 30 * time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Game{
		logger:     cfg.Logger.WithPrefix("game"),
		clock:      cfg.Clock,
		rng:        randutil.New(seed),
		mu:         cfg.Locker,
		hooks:      cfg.Hooks,
		smallBlind: cfg.SmallBlind,
		bigBlind:   cfg.BigBlind,
		maxSeats:   cfg.MaxSeats,
		turnTime:   cfg.TurnTime,
		seats:      make(map[int]*Player),
		phase:      PhaseWaiting,
		dealer:     NoSeat,
		current:    NoSeat,
	}
}

// SetDeadline sets the session deadline checked at hand boundaries.
func (g *Game) SetDeadline(t time.Time) {
	g.deadline = t
}

// SetDealer places the button. The next hand is dealt with this seat as
// dealer if it is still playable.
func (g *Game) SetDealer(seat int) {
	g.dealer = seat
}

// Seat places a player at a seat. During a live hand the player is seated
// but joins play at the next deal.
func (g *Game) Seat(p *Player, seat int) error {
	if seat < 0 || seat >= g.maxSeats {
		return ErrInvalidSeat
	}
	if _, taken := g.seats[seat]; taken {
		return ErrSeatTaken
	}
	if p.Seat != NoSeat {
		delete(g.seats, p.Seat)
	}
	p.Seat = seat
	g.seats[seat] = p
	return nil
}

// Unseat removes a player from their seat.
func (g *Game) Unseat(seat int) {
	if p, ok := g.seats[seat]; ok {
		p.Seat = NoSeat
		p.InHand = false
		delete(g.seats, seat)
	}
}

// PlayerAt returns the player at a seat, if any.
func (g *Game) PlayerAt(seat int) (*Player, bool) {
	p, ok := g.seats[seat]
	return p, ok
}

// Phase returns the current coarse phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// InHand reports whether a hand is currently being played out.
func (g *Game) InHand() bool {
	return g.phase == PhasePlaying
}

// PlayableSeats counts seated, online players with chips.
func (g *Game) PlayableSeats() int {
	n := 0
	for _, p := range g.seats {
		if p.Online && p.Chips > 0 {
			n++
		}
	}
	return n
}

// StartRound deals the first hand of a session, or the next hand after a
// pause. Fails unless at least 2 playable seats exist.
func (g *Game) StartRound() error {
	if g.stopped {
		return ErrNoHand
	}
	if g.phase == PhasePlaying {
		return ErrHandInProgress
	}
	playable := g.playableSeatNumbers()
	if len(playable) < 2 {
		return ErrNotEnoughPlayers
	}
	if g.dealer == NoSeat || !g.isPlayable(g.dealer) {
		g.dealer = playable[g.rng.IntN(len(playable))]
	}
	g.startHand()
	return nil
}

// startHand deals a hand to every playable seat. Caller has validated
// that at least 2 exist.
func (g *Game) startHand() {
	g.handID = uuid.NewString()
	g.deck = deck.NewSeeded(g.rng.Int64())
	g.deck.Shuffle()
	g.community = nil
	g.pot = 0
	g.currentBet = 0
	g.round = RoundPreflop
	g.phase = PhasePlaying
	g.winners = nil
	g.handsPlayed++

	for _, p := range g.seats {
		p.resetForHand()
		if p.Online && p.Chips > 0 {
			p.InHand = true
		}
	}
	for _, s := range g.handSeats() {
		g.seats[s].HoleCards = g.deck.DealN(3)
	}

	sb, bb := g.blindSeats()
	g.post(g.seats[sb], g.smallBlind)
	g.record(sb, "small_blind", g.seats[sb].Bet, "")
	g.post(g.seats[bb], g.bigBlind)
	g.record(bb, "big_blind", g.seats[bb].Bet, "")
	g.currentBet = g.bigBlind

	first := g.firstToActPreflop(bb)
	if first == NoSeat {
		// Blinds put everyone all-in.
		g.runOutBoard()
		g.settle()
	} else {
		g.setCurrent(first)
	}

	g.logger.Info("hand started",
		"hand", g.handID, "dealer", g.dealer, "players", len(g.handSeats()))

	for _, s := range g.handSeats() {
		g.emitHand(g.seats[s])
	}
	g.emitUpdate("hand_started", true)
}

// blindSeats resolves the small and big blind seats. Heads-up the dealer
// posts the small blind.
func (g *Game) blindSeats() (sb, bb int) {
	hs := g.handSeats()
	if len(hs) == 2 {
		sb = g.dealer
		bb = hs[0]
		if bb == sb {
			bb = hs[1]
		}
		return sb, bb
	}
	sb = g.nextSeatWith(g.dealer, func(p *Player) bool { return p.InHand })
	bb = g.nextSeatWith(sb, func(p *Player) bool { return p.InHand })
	return sb, bb
}

func (g *Game) firstToActPreflop(bb int) int {
	if len(g.handSeats()) == 2 {
		if g.seats[g.dealer].canAct() {
			return g.dealer
		}
		return g.nextSeatWith(g.dealer, func(p *Player) bool { return p.canAct() })
	}
	return g.nextSeatWith(bb, func(p *Player) bool { return p.canAct() })
}

// firstToActPostflop picks the opening actor for flop, turn and river:
// first non-all-in active seat after the dealer, or the non-dealer
// heads-up.
func (g *Game) firstToActPostflop() int {
	hs := g.handSeats()
	if len(hs) == 2 {
		for _, s := range hs {
			if s != g.dealer && g.seats[s].canAct() {
				return s
			}
		}
		if p, ok := g.seats[g.dealer]; ok && p.canAct() {
			return g.dealer
		}
		return NoSeat
	}
	return g.nextSeatWith(g.dealer, func(p *Player) bool { return p.canAct() })
}

// HandleAction applies a wagering action for a seat. The amount is the
// raise-to total for Bet/Raise and ignored otherwise.
func (g *Game) HandleAction(seat int, action Action, amount Chips) error {
	if g.phase != PhasePlaying {
		return ErrNoHand
	}
	p, ok := g.seats[seat]
	if !ok || !p.InHand {
		return ErrNotInHand
	}
	if p.Folded {
		return ErrNotInHand
	}
	if seat != g.current {
		return ErrNotYourTurn
	}
	if len(p.HoleCards) == 3 {
		return ErrMustDiscard
	}

	switch action {
	case Fold:
		p.Folded = true
		p.Acted = true
		p.LastAction = "fold"
		g.record(seat, "fold", 0, "")

	case Check:
		if p.Bet != g.currentBet {
			return ErrCannotCheck
		}
		p.Acted = true
		p.LastAction = "check"
		g.record(seat, "check", 0, "")

	case Call:
		owed := g.currentBet - p.Bet
		if owed <= 0 {
			return g.HandleAction(seat, Check, 0)
		}
		if owed >= p.Chips {
			// Short call silently upgrades to all-in.
			return g.HandleAction(seat, AllIn, 0)
		}
		g.post(p, owed)
		p.Acted = true
		p.LastAction = "call"
		g.record(seat, "call", owed, "")

	case Bet, Raise:
		if amount <= g.currentBet {
			return ErrRaiseTooSmall
		}
		if amount > p.Chips+p.Bet {
			return ErrInsufficientChip
		}
		push := amount == p.Chips+p.Bet
		minRaise := g.currentBet * 2
		if g.currentBet == 0 {
			minRaise = g.bigBlind
		}
		if !push && amount < minRaise {
			return ErrRaiseTooSmall
		}
		g.post(p, amount-p.Bet)
		g.currentBet = p.Bet
		g.resetActedExcept(seat)
		p.Acted = true
		p.LastAction = action.String()
		g.record(seat, action.String(), amount, "")

	case AllIn:
		g.post(p, p.Chips)
		if p.Bet > g.currentBet {
			g.currentBet = p.Bet
			g.resetActedExcept(seat)
		}
		p.Acted = true
		p.LastAction = "all-in"
		g.record(seat, "all-in", p.Bet, "")

	default:
		return fmt.Errorf("game: unknown action %d", action)
	}

	g.stopTurnTimer()
	g.advance()
	if g.phase == PhaseComplete {
		g.emitUpdate("hand_complete", true)
	} else {
		g.emitUpdate(p.LastAction, true)
	}
	return nil
}

// HandleDiscard removes one of a seat's three hole cards. Any in-hand seat
// may discard at any point before its first wagering action, on or off
// turn; the turn does not advance.
func (g *Game) HandleDiscard(seat, index int) error {
	if g.phase != PhasePlaying {
		return ErrNoHand
	}
	p, ok := g.seats[seat]
	if !ok || !p.active() {
		return ErrNotInHand
	}
	if p.HasDiscarded || len(p.HoleCards) != 3 {
		return ErrAlreadyDiscarded
	}
	if index < 0 || index >= len(p.HoleCards) {
		return ErrInvalidCardIndex
	}

	card := p.HoleCards[index]
	p.HoleCards = append(p.HoleCards[:index], p.HoleCards[index+1:]...)
	p.DiscardedCard = &card
	p.HasDiscarded = true
	p.LastAction = "discard"
	g.record(seat, "discard", Chips(index), "")

	g.emitHand(p)
	g.emitUpdate("player_discarded", true)
	return nil
}

// ShowCard reveals one of a seat's hole cards to the room after the hand
// completes.
func (g *Game) ShowCard(seat, index int) error {
	if g.phase != PhaseComplete {
		return ErrNotShowdown
	}
	p, ok := g.seats[seat]
	if !ok || !p.InHand {
		return ErrNotInHand
	}
	if index < 0 || index >= len(p.HoleCards) {
		return ErrInvalidCardIndex
	}
	card := p.HoleCards[index]
	for _, shown := range p.ShownCards {
		if shown == card {
			return nil
		}
	}
	p.ShownCards = append(p.ShownCards, card)
	g.record(seat, "show_card", 0, card.Display())
	g.emitUpdate("card_shown", false)
	return nil
}

// advance moves the turn forward after an accepted action: settle if the
// hand is decided, close the round if no action is owed, otherwise pass
// the turn to the next actor.
func (g *Game) advance() {
	if g.countActive() == 1 {
		g.settle()
		return
	}
	if g.bettingClosed() {
		g.closeRound()
		return
	}
	next := g.nextSeatWith(g.current, func(p *Player) bool { return p.canAct() && !p.Acted })
	if next == NoSeat {
		g.closeRound()
		return
	}
	g.setCurrent(next)
}

// bettingClosed reports whether every non-all-in active seat has acted
// since the last raise and matched the current bet.
func (g *Game) bettingClosed() bool {
	for _, s := range g.handSeats() {
		p := g.seats[s]
		if !p.canAct() {
			continue
		}
		if !p.Acted || p.Bet != g.currentBet {
			return false
		}
	}
	return true
}

// closeRound folds bets into the pot and advances the street.
func (g *Game) closeRound() {
	g.collectBets()

	if g.round == RoundRiver {
		g.settle()
		return
	}
	if g.countCanAct() <= 1 {
		// No more action possible: run the board out and settle.
		g.runOutBoard()
		g.settle()
		return
	}

	g.round++
	g.dealCommunity()
	for _, s := range g.handSeats() {
		g.seats[s].Acted = false
	}
	g.setCurrent(g.firstToActPostflop())
}

func (g *Game) collectBets() {
	for _, p := range g.seats {
		g.pot += p.Bet
		p.Bet = 0
	}
	g.currentBet = 0
}

// dealCommunity burns one card, then deals three for the flop or one for
// the turn and river.
func (g *Game) dealCommunity() {
	g.deck.Burn()
	n := 1
	if g.round == RoundFlop {
		n = 3
	}
	g.community = append(g.community, g.deck.DealN(n)...)
}

func (g *Game) runOutBoard() {
	for g.round < RoundRiver {
		g.round++
		g.dealCommunity()
	}
}

// settle awards the pot, freezes the hand and schedules the next one.
// With uneven all-ins everything still goes to one shared pot; side pots
// are not implemented.
func (g *Game) settle() {
	g.stopTurnTimer()
	g.collectBets()
	g.current = NoSeat

	active := g.activeSeatNumbers()
	switch {
	case len(active) == 0:
		// Defensive: nothing to award.
	case len(active) == 1:
		s := active[0]
		p := g.seats[s]
		p.Chips += g.pot
		p.Winner = true
		g.winners = []Winner{{Seat: s, Name: p.Name, Amount: g.pot}}
		g.record(s, "win_by_default", g.pot, "")
	default:
		g.winners = g.showdown(active)
	}

	res := HandResult{HandID: g.handID, Pot: g.pot, Winners: g.winners}
	g.pot = 0
	g.phase = PhaseComplete
	g.logger.Info("hand settled", "hand", g.handID, "winners", len(g.winners))

	if g.hooks.OnResult != nil {
		g.hooks.OnResult(res)
	}
	g.scheduleNextHand()
}

// showdown evaluates every contesting seat and splits the pot among the
// best hands. The remainder goes one minor unit at a time to winners in
// seat order starting left of the dealer.
func (g *Game) showdown(active []int) []Winner {
	ranks := make(map[int]poker.Rank, len(active))
	best := -1
	for _, s := range active {
		cards := append(append([]deck.Card{}, g.seats[s].HoleCards...), g.community...)
		ranks[s] = poker.Evaluate(cards)
		if best == -1 || poker.Compare(ranks[s], ranks[best]) > 0 {
			best = s
		}
	}

	winnerSet := make(map[int]bool)
	for _, s := range active {
		if poker.Compare(ranks[s], ranks[best]) == 0 {
			winnerSet[s] = true
		}
	}

	ordered := g.seatsFromDealer(winnerSet)
	share := g.pot / Chips(len(ordered))
	rem := g.pot % Chips(len(ordered))

	winners := make([]Winner, 0, len(ordered))
	for i, s := range ordered {
		amount := share
		if Chips(i) < rem {
			amount++
		}
		p := g.seats[s]
		p.Chips += amount
		p.Winner = true
		winners = append(winners, Winner{Seat: s, Name: p.Name, Amount: amount, Hand: ranks[s].Desc})
		g.record(s, "win_showdown", amount, ranks[s].Desc)
	}
	return winners
}

// seatsFromDealer orders the given seats by seat number starting at
// dealer+1.
func (g *Game) seatsFromDealer(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for i := 1; i <= g.maxSeats; i++ {
		s := (g.dealer + i) % g.maxSeats
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

func (g *Game) scheduleNextHand() {
	if g.stopped {
		return
	}
	g.gen++
	gen := g.gen
	if g.gapTimer != nil {
		g.gapTimer.Stop()
	}
	g.gapTimer = g.clock.AfterFunc(nextHandDelay, func() {
		g.onGapTimer(gen)
	})
}

func (g *Game) onGapTimer(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("hand gap handler panicked", "panic", r)
		}
	}()
	if g.stopped || gen != g.gen {
		return
	}
	g.betweenHands()
}

// betweenHands runs the hand boundary: settle pending buy-ins, unseat
// leavers and offline seats, check the session deadline, then rotate the
// dealer and deal, or pause.
func (g *Game) betweenHands() {
	for _, s := range g.seatNumbers() {
		p := g.seats[s]
		if p.PendingBuyIn > 0 {
			p.Chips += p.PendingBuyIn
			p.PendingBuyIn = 0
		}
		if p.Leaving || !p.Online {
			g.Unseat(s)
		}
	}
	if g.hooks.OnGap != nil {
		g.hooks.OnGap()
	}

	if !g.deadline.IsZero() && !g.clock.Now().Before(g.deadline) {
		g.phase = PhaseWaiting
		g.logger.Info("session deadline reached")
		if g.hooks.OnSessionEnd != nil {
			g.hooks.OnSessionEnd()
		}
		return
	}

	playable := g.playableSeatNumbers()
	if len(playable) < 2 {
		g.phase = PhaseWaiting
		g.logger.Info("not enough players, pausing", "playable", len(playable))
		if g.hooks.OnPause != nil {
			g.hooks.OnPause()
		}
		return
	}

	g.rotateDealer()
	g.startHand()
}

// rotateDealer moves the button to the next seat with chips.
func (g *Game) rotateDealer() {
	next := g.nextSeatWith(g.dealer, func(p *Player) bool { return p.Online && p.Chips > 0 })
	if next != NoSeat {
		g.dealer = next
	}
}

// setCurrent hands the turn to a seat and arms its timer.
func (g *Game) setCurrent(seat int) {
	g.current = seat
	g.turnStart = g.clock.Now()
	g.armTurnTimer()
}

func (g *Game) armTurnTimer() {
	if g.stopped {
		return
	}
	g.gen++
	gen := g.gen
	seat := g.current
	if g.turnTimer != nil {
		g.turnTimer.Stop()
	}
	g.turnTimer = g.clock.AfterFunc(g.turnTime, func() {
		g.onTurnTimeout(gen, seat)
	})
}

func (g *Game) stopTurnTimer() {
	g.gen++
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
}

// onTurnTimeout auto-acts for a seat that ran out of time: a random
// discard first if one is still owed, then check if legal, else fold.
func (g *Game) onTurnTimeout(gen uint64, seat int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("turn timeout handler panicked", "seat", seat, "panic", r)
		}
	}()
	if g.stopped || gen != g.gen || g.phase != PhasePlaying || g.current != seat {
		return
	}
	p, ok := g.seats[seat]
	if !ok || !p.canAct() {
		return
	}

	g.logger.Info("turn timed out", "hand", g.handID, "seat", seat, "player", p.Name)
	g.record(seat, "timeout", 0, "")

	if len(p.HoleCards) == 3 {
		idx := g.rng.IntN(3)
		if err := g.HandleDiscard(seat, idx); err != nil {
			g.logger.Error("auto discard failed", "seat", seat, "error", err)
		}
	}

	if p.Bet == g.currentBet {
		_ = g.HandleAction(seat, Check, 0)
	} else {
		_ = g.HandleAction(seat, Fold, 0)
	}
}

// Stop cancels all timers and freezes the engine. Used at session end and
// room shutdown.
func (g *Game) Stop() {
	g.stopped = true
	g.gen++
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
	if g.gapTimer != nil {
		g.gapTimer.Stop()
		g.gapTimer = nil
	}
	if g.phase == PhasePlaying {
		g.phase = PhaseWaiting
	}
	g.current = NoSeat
}

// post moves up to amount from a player's stack into their round bet,
// flagging all-in when the stack empties.
func (g *Game) post(p *Player, amount Chips) Chips {
	if amount >= p.Chips {
		amount = p.Chips
		p.AllIn = true
	}
	p.Chips -= amount
	p.Bet += amount
	return amount
}

func (g *Game) resetActedExcept(seat int) {
	for _, s := range g.handSeats() {
		if s == seat {
			continue
		}
		if p := g.seats[s]; p.canAct() {
			p.Acted = false
		}
	}
}

// Seat iteration helpers. Seats are always walked in rising seat order.

func (g *Game) seatNumbers() []int {
	out := make([]int, 0, len(g.seats))
	for s := 0; s < g.maxSeats; s++ {
		if _, ok := g.seats[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (g *Game) handSeats() []int {
	out := make([]int, 0, len(g.seats))
	for s := 0; s < g.maxSeats; s++ {
		if p, ok := g.seats[s]; ok && p.InHand {
			out = append(out, s)
		}
	}
	return out
}

func (g *Game) activeSeatNumbers() []int {
	out := make([]int, 0, len(g.seats))
	for s := 0; s < g.maxSeats; s++ {
		if p, ok := g.seats[s]; ok && p.active() {
			out = append(out, s)
		}
	}
	return out
}

func (g *Game) playableSeatNumbers() []int {
	out := make([]int, 0, len(g.seats))
	for s := 0; s < g.maxSeats; s++ {
		if p, ok := g.seats[s]; ok && p.Online && p.Chips > 0 {
			out = append(out, s)
		}
	}
	return out
}

func (g *Game) nextSeatWith(from int, pred func(*Player) bool) int {
	for i := 1; i <= g.maxSeats; i++ {
		s := (from + i) % g.maxSeats
		if p, ok := g.seats[s]; ok && pred(p) {
			return s
		}
	}
	return NoSeat
}

func (g *Game) isPlayable(seat int) bool {
	p, ok := g.seats[seat]
	return ok && p.Online && p.Chips > 0
}

func (g *Game) countActive() int {
	return len(g.activeSeatNumbers())
}

func (g *Game) countCanAct() int {
	n := 0
	for _, s := range g.handSeats() {
		if g.seats[s].canAct() {
			n++
		}
	}
	return n
}

// State builds a full snapshot under the table lock.
func (g *Game) State() *State {
	st := &State{
		HandID:         g.handID,
		Phase:          g.phase.String(),
		BettingRound:   g.round,
		RoundName:      RoundName(g.round),
		CommunityCards: append([]deck.Card{}, g.community...),
		Pot:            g.pot,
		CurrentBet:     g.currentBet,
		SmallBlind:     g.smallBlind,
		BigBlind:       g.bigBlind,
		DealerSeat:     g.dealer,
		CurrentSeat:    g.current,
		TurnTimeLimit:  g.turnTime.Seconds(),
		HandsPlayed:    g.handsPlayed,
		HandWinners:    append([]Winner{}, g.winners...),
	}
	st.TotalPot = g.pot
	contested := g.phase == PhaseComplete && g.countActive() > 1
	for _, s := range g.seatNumbers() {
		p := g.seats[s]
		st.TotalPot += p.Bet
		ss := SeatState{
			Seat:         s,
			Name:         p.Name,
			Chips:        p.Chips,
			Bet:          p.Bet,
			Folded:       p.Folded,
			AllIn:        p.AllIn,
			HasDiscarded: p.HasDiscarded,
			TotalBuyIn:   p.TotalBuyIn,
			PendingBuyIn: p.PendingBuyIn,
			Online:       p.Online,
			InHand:       p.InHand,
			IsCurrent:    s == g.current,
			IsWinner:     p.Winner,
			LastAction:   p.LastAction,
			ShownCards:   append([]deck.Card{}, p.ShownCards...),
		}
		// Contested showdown hands are face up once the hand completes.
		if contested && p.active() {
			ss.HoleCards = append([]deck.Card{}, p.HoleCards...)
		}
		st.Players = append(st.Players, ss)
	}
	if p, ok := g.seats[g.current]; ok {
		st.CurrentPlayer = p.Name
	}
	if g.phase == PhasePlaying && g.current != NoSeat {
		elapsed := g.clock.Now().Sub(g.turnStart)
		remaining := g.turnTime - elapsed
		if remaining < 0 {
			remaining = 0
		}
		st.TurnRemaining = remaining.Seconds()
	}
	return st
}

// PlayerHand returns a player's private cards for a player_hand push.
func (g *Game) PlayerHand(name string) ([]deck.Card, *deck.Card, bool) {
	for _, p := range g.seats {
		if p.Name == name {
			return append([]deck.Card{}, p.HoleCards...), p.DiscardedCard, true
		}
	}
	return nil, nil, false
}

func (g *Game) emitUpdate(reason string, isKey bool) {
	if g.hooks.OnUpdate != nil {
		g.hooks.OnUpdate(g.State(), reason, isKey)
	}
}

func (g *Game) emitHand(p *Player) {
	if g.hooks.OnHand != nil {
		g.hooks.OnHand(p.Name, append([]deck.Card{}, p.HoleCards...), p.DiscardedCard)
	}
}
