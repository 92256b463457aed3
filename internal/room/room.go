// Package room implements rooms (one table each) and the registry that
// tracks, reaps and snapshots them. A Room owns the seat assignment layer
// above its game engine and is the engine's only mutator; everything runs
// under the room's single mutex, which the engine shares for its timer
// callbacks.
package room

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/c32poker/pineapple/internal/deck"
	"github.com/c32poker/pineapple/internal/game"
	"github.com/c32poker/pineapple/internal/store"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

var (
	ErrRoomFull      = errors.New("room: room is full")
	ErrAlreadyMember = errors.New("room: player already in room")
	ErrNotMember     = errors.New("room: player not in room")
	ErrNotOwner      = errors.New("room: only the owner can do that")
	ErrBuyInRange    = errors.New("room: buy-in outside room limits")
	ErrInActiveHand  = errors.New("room: not allowed during an active hand")
	ErrGameOver      = errors.New("room: game is finished")
)

// Config carries room parameters plus runtime plumbing.
type Config struct {
	Name         string
	Owner        string
	MaxPlayers   int
	SmallBlind   game.Chips
	BigBlind     game.Chips
	BuyInMin     game.Chips
	BuyInMax     game.Chips
	TurnTime     time.Duration
	GameDuration time.Duration
	IdleLimit    time.Duration
	Seed         int64

	Logger   *log.Logger
	Clock    quartz.Clock
	Store    store.UserStore
	Notifier Notifier
}

// Info is the public room metadata pushed in room_update messages and
// returned by the REST list endpoint.
type Info struct {
	ID          string     `json:"room_id"`
	Name        string     `json:"name"`
	Owner       string     `json:"owner"`
	Status      Status     `json:"status"`
	MaxPlayers  int        `json:"max_players"`
	SmallBlind  game.Chips `json:"small_blind"`
	BigBlind    game.Chips `json:"big_blind"`
	BuyInMin    game.Chips `json:"buy_in_min"`
	BuyInMax    game.Chips `json:"buy_in_max"`
	PlayerCount int        `json:"player_count"`
	Seated      []SeatInfo `json:"seated"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SeatInfo is one occupied seat in an Info.
type SeatInfo struct {
	Seat     int        `json:"seat"`
	Username string     `json:"username"`
	Chips    game.Chips `json:"chips"`
	Online   bool       `json:"online"`
}

// Room is one table and its members. ID and Name are immutable.
type Room struct {
	ID   string
	Name string

	mu       sync.Mutex
	logger   *log.Logger
	clock    quartz.Clock
	store    store.UserStore
	notifier Notifier

	owner        string
	maxPlayers   int
	smallBlind   game.Chips
	bigBlind     game.Chips
	buyInMin     game.Chips
	buyInMax     game.Chips
	turnTime     time.Duration
	gameDuration time.Duration
	idleLimit    time.Duration

	status       Status
	createdAt    time.Time
	lastActivity time.Time
	warned       bool

	players map[string]*game.Player
	game    *game.Game
}

// New creates a waiting room with an idle game engine attached. The
// owner is a member but holds no seat until they sit down.
func New(cfg Config) *Room {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.MaxPlayers <= 0 || cfg.MaxPlayers > game.MaxSeats {
		cfg.MaxPlayers = game.MaxSeats
	}
	if cfg.IdleLimit <= 0 {
		cfg.IdleLimit = 30 * time.Minute
	}

	r := &Room{
		ID:           uuid.NewString(),
		Name:         cfg.Name,
		logger:       cfg.Logger.WithPrefix("room"),
		clock:        cfg.Clock,
		store:        cfg.Store,
		notifier:     cfg.Notifier,
		owner:        cfg.Owner,
		maxPlayers:   cfg.MaxPlayers,
		smallBlind:   cfg.SmallBlind,
		bigBlind:     cfg.BigBlind,
		buyInMin:     cfg.BuyInMin,
		buyInMax:     cfg.BuyInMax,
		turnTime:     cfg.TurnTime,
		gameDuration: cfg.GameDuration,
		idleLimit:    cfg.IdleLimit,
		status:       StatusWaiting,
		createdAt:    cfg.Clock.Now(),
		lastActivity: cfg.Clock.Now(),
		players:      make(map[string]*game.Player),
	}
	r.logger = r.logger.With("room", r.ID, "name", r.Name)

	r.game = game.New(game.Config{
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		MaxSeats:   cfg.MaxPlayers,
		TurnTime:   cfg.TurnTime,
		Seed:       cfg.Seed,
		Logger:     cfg.Logger,
		Clock:      cfg.Clock,
		Locker:     &r.mu,
		Hooks: game.Hooks{
			OnUpdate:     r.onGameUpdate,
			OnHand:       r.onPlayerHand,
			OnResult:     r.onHandResult,
			OnGap:        r.onHandGap,
			OnPause:      r.onPause,
			OnSessionEnd: r.onSessionEnd,
		},
	})

	if cfg.Owner != "" {
		r.players[cfg.Owner] = game.NewPlayer(cfg.Owner)
	}
	return r
}

// Engine hooks. All run with r.mu already held.

func (r *Room) onGameUpdate(st *game.State, reason string, isKey bool) {
	r.lastActivity = r.clock.Now()
	r.notifier.GameUpdate(r.ID, st, reason, isKey)
}

func (r *Room) onPlayerHand(player string, hand []deck.Card, discarded *deck.Card) {
	r.notifier.PlayerHand(r.ID, player, hand, discarded)
}

func (r *Room) onHandResult(res game.HandResult) {
	r.logger.Info("hand settled", "hand", res.HandID, "pot", res.Pot)
}

// onHandGap finalizes departures at the hand boundary: players the engine
// just unseated because they left mid-hand are removed and cashed out.
func (r *Room) onHandGap() {
	for name, p := range r.players {
		if p.Leaving && p.Seat == game.NoSeat {
			delete(r.players, name)
			r.cashOut(p)
			if r.owner == name {
				r.reassignOwnerLocked()
			}
		}
	}
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
}

func (r *Room) onPause() {
	r.status = StatusPaused
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
}

func (r *Room) onSessionEnd() {
	r.endGameLocked("session deadline reached")
}

// AddPlayer attaches a player to the room without a seat.
func (r *Room) AddPlayer(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusFinished {
		return ErrGameOver
	}
	if _, ok := r.players[username]; ok {
		return ErrAlreadyMember
	}
	if len(r.players) >= r.maxPlayers {
		return ErrRoomFull
	}
	r.players[username] = game.NewPlayer(username)
	r.touchLocked()
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
	return nil
}

// SitDown assigns a seat. During a live hand the seat joins play at the
// next deal.
func (r *Room) SitDown(username string, seat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return ErrNotMember
	}
	if p.Seat != game.NoSeat && r.game.InHand() && p.InHand {
		return ErrInActiveHand
	}
	if err := r.game.Seat(p, seat); err != nil {
		return err
	}
	r.touchLocked()
	r.resumeIfReadyLocked()
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
	return nil
}

// BuyIn credits chips, seating the player first if they hold no seat.
// During the player's live hand the amount is queued and applied at the
// next deal. The account debit runs outside the lock and is best-effort.
func (r *Room) BuyIn(username string, amount game.Chips, seat int) error {
	r.mu.Lock()
	p, ok := r.players[username]
	if !ok {
		r.mu.Unlock()
		return ErrNotMember
	}
	if amount < r.buyInMin || amount > r.buyInMax {
		r.mu.Unlock()
		return ErrBuyInRange
	}
	if p.Seat == game.NoSeat {
		if err := r.game.Seat(p, seat); err != nil {
			r.mu.Unlock()
			return err
		}
	}
	if r.game.InHand() && p.InHand {
		p.PendingBuyIn += amount
	} else {
		p.Chips += amount
	}
	p.TotalBuyIn += amount
	r.touchLocked()
	r.resumeIfReadyLocked()
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
	r.mu.Unlock()

	// The debit is best-effort; the seat credit stands even if it fails.
	if r.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.store.UpdateBalance(ctx, username, -int64(amount)); err != nil {
				r.logger.Error("buy-in debit failed", "player", username, "error", err)
			}
		}()
	}
	return nil
}

// StandUp vacates a seat. Not allowed while the player is in a live hand.
func (r *Room) StandUp(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return ErrNotMember
	}
	if r.game.InHand() && p.InHand {
		return ErrInActiveHand
	}
	if p.Seat != game.NoSeat {
		r.game.Unseat(p.Seat)
	}
	r.touchLocked()
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
	return nil
}

// Leave removes a player. Mid-hand the seat plays on (their timer acts
// for them) and the removal lands at the hand boundary; otherwise the
// player is removed at once and cashed out.
func (r *Room) Leave(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return ErrNotMember
	}
	if r.game.InHand() && p.InHand {
		p.Online = false
		p.Leaving = true
		r.notifier.RoomUpdate(r.ID, r.infoLocked())
		return nil
	}
	if p.Seat != game.NoSeat {
		r.game.Unseat(p.Seat)
	}
	delete(r.players, username)
	r.cashOut(p)
	if r.owner == username {
		r.reassignOwnerLocked()
	}
	r.touchLocked()
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
	return nil
}

// ChangeSeat moves a seated player to a vacant seat between hands.
func (r *Room) ChangeSeat(username string, newSeat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return ErrNotMember
	}
	if r.game.InHand() && p.InHand {
		return ErrInActiveHand
	}
	if err := r.game.Seat(p, newSeat); err != nil {
		return err
	}
	r.touchLocked()
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
	return nil
}

// StartGame begins the table session: owner only, needs two seated
// players with chips. The session deadline starts counting now.
func (r *Room) StartGame(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if username != r.owner {
		return ErrNotOwner
	}
	if r.status == StatusFinished {
		return ErrGameOver
	}
	if r.status == StatusPlaying {
		// Covers the settle gap too: the next hand is already scheduled
		// there and dealing now would skip the between-hands bookkeeping.
		return game.ErrHandInProgress
	}
	if r.gameDuration > 0 {
		r.game.SetDeadline(r.clock.Now().Add(r.gameDuration))
	}
	if err := r.game.StartRound(); err != nil {
		return err
	}
	r.status = StatusPlaying
	r.touchLocked()
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
	return nil
}

// EndGame stops the session and cashes everyone out.
func (r *Room) EndGame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endGameLocked("game ended")
}

func (r *Room) endGameLocked(reason string) {
	if r.status == StatusFinished {
		return
	}
	r.game.Stop()
	r.status = StatusFinished
	for _, p := range r.players {
		r.cashOut(p)
	}
	r.logger.Info("game ended", "reason", reason)
	r.notifier.GameEnd(r.ID, reason)
	r.notifier.RoomUpdate(r.ID, r.infoLocked())
}

// cashOut records the player's session and credits their remaining chips
// back to their account. Best-effort, off the room lock.
func (r *Room) cashOut(p *game.Player) {
	if r.store == nil || p.TotalBuyIn == 0 && p.Chips == 0 {
		return
	}
	rec := store.GameRecord{
		RoomID:     r.ID,
		RoomName:   r.Name,
		Username:   p.Name,
		TotalBuyIn: int64(p.TotalBuyIn),
		FinalChips: int64(p.Chips),
		EndedAt:    r.clock.Now(),
	}
	credit := int64(p.Chips)
	p.Chips = 0
	p.TotalBuyIn = 0
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.RecordGame(ctx, rec); err != nil {
			r.logger.Error("cash-out record failed", "player", rec.Username, "error", err)
		}
		if credit > 0 {
			if err := r.store.UpdateBalance(ctx, rec.Username, credit); err != nil {
				r.logger.Error("cash-out credit failed", "player", rec.Username, "error", err)
			}
		}
	}()
}

func (r *Room) reassignOwnerLocked() {
	r.owner = ""
	for name := range r.players {
		if r.owner == "" || name < r.owner {
			r.owner = name
		}
	}
}

// resumeIfReadyLocked restarts a paused table once two playable seats
// exist again. Only fires between hands.
func (r *Room) resumeIfReadyLocked() {
	if r.status != StatusPaused || r.game.InHand() {
		return
	}
	if r.game.PlayableSeats() < 2 {
		return
	}
	if err := r.game.StartRound(); err != nil {
		r.logger.Error("resume failed", "error", err)
		return
	}
	r.status = StatusPlaying
}

// HandleGameAction routes a socket game_action to the engine.
func (r *Room) HandleGameAction(username string, action game.Action, amount game.Chips) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return ErrNotMember
	}
	return r.game.HandleAction(p.Seat, action, amount)
}

// HandleDiscard routes a discard to the engine.
func (r *Room) HandleDiscard(username string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return ErrNotMember
	}
	return r.game.HandleDiscard(p.Seat, index)
}

// ShowCard reveals one of the player's hole cards after the hand.
func (r *Room) ShowCard(username string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return ErrNotMember
	}
	return r.game.ShowCard(p.Seat, index)
}

// SetOnline flips a member's online flag on hub connect/disconnect.
func (r *Room) SetOnline(username string, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[username]; ok {
		p.Online = online
	}
	r.touchLocked()
}

// IsMember reports whether username belongs to this room.
func (r *Room) IsMember(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[username]
	return ok
}

// MemberCount returns the number of attached players.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Status returns the lifecycle state.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// GameState snapshots the table for a game_update push.
func (r *Room) GameState() *game.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.State()
}

// Fingerprint returns the sampler fingerprint plus whether the table is
// worth sampling at all.
func (r *Room) Fingerprint() (game.Fingerprint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusPlaying {
		return game.Fingerprint{}, false
	}
	return r.game.State().Fingerprint(), true
}

// PlayerHand returns a member's private cards.
func (r *Room) PlayerHand(username string) ([]deck.Card, *deck.Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.PlayerHand(username)
}

// History returns the table's retained action history.
func (r *Room) History() []game.HandEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.History()
}

// Members lists the usernames attached to the room.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.players))
	for name := range r.players {
		out = append(out, name)
	}
	return out
}

// Info snapshots the public room metadata.
func (r *Room) Info() *Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() *Info {
	info := &Info{
		ID:          r.ID,
		Name:        r.Name,
		Owner:       r.owner,
		Status:      r.status,
		MaxPlayers:  r.maxPlayers,
		SmallBlind:  r.smallBlind,
		BigBlind:    r.bigBlind,
		BuyInMin:    r.buyInMin,
		BuyInMax:    r.buyInMax,
		PlayerCount: len(r.players),
		CreatedAt:   r.createdAt,
	}
	for _, p := range r.players {
		if p.Seat != game.NoSeat {
			info.Seated = append(info.Seated, SeatInfo{
				Seat:     p.Seat,
				Username: p.Name,
				Chips:    p.Chips,
				Online:   p.Online,
			})
		}
	}
	return info
}

// Touch refreshes the idle clock.
func (r *Room) Touch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()
}

func (r *Room) touchLocked() {
	r.lastActivity = r.clock.Now()
}

// idleState reports the reaper's view: whether the room is expirable,
// how long until expiry, and whether a warning went out already.
func (r *Room) idleState(now time.Time) (expirable bool, left time.Duration, warned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusWaiting {
		return false, 0, r.warned
	}
	left = r.idleLimit - now.Sub(r.lastActivity)
	return true, left, r.warned
}

func (r *Room) markWarned() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warned = true
}

// Stop shuts the room down: stops engine timers and marks it finished.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.game.Stop()
	r.status = StatusFinished
}

// matchName is the case-insensitive name key used for dedup.
func matchName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
