package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/c32poker/pineapple/internal/fileutil"
	"github.com/c32poker/pineapple/internal/game"
)

// snapshotVersion guards the snapshot schema. Unknown versions are
// refused on load rather than half-parsed.
const snapshotVersion = 1

type playerSnapshot struct {
	Username   string     `json:"username"`
	Seat       int        `json:"seat"`
	Chips      game.Chips `json:"chips"`
	TotalBuyIn game.Chips `json:"total_buy_in"`
}

type roomSnapshot struct {
	ID           string           `json:"room_id"`
	Name         string           `json:"name"`
	Owner        string           `json:"owner"`
	Status       Status           `json:"status"`
	MaxPlayers   int              `json:"max_players"`
	SmallBlind   game.Chips       `json:"small_blind"`
	BigBlind     game.Chips       `json:"big_blind"`
	BuyInMin     game.Chips       `json:"buy_in_min"`
	BuyInMax     game.Chips       `json:"buy_in_max"`
	TurnTime     time.Duration    `json:"turn_time"`
	GameDuration time.Duration    `json:"game_duration"`
	CreatedAt    time.Time        `json:"created_at"`
	LastActivity time.Time        `json:"last_activity"`
	Players      []playerSnapshot `json:"players"`
}

type registrySnapshot struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"saved_at"`
	Rooms   []roomSnapshot `json:"rooms"`
}

// snapshot captures room metadata, never live hand state.
func (r *Room) snapshot() roomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := roomSnapshot{
		ID:           r.ID,
		Name:         r.Name,
		Owner:        r.owner,
		Status:       r.status,
		MaxPlayers:   r.maxPlayers,
		SmallBlind:   r.smallBlind,
		BigBlind:     r.bigBlind,
		BuyInMin:     r.buyInMin,
		BuyInMax:     r.buyInMax,
		TurnTime:     r.turnTime,
		GameDuration: r.gameDuration,
		CreatedAt:    r.createdAt,
		LastActivity: r.lastActivity,
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, playerSnapshot{
			Username:   p.Name,
			Seat:       p.Seat,
			Chips:      p.Chips,
			TotalBuyIn: p.TotalBuyIn,
		})
	}
	return snap
}

// Save writes the registry snapshot, rotating the previous generation to
// a .bak file. A no-op when persistence is disabled.
func (reg *Registry) Save() error {
	if reg.path == "" {
		return nil
	}
	snap := registrySnapshot{
		Version: snapshotVersion,
		SavedAt: reg.clock.Now(),
	}
	for _, r := range reg.List() {
		snap.Rooms = append(snap.Rooms, r.snapshot())
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := fileutil.WriteFileWithBackup(reg.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load restores rooms from the snapshot file, falling back to the .bak
// generation. A missing file means a fresh start. Rooms that were mid
// session come back as waiting; members come back offline and rejoin on
// their next connection.
func (reg *Registry) Load() error {
	if reg.path == "" {
		return nil
	}
	data, err := fileutil.ReadFileWithFallback(reg.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap registrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, rs := range snap.Rooms {
		r := reg.restoreRoom(rs)
		reg.rooms[r.ID] = r
		reg.names[matchName(r.Name)] = r.ID
	}
	reg.logger.Info("snapshot loaded", "rooms", len(snap.Rooms), "saved_at", snap.SavedAt)
	return nil
}

func (reg *Registry) restoreRoom(rs roomSnapshot) *Room {
	r := New(Config{
		Name:         rs.Name,
		Owner:        rs.Owner,
		MaxPlayers:   rs.MaxPlayers,
		SmallBlind:   rs.SmallBlind,
		BigBlind:     rs.BigBlind,
		BuyInMin:     rs.BuyInMin,
		BuyInMax:     rs.BuyInMax,
		TurnTime:     rs.TurnTime,
		GameDuration: rs.GameDuration,
		IdleLimit:    reg.defaults.IdleLimit,
		Logger:       reg.logger,
		Clock:        reg.clock,
		Store:        reg.store,
		Notifier:     reg.notifier,
	})
	r.ID = rs.ID
	r.logger = reg.logger.WithPrefix("room").With("room", r.ID, "name", r.Name)
	r.createdAt = rs.CreatedAt
	r.lastActivity = rs.LastActivity
	r.status = StatusWaiting
	if rs.Status == StatusFinished {
		r.status = StatusFinished
	}
	for _, ps := range rs.Players {
		p, ok := r.players[ps.Username]
		if !ok {
			p = game.NewPlayer(ps.Username)
			r.players[ps.Username] = p
		}
		p.Chips = ps.Chips
		p.TotalBuyIn = ps.TotalBuyIn
		p.Online = false
		if ps.Seat != game.NoSeat {
			if err := r.game.Seat(p, ps.Seat); err != nil {
				reg.logger.Error("failed to restore seat",
					"room", r.ID, "player", ps.Username, "seat", ps.Seat, "error", err)
			}
		}
	}
	return r
}
