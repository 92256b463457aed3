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

	"github.com/c32poker/pineapple/internal/game"
	"github.com/c32poker/pineapple/internal/store"
)

const (
	// cleanupInterval is how often the reaper scans for idle rooms.
	cleanupInterval = 5 * time.Minute

	// saveInterval is how often room metadata is snapshotted to disk.
	saveInterval = 30 * time.Second

	// expiryWarning is the window before expiry in which members are
	// warned once.
	expiryWarning = 5 * time.Minute
)

var (
	ErrRoomNotFound = errors.New("registry: room not found")
	ErrNameTaken    = errors.New("registry: room name already in use")
)

// Defaults are the room parameters applied when a create request leaves
// them unset.
type Defaults struct {
	MaxPlayers   int
	SmallBlind   int64
	BigBlind     int64
	BuyInMin     int64
	BuyInMax     int64
	TurnTime     time.Duration
	GameDuration time.Duration
	IdleLimit    time.Duration
}

// Registry tracks every live room. Its lock covers only the maps and is
// never held while calling into a room.
type Registry struct {
	logger   *log.Logger
	clock    quartz.Clock
	store    store.UserStore
	notifier Notifier
	defaults Defaults
	path     string

	// mu covers only the maps; it is never held while calling into a
	// room. Lock order is registry then room, never the reverse.
	mu    sync.Mutex
	rooms map[string]*Room
	names map[string]string // matchName(name) -> room id

	// ExpiredRooms is called after the reaper drops a room, for metrics.
	ExpiredRooms func()
}

// NewRegistry creates an empty registry. path is the snapshot file; empty
// disables persistence.
func NewRegistry(logger *log.Logger, clock quartz.Clock, st store.UserStore, notifier Notifier, defaults Defaults, path string) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Registry{
		logger:   logger.WithPrefix("registry"),
		clock:    clock,
		store:    st,
		notifier: notifier,
		defaults: defaults,
		path:     path,
		rooms:    make(map[string]*Room),
		names:    make(map[string]string),
	}
}

// CreateParams are the caller-supplied room parameters; zero fields fall
// back to the registry defaults.
type CreateParams struct {
	Name         string
	Owner        string
	MaxPlayers   int
	SmallBlind   int64
	BigBlind     int64
	BuyInMin     int64
	BuyInMax     int64
	TurnTime     time.Duration
	GameDuration time.Duration
}

// Create makes a new waiting room owned by params.Owner.
func (reg *Registry) Create(params CreateParams) (*Room, error) {
	cfg := reg.roomConfig(params)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	key := matchName(params.Name)
	if key == "" {
		return nil, errors.New("registry: room name required")
	}
	if _, taken := reg.names[key]; taken {
		return nil, ErrNameTaken
	}
	r := New(cfg)
	reg.rooms[r.ID] = r
	reg.names[key] = r.ID
	reg.logger.Info("room created", "room", r.ID, "name", r.Name, "owner", params.Owner)
	return r, nil
}

func (reg *Registry) roomConfig(params CreateParams) Config {
	d := reg.defaults
	cfg := Config{
		Name:         params.Name,
		Owner:        params.Owner,
		MaxPlayers:   params.MaxPlayers,
		SmallBlind:   chips(params.SmallBlind, d.SmallBlind),
		BigBlind:     chips(params.BigBlind, d.BigBlind),
		BuyInMin:     chips(params.BuyInMin, d.BuyInMin),
		BuyInMax:     chips(params.BuyInMax, d.BuyInMax),
		TurnTime:     params.TurnTime,
		GameDuration: params.GameDuration,
		IdleLimit:    d.IdleLimit,
		Logger:       reg.logger,
		Clock:        reg.clock,
		Store:        reg.store,
		Notifier:     reg.notifier,
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = d.MaxPlayers
	}
	if cfg.TurnTime == 0 {
		cfg.TurnTime = d.TurnTime
	}
	if cfg.GameDuration == 0 {
		cfg.GameDuration = d.GameDuration
	}
	return cfg
}

// Get finds a room by id, falling back to a case-insensitive scan.
func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok {
		return r, true
	}
	lower := strings.ToLower(roomID)
	for id, r := range reg.rooms {
		if strings.ToLower(id) == lower {
			return r, true
		}
	}
	return nil, false
}

// GetByName finds a room by its dedup name key.
func (reg *Registry) GetByName(name string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	id, ok := reg.names[matchName(name)]
	if !ok {
		return nil, false
	}
	r, ok := reg.rooms[id]
	return r, ok
}

// List returns every live room.
func (reg *Registry) List() []*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

// RemovePlayer delegates to the room and drops the room when it empties
// while waiting or finished.
func (reg *Registry) RemovePlayer(roomID, username string) error {
	r, ok := reg.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if err := r.Leave(username); err != nil {
		return err
	}
	if r.MemberCount() == 0 {
		switch r.Status() {
		case StatusWaiting, StatusFinished:
			reg.drop(r)
		}
	}
	return nil
}

func (reg *Registry) drop(r *Room) {
	r.Stop()
	reg.mu.Lock()
	delete(reg.rooms, r.ID)
	delete(reg.names, matchName(r.Name))
	reg.mu.Unlock()
	reg.logger.Info("room dropped", "room", r.ID, "name", r.Name)
}

// Run drives the reaper and snapshotter until ctx is canceled, then
// writes a final snapshot.
func (reg *Registry) Run(ctx context.Context) error {
	reaper := reg.clock.TickerFunc(ctx, cleanupInterval, func() error {
		reg.reap()
		return nil
	}, "reaper")
	saver := reg.clock.TickerFunc(ctx, saveInterval, func() error {
		if err := reg.Save(); err != nil {
			reg.logger.Error("snapshot failed", "error", err)
		}
		return nil
	}, "snapshotter")

	<-ctx.Done()
	_ = reaper.Wait()
	_ = saver.Wait()

	if err := reg.Save(); err != nil {
		reg.logger.Error("final snapshot failed", "error", err)
	}
	return ctx.Err()
}

// reap expires idle waiting rooms and warns rooms close to expiry.
// Playing and paused rooms are never expired.
func (reg *Registry) reap() {
	now := reg.clock.Now()
	for _, r := range reg.List() {
		expirable, left, warned := r.idleState(now)
		if !expirable {
			continue
		}
		switch {
		case left <= 0:
			reg.logger.Info("room expired", "room", r.ID, "name", r.Name)
			reg.notifier.RoomExpired(r.ID)
			reg.drop(r)
			if reg.ExpiredRooms != nil {
				reg.ExpiredRooms()
			}
		case left < expiryWarning && !warned:
			minutes := int(left.Minutes()) + 1
			reg.notifier.RoomExpiring(r.ID, minutes)
			r.markWarned()
		}
	}
}

func chips(v, def int64) game.Chips {
	if v == 0 {
		return game.Chips(def)
	}
	return game.Chips(v)
}
