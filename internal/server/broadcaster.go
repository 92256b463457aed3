package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/c32poker/pineapple/internal/deck"
	"github.com/c32poker/pineapple/internal/game"
	"github.com/c32poker/pineapple/internal/room"
)

// sampleInterval is the broadcast scheduler period.
const sampleInterval = time.Second

// Broadcaster is the change-driven broadcast scheduler. It sits between
// rooms and the hub as the room.Notifier: action-driven updates pass
// through and record their fingerprint, and a 1 Hz sampler emits a
// snapshot for any playing room whose fingerprint changed without one.
// Pure time advance never triggers a broadcast.
type Broadcaster struct {
	logger   *log.Logger
	clock    quartz.Clock
	hub      *Hub
	registry *room.Registry
	metrics  *Metrics

	mu   sync.Mutex
	last map[string]game.Fingerprint
}

// NewBroadcaster wires the sampler. registry may be set later with
// SetRegistry to break the construction cycle.
func NewBroadcaster(logger *log.Logger, clock quartz.Clock, hub *Hub, metrics *Metrics) *Broadcaster {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Broadcaster{
		logger:  logger.WithPrefix("broadcaster"),
		clock:   clock,
		hub:     hub,
		metrics: metrics,
		last:    make(map[string]game.Fingerprint),
	}
}

// SetRegistry attaches the room registry sampled on each tick.
func (b *Broadcaster) SetRegistry(reg *room.Registry) {
	b.registry = reg
}

// Run samples playing rooms until ctx is canceled.
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := b.clock.TickerFunc(ctx, sampleInterval, func() error {
		b.sample()
		return nil
	}, "broadcaster")
	return ticker.Wait()
}

// sample emits one snapshot per playing room whose fingerprint moved
// since the last emission, action-driven or sampled.
func (b *Broadcaster) sample() {
	if b.registry == nil {
		return
	}
	live := make(map[string]bool)
	for _, r := range b.registry.List() {
		live[r.ID] = true
		fp, playing := r.Fingerprint()
		if !playing {
			continue
		}

		b.mu.Lock()
		prev, seen := b.last[r.ID]
		changed := !seen || prev != fp
		if changed {
			b.last[r.ID] = fp
		}
		b.mu.Unlock()
		if !changed {
			continue
		}

		st := r.GameState()
		b.hub.GameUpdate(r.ID, st, "periodic_sync", false)
		for _, username := range b.hub.RoomMembers(r.ID) {
			if hand, discarded, ok := r.PlayerHand(username); ok {
				b.hub.PlayerHand(r.ID, username, hand, discarded)
			}
		}
	}

	// Forget rooms that no longer exist.
	b.mu.Lock()
	for id := range b.last {
		if !live[id] {
			delete(b.last, id)
		}
	}
	b.mu.Unlock()
}

// room.Notifier implementation: pass through to the hub, recording
// fingerprints so the next tick skips already-broadcast states.

func (b *Broadcaster) GameUpdate(roomID string, st *game.State, reason string, isKey bool) {
	b.mu.Lock()
	b.last[roomID] = st.Fingerprint()
	b.mu.Unlock()
	if b.metrics != nil && reason == "hand_started" {
		b.metrics.CountHand()
	}
	b.hub.GameUpdate(roomID, st, reason, isKey)
}

func (b *Broadcaster) PlayerHand(roomID, username string, hand []deck.Card, discarded *deck.Card) {
	b.hub.PlayerHand(roomID, username, hand, discarded)
}

func (b *Broadcaster) RoomUpdate(roomID string, info *room.Info) {
	b.hub.RoomUpdate(roomID, info)
}

func (b *Broadcaster) RoomExpiring(roomID string, minutesLeft int) {
	b.hub.RoomExpiring(roomID, minutesLeft)
}

func (b *Broadcaster) RoomExpired(roomID string) {
	if b.metrics != nil {
		b.metrics.CountExpiredRoom()
	}
	b.hub.RoomExpired(roomID)
}

func (b *Broadcaster) GameEnd(roomID, reason string) {
	b.hub.GameEnd(roomID, reason)
}
