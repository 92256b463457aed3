package room

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c32poker/pineapple/internal/fileutil"
	"github.com/c32poker/pineapple/internal/game"
)

func testDefaults() Defaults {
	return Defaults{
		MaxPlayers:   8,
		SmallBlind:   50,
		BigBlind:     100,
		BuyInMin:     20_00,
		BuyInMax:     500_00,
		TurnTime:     30 * time.Second,
		GameDuration: 2 * time.Hour,
		IdleLimit:    30 * time.Minute,
	}
}

func newTestRegistry(t *testing.T, clock quartz.Clock, path string) (*Registry, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	reg := NewRegistry(nil, clock, nil, n, testDefaults(), path)
	return reg, n
}

func TestCreateAppliesDefaults(t *testing.T) {
	reg, _ := newTestRegistry(t, quartz.NewMock(t), "")

	r, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)

	info := r.Info()
	assert.Equal(t, 8, info.MaxPlayers)
	assert.Equal(t, game.Chips(50), info.SmallBlind)
	assert.Equal(t, game.Chips(100), info.BigBlind)
	assert.Equal(t, "alice", info.Owner)
	assert.Equal(t, StatusWaiting, info.Status)
}

func TestCreateDedupsNames(t *testing.T) {
	reg, _ := newTestRegistry(t, quartz.NewMock(t), "")

	_, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)

	_, err = reg.Create(CreateParams{Name: "friday night", Owner: "bob"})
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = reg.Create(CreateParams{Name: "  ", Owner: "bob"})
	assert.Error(t, err)
}

func TestGetCaseInsensitiveFallback(t *testing.T) {
	reg, _ := newTestRegistry(t, quartz.NewMock(t), "")

	r, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)

	got, ok := reg.Get(r.ID)
	require.True(t, ok)
	assert.Same(t, r, got)

	got, ok = reg.Get(strings.ToUpper(r.ID))
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = reg.Get("no-such-room")
	assert.False(t, ok)

	byName, ok := reg.GetByName("FRIDAY NIGHT")
	require.True(t, ok)
	assert.Same(t, r, byName)
}

func TestRemovePlayerDropsEmptyRoom(t *testing.T) {
	reg, _ := newTestRegistry(t, quartz.NewMock(t), "")

	r, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)

	require.NoError(t, reg.RemovePlayer(r.ID, "alice"))
	_, ok := reg.Get(r.ID)
	assert.False(t, ok)
}

func TestReaperExpiresIdleWaitingRoom(t *testing.T) {
	mock := quartz.NewMock(t)
	reg, n := newTestRegistry(t, mock, "")

	r, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)

	expired := 0
	reg.ExpiredRooms = func() { expired++ }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trap := mock.Trap().TickerFunc()
	defer trap.Close()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = reg.Run(ctx)
	}()
	// Wait for both tickers (reaper, snapshotter) before advancing.
	trap.MustWait(ctx).MustRelease(ctx)
	trap.MustWait(ctx).MustRelease(ctx)

	// Touch the room two minutes in so the warning window is sampled.
	// Advance in 30s steps: the snapshotter tick is the shortest event.
	for i := 0; i < 4; i++ {
		mock.Advance(30 * time.Second).MustWait(ctx)
	}
	r.Touch()

	// 30 min tick: 28 min idle, inside the 5 min warning window.
	for i := 0; i < 60; i++ {
		mock.Advance(30 * time.Second).MustWait(ctx)
	}
	n.mu.Lock()
	warned := len(n.expiring)
	n.mu.Unlock()
	assert.Equal(t, 1, warned)

	// 35 min tick: 33 min idle, past the 30 min limit.
	for i := 0; i < 10; i++ {
		mock.Advance(30 * time.Second).MustWait(ctx)
	}
	assert.Contains(t, n.expiredRooms(), r.ID)
	assert.Equal(t, 1, expired)
	_, ok := reg.Get(r.ID)
	assert.False(t, ok)

	cancel()
	<-done
}

func TestReaperNeverExpiresPlayingRoom(t *testing.T) {
	mock := quartz.NewMock(t)
	reg, n := newTestRegistry(t, mock, "")

	r, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)
	r.mu.Lock()
	r.status = StatusPlaying
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trap := mock.Trap().TickerFunc()
	defer trap.Close()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = reg.Run(ctx)
	}()
	// Wait for both tickers (reaper, snapshotter) before advancing.
	trap.MustWait(ctx).MustRelease(ctx)
	trap.MustWait(ctx).MustRelease(ctx)

	// One hour of reaper ticks, advanced in snapshotter-sized steps.
	for i := 0; i < 120; i++ {
		mock.Advance(30 * time.Second).MustWait(ctx)
	}

	_, ok := reg.Get(r.ID)
	assert.True(t, ok)
	assert.Empty(t, n.expiredRooms())

	cancel()
	<-done
}

func TestSnapshotRoundTrip(t *testing.T) {
	mock := quartz.NewMock(t)
	path := filepath.Join(t.TempDir(), "rooms.json")
	reg, _ := newTestRegistry(t, mock, path)

	r, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)
	require.NoError(t, r.AddPlayer("bob"))
	require.NoError(t, r.BuyIn("alice", game.ChipsFromFloat(100), 0))
	require.NoError(t, r.BuyIn("bob", game.ChipsFromFloat(100), 1))
	require.NoError(t, r.StartGame("alice"))

	require.NoError(t, reg.Save())

	reg2, _ := newTestRegistry(t, mock, path)
	require.NoError(t, reg2.Load())

	restored, ok := reg2.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, "Friday Night", restored.Name)
	// Mid-session rooms come back waiting; members come back offline.
	assert.Equal(t, StatusWaiting, restored.Status())

	info := restored.Info()
	require.Len(t, info.Seated, 2)
	for _, seat := range info.Seated {
		assert.False(t, seat.Online)
	}
	assert.True(t, restored.IsMember("alice"))
	assert.True(t, restored.IsMember("bob"))
}

func TestSnapshotLoadFallsBackToBackup(t *testing.T) {
	mock := quartz.NewMock(t)
	path := filepath.Join(t.TempDir(), "rooms.json")
	reg, _ := newTestRegistry(t, mock, path)

	r, err := reg.Create(CreateParams{Name: "Friday Night", Owner: "alice"})
	require.NoError(t, err)

	require.NoError(t, reg.Save())
	require.NoError(t, reg.Save()) // rotates the first write to .bak
	require.NoError(t, os.Remove(path))

	reg2, _ := newTestRegistry(t, mock, path)
	require.NoError(t, reg2.Load())
	_, ok := reg2.Get(r.ID)
	assert.True(t, ok)

	// No snapshot at all is a fresh start.
	require.NoError(t, os.Remove(path+fileutil.BackupSuffix))
	reg3, _ := newTestRegistry(t, mock, path)
	require.NoError(t, reg3.Load())
	assert.Empty(t, reg3.List())
}
