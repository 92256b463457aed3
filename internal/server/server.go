// Package server exposes the WebSocket game endpoint, the room REST
// routes, and the change-driven broadcast scheduler on top of the hub.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/c32poker/pineapple/internal/auth"
	"github.com/c32poker/pineapple/internal/room"
	"github.com/c32poker/pineapple/internal/store"
)

// Server ties the HTTP surface together: socket endpoint, room REST
// routes, health and metrics.
type Server struct {
	logger   *log.Logger
	config   *Config
	hub      *Hub
	registry *room.Registry
	verifier auth.Verifier
	store    store.UserStore
	metrics  *Metrics

	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// New builds the server. metrics may be nil to disable /metrics.
func New(logger *log.Logger, config *Config, hub *Hub, registry *room.Registry, verifier auth.Verifier, st store.UserStore, metrics *Metrics) *Server {
	s := &Server{
		logger:   logger.WithPrefix("server"),
		config:   config,
		hub:      hub,
		registry: registry,
		verifier: verifier,
		store:    st,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.httpSrv = &http.Server{
		Addr:              config.ListenAddress(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /game/{room_id}", s.handleGameSocket)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("POST /api/rooms/{room_id}/join", s.handleJoinRoom)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleGameSocket is the duplex session endpoint. Token failures close
// the socket with 1008 after the upgrade so clients see the reason.
func (s *Server) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	identity, err := s.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		s.closePolicy(conn, "invalid or missing token")
		return
	}
	username := identity.Username

	rm, ok := s.registry.Get(roomID)
	if !ok {
		s.closePolicy(conn, "room not found")
		return
	}
	if !rm.IsMember(username) {
		s.closePolicy(conn, "not a member of this room")
		return
	}

	if s.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.store.VerifyUser(ctx, username); err != nil {
				s.logger.Error("user verification failed", "player", username, "error", err)
			}
		}()
	}

	c := NewConnection(conn, username, rm.ID, s.logger)
	c.handle = s.dispatch
	c.onClose = func(c *Connection) {
		if !s.hub.Unregister(c) {
			// Evicted by a newer socket; the replacement owns presence now.
			return
		}
		rm.SetOnline(username, false)
		s.hub.BroadcastToRoom(rm.ID, mustMessage(MessageTypePlayerDisconnected,
			PlayerPresenceData{Player: username}))
	}

	s.hub.Register(c)
	rm.SetOnline(username, true)
	c.Start()

	s.hub.BroadcastToRoom(rm.ID, mustMessage(MessageTypePlayerConnected,
		PlayerPresenceData{Player: username}))

	// Initial state so the client renders without waiting for a change.
	if msg, err := NewMessage(MessageTypeGameUpdate, GameUpdateData{
		GameState:    rm.GameState(),
		UpdateReason: "initial_state",
		IsKeyUpdate:  true,
	}); err == nil {
		_ = c.SendMessage(msg)
	}
	if hand, discarded, ok := rm.PlayerHand(username); ok && len(hand) > 0 {
		if msg, err := NewMessage(MessageTypePlayerHand, PlayerHandData{
			MyHand:        hand,
			DiscardedCard: discarded,
		}); err == nil {
			_ = c.SendMessage(msg)
		}
	}

	s.logger.Info("player connected", "player", username, "room", rm.ID)
}

// closePolicy rejects a socket with close code 1008 and a reason.
func (s *Server) closePolicy(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	_ = conn.Close()
}

// REST room routes, bearer-token authenticated.

type createRoomRequest struct {
	Name         string  `json:"name"`
	MaxPlayers   int     `json:"max_players,omitempty"`
	SmallBlind   float64 `json:"small_blind,omitempty"`
	BigBlind     float64 `json:"big_blind,omitempty"`
	BuyInMin     float64 `json:"buy_in_min,omitempty"`
	BuyInMax     float64 `json:"buy_in_max,omitempty"`
	TurnSeconds  int     `json:"turn_seconds,omitempty"`
	GameDuration int     `json:"game_duration_minutes,omitempty"`
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", auth.ErrInvalidToken
	}
	identity, err := s.verifier.Verify(token)
	if err != nil {
		return "", err
	}
	return identity.Username, nil
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	username, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rm, err := s.registry.Create(room.CreateParams{
		Name:         req.Name,
		Owner:        username,
		MaxPlayers:   req.MaxPlayers,
		SmallBlind:   int64(req.SmallBlind * 100),
		BigBlind:     int64(req.BigBlind * 100),
		BuyInMin:     int64(req.BuyInMin * 100),
		BuyInMax:     int64(req.BuyInMax * 100),
		TurnTime:     time.Duration(req.TurnSeconds) * time.Second,
		GameDuration: time.Duration(req.GameDuration) * time.Minute,
	})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, room.ErrNameTaken) {
			code = http.StatusConflict
		}
		writeError(w, code, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rm.Info())
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}
	rooms := s.registry.List()
	infos := make([]*room.Info, 0, len(rooms))
	for _, rm := range rooms {
		infos = append(infos, rm.Info())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": infos})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	username, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}
	rm, ok := s.registry.Get(r.PathValue("room_id"))
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err := rm.AddPlayer(username); err != nil {
		if errors.Is(err, room.ErrAlreadyMember) {
			// Joining twice is fine; the socket endpoint needs membership.
			writeJSON(w, http.StatusOK, rm.Info())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rm.Info())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
