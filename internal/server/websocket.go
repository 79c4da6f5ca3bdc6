package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rushboard/solo-board/internal/board"
	"github.com/rushboard/solo-board/internal/config"
	"github.com/rushboard/solo-board/internal/deck"
	"github.com/rushboard/solo-board/internal/game"
	"go.uber.org/zap"
)

// Client is one websocket connection attached to a board.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	boardID string
	remote  string
}

// WebSocketServer serves the board protocol over websockets.
type WebSocketServer struct {
	cfg      config.WebSocketConfig
	manager  *game.Manager
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
	http     *http.Server
}

// NewWebSocketServer wires the manager's notifications into a hub. Call
// Start to begin serving.
func NewWebSocketServer(cfg config.WebSocketConfig, manager *game.Manager, logger *zap.Logger) *WebSocketServer {
	s := &WebSocketServer{
		cfg:     cfg,
		manager: manager,
		hub:     NewHub(logger),
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	manager.SetNotificationHandler(s.handleNotification)
	return s
}

// Handler returns the HTTP routes: /ws?board=<id> and /healthz.
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"boards": s.manager.Len(),
		})
	})
	return mux
}

// Run starts the hub; it stops when ctx is cancelled.
func (s *WebSocketServer) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Start runs the hub and listens on cfg.Address until Shutdown.
func (s *WebSocketServer) Start(ctx context.Context) error {
	go s.Run(ctx)

	s.http = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.logger != nil {
		s.logger.Info("starting WebSocket server", zap.String("address", s.cfg.Address))
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections.
func (s *WebSocketServer) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *WebSocketServer) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin)
}

// serveWS attaches a connection to its board. The connection holds a
// reference on the session until it disconnects, so a board with no clients
// left is saved and closed.
func (s *WebSocketServer) serveWS(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Open(r.Context(), r.URL.Query().Get("board"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.manager.Release(session)
		if s.logger != nil {
			s.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	c := &Client{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		boardID: session.ID(),
		remote:  r.RemoteAddr,
	}
	if !s.hub.Register(c) {
		s.manager.Release(session)
		conn.Close()
		return
	}

	go s.writePump(c)
	go s.readPump(c, session)

	s.reply(c, session, MsgGetState)
}

func (s *WebSocketServer) readPump(c *Client, session *game.Session) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		if s.manager.Release(session) && s.logger != nil {
			s.logger.Debug("released idle board", zap.String("board_id", c.boardID))
		}
	}()

	if s.cfg.MaxMessageBytes > 0 {
		c.conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}
	pongWait := s.pongWait()
	if pongWait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && s.logger != nil {
				s.logger.Debug("websocket read error", zap.String("board_id", c.boardID), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, "malformed message")
			continue
		}
		s.handleMessage(c, session, msg)
	}
}

func (s *WebSocketServer) writePump(c *Client) {
	var tick <-chan time.Time
	if s.cfg.PingInterval > 0 {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			s.setWriteDeadline(c)
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-tick:
			s.setWriteDeadline(c)
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *WebSocketServer) setWriteDeadline(c *Client) {
	if s.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
}

func (s *WebSocketServer) pongWait() time.Duration {
	if s.cfg.PingInterval <= 0 {
		return 0
	}
	return s.cfg.PingInterval*10/9 + s.cfg.WriteTimeout
}

// handleMessage runs one client request. Committed changes reach every client
// of the board through handleNotification; replies that do not change the
// board go to the requesting client only.
func (s *WebSocketServer) handleMessage(c *Client, session *game.Session, msg ClientMessage) {
	if s.logger != nil {
		s.logger.Debug("received message",
			zap.String("board_id", c.boardID),
			zap.String("type", msg.Type),
		)
	}

	switch msg.Type {
	case MsgGetState:
		s.reply(c, session, MsgGetState)

	case MsgUndo:
		if _, ok := session.Undo(); !ok {
			s.reply(c, session, EventIgnored)
		}

	case MsgFullReset:
		session.FullReset()

	case MsgShuffleReset:
		session.ShuffleReset()

	case MsgLoadDeck:
		manifest := deck.Manifest{Main: msg.Main, Extra: msg.Extra}
		if err := manifest.Validate(); err != nil {
			s.sendError(c, err.Error())
			return
		}
		main, extra := manifest.Cards()
		if _, err := session.LoadDeck(main, extra); err != nil {
			s.sendError(c, err.Error())
		}

	case MsgRollDie:
		s.send(c, ServerMessage{Type: MsgDieResult, BoardID: c.boardID, Data: DieResult{Value: session.RollDie()}})

	case MsgFlipCoin:
		s.send(c, ServerMessage{Type: MsgCoinResult, BoardID: c.boardID, Data: CoinResult{Face: session.FlipCoin()}})

	default:
		kind := board.ActionKind(msg.Type)
		if !kind.Valid() {
			s.sendError(c, fmt.Sprintf("unknown message type %q", msg.Type))
			return
		}
		action := board.Action{Kind: kind, CardID: msg.CardID, Anchor: msg.Anchor, Count: msg.Count}
		if _, ok := session.Apply(action); !ok {
			s.reply(c, session, EventIgnored)
		}
	}
}

func (s *WebSocketServer) handleNotification(n game.GameNotification) {
	snap, ok := n.Data["snapshot"].(board.Snapshot)
	if !ok {
		return
	}
	history, _ := n.Data["history"].(int)

	payload, err := encodeBoardState(n.BoardID, n.Type, snap, history)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode board state", zap.String("board_id", n.BoardID), zap.Error(err))
		}
		return
	}
	s.hub.Broadcast(n.BoardID, payload)
}

func (s *WebSocketServer) reply(c *Client, session *game.Session, event string) {
	payload, err := encodeBoardState(c.boardID, event, session.Snapshot(), session.HistoryLen())
	if err != nil {
		s.sendError(c, "failed to encode board state")
		return
	}
	s.hub.SendTo(c, payload)
}

func (s *WebSocketServer) sendError(c *Client, message string) {
	s.send(c, ServerMessage{Type: MsgError, BoardID: c.boardID, Data: ErrorPayload{Message: message}})
}

func (s *WebSocketServer) send(c *Client, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		}
		return
	}
	s.hub.SendTo(c, payload)
}
