package server

import (
	"context"

	"go.uber.org/zap"
)

type outbound struct {
	boardID string
	client  *Client // nil broadcasts to every client of boardID
	payload []byte
}

// Hub tracks connected clients per board and owns every write to their send
// queues.
type Hub struct {
	logger *zap.Logger

	boards     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbound   chan outbound
	done       chan struct{}
}

// NewHub creates a hub; call Run to start it.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		boards:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outbound, 256),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.boards {
				for c := range clients {
					close(c.send)
				}
			}
			h.boards = make(map[string]map[*Client]bool)
			return

		case c := <-h.register:
			clients, ok := h.boards[c.boardID]
			if !ok {
				clients = make(map[*Client]bool)
				h.boards[c.boardID] = clients
			}
			clients[c] = true
			if h.logger != nil {
				h.logger.Debug("client registered",
					zap.String("board_id", c.boardID),
					zap.String("remote", c.remote),
				)
			}

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.outbound:
			if msg.client != nil {
				if h.boards[msg.boardID][msg.client] {
					h.deliver(msg.client, msg.payload)
				}
				continue
			}
			for c := range h.boards[msg.boardID] {
				h.deliver(c, msg.payload)
			}
		}
	}
}

// deliver drops clients whose queue is full.
func (h *Hub) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		if h.logger != nil {
			h.logger.Warn("client send queue full, disconnecting",
				zap.String("board_id", c.boardID),
				zap.String("remote", c.remote),
			)
		}
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	clients, ok := h.boards[c.boardID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.boards, c.boardID)
	}
	if h.logger != nil {
		h.logger.Debug("client unregistered",
			zap.String("board_id", c.boardID),
			zap.String("remote", c.remote),
		)
	}
}

// Register adds c to its board. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues payload for every client of boardID.
func (h *Hub) Broadcast(boardID string, payload []byte) {
	select {
	case h.outbound <- outbound{boardID: boardID, payload: payload}:
	case <-h.done:
	}
}

// SendTo queues payload for a single client.
func (h *Hub) SendTo(c *Client, payload []byte) {
	select {
	case h.outbound <- outbound{boardID: c.boardID, client: c, payload: payload}:
	case <-h.done:
	}
}
