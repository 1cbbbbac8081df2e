// Package feed publishes per-tick measurement snapshots to websocket
// clients so external consumers can render position and smoothed rate.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"codeberg.org/treska/revmon/internal/logger"
	"codeberg.org/treska/revmon/internal/monitor"
	"github.com/gorilla/websocket"
)

const (
	broadcastBuf = 128
	sendBuf      = 32

	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// envelope is the wire format of feed messages.
type envelope struct {
	Type string    `json:"type"`
	Ts   time.Time `json:"ts"`
	Data any       `json:"data"`
}

// sampleData is the JSON payload of a "sample" message.
type sampleData struct {
	Position     int64   `json:"position"`
	Revolutions  float64 `json:"revolutions"`
	RPM          float64 `json:"rpm"`
	SmoothedRPM  float64 `json:"smoothed_rpm"`
	SampleErrors uint64  `json:"sample_errors"`
}

// Hub fans snapshot frames out to connected clients. One slow client never
// blocks the tick loop or the other clients: Publish never blocks, and a
// client whose send queue fills up is disconnected.
type Hub struct {
	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuf),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		clients:    make(map[*client]struct{}),
	}
}

// Run processes hub events until ctx is canceled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			logger.Info().Str("remote_addr", c.remoteAddr).Int("clients", n).Msg("Feed client connected")

		case c := <-h.unregister:
			h.remove(c, "disconnect")

		case msg := <-h.broadcast:
			var slow []*client
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.remove(c, "slow_client")
			}
		}
	}
}

// Publish serializes a snapshot and enqueues it for broadcast. It never
// blocks; when the queue is full the frame is dropped, a feed consumer only
// ever needs the latest sample.
func (h *Hub) Publish(snapshot *monitor.Snapshot) {
	msg, err := json.Marshal(envelope{
		Type: "sample",
		Ts:   snapshot.Timestamp,
		Data: sampleData{
			Position:     snapshot.Position,
			Revolutions:  snapshot.Revolutions,
			RPM:          snapshot.RPM,
			SmoothedRPM:  snapshot.SmoothedRPM,
			SampleErrors: snapshot.SampleErrors,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to serialize feed frame")
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		logger.Warn().Int("bytes", len(msg)).Msg("Feed queue full, dropping frame")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		close(c.send)
		logger.Info().
			Str("remote_addr", c.remoteAddr).
			Str("reason", reason).
			Int("clients", n).
			Msg("Feed client removed")
	}
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
}

// writePump drains the send queue to the websocket. It exits on write error
// or when the hub closes the send channel.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards incoming messages to detect disconnects and service
// control frames, then unregisters the client.
func (c *client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler upgrades HTTP requests and attaches the client to the hub.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("Feed upgrade failed")
			return
		}

		c := &client{
			hub:        h,
			conn:       conn,
			send:       make(chan []byte, sendBuf),
			remoteAddr: r.RemoteAddr,
		}
		h.register <- c

		// The pumps outlive the handler on purpose: the request context is
		// canceled when this handler returns, while the connection lives
		// until a pump error or hub shutdown.
		go c.writePump()
		go c.readPump()
	})
}
