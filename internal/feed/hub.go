// Package feed broadcasts engine snapshots to read-only websocket
// spectators.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjack/internal/engine"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Spectators never send anything meaningful
	maxMessageSize = 512

	sendBuffer = 32
)

// Hub fans engine events out to every connected spectator. It implements
// engine.Subscriber; broadcasting never blocks the engine.
type Hub struct {
	addr     string
	upgrader websocket.Upgrader
	clock    quartz.Clock
	logger   *log.Logger

	mu      sync.RWMutex
	clients map[*client]bool
	latest  *Message

	server *http.Server
}

// NewHub creates a hub that will listen on addr when started
func NewHub(addr string, clock quartz.Clock, logger *log.Logger) *Hub {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		addr: addr,
		upgrader: websocket.Upgrader{
			// spectators are read-only, so any origin may watch
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clock:   clock,
		logger:  logger.WithPrefix("feed"),
		clients: make(map[*client]bool),
	}
}

// Handler returns the feed's routes: /ws for spectators, /health for probes
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

// Start serves the feed until ctx is cancelled
func (h *Hub) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("feed listen %s: %w", h.addr, err)
	}
	return h.Serve(ctx, listener)
}

// Serve is Start on an existing listener
func (h *Hub) Serve(ctx context.Context, listener net.Listener) error {
	h.server = &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.server.Shutdown(shutdownCtx)
		h.Close()
	}()

	h.logger.Info("Starting spectator feed", "addr", listener.Addr().String())
	if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects every spectator
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

// ClientCount returns the number of connected spectators
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnEvent implements engine.Subscriber
func (h *Hub) OnEvent(event engine.Event) {
	var (
		msg *Message
		err error
	)
	switch ev := event.(type) {
	case engine.StateChangeEvent:
		msg, err = NewMessage(MessageTypeSnapshot, SnapshotData{Action: ev.Action, State: ev.State}, ev.Timestamp())
	case engine.RoundResolvedEvent:
		msg, err = NewMessage(MessageTypeRoundResult, RoundResultData{
			RoundID: ev.RoundID,
			Results: ev.Results,
			Net:     ev.Net,
			Balance: ev.State.Balance,
		}, ev.Timestamp())
	default:
		return
	}
	if err != nil {
		h.logger.Error("Failed to encode feed message", "event", event.EventType(), "error", err)
		return
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for every spectator. Snapshots are remembered so
// late joiners start from the current table.
func (h *Hub) Broadcast(msg *Message) {
	h.mu.Lock()
	if msg.Type == MessageTypeSnapshot {
		h.latest = msg
	}
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.enqueue(msg) {
			h.logger.Warn("Spectator too slow, disconnecting", "remote", c.remote)
			h.remove(c)
		}
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn, h.clock, h.logger)

	h.mu.Lock()
	h.clients[c] = true
	latest := h.latest
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Spectator connected", "remote", c.remote, "total", total)

	if latest != nil {
		c.enqueue(latest)
	}

	go c.writePump()
	go func() {
		c.readPump()
		h.remove(c)
	}()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.logger.Info("Spectator disconnected", "remote", c.remote, "total", total)
	}
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
