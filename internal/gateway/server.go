// Package gateway implements the realtime signal channel: WebSocket
// connections, signal fan-out, and the HTTP surface around them.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalcorps/beacon/internal/config"
	httpapi "github.com/signalcorps/beacon/internal/http"
	"github.com/signalcorps/beacon/internal/signal"
	"github.com/signalcorps/beacon/internal/store"
	"github.com/signalcorps/beacon/pkg/protocol"
)

// Server owns the WebSocket connection set and the HTTP mux.
type Server struct {
	cfg    *config.Config
	stores *store.Stores
	codes  *signal.Table

	upgrader    websocket.Upgrader
	rateLimiter *RateLimiter
	clients     map[string]*Client
	presence    map[string]int // deviceId -> live connection count
	mu          sync.RWMutex

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a new gateway server.
func NewServer(cfg *config.Config, stores *store.Stores, codes *signal.Table) *Server {
	s := &Server{
		cfg:      cfg,
		stores:   stores,
		codes:    codes,
		clients:  make(map[string]*Client),
		presence: make(map[string]int),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// rate_limit_rpm > 0  → enabled at that RPM per connection
	// rate_limit_rpm <= 0 → disabled (default)
	s.rateLimiter = NewRateLimiter(cfg.Server.RateLimitRPM, 5)

	return s
}

// checkOrigin validates the WebSocket Origin header against the allowed
// origins whitelist. No configured origins = allow all (dev mode). Empty
// Origin (non-browser clients like the send CLI) is always allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	allowed := s.cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if origin == a || a == "*" {
			return true
		}
	}
	slog.Warn("security.cors_rejected", "origin", origin)
	return false
}

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleBanner)

	api := httpapi.NewAPIHandler(s.stores, s.codes, s)
	api.RegisterRoutes(mux)

	s.mux = mux
	return mux
}

// Start begins listening and blocks until ctx is cancelled. Connected
// clients receive a shutdown event before the listener closes.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()

	addr := s.cfg.Addr()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("beacon server starting", "addr", addr)

	go func() {
		<-ctx.Done()
		s.BroadcastEvent(*protocol.NewEvent(protocol.EventShutdown, nil))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("beacon server: %w", err)
	}
	return nil
}

// handleWebSocket upgrades HTTP to WebSocket and manages the connection.
// The deviceId query parameter ties the connection to an agent identity
// for presence; anonymous connections still receive broadcasts.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s, deviceID)
	s.registerClient(client)

	defer func() {
		s.unregisterClient(client)
		client.Close()
	}()

	client.Run(r.Context())
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","protocol":%d,"connections":%d}`,
		protocol.ProtocolVersion, s.ClientCount())
}

// handleBanner identifies the service on the bare root path.
func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"service":"beacon","description":"visual signal relay","websocket":"/ws"}`)
}

// BroadcastEvent sends an event to all connected clients.
func (s *Server) BroadcastEvent(event protocol.EventFrame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		client.SendEvent(event)
	}
}

// BroadcastExcept sends an event to every connected client except the
// connection identified by connID. The sender gets its own ack event
// instead of an echo.
func (s *Server) BroadcastExcept(connID string, event protocol.EventFrame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, client := range s.clients {
		if id == connID {
			continue
		}
		client.SendEvent(event)
	}
}

// Online reports whether any live connection is tied to the device.
func (s *Server) Online(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presence[deviceID] > 0
}

// ClientCount returns the number of live connections.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) registerClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
	if c.deviceID != "" {
		s.presence[c.deviceID]++
	}
	slog.Info("client connected", "id", c.id, "deviceId", c.deviceID)
}

func (s *Server) unregisterClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c.id)
	s.rateLimiter.Forget(c.id)
	if c.deviceID != "" {
		if s.presence[c.deviceID]--; s.presence[c.deviceID] <= 0 {
			delete(s.presence, c.deviceID)
		}
	}
	slog.Info("client disconnected", "id", c.id, "deviceId", c.deviceID)
}

// StartTestServer creates a listener on 127.0.0.1:0 and returns the actual
// address and a start function. Used for integration tests.
func StartTestServer(s *Server, ctx context.Context) (addr string, start func()) {
	mux := s.BuildMux()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic("listen: " + err.Error())
	}

	s.httpServer = &http.Server{Handler: mux}
	addr = ln.Addr().String()

	start = func() {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.httpServer.Shutdown(shutdownCtx)
		}()
		s.httpServer.Serve(ln)
	}

	return addr, start
}
