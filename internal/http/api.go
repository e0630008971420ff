// Package http exposes the read/query REST surface next to the WebSocket
// channel: signal codes, agent registration, and history lookups.
package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/signalcorps/beacon/internal/signal"
	"github.com/signalcorps/beacon/internal/store"
)

// Presence answers whether a device currently holds a live connection.
// Implemented by the gateway server.
type Presence interface {
	Online(deviceID string) bool
}

// APIHandler bundles the REST endpoints over the stores and code table.
type APIHandler struct {
	stores   *store.Stores
	codes    *signal.Table
	presence Presence
}

// NewAPIHandler creates the REST handler. presence may be nil; agents are
// then reported offline.
func NewAPIHandler(stores *store.Stores, codes *signal.Table, presence Presence) *APIHandler {
	return &APIHandler{stores: stores, codes: codes, presence: presence}
}

// RegisterRoutes registers all REST routes on the given mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/signal-codes", h.handleSignalCodes)
	mux.HandleFunc("GET /api/signal-options", h.handleSignalOptions)
	mux.HandleFunc("POST /api/agents/register", h.handleRegister)
	mux.HandleFunc("GET /api/agents", h.handleListAgents)
	mux.HandleFunc("GET /api/signals", h.handleListSignals)
	mux.HandleFunc("GET /api/agents/{agentId}/history", h.handleAgentHistory)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clientIP extracts the caller address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// queryLimit parses the optional ?limit= parameter; 0 means "use max".
func queryLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
