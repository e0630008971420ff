package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/signalcorps/beacon/internal/store"
)

type registerRequest struct {
	DeviceID string `json:"deviceId"`
	Codename string `json:"codename,omitempty"`
}

// handleRegister upserts an agent keyed by device fingerprint. Calling it
// twice with the same deviceId returns the same identity with lastSeen
// advanced.
func (h *APIHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	agent, err := h.stores.Agents.Register(r.Context(), req.DeviceID, req.Codename, clientIP(r))
	if err != nil {
		if errors.Is(err, store.ErrDeviceIDRequired) {
			writeError(w, http.StatusBadRequest, "deviceId is required")
			return
		}
		slog.Error("agent registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register agent")
		return
	}

	agent.Online = h.online(agent.DeviceID)
	writeJSON(w, http.StatusOK, map[string]any{"agent": agent})
}

// handleListAgents returns all active agents, most recently seen first,
// decorated with live connection state.
func (h *APIHandler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.stores.Agents.ListActive(r.Context())
	if err != nil {
		slog.Error("agent listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}
	for i := range agents {
		agents[i].Online = h.online(agents[i].DeviceID)
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *APIHandler) online(deviceID string) bool {
	return h.presence != nil && h.presence.Online(deviceID)
}
