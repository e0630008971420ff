package http

import (
	"log/slog"
	"net/http"
)

// handleListSignals returns the most recent signals across all agents,
// newest first. limit defaults to and is capped at the recent-history max.
func (h *APIHandler) handleListSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := h.stores.History.ListRecent(r.Context(), queryLimit(r))
	if err != nil {
		slog.Error("signal listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list signals")
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// handleAgentHistory returns signals the agent sent or received.
func (h *APIHandler) handleAgentHistory(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentId")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	signals, err := h.stores.History.ListForParticipant(r.Context(), agentID, queryLimit(r))
	if err != nil {
		slog.Error("agent history lookup failed", "agentId", agentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load agent history")
		return
	}
	writeJSON(w, http.StatusOK, signals)
}
