package http

import (
	"net/http"

	"github.com/signalcorps/beacon/internal/signal"
)

// handleSignalCodes returns the full signal code table.
func (h *APIHandler) handleSignalCodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.codes.All())
}

// handleSignalOptions returns the attribute palettes clients compose
// signals from.
func (h *APIHandler) handleSignalOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, signal.DefaultOptions())
}
