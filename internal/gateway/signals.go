package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalcorps/beacon/internal/signal"
	"github.com/signalcorps/beacon/internal/store"
	"github.com/signalcorps/beacon/pkg/protocol"
)

var tracer = otel.Tracer("beacon/gateway")

// handleSendSignal validates an inbound signal, resolves its meaning,
// persists it, and fans it out: receiveSignal to every other connection,
// signalSent back to the sender.
func (s *Server) handleSendSignal(ctx context.Context, c *Client, raw json.RawMessage) {
	ctx, span := tracer.Start(ctx, "gateway.sendSignal",
		trace.WithAttributes(attribute.String("conn.id", c.id)))
	defer span.End()

	if s.rateLimiter.Enabled() && !s.rateLimiter.Allow(c.id) {
		c.SendEvent(*protocol.NewEvent(protocol.EventSignalError,
			protocol.ErrorPayload{Error: "rate limit exceeded"}))
		return
	}

	var p protocol.SignalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendEvent(*protocol.NewEvent(protocol.EventSignalError,
			protocol.ErrorPayload{Error: "malformed signal payload"}))
		return
	}
	if msg := validateSignal(&p); msg != "" {
		c.SendEvent(*protocol.NewEvent(protocol.EventSignalError,
			protocol.ErrorPayload{Error: msg}))
		return
	}

	// Unrecognized codeIds still relay with a placeholder: sender and
	// receiver may be running slightly different code tables.
	meaning := signal.UnknownMeaning
	urgency := signal.UnknownUrgency
	if code, ok := s.codes.LookupByID(p.CodeID); ok {
		meaning = code.Meaning
		urgency = code.Urgency
	}

	toAgent := p.ToAgent
	if toAgent == "" {
		toAgent = protocol.Broadcast
	}
	toCodename := p.ToCodename
	if toCodename == "" {
		toCodename = "ALL"
	}

	rec := &store.HistoryRecord{
		ID:           uuid.Must(uuid.NewV7()).String(),
		FromAgent:    p.FromAgent,
		FromCodename: p.FromCodename,
		ToAgent:      toAgent,
		ToCodename:   toCodename,
		CodeID:       p.CodeID,
		Color:        p.Color,
		Shape:        p.Shape,
		Motion:       p.Motion,
		DurationMs:   p.DurationMs,
		Meaning:      meaning,
		Urgency:      urgency,
		DeviceID:     p.DeviceID,
		Timestamp:    time.Now().UTC(),
		ConnID:       c.id,
	}
	span.SetAttributes(
		attribute.String("signal.code_id", rec.CodeID),
		attribute.String("signal.urgency", rec.Urgency),
	)

	if err := s.stores.History.Append(ctx, rec); err != nil {
		slog.Error("failed to store signal", "id", rec.ID, "error", err)
		span.RecordError(err)
		c.SendEvent(*protocol.NewEvent(protocol.EventSignalError,
			protocol.ErrorPayload{Error: "failed to store signal"}))
		return
	}

	s.BroadcastExcept(c.id, *protocol.NewEvent(protocol.EventReceiveSignal, rec))
	c.SendEvent(*protocol.NewEvent(protocol.EventSignalSent, rec))

	slog.Debug("signal relayed", "id", rec.ID, "codeId", rec.CodeID, "from", rec.FromCodename)
}

// validateSignal returns an error message for a rejectable payload, or ""
// when the signal may proceed. A codeId must be present; whether it
// resolves against the table is a separate, tolerated question.
func validateSignal(p *protocol.SignalPayload) string {
	switch {
	case p.DeviceID == "":
		return "deviceId is required"
	case p.FromAgent == "":
		return "fromAgent is required"
	case p.FromCodename == "":
		return "fromCodename is required"
	case p.CodeID == "":
		return "codeId is required"
	case p.Color == "":
		return "color is required"
	case p.Shape == "":
		return "shape is required"
	case p.Motion == "":
		return "motion is required"
	case p.DurationMs <= 0:
		return "durationMs must be positive"
	}
	return ""
}
