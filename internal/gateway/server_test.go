package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/signalcorps/beacon/internal/config"
	"github.com/signalcorps/beacon/internal/signal"
	"github.com/signalcorps/beacon/internal/store"
	"github.com/signalcorps/beacon/internal/store/sqlite"
	"github.com/signalcorps/beacon/pkg/protocol"
)

type recvFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T, rpm int) (addr string, stores *store.Stores) {
	t.Helper()

	st, err := sqlite.NewStores(store.Config{SQLitePath: filepath.Join(t.TempDir(), "beacon.db")})
	if err != nil {
		t.Fatalf("open stores: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.Server.RateLimitRPM = rpm

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := NewServer(cfg, st, signal.NewBuiltinTable())
	addr, start := StartTestServer(s, ctx)
	go start()
	return addr, st
}

func dial(t *testing.T, addr, deviceID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+addr+"/ws?deviceId="+deviceID, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", deviceID, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func sendSignal(t *testing.T, conn *websocket.Conn, payload protocol.SignalPayload) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frame := map[string]any{"type": protocol.TypeSendSignal, "payload": payload}
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) recvFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var frame recvFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	return frame
}

// expectNoEvent fails if the connection produces anything within the window.
func expectNoEvent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var frame recvFrame
	if err := wsjson.Read(ctx, conn, &frame); err == nil {
		t.Fatalf("unexpected event %q", frame.Event)
	}
}

func startSignal(deviceID string) protocol.SignalPayload {
	return protocol.SignalPayload{
		FromAgent:    "agent-" + deviceID,
		FromCodename: "RED-WOLF-3",
		CodeID:       "CMD_START",
		Color:        "red",
		Shape:        "triangle",
		Motion:       "pulse",
		DurationMs:   2000,
		DeviceID:     deviceID,
	}
}

func TestSignalFanOut(t *testing.T) {
	addr, stores := newTestServer(t, 0)

	sender := dial(t, addr, "dev-a")
	recv1 := dial(t, addr, "dev-b")
	recv2 := dial(t, addr, "dev-c")

	sendSignal(t, sender, startSignal("dev-a"))

	// Both receivers get exactly one enriched receiveSignal.
	for _, conn := range []*websocket.Conn{recv1, recv2} {
		frame := readEvent(t, conn)
		if frame.Event != protocol.EventReceiveSignal {
			t.Fatalf("event = %q, want receiveSignal", frame.Event)
		}
		var rec store.HistoryRecord
		if err := json.Unmarshal(frame.Payload, &rec); err != nil {
			t.Fatal(err)
		}
		if rec.Meaning != "Start mission" || rec.Urgency != signal.UrgencyHigh {
			t.Errorf("resolution wrong: meaning=%q urgency=%q", rec.Meaning, rec.Urgency)
		}
		if rec.ID == "" || rec.Timestamp.IsZero() {
			t.Errorf("server enrichment missing: %+v", rec)
		}
		if rec.ToAgent != protocol.Broadcast {
			t.Errorf("toAgent = %q, want broadcast default", rec.ToAgent)
		}
		if rec.ToCodename != "ALL" {
			t.Errorf("toCodename = %q, want ALL default", rec.ToCodename)
		}
	}

	// The sender gets the ack, never an echo of its own broadcast.
	frame := readEvent(t, sender)
	if frame.Event != protocol.EventSignalSent {
		t.Fatalf("sender event = %q, want signalSent", frame.Event)
	}
	expectNoEvent(t, sender)

	// The signal is durable.
	recent, err := stores.History.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].CodeID != "CMD_START" {
		t.Errorf("history = %+v", recent)
	}
}

func TestUnknownCodeStillRelays(t *testing.T) {
	addr, _ := newTestServer(t, 0)

	sender := dial(t, addr, "dev-a")
	recv := dial(t, addr, "dev-b")

	p := startSignal("dev-a")
	p.CodeID = "CMD_MYSTERY"
	p.Color = "purple"
	p.Shape = "star"
	p.Motion = "bounce"
	p.DurationMs = 1234
	sendSignal(t, sender, p)

	frame := readEvent(t, recv)
	if frame.Event != protocol.EventReceiveSignal {
		t.Fatalf("event = %q", frame.Event)
	}
	var rec store.HistoryRecord
	if err := json.Unmarshal(frame.Payload, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Meaning != signal.UnknownMeaning || rec.Urgency != signal.UnknownUrgency {
		t.Errorf("unknown code placeholders missing: meaning=%q urgency=%q", rec.Meaning, rec.Urgency)
	}
}

func TestSendSignal_MissingDeviceID(t *testing.T) {
	addr, stores := newTestServer(t, 0)

	sender := dial(t, addr, "dev-a")
	p := startSignal("dev-a")
	p.DeviceID = ""
	sendSignal(t, sender, p)

	frame := readEvent(t, sender)
	if frame.Event != protocol.EventSignalError {
		t.Fatalf("event = %q, want signalError", frame.Event)
	}
	var ep protocol.ErrorPayload
	if err := json.Unmarshal(frame.Payload, &ep); err != nil {
		t.Fatal(err)
	}
	if ep.Error != "deviceId is required" {
		t.Errorf("error = %q", ep.Error)
	}

	// Rejected signals never reach the history.
	recent, err := stores.History.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("rejected signal persisted: %+v", recent)
	}
}

func TestSendSignal_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*protocol.SignalPayload)
		wantErr string
	}{
		{"fromAgent", func(p *protocol.SignalPayload) { p.FromAgent = "" }, "fromAgent is required"},
		{"fromCodename", func(p *protocol.SignalPayload) { p.FromCodename = "" }, "fromCodename is required"},
		{"codeId", func(p *protocol.SignalPayload) { p.CodeID = "" }, "codeId is required"},
	}

	addr, stores := newTestServer(t, 0)
	sender := dial(t, addr, "dev-a")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := startSignal("dev-a")
			tt.mutate(&p)
			sendSignal(t, sender, p)

			frame := readEvent(t, sender)
			if frame.Event != protocol.EventSignalError {
				t.Fatalf("event = %q, want signalError", frame.Event)
			}
			var ep protocol.ErrorPayload
			if err := json.Unmarshal(frame.Payload, &ep); err != nil {
				t.Fatal(err)
			}
			if ep.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", ep.Error, tt.wantErr)
			}
		})
	}

	recent, err := stores.History.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("rejected signal persisted: %+v", recent)
	}
}

func TestUnknownMessageType(t *testing.T) {
	addr, _ := newTestServer(t, 0)
	conn := dial(t, addr, "dev-a")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, map[string]any{"type": "ping"}); err != nil {
		t.Fatal(err)
	}

	frame := readEvent(t, conn)
	if frame.Event != protocol.EventSignalError {
		t.Errorf("event = %q, want signalError", frame.Event)
	}
}

func listAgents(t *testing.T, addr string) []store.Agent {
	t.Helper()
	resp, err := http.Get("http://" + addr + "/api/agents")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var agents []store.Agent
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		t.Fatal(err)
	}
	return agents
}

func TestPresenceTracksConnections(t *testing.T) {
	addr, stores := newTestServer(t, 0)
	ctx := context.Background()

	if _, err := stores.Agents.Register(ctx, "dev-a", "RED-WOLF-3", "ip"); err != nil {
		t.Fatal(err)
	}

	agents := listAgents(t, addr)
	if len(agents) != 1 || agents[0].Online {
		t.Fatalf("expected one offline agent, got %+v", agents)
	}

	conn := dial(t, addr, "dev-a")

	if agents := listAgents(t, addr); !agents[0].Online {
		t.Error("connected agent reported offline")
	}

	conn.Close(websocket.StatusNormalClosure, "")

	// Disconnect cleanup is asynchronous.
	deadline := time.Now().Add(3 * time.Second)
	for {
		if agents := listAgents(t, addr); !agents[0].Online {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("agent still online after disconnect")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRateLimit(t *testing.T) {
	// 1 RPM with burst 5: the sixth rapid send must trip the limiter.
	addr, _ := newTestServer(t, 1)
	sender := dial(t, addr, "dev-a")

	limited := false
	for i := 0; i < 6; i++ {
		sendSignal(t, sender, startSignal("dev-a"))
		frame := readEvent(t, sender)
		switch frame.Event {
		case protocol.EventSignalSent:
		case protocol.EventSignalError:
			var ep protocol.ErrorPayload
			if err := json.Unmarshal(frame.Payload, &ep); err != nil {
				t.Fatal(err)
			}
			if ep.Error != "rate limit exceeded" {
				t.Fatalf("error = %q", ep.Error)
			}
			limited = true
		default:
			t.Fatalf("unexpected event %q", frame.Event)
		}
	}
	if !limited {
		t.Error("limiter never tripped after burst exhausted")
	}
}
