package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/signalcorps/beacon/internal/codename"
	"github.com/signalcorps/beacon/internal/signal"
	"github.com/signalcorps/beacon/internal/store"
	"github.com/signalcorps/beacon/pkg/protocol"
)

type sendFlags struct {
	server     string
	deviceID   string
	code       string
	color      string
	shape      string
	motion     string
	durationMs int
	listen     bool
}

func sendCmd() *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a signal to a beacon server (or listen for incoming ones)",
		Long: "Registers this device with the server, opens the realtime channel, and " +
			"sends one signal. Use --code for a predefined code, or compose one from " +
			"--color/--shape/--motion/--duration. With --listen the connection stays " +
			"open and incoming signals are printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.server, "server", "localhost:18620", "server host:port")
	cmd.Flags().StringVar(&f.deviceID, "device", "", "device fingerprint (default: derived from hostname)")
	cmd.Flags().StringVar(&f.code, "code", "", "predefined signal code, e.g. CMD_START")
	cmd.Flags().StringVar(&f.color, "color", "", "signal color")
	cmd.Flags().StringVar(&f.shape, "shape", "", "signal shape")
	cmd.Flags().StringVar(&f.motion, "motion", "", "signal motion")
	cmd.Flags().IntVar(&f.durationMs, "duration", 0, "signal duration in milliseconds")
	cmd.Flags().BoolVar(&f.listen, "listen", false, "stay connected and print incoming signals")
	return cmd
}

func runSend(ctx context.Context, f sendFlags) error {
	if f.deviceID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown-host"
		}
		f.deviceID = "cli-" + host
	}

	// A predefined code fills in the visual attributes.
	if f.code != "" {
		code, ok := signal.NewBuiltinTable().LookupByID(f.code)
		if !ok {
			return fmt.Errorf("unknown signal code %q", f.code)
		}
		f.color, f.shape, f.motion, f.durationMs = code.Color, code.Shape, code.Motion, code.DurationMs
	}
	if !f.listen && (f.color == "" || f.shape == "" || f.motion == "" || f.durationMs <= 0) {
		return fmt.Errorf("specify --code or all of --color, --shape, --motion, --duration")
	}

	agent, err := registerAgent(ctx, f.server, f.deviceID)
	if err != nil {
		return err
	}
	fmt.Printf("registered as %s (%s)\n", agent.Codename, agent.AgentID)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, "ws://"+f.server+"/ws?deviceId="+f.deviceID, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if f.color != "" {
		payload := protocol.SignalPayload{
			FromAgent:    agent.AgentID,
			FromCodename: agent.Codename,
			CodeID:       f.code,
			Color:        f.color,
			Shape:        f.shape,
			Motion:       f.motion,
			DurationMs:   f.durationMs,
			DeviceID:     f.deviceID,
		}
		if err := wsjson.Write(ctx, conn, map[string]any{
			"type":    protocol.TypeSendSignal,
			"payload": payload,
		}); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if err := awaitAck(ctx, conn); err != nil {
			return err
		}
	}

	if f.listen {
		fmt.Println("listening for signals (ctrl-c to stop)...")
		return listenLoop(ctx, conn)
	}
	return nil
}

func registerAgent(ctx context.Context, server, deviceID string) (*store.Agent, error) {
	body, _ := json.Marshal(map[string]string{
		"deviceId": deviceID,
		"codename": codename.Generate(deviceID),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://"+server+"/api/agents/register", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Agent *store.Agent `json:"agent"`
		Error string       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("register: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Agent == nil {
		return nil, fmt.Errorf("register: %s", out.Error)
	}
	return out.Agent, nil
}

// awaitAck reads events until the server acknowledges or rejects the
// signal. Broadcasts from other agents may arrive first; skip them.
func awaitAck(ctx context.Context, conn *websocket.Conn) error {
	ackCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for {
		var frame struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := wsjson.Read(ackCtx, conn, &frame); err != nil {
			return fmt.Errorf("await ack: %w", err)
		}
		switch frame.Event {
		case protocol.EventSignalSent:
			var rec store.HistoryRecord
			if err := json.Unmarshal(frame.Payload, &rec); err != nil {
				return err
			}
			fmt.Printf("signal sent: %s (%s, urgency %s)\n", rec.CodeID, rec.Meaning, rec.Urgency)
			return nil
		case protocol.EventSignalError:
			var ep protocol.ErrorPayload
			if err := json.Unmarshal(frame.Payload, &ep); err != nil {
				return err
			}
			return fmt.Errorf("server rejected signal: %s", ep.Error)
		}
	}
}

func listenLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var frame struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if frame.Event != protocol.EventReceiveSignal {
			continue
		}
		var rec store.HistoryRecord
		if err := json.Unmarshal(frame.Payload, &rec); err != nil {
			continue
		}
		fmt.Printf("[%s] %s from %s: %s (urgency %s, %s %s %s %dms)\n",
			rec.Timestamp.Local().Format("15:04:05"),
			rec.CodeID, rec.FromCodename, rec.Meaning, rec.Urgency,
			rec.Color, rec.Shape, rec.Motion, rec.DurationMs)
	}
}
