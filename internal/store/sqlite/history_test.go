package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/signalcorps/beacon/internal/store"
)

func testRecord(from, to string, ts time.Time) *store.HistoryRecord {
	return &store.HistoryRecord{
		ID:           uuid.Must(uuid.NewV7()).String(),
		FromAgent:    from,
		FromCodename: "RED-WOLF-3",
		ToAgent:      to,
		ToCodename:   "ALL",
		CodeID:       "CMD_START",
		Color:        "red",
		Shape:        "triangle",
		Motion:       "pulse",
		DurationMs:   2000,
		Meaning:      "Start mission",
		Urgency:      "high",
		DeviceID:     "dev-" + from,
		Timestamp:    ts,
		ConnID:       "conn-1",
	}
}

func TestAppendThenListRecent(t *testing.T) {
	ctx := context.Background()
	hist := NewHistoryStore(openTestDB(t))

	rec := testRecord("a1", "broadcast", time.Now().UTC())
	if err := hist.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := hist.ListRecent(ctx, 1)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].ID != rec.ID {
		t.Errorf("first record = %s, want just-appended %s", got[0].ID, rec.ID)
	}
	if got[0].Meaning != "Start mission" || got[0].Urgency != "high" {
		t.Errorf("denormalized fields lost: %+v", got[0])
	}
	if !got[0].Timestamp.Equal(rec.Timestamp.Truncate(time.Millisecond)) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, rec.Timestamp)
	}
}

func TestListRecent_OrderAndClamp(t *testing.T) {
	ctx := context.Background()
	hist := NewHistoryStore(openTestDB(t))

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < store.MaxRecentHistory+10; i++ {
		rec := testRecord(fmt.Sprintf("a%d", i), "broadcast", base.Add(time.Duration(i)*time.Millisecond))
		if err := hist.Append(ctx, rec); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	got, err := hist.ListRecent(ctx, 0) // 0 clamps to the maximum
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != store.MaxRecentHistory {
		t.Fatalf("got %d records, want clamp at %d", len(got), store.MaxRecentHistory)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("records out of order at %d", i)
		}
	}
	// Oversized limits clamp too.
	got, err = hist.ListRecent(ctx, 10000)
	if err != nil {
		t.Fatalf("ListRecent big limit: %v", err)
	}
	if len(got) != store.MaxRecentHistory {
		t.Errorf("got %d records, want %d", len(got), store.MaxRecentHistory)
	}
}

func TestListForParticipant(t *testing.T) {
	ctx := context.Background()
	hist := NewHistoryStore(openTestDB(t))

	base := time.Now().UTC().Truncate(time.Millisecond)
	// a1 sends one, receives one, and is a bystander for one.
	if err := hist.Append(ctx, testRecord("a1", "broadcast", base)); err != nil {
		t.Fatal(err)
	}
	if err := hist.Append(ctx, testRecord("a2", "a1", base.Add(time.Millisecond))); err != nil {
		t.Fatal(err)
	}
	if err := hist.Append(ctx, testRecord("a2", "a3", base.Add(2*time.Millisecond))); err != nil {
		t.Fatal(err)
	}

	got, err := hist.ListForParticipant(ctx, "a1", 50)
	if err != nil {
		t.Fatalf("ListForParticipant: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records for a1, want 2", len(got))
	}
	for _, r := range got {
		if r.FromAgent != "a1" && r.ToAgent != "a1" {
			t.Errorf("record %s does not involve a1", r.ID)
		}
	}
	if got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("participant history not most-recent-first")
	}
}
