package signal

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLookupByAttributes_Hits verifies every builtin code resolves by its
// own attribute tuple, and that repeated lookups return the identical code.
func TestLookupByAttributes_Hits(t *testing.T) {
	table := NewBuiltinTable()

	for _, want := range BuiltinCodes() {
		got, ok := table.LookupByAttributes(want.Color, want.Shape, want.Motion, want.DurationMs)
		if !ok {
			t.Fatalf("lookup(%s/%s/%s/%d) = miss, want %s", want.Color, want.Shape, want.Motion, want.DurationMs, want.CodeID)
		}
		if got != want {
			t.Errorf("lookup(%s) = %+v, want %+v", want.CodeID, got, want)
		}

		// Purity: a second call returns the same result.
		again, ok := table.LookupByAttributes(want.Color, want.Shape, want.Motion, want.DurationMs)
		if !ok || again != got {
			t.Errorf("repeated lookup(%s) diverged: %+v vs %+v", want.CodeID, again, got)
		}
	}
}

func TestLookupByAttributes_Misses(t *testing.T) {
	table := NewBuiltinTable()

	tests := []struct {
		name                  string
		color, shape, motion  string
		durationMs            int
	}{
		{"unknown color", "magenta", "triangle", "pulse", 2000},
		{"near miss on duration", "red", "triangle", "pulse", 2001},
		{"near miss on shape", "red", "square", "pulse", 2000},
		{"empty tuple", "", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := table.LookupByAttributes(tt.color, tt.shape, tt.motion, tt.durationMs); ok {
				t.Errorf("expected miss, got %+v", got)
			}
		})
	}
}

func TestLookupByID(t *testing.T) {
	table := NewBuiltinTable()

	got, ok := table.LookupByID("CMD_START")
	if !ok {
		t.Fatal("CMD_START not found")
	}
	if got.Meaning != "Start mission" || got.Urgency != UrgencyHigh {
		t.Errorf("CMD_START = %+v, want meaning %q urgency %q", got, "Start mission", UrgencyHigh)
	}

	if _, ok := table.LookupByID("CMD_NOPE"); ok {
		t.Error("expected miss for CMD_NOPE")
	}
}

func TestNewTable_RejectsDuplicateTuple(t *testing.T) {
	_, err := NewTable([]Code{
		{CodeID: "A", Color: "red", Shape: "circle", Motion: "flash", DurationMs: 1000, Meaning: "a", Urgency: UrgencyLow},
		{CodeID: "B", Color: "red", Shape: "circle", Motion: "flash", DurationMs: 1000, Meaning: "b", Urgency: UrgencyLow},
	})
	if err == nil {
		t.Fatal("expected error for duplicate attribute tuple")
	}
}

func TestNewTable_RejectsDuplicateID(t *testing.T) {
	_, err := NewTable([]Code{
		{CodeID: "A", Color: "red", Shape: "circle", Motion: "flash", DurationMs: 1000},
		{CodeID: "A", Color: "blue", Shape: "circle", Motion: "flash", DurationMs: 1000},
	})
	if err == nil {
		t.Fatal("expected error for duplicate codeId")
	}
}

func TestLoadFile_MergesOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.json5")
	content := `{
		// custom overrides for the field team
		codes: [
			{codeId: "CMD_START", color: "red", shape: "triangle", motion: "pulse", durationMs: 2000, meaning: "Go loud", urgency: "critical"},
			{codeId: "CMD_REGROUP", color: "purple", shape: "star", motion: "rotate", durationMs: 2500, meaning: "Regroup at rally point", urgency: "high"},
		],
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	codes, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(codes) != len(BuiltinCodes())+1 {
		t.Fatalf("got %d codes, want %d", len(codes), len(BuiltinCodes())+1)
	}

	table, err := NewTable(codes)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	start, ok := table.LookupByID("CMD_START")
	if !ok || start.Meaning != "Go loud" || start.Urgency != UrgencyCritical {
		t.Errorf("CMD_START override not applied: %+v", start)
	}
	if _, ok := table.LookupByID("CMD_REGROUP"); !ok {
		t.Error("new custom code CMD_REGROUP missing")
	}
	// Untouched builtin survives.
	if _, ok := table.LookupByID("CMD_ABORT"); !ok {
		t.Error("builtin CMD_ABORT missing after merge")
	}
}

func TestReplace_KeepsTableConsistent(t *testing.T) {
	table := NewBuiltinTable()

	err := table.Replace([]Code{
		{CodeID: "ONLY", Color: "white", Shape: "star", Motion: "steady", DurationMs: 1000, Meaning: "only", Urgency: UrgencyLow},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}
	if _, ok := table.LookupByID("CMD_START"); ok {
		t.Error("old code still resolvable after Replace")
	}
}
