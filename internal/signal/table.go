package signal

import (
	"fmt"
	"sync"
)

// Table is the in-memory signal code table. Lookups are pure and exact:
// no partial or fuzzy matching. The table can be atomically replaced at
// runtime (custom code file reload); individual entries never mutate.
type Table struct {
	mu      sync.RWMutex
	byID    map[string]Code
	byAttrs map[Attrs]Code
	codes   []Code
}

// NewTable builds a table from the given codes. Duplicate codeIds or
// duplicate (color, shape, motion, durationMs) tuples are rejected — the
// 4-tuple must determine at most one code.
func NewTable(codes []Code) (*Table, error) {
	t := &Table{}
	if err := t.replace(codes); err != nil {
		return nil, err
	}
	return t, nil
}

// NewBuiltinTable builds a table from the predefined library. The builtin
// set is known-consistent, so this never fails.
func NewBuiltinTable() *Table {
	t, err := NewTable(BuiltinCodes())
	if err != nil {
		panic("signal: builtin table invalid: " + err.Error())
	}
	return t
}

func (t *Table) replace(codes []Code) error {
	byID := make(map[string]Code, len(codes))
	byAttrs := make(map[Attrs]Code, len(codes))
	kept := make([]Code, 0, len(codes))

	for _, c := range codes {
		if c.CodeID == "" {
			return fmt.Errorf("signal code with empty codeId")
		}
		if _, dup := byID[c.CodeID]; dup {
			return fmt.Errorf("duplicate codeId %q", c.CodeID)
		}
		key := Attrs{Color: c.Color, Shape: c.Shape, Motion: c.Motion, DurationMs: c.DurationMs}
		if prev, dup := byAttrs[key]; dup {
			return fmt.Errorf("codes %q and %q share attributes %s/%s/%s/%dms",
				prev.CodeID, c.CodeID, c.Color, c.Shape, c.Motion, c.DurationMs)
		}
		byID[c.CodeID] = c
		byAttrs[key] = c
		kept = append(kept, c)
	}

	t.mu.Lock()
	t.byID = byID
	t.byAttrs = byAttrs
	t.codes = kept
	t.mu.Unlock()
	return nil
}

// Replace swaps in a new code set atomically. Used by the code file watcher.
func (t *Table) Replace(codes []Code) error {
	return t.replace(codes)
}

// LookupByAttributes resolves an exact (color, shape, motion, durationMs)
// tuple. A miss returns ok=false and is a valid outcome, not an error.
func (t *Table) LookupByAttributes(color, shape, motion string, durationMs int) (Code, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byAttrs[Attrs{Color: color, Shape: shape, Motion: motion, DurationMs: durationMs}]
	return c, ok
}

// LookupByID resolves a codeId.
func (t *Table) LookupByID(codeID string) (Code, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byID[codeID]
	return c, ok
}

// All returns the current code set in table order.
func (t *Table) All() []Code {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Code, len(t.codes))
	copy(out, t.codes)
	return out
}

// Len returns the number of codes in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.codes)
}
