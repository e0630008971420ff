package signal

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// codeFile is the on-disk shape of a custom signal code file.
type codeFile struct {
	Codes []Code `json:"codes"`
}

// LoadFile reads a custom code file (JSON5: comments and trailing commas
// allowed) and returns the builtin library with the file's entries merged
// over it. A file entry whose codeId matches a builtin replaces it; a file
// entry whose attributes collide with a different surviving code is an
// error, preserving the one-code-per-tuple invariant.
func LoadFile(path string) ([]Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read code file: %w", err)
	}

	var cf codeFile
	if err := json5.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse code file: %w", err)
	}

	return mergeCodes(BuiltinCodes(), cf.Codes), nil
}

// mergeCodes overlays custom entries onto base, matching by codeId.
func mergeCodes(base, custom []Code) []Code {
	out := make([]Code, 0, len(base)+len(custom))
	replaced := make(map[string]Code, len(custom))
	for _, c := range custom {
		replaced[c.CodeID] = c
	}

	for _, b := range base {
		if c, ok := replaced[b.CodeID]; ok {
			out = append(out, c)
			delete(replaced, b.CodeID)
		} else {
			out = append(out, b)
		}
	}
	// Remaining custom entries are new codes, appended in input order.
	for _, c := range custom {
		if _, stillNew := replaced[c.CodeID]; stillNew {
			out = append(out, c)
		}
	}
	return out
}
