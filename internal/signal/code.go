package signal

// Urgency levels, lowest to highest.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Placeholder values used when a codeId does not resolve against the table.
// Unknown codes are tolerated, not fatal: sender and receiver may be running
// slightly different code tables.
const (
	UnknownMeaning = "Unknown signal"
	UnknownUrgency = UrgencyMedium
)

// Code is one entry of the signal code library. The 4-tuple
// (Color, Shape, Motion, DurationMs) uniquely identifies a code.
type Code struct {
	CodeID     string `json:"codeId"`
	Color      string `json:"color"`
	Shape      string `json:"shape"`
	Motion     string `json:"motion"`
	DurationMs int    `json:"durationMs"`
	Meaning    string `json:"meaning"`
	Urgency    string `json:"urgency"`
}

// Attrs is the composite lookup key for a code.
type Attrs struct {
	Color      string
	Shape      string
	Motion     string
	DurationMs int
}

// Options enumerates the values a signal can be composed from. Combinations
// outside the builtin table are legal to send; they just resolve to no code.
type Options struct {
	Colors    []string `json:"colors"`
	Shapes    []string `json:"shapes"`
	Motions   []string `json:"motions"`
	Durations []int    `json:"durations"`
}

// DefaultOptions returns the standard composition palette.
func DefaultOptions() Options {
	return Options{
		Colors:    []string{"red", "blue", "green", "yellow", "orange", "purple", "black", "white"},
		Shapes:    []string{"circle", "square", "triangle", "diamond", "star"},
		Motions:   []string{"steady", "pulse", "flash", "rotate", "bounce"},
		Durations: []int{1000, 1500, 2000, 2500, 3000},
	}
}
