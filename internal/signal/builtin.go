package signal

// builtinCodes is the predefined signal code library.
var builtinCodes = []Code{
	{CodeID: "CMD_START", Color: "red", Shape: "triangle", Motion: "pulse", DurationMs: 2000, Meaning: "Start mission", Urgency: UrgencyHigh},
	{CodeID: "CMD_HOLD", Color: "blue", Shape: "square", Motion: "pulse", DurationMs: 2000, Meaning: "Hold position", Urgency: UrgencyMedium},
	{CodeID: "CMD_ABORT", Color: "red", Shape: "circle", Motion: "flash", DurationMs: 1000, Meaning: "Abort mission", Urgency: UrgencyCritical},
	{CodeID: "CMD_PROCEED", Color: "green", Shape: "triangle", Motion: "steady", DurationMs: 3000, Meaning: "Proceed as planned", Urgency: UrgencyLow},
	{CodeID: "CMD_WAIT", Color: "yellow", Shape: "square", Motion: "pulse", DurationMs: 1500, Meaning: "Wait for further instructions", Urgency: UrgencyMedium},
	{CodeID: "CMD_RETREAT", Color: "orange", Shape: "triangle", Motion: "flash", DurationMs: 2000, Meaning: "Retreat immediately", Urgency: UrgencyHigh},
	{CodeID: "CMD_SECURE", Color: "green", Shape: "square", Motion: "steady", DurationMs: 2500, Meaning: "Area secure", Urgency: UrgencyLow},
	{CodeID: "CMD_DANGER", Color: "red", Shape: "diamond", Motion: "flash", DurationMs: 1000, Meaning: "Danger detected", Urgency: UrgencyCritical},
	{CodeID: "CMD_ALL_CLEAR", Color: "green", Shape: "circle", Motion: "pulse", DurationMs: 2000, Meaning: "All clear", Urgency: UrgencyLow},
	{CodeID: "CMD_STANDBY", Color: "blue", Shape: "square", Motion: "steady", DurationMs: 3000, Meaning: "Standby for orders", Urgency: UrgencyLow},
}

// BuiltinCodes returns a copy of the predefined code library.
func BuiltinCodes() []Code {
	out := make([]Code, len(builtinCodes))
	copy(out, builtinCodes)
	return out
}
