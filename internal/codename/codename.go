// Package codename generates display aliases for agents in the
// COLOR-ANIMAL-NUMBER format, deterministically seeded by device
// fingerprint so the same device always suggests the same codename.
package codename

import "fmt"

var colors = []string{
	"RED", "BLUE", "GREEN", "YELLOW", "BLACK", "WHITE",
	"ORANGE", "PURPLE", "GRAY", "SILVER", "GOLD", "BROWN",
	"PINK", "CYAN", "MAROON", "NAVY", "OLIVE", "TEAL",
}

var animals = []string{
	"WOLF", "FALCON", "SHARK", "TIGER", "EAGLE", "BEAR",
	"FOX", "HAWK", "LION", "PANTHER", "COBRA", "VIPER",
	"RATTLER", "STORM", "THUNDER", "SHADOW", "PHANTOM", "GHOST",
	"RAVEN", "CROW", "JAGUAR", "LYNX", "OWL", "SCORPION",
}

// Generate returns a codename like "RED-FALCON-7" derived from the device
// fingerprint. Same deviceId, same codename.
func Generate(deviceID string) string {
	colorIdx := hash(deviceID+"color") % uint32(len(colors))
	animalIdx := hash(deviceID+"animal") % uint32(len(animals))
	number := hash(deviceID+"number")%99 + 1

	return fmt.Sprintf("%s-%s-%d", colors[colorIdx], animals[animalIdx], number)
}

// Fallback returns the registry's deterministic default when a client
// registers without suggesting a codename: "AGENT-" plus the first eight
// characters of the device fingerprint.
func Fallback(deviceID string) string {
	if len(deviceID) > 8 {
		deviceID = deviceID[:8]
	}
	return "AGENT-" + deviceID
}

// hash is the djb-style rolling hash used for deterministic selection.
func hash(s string) uint32 {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + c
	}
	if h < 0 {
		h = -h
	}
	return uint32(h)
}
