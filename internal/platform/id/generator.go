package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// idBytes gives 128 bits of entropy. Booking IDs double as checkout
// capabilities, so they must be unguessable, not merely unique.
const idBytes = 16

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
