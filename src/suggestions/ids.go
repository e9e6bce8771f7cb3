package suggestions

import (
	"crypto/rand"
	"fmt"
)

const (
	// IDLength is the number of characters in a suggestion id.
	IDLength   = 8
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// largest multiple of len(idAlphabet) below 256, for unbiased sampling
const idRejectAbove = 256 - 256%len(idAlphabet)

// NewID draws a fresh identifier from a cryptographically strong source.
func NewID() (string, error) {
	out := make([]byte, 0, IDLength)
	buf := make([]byte, IDLength*2)
	for len(out) < IDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("suggestions: read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= idRejectAbove {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == IDLength {
				break
			}
		}
	}
	return string(out), nil
}

// ValidID reports whether id has the shape of a suggestion id.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
