// Package id generates short identifiers for correlating log records that
// belong to one user action.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Generate returns a random 6-character hex ID.
func Generate() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Action returns an identifier for one run of kind, such as "setup-3fa9c1".
func Action(kind string) string {
	return kind + "-" + Generate()
}
