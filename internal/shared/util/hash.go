package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerPrefix maps an owner ID to a stable, path-safe key prefix so raw
// identities never appear in object keys.
func OwnerPrefix(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}
