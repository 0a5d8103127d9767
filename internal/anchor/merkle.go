// Package anchor implements the Anchor Worker: periodic Merkle-rooting of
// unanchored ledger ranges, with the root signed by the Attestor and
// recorded back to the ledger.
package anchor

import (
	"crypto/sha256"
	"encoding/hex"
)

// MerkleRoot computes a root over the ordered proofIDs using the format the
// original prototype used: each leaf is SHA-256(proof_id_bytes) rendered as
// a hex string, and every subsequent level re-hashes the STRING
// concatenation of the two hex-encoded children (not their raw bytes). The
// last node is duplicated when a level has an odd count. This is quirky but
// must be preserved bit-for-bit for verifier compatibility across
// implementations.
func MerkleRoot(proofIDs []string) string {
	if len(proofIDs) == 0 {
		return ""
	}
	level := make([]string, len(proofIDs))
	for i, id := range proofIDs {
		level[i] = hashHex([]byte(id))
	}
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashHex([]byte(level[i]+level[i+1])))
		}
		level = next
	}
	return level[0]
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
