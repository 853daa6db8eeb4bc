package audio

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Fingerprint returns the hex BLAKE3-256 digest of an uploaded blob.
func Fingerprint(blob []byte) string {
	sum := blake3.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
