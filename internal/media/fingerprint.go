package media

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Fingerprint derives the deduplication key for a catalog entry from the raw
// parsed title and year. No normalisation is applied: titles differing only
// by case hash differently, and two different films sharing a title and year
// hash identically.
func Fingerprint(title string, year int) string {
	sum := sha256.Sum256([]byte(title + strconv.Itoa(year)))
	return hex.EncodeToString(sum[:])
}

// Fingerprint is a convenience method for fingerprinting
// the title and year of this metadata.
func (metadata ParsedMetadata) Fingerprint() string {
	return Fingerprint(metadata.Title, metadata.Year)
}
