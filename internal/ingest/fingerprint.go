package ingest

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gabriel-vasile/mimetype"
)

// AllowedMimeTypes is the image allow-list the pipeline accepts, both when
// listing remote candidates and when sniffing downloaded bytes.
var AllowedMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Fingerprint returns the hex sha256 of the raw file content. Dedup and
// orphan repair key on (product, fingerprint).
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SniffMime detects the MIME type from the leading bytes of the content.
func SniffMime(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsAllowedMime reports whether the detected MIME type is ingestible.
func IsAllowedMime(mime string) bool {
	for _, allowed := range AllowedMimeTypes {
		if mime == allowed {
			return true
		}
	}
	return false
}
