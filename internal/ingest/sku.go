package ingest

import (
	"regexp"
	"strings"
)

// Canonical SKU shape: three letters, four digits, three alphanumerics,
// e.g. FER_0018_ORG.
var canonicalSKUPattern = regexp.MustCompile(`^[A-Z]{3}_[0-9]{4}_[A-Z0-9]{3}$`)

// Filenames arrive as "<SKU> <sequence>[.ext]" or as a bare canonical token
// with extension ("FER_0018_ORG.jpg").
var (
	sequencedNamePattern = regexp.MustCompile(`^(.+?)\s+[0-9]+(?:\.[A-Za-z0-9]+)?$`)
	bareNamePattern      = regexp.MustCompile(`(?i)^([A-Z]{3}_[0-9]{4}_[A-Z0-9]{3})\.[A-Za-z0-9]+$`)
)

// ExtractSKU pulls the candidate SKU out of an uploaded filename. The result
// is uppercased; shape correctness is left to IsCanonicalSKU. Returns "" when
// no candidate can be extracted.
func ExtractSKU(filename string) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		return ""
	}

	if match := sequencedNamePattern.FindStringSubmatch(name); match != nil {
		return strings.ToUpper(strings.TrimSpace(match[1]))
	}
	if match := bareNamePattern.FindStringSubmatch(name); match != nil {
		return strings.ToUpper(match[1])
	}
	return ""
}

// IsCanonicalSKU reports whether the candidate matches the canonical shape.
func IsCanonicalSKU(candidate string) bool {
	return canonicalSKUPattern.MatchString(candidate)
}
