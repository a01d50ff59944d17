package domain

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Settlement proofs are blockchain transaction hashes: 0x followed by 64
// hex digits. The ledger records them as opaque audit strings and only
// checks the shape.
var txHashRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidTxHash reports whether s has the shape of a settlement transaction hash.
func ValidTxHash(s string) bool {
	return txHashRegexp.MatchString(s)
}

// NormalizeTxHash lowercases a transaction hash so uniqueness checks are
// case-insensitive.
func NormalizeTxHash(s string) string {
	return strings.ToLower(s)
}

var allowedDocumentExts = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// ValidDocumentRef reports whether ref points at an allowed supporting
// document type. The ref itself is an opaque path or URL; storage and
// content validation happen upstream.
func ValidDocumentRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	ext := strings.ToLower(path.Ext(ref))
	_, ok := allowedDocumentExts[ext]
	return ok
}

// ValidID reports whether s is a canonical UUID string. Malformed
// identifiers are rejected before any store lookup is attempted.
func ValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
