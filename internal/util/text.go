package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// NormalizeKey folds whitespace and case so "Acme  Corp" and "acme corp" collide.
func NormalizeKey(s string) string {
	return strings.ToLower(CleanText(s))
}
