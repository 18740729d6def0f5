package encsearch

import "strings"

// Normalizer transforms input strings into a canonical form before tokenizing.
//
// IMPORTANT: Use the SAME normalizer on both ingestion and query.
// Mixing normalizers makes legitimate matches silently fail.
type Normalizer func(string) string

// NormalizeLower normalizes to lowercase only (no trim, no Unicode folding).
// This is the default for equality tokens.
//
// Example: "Leather Wallet" -> "leather wallet"
var NormalizeLower Normalizer = func(s string) string {
	return strings.ToLower(s)
}

// NormalizeKeyword normalizes a single search keyword: trim whitespace + lowercase.
// Extracted keywords never contain whitespace, so trimming only helps queries.
//
// Example: " LAPTOP " -> "laptop"
var NormalizeKeyword Normalizer = func(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeTrimLower normalizes by trimming leading and trailing whitespace and
// lowercasing. Use it for equality fields whose stored values may carry padding.
var NormalizeTrimLower Normalizer = func(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeFold collapses internal whitespace runs to one space, trims, and lowercases.
//
// Example: "  Running   Shoes " -> "running shoes"
var NormalizeFold Normalizer = func(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeNone is an identity normalizer that returns the input unchanged.
// Use for exact-match (case-sensitive) tokens.
var NormalizeNone Normalizer = func(s string) string {
	return s
}
