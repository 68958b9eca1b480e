// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package opmatch implements glob matching over slash-separated
// operation identifiers. The daemon's relay policy uses it to decide
// which unrecognized operations may be forwarded to the delegate.
package opmatch

import (
	"path"
	"strings"
)

// Match checks whether an operation identifier matches a glob pattern
// using the gateway's hierarchical naming conventions:
//
//   - Exact match: "grant-access" matches only "grant-access"
//   - Single-segment wildcard: "ledger/*" matches "ledger/freeze" but not "ledger/audit/open"
//   - Recursive wildcard: "ledger/**" matches "ledger/freeze", "ledger/audit/open", etc.
//   - Universal: "**" matches any identifier
//   - Interior recursive: "ledger/**/open" matches "ledger/open", "ledger/audit/open", etc.
//   - Character wildcards: "?" matches a single non-slash character
//
// Wildcards in * and ? work in all positions, including around **.
// The single-segment wildcard "*" does not match "/" — this is the
// standard path.Match behavior. Use "**" to match across hierarchy
// boundaries.
//
// Returns false for malformed patterns (unmatched brackets, etc.)
// rather than propagating errors — a malformed pattern should never
// admit an operation.
func Match(pattern, op string) bool {
	// Universal match.
	if pattern == "**" {
		return true
	}

	// No ** in the pattern — delegate to path.Match which handles
	// single-segment * and ? correctly (not matching /).
	if !strings.Contains(pattern, "**") {
		matched, err := path.Match(pattern, op)
		if err != nil {
			// Malformed pattern — deny.
			return false
		}
		return matched
	}

	// Pattern contains **. Handle the three cases: suffix, prefix,
	// interior.

	// Suffix: "ledger/**" — match the prefix (with glob wildcards),
	// then anything after.
	if strings.HasSuffix(pattern, "/**") {
		prefix := pattern[:len(pattern)-3]
		// ** matches zero additional segments: entire identifier is
		// the prefix.
		if matchGlob(prefix, op) {
			return true
		}
		// ** matches one or more additional segments.
		return hasMatchingPrefix(prefix, op)
	}

	// Prefix: "**/open" — match anything before, then the suffix
	// (with glob wildcards).
	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		if matchGlob(suffix, op) {
			return true
		}
		return hasMatchingSuffix(suffix, op)
	}

	// Interior: "ledger/**/open" — split on the first /**, match
	// prefix and suffix independently with glob wildcards.
	separatorIndex := strings.Index(pattern, "/**/")
	if separatorIndex >= 0 {
		prefix := pattern[:separatorIndex]
		suffix := pattern[separatorIndex+4:]

		// Zero-segment case: ** matches nothing, prefix and suffix
		// are adjacent. "ledger/**/open" matches "ledger/open".
		if matchGlob(prefix+"/"+suffix, op) {
			return true
		}

		// Multi-segment case: prefix matches the start, suffix
		// matches the end, with at least one segment between for **
		// to consume.
		prefixDepth := strings.Count(prefix, "/") + 1
		suffixDepth := strings.Count(suffix, "/") + 1
		segments := strings.Split(op, "/")

		if len(segments) < prefixDepth+1+suffixDepth {
			return false
		}

		prefixCandidate := strings.Join(segments[:prefixDepth], "/")
		if !matchGlob(prefix, prefixCandidate) {
			return false
		}

		suffixCandidate := strings.Join(segments[len(segments)-suffixDepth:], "/")
		if !matchGlob(suffix, suffixCandidate) {
			return false
		}

		// Segments consumed by ** must be non-empty (reject
		// identifiers with consecutive slashes between prefix and
		// suffix).
		for _, segment := range segments[prefixDepth : len(segments)-suffixDepth] {
			if segment == "" {
				return false
			}
		}
		return true
	}

	// Multiple ** segments or other complex patterns — not
	// supported. Deny by default.
	return false
}

// matchGlob matches a pattern against a string using path.Match
// semantics (wildcards * and ? do not cross / boundaries). Returns
// false for malformed patterns.
func matchGlob(pattern, s string) bool {
	matched, err := path.Match(pattern, s)
	return err == nil && matched
}

// hasMatchingPrefix reports whether the identifier starts with
// segments that match the given glob pattern, with at least one
// additional segment after the matched portion.
func hasMatchingPrefix(pattern, op string) bool {
	depth := strings.Count(pattern, "/") + 1
	segments := strings.SplitN(op, "/", depth+1)
	if len(segments) <= depth {
		return false
	}
	candidate := strings.Join(segments[:depth], "/")
	return matchGlob(pattern, candidate)
}

// hasMatchingSuffix reports whether the identifier ends with segments
// that match the given glob pattern, with at least one additional
// segment before the matched portion.
func hasMatchingSuffix(pattern, op string) bool {
	depth := strings.Count(pattern, "/") + 1
	segments := strings.Split(op, "/")
	if len(segments) <= depth {
		return false
	}
	candidate := strings.Join(segments[len(segments)-depth:], "/")
	return matchGlob(pattern, candidate)
}

// MatchAny checks whether an operation identifier matches any of the
// given glob patterns. Returns true on the first match. Returns false
// if the patterns slice is empty (default-deny).
func MatchAny(patterns []string, op string) bool {
	for _, pattern := range patterns {
		if Match(pattern, op) {
			return true
		}
	}
	return false
}
