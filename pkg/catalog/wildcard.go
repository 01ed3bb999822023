package catalog

import (
	"strings"

	"github.com/packtier/packtier/pkg/asset"
)

// LooksLikeWildcard reports whether the input contains wildcard
// metacharacters, distinguishing pattern exclusions from plain asset paths.
func LooksLikeWildcard(input string) bool {
	return strings.ContainsAny(input, "*?")
}

// MatchWildcard matches a normalized relative path against a pattern where
// '*' matches any run of bytes, including separators, and '?' matches
// exactly one byte. The pattern is normalized the same way asset paths are.
func MatchWildcard(path, pattern string) bool {
	pattern = strings.ToLower(strings.ReplaceAll(pattern, "\\", "/"))
	pattern = strings.TrimPrefix(pattern, "/")
	path = asset.NormalizePath(path)

	// Greedy match with single-star backtracking.
	var pi, si int
	starPi, starSi := -1, -1
	for si < len(path) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == path[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			starPi, starSi = pi, si
			pi++
		case starPi >= 0:
			starSi++
			pi = starPi + 1
			si = starSi
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
