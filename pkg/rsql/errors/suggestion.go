package errors

import (
	"fmt"
	"strings"
)

// SuggestOperator suggests a registered operator symbol when an unknown one is used.
// It uses Levenshtein distance to find the closest symbol.
func SuggestOperator(unknown string, known []string) string {
	if len(known) == 0 {
		return ""
	}

	if best, ok := closest(unknown, known, 3); ok {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}

	return fmt.Sprintf("Valid operators: %s", strings.Join(known, ", "))
}

// SuggestSelector suggests a known selector when an unknown one is referenced.
func SuggestSelector(unknown string, known []string) string {
	if len(known) == 0 {
		return ""
	}

	if best, ok := closest(unknown, known, 5); ok {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}

	if len(known) > 5 {
		return fmt.Sprintf("Valid selectors include: %s, ...", strings.Join(known[:5], ", "))
	}
	return fmt.Sprintf("Valid selectors: %s", strings.Join(known, ", "))
}

// closest returns the candidate with the smallest edit distance, provided
// that distance is below limit.
func closest(s string, candidates []string, limit int) (string, bool) {
	minDistance := limit
	var bestMatch string

	for _, c := range candidates {
		if dist := levenshteinDistance(s, c); dist < minDistance {
			minDistance = dist
			bestMatch = c
		}
	}

	return bestMatch, bestMatch != ""
}

// levenshteinDistance computes the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // Deletion
				matrix[i][j-1]+1,      // Insertion
				matrix[i-1][j-1]+cost, // Substitution
			)
		}
	}

	return matrix[len1][len2]
}
