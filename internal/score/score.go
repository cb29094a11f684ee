// Package score converts a recognized transcript and a target phrase into
// pronunciation metrics based on normalized edit distance.
package score

import (
	"math"
	"strings"
)

// PronunciationScore holds the three sub-scores, each in [0,100].
type PronunciationScore struct {
	Accuracy     float64 `json:"accuracy"`
	Fluency      float64 `json:"fluency"`
	Completeness float64 `json:"completeness"`
}

// Score compares recognized text against the target phrase.
// Both sides are normalized identically (trim + lowercase) before comparison.
// confidence is the transcript-level confidence in [0,1] and maps to fluency.
//
// Completeness mirrors accuracy on any mismatch. That matches the upstream
// scoring behavior; see DESIGN.md before changing it.
func Score(recognized, target string, confidence float64) PronunciationScore {
	accuracy := Accuracy(recognized, target)

	fluency := confidence * 100
	if fluency < 0 {
		fluency = 0
	} else if fluency > 100 {
		fluency = 100
	}

	completeness := accuracy
	if Normalize(recognized) == Normalize(target) {
		completeness = 100.0
	}

	return PronunciationScore{
		Accuracy:     accuracy,
		Fluency:      fluency,
		Completeness: completeness,
	}
}

// Normalize prepares a string for comparison: trim whitespace, lowercase.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Accuracy returns a 0-100 score from the Levenshtein distance between the
// normalized strings, measured over Unicode code points. Equal strings score
// 100; two empty strings score 0 (max length zero is defined as no match).
func Accuracy(recognized, target string) float64 {
	a := []rune(Normalize(recognized))
	b := []rune(Normalize(target))

	if string(a) == string(b) && len(a) > 0 {
		return 100.0
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0.0
	}

	d := Levenshtein(a, b)
	acc := 100 * (1 - float64(d)/float64(maxLen))
	if acc < 0 {
		acc = 0
	}
	return round2(acc)
}

// Levenshtein computes the edit distance between two rune slices with unit
// cost for insertion, deletion and substitution. Single-row DP, O(len(b))
// memory.
func Levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range a {
		curr[0] = i + 1
		for j, cb := range b {
			sub := prev[j]
			if ca != cb {
				sub++
			}
			ins := prev[j+1] + 1
			del := curr[j] + 1

			m := sub
			if ins < m {
				m = ins
			}
			if del < m {
				m = del
			}
			curr[j+1] = m
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
