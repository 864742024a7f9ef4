package jsonpath

import "strings"

// fuzzyThreshold discards weak candidates; scores at or below it are
// dropped.
const fuzzyThreshold = 30

// Score rates how well input matches candidate on a 0-100 scale:
// 100 for a case-insensitive exact match, 90 for a prefix match, and
// otherwise a positional subsequence score strictly below the prefix
// tier. Candidates whose characters cannot consume the whole input
// score 0.
func Score(input, candidate string) int {
	in := strings.ToLower(input)
	cand := strings.ToLower(candidate)

	if in == cand {
		return 100
	}
	if strings.HasPrefix(cand, in) {
		return 90
	}

	// Scan the candidate left to right. Each character that matches the
	// next unconsumed input character contributes the candidate length
	// minus the positional distance between the two cursors.
	accumulated := 0
	inputIdx := 0
	for i := 0; i < len(cand) && inputIdx < len(in); i++ {
		if cand[i] != in[inputIdx] {
			continue
		}
		distance := i - inputIdx
		if distance < 0 {
			distance = -distance
		}
		accumulated += len(cand) - distance
		inputIdx++
	}

	if inputIdx < len(in) {
		return 0
	}

	return int(float64(accumulated) * 80.0 / float64(len(cand)*len(in)))
}
