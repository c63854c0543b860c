// Package match decides whether two track descriptions denote the same song.
//
// Similarity follows the Ratcliff/Obershelp gestalt approach: the ratio is
// 2*M/T where M is the total length of recursively matched common substrings
// and T the combined length of both inputs. The measure is symmetric, yields
// 1.0 for identical strings after case folding, and decreases as the strings
// diverge.
package match

import (
	"strings"

	"github.com/mlefebvre/tunesync/internal/models"
)

// DefaultThreshold classifies near-duplicates as matches while keeping
// unrelated titles apart.
const DefaultThreshold = 0.5

// Ratio computes the case-insensitive similarity of a and b in [0, 1].
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	return 2.0 * float64(matchedLen(ra, rb)) / float64(total)
}

// IsMatch reports whether the candidate and the given title/artist denote the
// same song: both the title ratio and the artist ratio must reach threshold.
func IsMatch(c models.TrackCandidate, title, artist string, threshold float64) bool {
	return Ratio(c.Title, title) >= threshold && Ratio(c.Artist, artist) >= threshold
}

// matchedLen returns the total length of common substrings matched by
// recursively splitting both inputs around their longest common substring.
func matchedLen(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}

	matched := size
	matched += matchedLen(a[:ai], b[:bi])
	matched += matchedLen(a[ai+size:], b[bi+size:])
	return matched
}

// longestCommonSubstring finds the longest run of runes present in both a and
// b, returning its start in each plus its length. Earlier occurrences win
// ties.
func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] holds the length of the common suffix ending at a[i], b[j]
	// for the current row i.
	lengths := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}

	return ai, bi, size
}
