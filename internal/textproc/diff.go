package textproc

import "strings"

// Delta describes the minimal edit turning a previously emitted text into a
// new one: keep the first From runes, delete the next DeleteCount runes,
// append Insert.
type Delta struct {
	From        int
	DeleteCount int
	Insert      string
}

// ComputeDelta computes the common-prefix minimal edit between prev and next.
// Indices are in runes so the edit never splits a multi-byte character.
// Invariant: prev[:From] + Insert == next.
func ComputeDelta(prev, next string) Delta {
	pr := []rune(prev)
	nr := []rune(next)

	cpl := commonPrefixLen(pr, nr)
	return Delta{
		From:        cpl,
		DeleteCount: len(pr) - cpl,
		Insert:      string(nr[cpl:]),
	}
}

func commonPrefixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// Characters that end a natural boundary: whitespace plus sentence/clause
// punctuation, ASCII and full-width.
const boundaryChars = " \t\n\r,.!?;:，。！？；："

// BoundaryPrefix returns the longest prefix of text ending at the last
// natural boundary character, or "" when text has no boundary at all.
func BoundaryPrefix(text string) string {
	runes := []rune(text)
	for i := len(runes) - 1; i >= 0; i-- {
		if strings.ContainsRune(boundaryChars, runes[i]) {
			return string(runes[:i+1])
		}
	}
	return ""
}
