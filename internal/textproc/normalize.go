package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pattern tables are compiled once at startup and applied as pure functions.
var (
	reCJKThenASCII = regexp.MustCompile(`([\x{4e00}-\x{9fff}])([A-Za-z0-9])`)
	reASCIIThenCJK = regexp.MustCompile(`([A-Za-z0-9])([\x{4e00}-\x{9fff}])`)

	reHasCJK        = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	reTrailingPunct = regexp.MustCompile(`[.!?\x{3002}\x{ff01}\x{ff1f}\x{2026}]+$`)
	reAnyComma      = regexp.MustCompile(`[\x{ff0c},]`)

	reCNConnector = regexp.MustCompile(
		`(但是|不过|然后|所以|因此|而且|并且|同时|另外|因为|如果|虽然|接着|随后)`)

	reCNQuestionTail     = regexp.MustCompile(`(吗|么)\s*$`)
	reCNQuestionPhrase   = regexp.MustCompile(`(是不是|是否|能不能|可不可以|可以吗|要不要|需不需要|有没有)`)
	reCNQuestionLead     = regexp.MustCompile(`^(怎么|为什么|为啥|多少|几|哪(里|儿|个|些|种|位)?|谁|啥|什么|何时|什么时候)`)
	reENQuestionLead     = regexp.MustCompile(`^(can|could|would|should|do|does|did|is|are|am|was|were|what|why|how|when|where|which|who)\b`)
)

// NormalizeMixedSpacing inserts a single space at every CJK/Latin boundary to
// improve mixed ZH+EN readability.
func NormalizeMixedSpacing(text string) string {
	text = reCJKThenASCII.ReplaceAllString(text, "$1 $2")
	text = reASCIIThenCJK.ReplaceAllString(text, "$1 $2")
	return text
}

// LooksLikeQuestion reports whether text reads as a question, using explicit
// Chinese interrogative cues and English question-word sentence starts.
func LooksLikeQuestion(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	t = strings.TrimSpace(reTrailingPunct.ReplaceAllString(t, ""))
	if t == "" {
		return false
	}

	if reCNQuestionTail.MatchString(t) {
		return true
	}
	if reCNQuestionPhrase.MatchString(t) {
		return true
	}
	if reCNQuestionLead.MatchString(t) {
		return true
	}
	return reENQuestionLead.MatchString(strings.ToLower(t))
}

// maybeInsertCNComma inserts a full-width comma before the first clause
// connector in longer comma-less Chinese text.
func maybeInsertCNComma(text string) string {
	if text == "" || !reHasCJK.MatchString(text) {
		return text
	}
	if reAnyComma.MatchString(text) {
		return text
	}
	if utf8.RuneCountInString(text) < 14 {
		return text
	}
	loc := reCNConnector.FindStringIndex(text)
	if loc == nil {
		return text
	}
	idx := utf8.RuneCountInString(text[:loc[0]])
	if idx <= 1 {
		return text
	}
	return text[:loc[0]] + "，" + text[loc[0]:]
}

// ApplyTonePunctuation repairs terminal punctuation on finalized text and
// applies light internal comma insertion. Idempotent: running it on already
// normalized text changes nothing.
func ApplyTonePunctuation(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return t
	}
	hasCJK := reHasCJK.MatchString(t)
	base := strings.TrimSpace(reTrailingPunct.ReplaceAllString(t, ""))
	if base == "" {
		return t
	}
	base = maybeInsertCNComma(base)

	if LooksLikeQuestion(base) {
		if hasCJK {
			return base + "？"
		}
		return base + "?"
	}
	if reTrailingPunct.MatchString(t) {
		// Chinese text ending in an ASCII period is repaired; any other
		// existing terminal punctuation is preserved verbatim.
		if hasCJK && strings.HasSuffix(t, ".") {
			return base + "。"
		}
		return t
	}
	if hasCJK {
		return base + "。"
	}
	return base + "."
}
