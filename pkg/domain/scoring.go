package domain

import (
	"math"
	"strings"
	"unicode/utf8"
)

// SubstantiveThreshold is the trimmed length an answer must exceed to count as substantive.
const SubstantiveThreshold = 50

// IsSubstantive reports whether the answer's trimmed length, in characters, exceeds the threshold.
// It measures completeness only and never inspects the content.
// Length is counted in runes, so a character outside the Basic Multilingual Plane
// (an emoji, say) counts once; a UTF-16 length would count it twice. Only Unicode
// White_Space is trimmed, which leaves a byte order mark (U+FEFF) in the count.
func IsSubstantive(answer string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(answer)) > SubstantiveThreshold
}

// SubstantiveCount counts the substantive answers.
func SubstantiveCount(answers []string) int {
	n := 0
	for _, a := range answers {
		if IsSubstantive(a) {
			n++
		}
	}
	return n
}

// Score returns round(substantive/len(answers)*100).
// With four slots the result is one of 0, 25, 50, 75 or 100.
func Score(answers []string) int {
	if len(answers) == 0 {
		return 0
	}
	ratio := float64(SubstantiveCount(answers)) / float64(len(answers))
	return int(math.Round(ratio * 100))
}
