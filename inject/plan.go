package inject

import (
	"strings"
	"unicode/utf8"
)

// CorrectionPlan describes the minimal edit that turns the on-screen text
// into the desired text: delete Backspaces characters from the end, then
// emit Suffix.
type CorrectionPlan struct {
	Backspaces int
	Suffix     string
}

// PlanCorrection computes the plan for replacing old with new. The shared
// prefix is matched case-insensitively so that capitalization-only changes
// in already-typed text are left alone rather than retyped.
func PlanCorrection(old, new string) CorrectionPlan {
	or := []rune(old)
	nr := []rune(new)

	prefix := 0
	for prefix < len(or) && prefix < len(nr) {
		a, b := or[prefix], nr[prefix]
		if a != b && !strings.EqualFold(string(a), string(b)) {
			break
		}
		prefix++
	}

	return CorrectionPlan{
		Backspaces: len(or) - prefix,
		Suffix:     string(nr[prefix:]),
	}
}

// IsNoop reports whether the plan changes nothing on screen.
func (p CorrectionPlan) IsNoop() bool {
	return p.Backspaces == 0 && p.Suffix == ""
}

// Cost is the number of key events the plan needs, used for logging.
func (p CorrectionPlan) Cost() int {
	return p.Backspaces + utf8.RuneCountInString(p.Suffix)
}
