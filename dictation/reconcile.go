package dictation

import (
	"strings"

	"github.com/voxkey/voxkey/inject"
	"github.com/voxkey/voxkey/textproc"
)

// DecisionKind names the action that reconciles the final transcript with
// the text already delivered during the session.
type DecisionKind int

const (
	// DecisionNone leaves the delivered text untouched.
	DecisionNone DecisionKind = iota

	// DecisionFullPaste delivers the entire final transcript; nothing was
	// committed during the session.
	DecisionFullPaste

	// DecisionAppend delivers only the remainder after the committed
	// prefix.
	DecisionAppend

	// DecisionCorrect rewrites the tail of the delivered text with a
	// backspace-and-retype plan.
	DecisionCorrect
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionNone:
		return "none"
	case DecisionFullPaste:
		return "full-paste"
	case DecisionAppend:
		return "append"
	case DecisionCorrect:
		return "correct"
	default:
		return "unknown"
	}
}

// Reconciliation is the outcome of comparing committed text against the
// final transcript. Append carries the remainder for DecisionAppend; Plan
// carries the edit for DecisionCorrect.
type Reconciliation struct {
	Kind   DecisionKind
	Append string
	Plan   inject.CorrectionPlan
}

// Reconcile decides how to turn the committed on-screen text into the
// final transcript. The final transcript wins: committed text is treated
// as a prefix to extend when it still matches, and corrected in place when
// it does not. An empty final never erases committed text; the model
// returning nothing at the end of a session is noise, not a retraction.
func Reconcile(committed, final string) Reconciliation {
	if final == "" || final == committed {
		return Reconciliation{Kind: DecisionNone}
	}
	if committed == "" {
		return Reconciliation{Kind: DecisionFullPaste}
	}

	if off := textproc.PrefixMatch(committed, final); off > 0 {
		remainder := final[off:]
		if strings.TrimSpace(remainder) == "" {
			return Reconciliation{Kind: DecisionNone}
		}
		return Reconciliation{Kind: DecisionAppend, Append: strings.TrimRight(remainder, " \t\n")}
	}

	return Reconciliation{Kind: DecisionCorrect, Plan: inject.PlanCorrection(committed, final)}
}
