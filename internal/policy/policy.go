// Package policy maps free-form classifier output onto the fixed taxonomy and
// decides review routing and action-item creation. Nothing here does I/O.
package policy

import (
	"strings"
)

type Intent string

const (
	IntentUpdate         Intent = "update"
	IntentApproval       Intent = "approval"
	IntentActionRequired Intent = "action_required"
	IntentInformation    Intent = "information"
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMed      Priority = "Med"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func (p Priority) rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMed:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	}
	return 0
}

// Category is an action-item category. The empty Category means "not actionable".
type Category string

const (
	CategoryNone           Category = ""
	CategoryApproval       Category = "approval"
	CategoryActionRequired Category = "action_required"
)

const (
	ReviewPending = "pending_review"
	ReviewFlagged = "flagged"
)

// Confidence tiers for review routing.
const (
	AutoApproveThreshold = 0.85
	PendingThreshold     = 0.70
)

var intentSynonyms = map[string]Intent{
	"update":            IntentUpdate,
	"progress":          IntentUpdate,
	"progress_update":   IntentUpdate,
	"status":            IntentUpdate,
	"status_update":     IntentUpdate,
	"approval":          IntentApproval,
	"approval_request":  IntentApproval,
	"request_approval":  IntentApproval,
	"permission":        IntentApproval,
	"authorization":     IntentApproval,
	"action_required":   IntentActionRequired,
	"action":            IntentActionRequired,
	"action_item":       IntentActionRequired,
	"issue":             IntentActionRequired,
	"problem":           IntentActionRequired,
	"request":           IntentActionRequired,
	"material_request":  IntentActionRequired,
	"labor_request":     IntentActionRequired,
	"safety":            IntentActionRequired,
	"safety_concern":    IntentActionRequired,
	"urgent":            IntentActionRequired,
	"information":       IntentInformation,
	"info":              IntentInformation,
	"informational":     IntentInformation,
	"general":           IntentInformation,
	"general_info":      IntentInformation,
	"fyi":               IntentInformation,
	"other":             IntentInformation,
}

// MapIntent is total: unknown and empty input map to information.
func MapIntent(raw string) Intent {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if intent, ok := intentSynonyms[key]; ok {
		return intent
	}
	return IntentInformation
}

var prioritySynonyms = map[string]Priority{
	"low":       PriorityLow,
	"minor":     PriorityLow,
	"med":       PriorityMed,
	"medium":    PriorityMed,
	"normal":    PriorityMed,
	"moderate":  PriorityMed,
	"high":      PriorityHigh,
	"urgent":    PriorityHigh,
	"important": PriorityHigh,
	"critical":  PriorityCritical,
	"emergency": PriorityCritical,
	"severe":    PriorityCritical,
}

// MapPriority is total: unknown and empty input map to Med.
func MapPriority(raw string) Priority {
	if p, ok := prioritySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p
	}
	return PriorityMed
}

// ActionCategory returns the action-item category for an intent. Update and
// information are ambient and never actionable.
func ActionCategory(intent Intent) Category {
	switch intent {
	case IntentApproval:
		return CategoryApproval
	case IntentActionRequired:
		return CategoryActionRequired
	default:
		return CategoryNone
	}
}

// CriticalKeywords trigger the safety override.
var CriticalKeywords = []string{
	"unsafe", "danger", "dangerous", "emergency", "accident", "injury", "injured",
	"collapse", "collapsed", "collapsing", "fire", "smoke", "gas leak", "electrocution",
	"electric shock", "fell from", "fall from", "shaking", "structural failure",
	"hazard", "ambulance", "bleeding", "trapped",
}

// DetectCritical reports whether any critical keyword appears in text,
// case-insensitively.
func DetectCritical(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range CriticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Review is the routing decision for an action item. Status is nil when no
// review is needed.
type Review struct {
	NeedsReview bool
	Status      *string
}

// ReviewRouting routes by confidence tier; critical items always go to review.
func ReviewRouting(confidence float64, isCritical bool) Review {
	switch {
	case isCritical:
		return pending(ReviewPending)
	case confidence >= AutoApproveThreshold:
		return Review{}
	case confidence >= PendingThreshold:
		return pending(ReviewPending)
	default:
		return pending(ReviewFlagged)
	}
}

func pending(status string) Review {
	s := status
	return Review{NeedsReview: true, Status: &s}
}

// ShouldCreateActionItem is true for actionable intents and for anything critical.
func ShouldCreateActionItem(intent Intent, isCritical bool) bool {
	return ActionCategory(intent) != CategoryNone || isCritical
}

// Decision is the policy outcome for one classified note.
type Decision struct {
	Intent       Intent
	Priority     Priority
	Category     Category
	IsCritical   bool
	CreateAction bool
	Review       Review
}

// Decide applies the mappings and the critical override. A critical signal
// forces the action_required category and at least High priority even when
// the classifier called the note an update. A classifier Critical priority
// outranks High and is kept; Low and Medium are raised to High.
func Decide(rawIntent, rawPriority string, confidence float64, englishText string) Decision {
	d := Decision{
		Intent:     MapIntent(rawIntent),
		Priority:   MapPriority(rawPriority),
		IsCritical: DetectCritical(englishText),
	}
	d.Category = ActionCategory(d.Intent)
	d.CreateAction = ShouldCreateActionItem(d.Intent, d.IsCritical)

	if d.IsCritical {
		if d.Category == CategoryNone {
			d.Category = CategoryActionRequired
		}
		if d.Priority.rank() < PriorityHigh.rank() {
			d.Priority = PriorityHigh
		}
	}
	if d.CreateAction {
		d.Review = ReviewRouting(confidence, d.IsCritical)
	}
	return d
}
