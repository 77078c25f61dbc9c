package actionable

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"sitevoice-go/internal/aggregator"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/policy"
	"sitevoice-go/internal/types"
)

const (
	StatusPending         = "pending"
	NotificationCritical  = "critical_alert"
	InteractionCreated    = "created"
	ActorSystem           = "system"
	criticalNotifPriority = "High"
)

// Provenance is stored on the action item as its ai_analysis blob.
type Provenance struct {
	Intent        string            `json:"intent"`
	RawIntent     string            `json:"raw_intent,omitempty"`
	Confidence    float64           `json:"confidence"`
	Model         string            `json:"model"`
	PromptVersion int               `json:"prompt_version,omitempty"`
	IsCritical    bool              `json:"is_critical"`
	Extracted     aggregator.Counts `json:"extracted"`
}

type Input struct {
	Note          *types.VoiceNote
	Decision      policy.Decision
	Analysis      extractor.Analysis
	EnglishText   string
	AssigneeID    *string
	PromptVersion int
	Now           time.Time
}

// Compose builds the action item for an actionable note: category and
// priority from the policy decision, review routing, a single "created"
// history entry and the analysis provenance.
func Compose(in Input) (types.ActionItem, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	history, err := json.Marshal([]types.Interaction{{
		Action:  InteractionCreated,
		Actor:   ActorSystem,
		Details: fmt.Sprintf("Created from voice note (%s, confidence %.2f)", in.Analysis.Model, in.Analysis.Confidence),
		At:      now,
	}})
	if err != nil {
		return types.ActionItem{}, fmt.Errorf("marshal interaction history: %w", err)
	}

	prov, err := json.Marshal(Provenance{
		Intent:        string(in.Decision.Intent),
		RawIntent:     in.Analysis.Intent,
		Confidence:    in.Analysis.Confidence,
		Model:         in.Analysis.Model,
		PromptVersion: in.PromptVersion,
		IsCritical:    in.Decision.IsCritical,
		Extracted:     aggregator.EntityCounts(in.Analysis),
	})
	if err != nil {
		return types.ActionItem{}, fmt.Errorf("marshal provenance: %w", err)
	}

	summary := in.Analysis.ShortSummary
	if strings.TrimSpace(summary) == "" {
		summary = policy.Truncate(in.EnglishText, policy.SummaryMaxLen)
	}
	details := in.EnglishText
	if in.Analysis.DetailedSummary != "" && in.Analysis.DetailedSummary != summary {
		details = in.Analysis.DetailedSummary + "\n\n" + in.EnglishText
	}

	return types.ActionItem{
		ID:                 uuid.NewString(),
		VoiceNoteID:        in.Note.ID,
		AccountID:          in.Note.AccountID,
		ProjectID:          in.Note.ProjectID,
		UserID:             in.Note.UserID,
		AssignedTo:         in.AssigneeID,
		Category:           string(in.Decision.Category),
		Priority:           string(in.Decision.Priority),
		Summary:            summary,
		Details:            details,
		Status:             StatusPending,
		ConfidenceScore:    in.Analysis.Confidence,
		NeedsReview:        in.Decision.Review.NeedsReview,
		ReviewStatus:       in.Decision.Review.Status,
		IsCriticalFlag:     in.Decision.IsCritical,
		InteractionHistory: history,
		AIAnalysis:         prov,
		CreatedAt:          now,
	}, nil
}

// CriticalNotification returns the alert for a critical item, or nil when
// the item is not critical or nobody is assigned.
func CriticalNotification(item types.ActionItem, projectName string) *types.Notification {
	if !item.IsCriticalFlag || item.AssignedTo == nil || *item.AssignedTo == "" {
		return nil
	}
	title := "Critical safety issue reported"
	if projectName != "" {
		title += " on " + projectName
	}
	return &types.Notification{
		ID:           uuid.NewString(),
		AccountID:    item.AccountID,
		UserID:       *item.AssignedTo,
		VoiceNoteID:  item.VoiceNoteID,
		ActionItemID: item.ID,
		Type:         NotificationCritical,
		Priority:     criticalNotifPriority,
		Title:        title,
		Message:      item.Summary,
		CreatedAt:    item.CreatedAt,
	}
}

// ResolveAssignee picks the submitter's reporting manager, else the first
// admin or manager on the account other than the submitter.
func ResolveAssignee(submitter types.User, staff []types.User) *string {
	if submitter.ReportsToID != nil && *submitter.ReportsToID != "" {
		id := *submitter.ReportsToID
		return &id
	}
	for _, u := range staff {
		if u.ID == submitter.ID {
			continue
		}
		role := strings.ToLower(u.Role)
		if strings.Contains(role, "admin") || strings.Contains(role, "manager") {
			id := u.ID
			return &id
		}
	}
	return nil
}
