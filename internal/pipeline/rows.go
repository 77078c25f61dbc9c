package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/transcription"
	"sitevoice-go/internal/types"
)

// itemConfidence falls back to the analysis confidence when the item has none.
func itemConfidence(item extractor.FlexFloat, overall float64) float64 {
	if c := item.Unit(); c > 0 {
		return c
	}
	return overall
}

func materialRows(note *types.VoiceNote, a extractor.Analysis, now time.Time) []types.MaterialRequest {
	rows := make([]types.MaterialRequest, 0, len(a.Materials))
	for _, m := range a.Materials {
		rows = append(rows, types.MaterialRequest{
			ID:          uuid.NewString(),
			VoiceNoteID: note.ID,
			AccountID:   note.AccountID,
			ProjectID:   note.ProjectID,
			Name:        m.Name,
			Quantity:    m.Quantity.Ptr(),
			Unit:        m.Unit,
			NeededBy:    m.NeededBy,
			Confidence:  itemConfidence(m.Confidence, a.Confidence),
			CreatedAt:   now,
		})
	}
	return rows
}

func laborRows(note *types.VoiceNote, a extractor.Analysis, now time.Time) []types.LaborRequest {
	rows := make([]types.LaborRequest, 0, len(a.Labor))
	for _, l := range a.Labor {
		rows = append(rows, types.LaborRequest{
			ID:          uuid.NewString(),
			VoiceNoteID: note.ID,
			AccountID:   note.AccountID,
			ProjectID:   note.ProjectID,
			Trade:       l.Trade,
			Headcount:   int(math.Round(l.Headcount.Float())),
			Duration:    l.Duration,
			NeededBy:    l.NeededBy,
			Confidence:  itemConfidence(l.Confidence, a.Confidence),
			CreatedAt:   now,
		})
	}
	return rows
}

func approvalRows(note *types.VoiceNote, a extractor.Analysis, now time.Time) []types.ApprovalRequest {
	rows := make([]types.ApprovalRequest, 0, len(a.Approvals))
	for _, ap := range a.Approvals {
		rows = append(rows, types.ApprovalRequest{
			ID:           uuid.NewString(),
			VoiceNoteID:  note.ID,
			AccountID:    note.AccountID,
			ProjectID:    note.ProjectID,
			ApprovalType: ap.Type,
			Description:  ap.Description,
			Amount:       ap.Amount.Ptr(),
			Confidence:   itemConfidence(ap.Confidence, a.Confidence),
			CreatedAt:    now,
		})
	}
	return rows
}

func eventRows(note *types.VoiceNote, a extractor.Analysis, now time.Time) []types.ProjectEvent {
	rows := make([]types.ProjectEvent, 0, len(a.Events))
	for _, e := range a.Events {
		rows = append(rows, types.ProjectEvent{
			ID:          uuid.NewString(),
			VoiceNoteID: note.ID,
			AccountID:   note.AccountID,
			ProjectID:   note.ProjectID,
			EventType:   e.Type,
			Title:       e.Title,
			Description: e.Description,
			Confidence:  itemConfidence(e.Confidence, a.Confidence),
			CreatedAt:   now,
		})
	}
	return rows
}

// displayTranscription is the legacy single-field rendering: the raw text for
// English audio, otherwise both languages labelled.
func displayTranscription(lang, raw, english string) string {
	if transcription.IsEnglish(lang) {
		return raw
	}
	return fmt.Sprintf("[%s] %s\n\n[English] %s", transcription.LanguageName(lang), raw, english)
}
