package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"sitevoice-go/internal/types"
)

// VoiceNoteUpdate is a partial update. Nil fields are left untouched.
type VoiceNoteUpdate struct {
	Status                  *types.Status
	TranscriptRawOriginal   *string
	TranscriptRawCurrent    *string
	TranscriptEnOriginal    *string
	TranscriptEnCurrent     *string
	TranscriptFinal         *string
	DetectedLanguageCode    *string
	ASRConfidence           *float64
	Transcription           *string
	TranslatedTranscription map[string]interface{}
	Category                *string
	ErrorMessage            *string
	ProcessedAt             *time.Time
}

// firstWriteWins lists the columns that may only go from NULL to a value.
var firstWriteWins = map[string]bool{
	"transcript_raw_original": true,
	"transcript_en_original":  true,
}

func (u VoiceNoteUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	setStr := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	setStr("transcript_raw_original", u.TranscriptRawOriginal)
	setStr("transcript_raw_current", u.TranscriptRawCurrent)
	setStr("transcript_en_original", u.TranscriptEnOriginal)
	setStr("transcript_en_current", u.TranscriptEnCurrent)
	setStr("transcript_final", u.TranscriptFinal)
	setStr("detected_language_code", u.DetectedLanguageCode)
	setStr("transcription", u.Transcription)
	setStr("category", u.Category)
	setStr("error_message", u.ErrorMessage)
	if u.ASRConfidence != nil {
		cols["asr_confidence"] = *u.ASRConfidence
	}
	if u.TranslatedTranscription != nil {
		cols["translated_transcription"] = datatypes.JSONMap(u.TranslatedTranscription)
	}
	if u.ProcessedAt != nil {
		cols["processed_at"] = *u.ProcessedAt
	}
	for col, v := range cols {
		if firstWriteWins[col] {
			cols[col] = gorm.Expr(fmt.Sprintf("COALESCE(%s, ?)", col), v)
		}
	}
	return cols
}

// UpdateVoiceNote applies a partial update inside a transaction. The
// *_original columns keep their first non-null value, and status only moves
// forward: received, transcribed, translated, completed. Error may be set
// from any state except completed, and any forward state may follow error.
func (s *Store) UpdateVoiceNote(ctx context.Context, id string, u VoiceNoteUpdate) error {
	cols := u.columns()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current types.VoiceNote
		err := tx.Select("id", "status").First(&current, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("voice note %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}

		if u.Status != nil && statusAllowed(current.Status, *u.Status) {
			cols["status"] = string(*u.Status)
		}
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&types.VoiceNote{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return fmt.Errorf("update voice note %s: %w", id, err)
		}
		return nil
	})
}

func statusAllowed(from, to types.Status) bool {
	if to == types.StatusError {
		return from != types.StatusCompleted
	}
	return to.Rank() > from.Rank()
}
