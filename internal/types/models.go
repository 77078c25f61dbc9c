package types

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the lifecycle state of a voice note.
type Status string

const (
	StatusReceived    Status = "received"
	StatusTranscribed Status = "transcribed"
	StatusTranslated  Status = "translated"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Rank orders the forward lifecycle. Error sits outside the order and ranks lowest
// so a failed note can be pushed forward again by a retry.
func (s Status) Rank() int {
	switch s {
	case StatusReceived:
		return 1
	case StatusTranscribed:
		return 2
	case StatusTranslated:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 0
	}
}

// Account owns users, projects and the provider choice.
type Account struct {
	ID                    string    `gorm:"primaryKey" json:"id" yaml:"id"`
	Name                  string    `json:"name" yaml:"name"`
	TranscriptionProvider string    `json:"transcription_provider" yaml:"transcription_provider"`
	CreatedAt             time.Time `json:"created_at" yaml:"-"`
}

func (Account) TableName() string { return "accounts" }

type User struct {
	ID                string    `gorm:"primaryKey" json:"id" yaml:"id"`
	AccountID         string    `gorm:"index" json:"account_id" yaml:"account_id"`
	Email             string    `json:"email" yaml:"email"`
	FullName          string    `json:"full_name" yaml:"full_name"`
	Role              string    `json:"role" yaml:"role"`
	PreferredLanguage string    `json:"preferred_language" yaml:"preferred_language"`
	ReportsToID       *string   `json:"reports_to_id,omitempty" yaml:"reports_to_id"`
	CreatedAt         time.Time `json:"created_at" yaml:"-"`
}

func (User) TableName() string { return "users" }

type Project struct {
	ID        string    `gorm:"primaryKey" json:"id" yaml:"id"`
	AccountID string    `gorm:"index" json:"account_id" yaml:"account_id"`
	Name      string    `json:"name" yaml:"name"`
	Location  string    `json:"location" yaml:"location"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

func (Project) TableName() string { return "projects" }

// VoiceNote is one audio submission and its derived transcript fields.
// The *Original fields are first-write-wins.
type VoiceNote struct {
	ID        string `gorm:"primaryKey" json:"id" yaml:"id"`
	AccountID string `gorm:"index" json:"account_id" yaml:"account_id"`
	ProjectID string `gorm:"index" json:"project_id" yaml:"project_id"`
	UserID    string `gorm:"index" json:"user_id" yaml:"user_id"`
	AudioURL  string `json:"audio_url" yaml:"audio_url"`
	Status    Status `gorm:"type:text;default:received" json:"status" yaml:"status"`

	TranscriptRawOriginal *string  `json:"transcript_raw_original" yaml:"transcript_raw_original"`
	TranscriptRawCurrent  *string  `json:"transcript_raw_current" yaml:"transcript_raw_current"`
	TranscriptEnOriginal  *string  `json:"transcript_en_original" yaml:"transcript_en_original"`
	TranscriptEnCurrent   *string  `json:"transcript_en_current" yaml:"transcript_en_current"`
	TranscriptFinal       *string  `json:"transcript_final" yaml:"transcript_final"`
	DetectedLanguageCode  *string  `json:"detected_language_code" yaml:"detected_language_code"`
	ASRConfidence         *float64 `gorm:"column:asr_confidence" json:"asr_confidence" yaml:"asr_confidence"`

	// Transcription is the legacy display field combining both languages.
	Transcription           *string           `json:"transcription" yaml:"-"`
	TranslatedTranscription datatypes.JSONMap `json:"translated_transcription" yaml:"-"`
	Category                string            `json:"category" yaml:"-"`
	ErrorMessage            string            `json:"error_message,omitempty" yaml:"-"`
	ProcessedAt             *time.Time        `json:"processed_at,omitempty" yaml:"-"`
	CreatedAt               time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt               time.Time         `json:"updated_at" yaml:"-"`

	Account Account `gorm:"foreignKey:AccountID" json:"-" yaml:"-"`
	User    User    `gorm:"foreignKey:UserID" json:"-" yaml:"-"`
	Project Project `gorm:"foreignKey:ProjectID" json:"-" yaml:"-"`
}

func (VoiceNote) TableName() string { return "voice_notes" }

// AIAnalysis is an append-only record of one classification pass.
type AIAnalysis struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	VoiceNoteID      string    `gorm:"index" json:"voice_note_id"`
	Version          int       `json:"version"`
	Intent           string    `json:"intent"`
	Priority         string    `json:"priority"`
	ShortSummary     string    `json:"short_summary"`
	DetailedSummary  string    `json:"detailed_summary"`
	Confidence       float64   `json:"confidence"`
	Model            string    `json:"model"`
	PromptVersion    int       `json:"prompt_version"`
	TranscriptSource string    `json:"transcript_source"`
	CreatedAt        time.Time `json:"created_at"`
}

func (AIAnalysis) TableName() string { return "ai_analysis" }

type MaterialRequest struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	VoiceNoteID string    `gorm:"index" json:"voice_note_id"`
	AccountID   string    `json:"account_id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Quantity    *float64  `json:"quantity"`
	Unit        string    `json:"unit"`
	NeededBy    string    `json:"needed_by"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

func (MaterialRequest) TableName() string { return "material_requests" }

type LaborRequest struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	VoiceNoteID string    `gorm:"index" json:"voice_note_id"`
	AccountID   string    `json:"account_id"`
	ProjectID   string    `json:"project_id"`
	Trade       string    `json:"trade"`
	Headcount   int       `json:"headcount"`
	Duration    string    `json:"duration"`
	NeededBy    string    `json:"needed_by"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LaborRequest) TableName() string { return "labor_requests" }

type ApprovalRequest struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	VoiceNoteID  string    `gorm:"index" json:"voice_note_id"`
	AccountID    string    `json:"account_id"`
	ProjectID    string    `json:"project_id"`
	ApprovalType string    `json:"approval_type"`
	Description  string    `json:"description"`
	Amount       *float64  `json:"amount"`
	Confidence   float64   `json:"confidence"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ApprovalRequest) TableName() string { return "approval_requests" }

type ProjectEvent struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	VoiceNoteID string    `gorm:"index" json:"voice_note_id"`
	AccountID   string    `json:"account_id"`
	ProjectID   string    `json:"project_id"`
	EventType   string    `json:"event_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ProjectEvent) TableName() string { return "project_events" }

// ActionItem is a task derived from an actionable voice note.
type ActionItem struct {
	ID                 string         `gorm:"primaryKey" json:"id"`
	VoiceNoteID        string         `gorm:"index" json:"voice_note_id"`
	AccountID          string         `gorm:"index" json:"account_id"`
	ProjectID          string         `json:"project_id"`
	UserID             string         `json:"user_id"`
	AssignedTo         *string        `json:"assigned_to"`
	Category           string         `json:"category"`
	Priority           string         `json:"priority"`
	Summary            string         `json:"summary"`
	Details            string         `json:"details"`
	Status             string         `json:"status"`
	ConfidenceScore    float64        `json:"confidence_score"`
	NeedsReview        bool           `json:"needs_review"`
	ReviewStatus       *string        `json:"review_status"`
	IsCriticalFlag     bool           `json:"is_critical_flag"`
	InteractionHistory datatypes.JSON `json:"interaction_history"`
	AIAnalysis         datatypes.JSON `gorm:"column:ai_analysis" json:"ai_analysis"`
	CreatedAt          time.Time      `json:"created_at"`
}

func (ActionItem) TableName() string { return "action_items" }

// Interaction is one entry of an action item's append-only history.
type Interaction struct {
	Action  string    `json:"action"`
	Actor   string    `json:"actor"`
	Details string    `json:"details,omitempty"`
	At      time.Time `json:"at"`
}

type Notification struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	AccountID    string    `gorm:"index" json:"account_id"`
	UserID       string    `gorm:"index" json:"user_id"`
	VoiceNoteID  string    `json:"voice_note_id"`
	ActionItemID string    `json:"action_item_id"`
	Type         string    `json:"type"`
	Priority     string    `json:"priority"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// Prompt purposes looked up by the pipeline.
const (
	PurposeTranslation = "translation"
	PurposeAnalysis    = "analysis"
)

// Prompt is a versioned instruction template keyed by provider and purpose.
type Prompt struct {
	ID        string    `gorm:"primaryKey" json:"id" yaml:"id"`
	Provider  string    `gorm:"index:idx_prompt_lookup,priority:1" json:"provider" yaml:"provider"`
	Purpose   string    `gorm:"index:idx_prompt_lookup,priority:2" json:"purpose" yaml:"purpose"`
	Version   int       `json:"version" yaml:"version"`
	Template  string    `gorm:"type:text" json:"template" yaml:"template"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

func (Prompt) TableName() string { return "prompts" }

// FewShotExample pairs a transcript with its expected classification.
type FewShotExample struct {
	Transcript string `json:"transcript"`
	Intent     string `json:"intent"`
	Priority   string `json:"priority"`
	Summary    string `json:"summary"`
}
