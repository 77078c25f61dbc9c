package processor

import (
	"context"
	"errors"
	"strings"

	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/pipeline"
)

// ErrMissingID is returned for a trigger that names no voice note.
var ErrMissingID = errors.New("voice_note_id or record.id is required")

// Runner runs the pipeline for one voice note.
type Runner interface {
	Run(ctx context.Context, voiceNoteID string) (pipeline.Result, error)
}

// TriggerRequest is the body of a processing trigger. Either form is
// accepted: a bare id, or the inserted row as sent by a database webhook.
type TriggerRequest struct {
	VoiceNoteID string         `json:"voice_note_id"`
	Record      *TriggerRecord `json:"record,omitempty"`
}

type TriggerRecord struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	AudioURL  string `json:"audio_url"`
}

// ID returns the voice note id named by the trigger.
func (t TriggerRequest) ID() string {
	if id := strings.TrimSpace(t.VoiceNoteID); id != "" {
		return id
	}
	if t.Record != nil {
		return strings.TrimSpace(t.Record.ID)
	}
	return ""
}

// Response is returned to the trigger caller.
type Response struct {
	Success          bool     `json:"success"`
	VoiceNoteID      string   `json:"voice_note_id,omitempty"`
	Intent           string   `json:"intent,omitempty"`
	Priority         string   `json:"priority,omitempty"`
	ActionCreated    bool     `json:"action_created"`
	ASRConfidence    *float64 `json:"asr_confidence"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	AlreadyCompleted bool     `json:"already_completed,omitempty"`
	Error            string   `json:"error,omitempty"`
}

type Processor struct {
	runner Runner
	log    *logger.Logger
}

func New(runner Runner, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.New()
	}
	return &Processor{runner: runner, log: log.With("component", "processor")}
}

// Process runs the pipeline for the note named by req. A failed run still
// returns a populated Response carrying only the error message.
func (p *Processor) Process(ctx context.Context, req TriggerRequest) (Response, error) {
	id := req.ID()
	if id == "" {
		return Response{Error: ErrMissingID.Error()}, ErrMissingID
	}

	log := p.log.With("voice_note_id", id)
	log.Info("process request received")

	res, err := p.runner.Run(ctx, id)
	out := Response{
		VoiceNoteID:      id,
		ProcessingTimeMs: res.Duration.Milliseconds(),
	}
	if err != nil {
		log.WithError(err).WithField("duration_ms", out.ProcessingTimeMs).Warn("processing failed")
		out.Error = err.Error()
		return out, err
	}

	out.Success = true
	out.Intent = res.Intent
	out.Priority = res.Priority
	out.ActionCreated = res.ActionCreated
	out.ASRConfidence = res.ASRConfidence
	out.AlreadyCompleted = res.AlreadyCompleted
	log.WithField("duration_ms", out.ProcessingTimeMs).
		WithField("intent", out.Intent).
		WithField("action_created", out.ActionCreated).
		Info("processor finished")
	return out, nil
}
