package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyTranscript is returned when speech recognition produced no text.
var ErrEmptyTranscript = errors.New("transcription returned no text")

// Kind classifies a failed run.
type Kind string

const (
	KindConfig      Kind = "config"
	KindVendor      Kind = "vendor"
	KindPersistence Kind = "persistence"
)

// Stage names a pipeline phase.
type Stage string

const (
	StageLoad      Stage = "load"
	StageResolve   Stage = "resolve"
	StagePrefetch  Stage = "prefetch"
	StageASR       Stage = "asr"
	StageTranslate Stage = "translate"
	StageClassify  Stage = "classify"
	StagePersist   Stage = "persist"
	StageFinalize  Stage = "finalize"
)

// StageError is the error returned by Run for any failure outside the
// fallback paths.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func fail(stage Stage, kind Kind, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
