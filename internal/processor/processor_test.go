package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/pipeline"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, id string) (pipeline.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	err := f.fail[id]
	f.mu.Unlock()

	if err != nil {
		return pipeline.Result{VoiceNoteID: id, Duration: 5 * time.Millisecond}, err
	}
	conf := 0.8
	return pipeline.Result{
		VoiceNoteID:   id,
		Intent:        "approval",
		Priority:      "Med",
		ActionCreated: true,
		ASRConfidence: &conf,
		Duration:      1500 * time.Millisecond,
	}, nil
}

func TestTriggerRequestID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare id", `{"voice_note_id":"vn1"}`, "vn1"},
		{"webhook record", `{"type":"INSERT","record":{"id":"vn2","account_id":"a","audio_url":"https://x/voice-notes/a.webm"}}`, "vn2"},
		{"id wins over record", `{"voice_note_id":"vn1","record":{"id":"vn2"}}`, "vn1"},
		{"whitespace", `{"voice_note_id":"  "}`, ""},
		{"empty", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TriggerRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.ID())
		})
	}
}

func TestProcessSuccess(t *testing.T) {
	runner := &fakeRunner{}
	p := New(runner, logger.Discard())

	res, err := p.Process(context.Background(), TriggerRequest{Record: &TriggerRecord{ID: "vn7"}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "vn7", res.VoiceNoteID)
	assert.Equal(t, "approval", res.Intent)
	assert.True(t, res.ActionCreated)
	assert.Equal(t, int64(1500), res.ProcessingTimeMs)
	require.NotNil(t, res.ASRConfidence)
	assert.Empty(t, res.Error)
	assert.Equal(t, []string{"vn7"}, runner.calls)
}

func TestProcessFailureCarriesMessageOnly(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"vn1": errors.New("asr failed: status 500")}}
	p := New(runner, logger.Discard())

	res, err := p.Process(context.Background(), TriggerRequest{VoiceNoteID: "vn1"})
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "asr failed: status 500", res.Error)
	assert.Empty(t, res.Intent)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"voice_note_id":"vn1","action_created":false,"asr_confidence":null,"processing_time_ms":5,"error":"asr failed: status 500"}`, string(body))
}

func TestProcessMissingID(t *testing.T) {
	runner := &fakeRunner{}
	_, err := New(runner, logger.Discard()).Process(context.Background(), TriggerRequest{})
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Empty(t, runner.calls)
}

func TestProcessMany(t *testing.T) {
	defer goleak.VerifyNone(t)

	runner := &fakeRunner{fail: map[string]error{"b": errors.New("boom")}}
	sum := New(runner, logger.Discard()).ProcessMany(context.Background(), []string{"a", "b", "c"}, 2)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Results, 3)
	assert.Equal(t, "a", sum.Results[0].VoiceNoteID)
	assert.False(t, sum.Results[1].Success)
	assert.Equal(t, "boom", sum.Results[1].Error)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, runner.calls)
}
