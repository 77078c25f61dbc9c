package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"sitevoice-go/internal/audio"
	"sitevoice-go/internal/dataset"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/policy"
	"sitevoice-go/internal/provider"
	"sitevoice-go/internal/store"
	"sitevoice-go/internal/transcription"
	"sitevoice-go/internal/types"
)

const fixtures = `
accounts:
  - id: acc1
    name: Skyline Builders
    transcription_provider: groq
  - id: acc2
    name: Elsewhere Infra
    transcription_provider: acme
users:
  - id: mgr1
    account_id: acc1
    full_name: Meera Nair
    role: project_manager
    preferred_language: en
  - id: u1
    account_id: acc1
    full_name: Ravi Kumar
    role: site_engineer
    preferred_language: hi
    reports_to_id: mgr1
  - id: u2
    account_id: acc1
    full_name: Arul Selvam
    role: worker
    preferred_language: ta
  - id: u9
    account_id: acc2
    full_name: Sam
    role: worker
    preferred_language: en
projects:
  - id: p1
    account_id: acc1
    name: Tower B
  - id: p9
    account_id: acc2
    name: Depot
voice_notes:
  - id: vn1
    account_id: acc1
    project_id: p1
    user_id: u1
    audio_url: https://cdn.example.com/voice-notes/acc1/vn1.webm
  - id: vn2
    account_id: acc2
    project_id: p9
    user_id: u9
    audio_url: https://cdn.example.com/voice-notes/acc2/vn2.webm
`

const (
	hindiUnsafe   = "मचान हिल रहा है, असुरक्षित लग रहा है"
	englishUnsafe = "The scaffolding is shaking, looks unsafe"
)

type fakeProvider struct {
	mu              sync.Mutex
	transcribeCalls int
	translateCalls  int
	classifyCalls   int
	targets         []string
	lastPrompt      string

	transcript    transcription.Result
	transcribeErr error
	translations  map[string]string
	translateErr  error
	analysis      extractor.Analysis
	classifyErr   error
}

func (f *fakeProvider) Name() string { return "groq" }

func (f *fakeProvider) Transcribe(_ context.Context, clip *audio.Clip, contextHint, _ string) (transcription.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribeCalls++
	if clip == nil || len(clip.Bytes) == 0 {
		return transcription.Result{}, errors.New("no audio")
	}
	if contextHint == "" {
		return transcription.Result{}, errors.New("no context hint")
	}
	return f.transcript, f.transcribeErr
}

func (f *fakeProvider) TranslateText(_ context.Context, req provider.TranslateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.translateCalls++
	f.targets = append(f.targets, req.TargetLanguage)
	if f.translateErr != nil {
		return "", f.translateErr
	}
	if out, ok := f.translations[req.TargetLanguage]; ok {
		return out, nil
	}
	return "translated:" + req.TargetLanguage, nil
}

func (f *fakeProvider) Classify(_ context.Context, req provider.ClassifyRequest) (extractor.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyCalls++
	f.lastPrompt = req.Prompt
	return f.analysis, f.classifyErr
}

func (f *fakeProvider) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribeCalls, f.translateCalls, f.classifyCalls = 0, 0, 0
	f.targets = nil
}

type fakeResolver map[string]provider.Provider

func (r fakeResolver) Resolve(name string) (provider.Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownProvider, name)
	}
	return p, nil
}

type fakeSource struct {
	mu    sync.Mutex
	calls int
}

func (s *fakeSource) Fetch(_ context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return []byte("audio:" + ref), nil
}

// flakyStore fails selected writes on top of a real store.
type flakyStore struct {
	*store.Store
	failStatus types.Status
	failTable  string
}

func (f *flakyStore) UpdateVoiceNote(ctx context.Context, id string, u store.VoiceNoteUpdate) error {
	if u.Status != nil && *u.Status == f.failStatus {
		return errors.New("connection reset by peer")
	}
	return f.Store.UpdateVoiceNote(ctx, id, u)
}

func (f *flakyStore) InsertOne(ctx context.Context, table string, row interface{}) error {
	if table == f.failTable {
		return errors.New("constraint violation")
	}
	return f.Store.InsertOne(ctx, table, row)
}

type harness struct {
	store *store.Store
	prov  *fakeProvider
	src   *fakeSource
	orch  *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(":memory:", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	_, err = s.Seed(ctx, strings.NewReader(fixtures))
	require.NoError(t, err)
	_, err = s.SeedDefaultPrompts(ctx)
	require.NoError(t, err)

	conf := 0.91
	h := &harness{
		store: s,
		prov: &fakeProvider{
			transcript:   transcription.Result{Text: hindiUnsafe, LanguageCode: "hindi", Confidence: &conf},
			translations: map[string]string{"en": englishUnsafe},
			analysis: extractor.Analysis{
				Intent:       "update",
				Priority:     "Low",
				ShortSummary: "Scaffolding shaking on site",
				Confidence:   0.95,
				Model:        "llama-3.3-70b-versatile",
			},
		},
		src: &fakeSource{},
	}
	h.orch = h.newOrchestrator(s)
	return h
}

func (h *harness) newOrchestrator(st Store) *Orchestrator {
	return New(st, fakeResolver{"groq": h.prov}, h.src, Options{
		DefaultProvider: "groq",
		Examples:        dataset.DefaultExamples,
	}, logger.Discard())
}

func (h *harness) note(t *testing.T, id string) *types.VoiceNote {
	t.Helper()
	n, err := h.store.LoadVoiceNote(context.Background(), id)
	require.NoError(t, err)
	return n
}

func (h *harness) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.store.DB().Model(model).Count(&n).Error)
	return n
}

func (h *harness) actionItems(t *testing.T) []types.ActionItem {
	t.Helper()
	var items []types.ActionItem
	require.NoError(t, h.store.DB().Find(&items).Error)
	return items
}

func (h *harness) useEnglishAudio(text string) {
	h.prov.transcript = transcription.Result{Text: text, LanguageCode: "en"}
}

func ptr[T any](v T) *T { return &v }

func TestRunCriticalHindiNote(t *testing.T) {
	h := newHarness(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	res, err := h.orch.Run(context.Background(), "vn1")
	require.NoError(t, err)

	assert.False(t, res.AlreadyCompleted)
	assert.Equal(t, "groq", res.Provider)
	assert.Equal(t, "update", res.Intent)
	assert.Equal(t, "High", res.Priority)
	assert.True(t, res.IsCritical)
	assert.True(t, res.ActionCreated)
	assert.Equal(t, "hi", res.DetectedLanguage)
	require.NotNil(t, res.ASRConfidence)
	assert.InDelta(t, 0.91, *res.ASRConfidence, 1e-9)

	items := h.actionItems(t)
	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, res.ActionItemID, item.ID)
	assert.Equal(t, "action_required", item.Category)
	assert.Equal(t, "High", item.Priority)
	assert.True(t, item.IsCriticalFlag)
	assert.True(t, item.NeedsReview)
	require.NotNil(t, item.ReviewStatus)
	assert.Equal(t, policy.ReviewPending, *item.ReviewStatus)
	require.NotNil(t, item.AssignedTo)
	assert.Equal(t, "mgr1", *item.AssignedTo)

	var notes []types.Notification
	require.NoError(t, h.store.DB().Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, "mgr1", notes[0].UserID)
	assert.Equal(t, item.ID, notes[0].ActionItemID)
	assert.Contains(t, notes[0].Title, "Tower B")

	n := h.note(t, "vn1")
	assert.Equal(t, types.StatusCompleted, n.Status)
	assert.Equal(t, hindiUnsafe, *n.TranscriptRawOriginal)
	assert.Equal(t, englishUnsafe, *n.TranscriptEnOriginal)
	assert.Equal(t, englishUnsafe, *n.TranscriptFinal)
	assert.Equal(t, "hi", *n.DetectedLanguageCode)
	assert.Equal(t, "[Hindi] "+hindiUnsafe+"\n\n[English] "+englishUnsafe, *n.Transcription)
	assert.Equal(t, "action_required", n.Category)
	assert.Empty(t, n.ErrorMessage)
	assert.NotNil(t, n.ProcessedAt)
	assert.Equal(t, englishUnsafe, n.TranslatedTranscription["en"])
	assert.Equal(t, hindiUnsafe, n.TranslatedTranscription["hi"])
	assert.Equal(t, "translated:ta", n.TranslatedTranscription["ta"])

	assert.Equal(t, 1, h.src.calls)
	assert.Equal(t, 1, h.prov.transcribeCalls)
	assert.Equal(t, 1, h.prov.classifyCalls)
	assert.ElementsMatch(t, []string{"en", "ta"}, h.prov.targets)
	assert.Contains(t, h.prov.lastPrompt, "Tower B")
	assert.Contains(t, h.prov.lastPrompt, englishUnsafe)
	assert.Equal(t, int64(1), h.count(t, &types.AIAnalysis{}))
}

func TestRunCompletedNoteIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	h.prov.reset()
	before := h.note(t, "vn1")

	res, err := h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)
	assert.Equal(t, "vn1", res.VoiceNoteID)
	assert.Zero(t, h.prov.transcribeCalls+h.prov.translateCalls+h.prov.classifyCalls)
	assert.Equal(t, 1, h.src.calls)
	assert.Len(t, h.actionItems(t), 1)
	assert.Equal(t, int64(1), h.count(t, &types.AIAnalysis{}))
	assert.Equal(t, before.UpdatedAt, h.note(t, "vn1").UpdatedAt)

	assert.Equal(t, "update", res.Intent)
	assert.Equal(t, "High", res.Priority)
	assert.True(t, res.ActionCreated)
	assert.True(t, res.IsCritical)
	assert.Equal(t, h.actionItems(t)[0].ID, res.ActionItemID)
	assert.Equal(t, "hi", res.DetectedLanguage)
}

func TestRunResumesWithoutRepeatingASR(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	flaky := &flakyStore{Store: h.store, failStatus: types.StatusTranslated}
	_, err := h.newOrchestrator(flaky).Run(ctx, "vn1")
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageTranslate, se.Stage)
	assert.Equal(t, KindPersistence, se.Kind)

	n := h.note(t, "vn1")
	assert.Equal(t, types.StatusError, n.Status)
	assert.Contains(t, n.ErrorMessage, "connection reset")
	assert.Equal(t, hindiUnsafe, *n.TranscriptRawOriginal)
	assert.Equal(t, 1, h.prov.transcribeCalls)

	h.prov.transcript.Text = "a different transcript"
	_, err = h.orch.Run(ctx, "vn1")
	require.NoError(t, err)

	n = h.note(t, "vn1")
	assert.Equal(t, types.StatusCompleted, n.Status)
	assert.Equal(t, hindiUnsafe, *n.TranscriptRawOriginal)
	assert.Empty(t, n.ErrorMessage)
	assert.Equal(t, 1, h.prov.transcribeCalls, "ASR must not run again")
	assert.Equal(t, 1, h.src.calls, "audio must not be downloaded again")
}

func TestRunKeepsOriginalEnglish(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.store.UpdateVoiceNote(ctx, "vn1", store.VoiceNoteUpdate{
		Status:                ptr(types.StatusTranslated),
		TranscriptRawOriginal: ptr(hindiUnsafe),
		TranscriptRawCurrent:  ptr(hindiUnsafe),
		DetectedLanguageCode:  ptr("hi"),
		TranscriptEnOriginal:  ptr("first english"),
		TranscriptEnCurrent:   ptr("edited english, all fine"),
	}))

	res, err := h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	assert.False(t, res.IsCritical)

	n := h.note(t, "vn1")
	assert.Equal(t, "first english", *n.TranscriptEnOriginal)
	assert.Equal(t, "edited english, all fine", *n.TranscriptEnCurrent)
	assert.Equal(t, "edited english, all fine", *n.TranscriptFinal)
	assert.Equal(t, "edited english, all fine", n.TranslatedTranscription["en"])
	assert.Zero(t, h.prov.transcribeCalls)
	assert.Zero(t, h.src.calls)
	assert.Equal(t, []string{"ta"}, h.prov.targets)
}

func TestRunAmbientUpdateCreatesNoActionItem(t *testing.T) {
	h := newHarness(t)
	h.useEnglishAudio("Slab work on level 3 finished today")
	h.prov.analysis = extractor.Analysis{Intent: "status update", Priority: "low", Confidence: 0.9, Model: "llama"}

	res, err := h.orch.Run(context.Background(), "vn1")
	require.NoError(t, err)
	assert.False(t, res.ActionCreated)
	assert.Equal(t, "update", res.Intent)
	assert.Empty(t, h.actionItems(t))
	assert.Zero(t, h.count(t, &types.Notification{}))

	n := h.note(t, "vn1")
	assert.Equal(t, "update", n.Category)
	assert.Equal(t, "Slab work on level 3 finished today", *n.Transcription)
	assert.Equal(t, "Slab work on level 3 finished today", *n.TranscriptEnOriginal)
	assert.ElementsMatch(t, []string{"hi", "ta"}, h.prov.targets, "english audio is never translated to english")
}

func TestRunClassifyFailureFallsBack(t *testing.T) {
	h := newHarness(t)
	h.useEnglishAudio("Please approve the extra rebar order for the slab")
	h.prov.classifyErr = &extractor.ParseError{Raw: "not json", Err: extractor.ErrNoJSON}

	res, err := h.orch.Run(context.Background(), "vn1")
	require.NoError(t, err)
	assert.Equal(t, "approval", res.Intent)
	assert.Equal(t, "Med", res.Priority)

	items := h.actionItems(t)
	require.Len(t, items, 1)
	assert.Equal(t, "approval", items[0].Category)
	require.NotNil(t, items[0].ReviewStatus)
	assert.Equal(t, policy.ReviewFlagged, *items[0].ReviewStatus)

	var a types.AIAnalysis
	require.NoError(t, h.store.DB().First(&a).Error)
	assert.Equal(t, policy.FallbackModel, a.Model)
	assert.Zero(t, a.PromptVersion)
	assert.Equal(t, 1, a.Version)
}

func TestRunWithoutAnalysisPromptUsesKeywordClassifier(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.DB().Model(&types.Prompt{}).
		Where("purpose = ?", types.PurposeAnalysis).
		Update("active", false).Error)
	h.useEnglishAudio("There is a problem with the crane brakes")

	res, err := h.orch.Run(context.Background(), "vn1")
	require.NoError(t, err)
	assert.Zero(t, h.prov.classifyCalls)
	assert.Equal(t, "action_required", res.Intent)
	assert.True(t, res.ActionCreated)
}

func TestRunTranslationFailureUsesOriginalText(t *testing.T) {
	h := newHarness(t)
	h.prov.transcript = transcription.Result{Text: "सीमेंट के 20 बैग चाहिए", LanguageCode: "hi"}
	h.prov.translateErr = errors.New("groq chat failed: status 400")
	h.prov.analysis = extractor.Analysis{Intent: "action_required", Priority: "Med", Confidence: 0.8}

	_, err := h.orch.Run(context.Background(), "vn1")
	require.NoError(t, err)

	n := h.note(t, "vn1")
	assert.Equal(t, types.StatusCompleted, n.Status)
	assert.Equal(t, "सीमेंट के 20 बैग चाहिए", *n.TranscriptEnOriginal)
	assert.Equal(t, "सीमेंट के 20 बैग चाहिए", n.TranslatedTranscription["ta"])
	assert.Nil(t, n.ASRConfidence)
}

func TestRunInsertsEntitiesPerType(t *testing.T) {
	h := newHarness(t)
	h.useEnglishAudio("Need 20 bags of cement and two masons tomorrow")
	qty := extractor.FlexFloat(20)
	h.prov.analysis = extractor.Analysis{
		Intent:     "request",
		Priority:   "high",
		Confidence: 0.88,
		Materials: []extractor.MaterialItem{
			{Name: "cement", Quantity: &qty, Unit: "bags", Confidence: 0.9},
			{Name: "sand", Unit: "tonnes"},
		},
		Labor:     []extractor.LaborItem{{Trade: "mason", Headcount: 2, NeededBy: "tomorrow"}},
		Approvals: []extractor.ApprovalItem{{Type: "purchase", Description: "cement order"}},
		Events:    []extractor.EventItem{{Type: "delivery", Title: "Cement delivery"}},
	}

	res, err := h.orch.Run(context.Background(), "vn1")
	require.NoError(t, err)
	assert.Equal(t, "action_required", res.Intent)

	var materials []types.MaterialRequest
	require.NoError(t, h.store.DB().Order("name").Find(&materials).Error)
	require.Len(t, materials, 2)
	assert.Equal(t, "cement", materials[0].Name)
	require.NotNil(t, materials[0].Quantity)
	assert.Equal(t, 20.0, *materials[0].Quantity)
	assert.Equal(t, "acc1", materials[0].AccountID)
	assert.Equal(t, "p1", materials[0].ProjectID)
	assert.Nil(t, materials[1].Quantity)
	assert.InDelta(t, 0.88, materials[1].Confidence, 1e-9)

	var labor types.LaborRequest
	require.NoError(t, h.store.DB().First(&labor).Error)
	assert.Equal(t, 2, labor.Headcount)
	assert.Equal(t, int64(1), h.count(t, &types.ApprovalRequest{}))
	assert.Equal(t, int64(1), h.count(t, &types.ProjectEvent{}))
}

func TestRunPersistFailureLeavesNoteResumable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	flaky := &flakyStore{Store: h.store, failTable: "action_items"}
	_, err := h.newOrchestrator(flaky).Run(ctx, "vn1")
	require.Error(t, err)
	var be *store.BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"insert action_items"}, be.Failed)
	assert.Contains(t, err.Error(), "insert action_items")

	n := h.note(t, "vn1")
	assert.Equal(t, types.StatusError, n.Status)
	assert.Zero(t, h.count(t, &types.Notification{}))

	_, err = h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, h.note(t, "vn1").Status)
	assert.Len(t, h.actionItems(t), 1)
	assert.Equal(t, int64(1), h.count(t, &types.Notification{}), "one notification, sent with the resumed item")
	assert.Equal(t, int64(2), h.count(t, &types.AIAnalysis{}), "analysis history is append-only")
}

func TestRunResumeAfterNotificationFailureKeepsOneActionItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	flaky := &flakyStore{Store: h.store, failTable: "notifications"}
	_, err := h.newOrchestrator(flaky).Run(ctx, "vn1")
	var be *store.BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"insert action_items"}, be.Failed)
	assert.Contains(t, err.Error(), "insert notifications")
	assert.Equal(t, types.StatusError, h.note(t, "vn1").Status)

	first := h.actionItems(t)
	require.Len(t, first, 1, "action item committed alongside the failed write")
	assert.Zero(t, h.count(t, &types.Notification{}))

	res, err := h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	assert.True(t, res.ActionCreated)
	assert.Equal(t, first[0].ID, res.ActionItemID)
	assert.Equal(t, types.StatusCompleted, h.note(t, "vn1").Status)

	items := h.actionItems(t)
	require.Len(t, items, 1)
	assert.Equal(t, first[0].ID, items[0].ID)

	var notes []types.Notification
	require.NoError(t, h.store.DB().Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, first[0].ID, notes[0].ActionItemID)

	_, err = h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.count(t, &types.Notification{}))
}

func TestRunResumeDoesNotRepeatNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	flaky := &flakyStore{Store: h.store, failTable: "ai_analysis"}
	_, err := h.newOrchestrator(flaky).Run(ctx, "vn1")
	require.Error(t, err)
	require.Len(t, h.actionItems(t), 1)
	require.Equal(t, int64(1), h.count(t, &types.Notification{}))

	res, err := h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	assert.True(t, res.ActionCreated)
	assert.Len(t, h.actionItems(t), 1)
	assert.Equal(t, int64(1), h.count(t, &types.Notification{}))
	assert.Equal(t, int64(1), h.count(t, &types.AIAnalysis{}))
}

func TestRunASRFailureMarksError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.prov.transcribeErr = &provider.StatusError{Provider: "groq", Op: "transcribe", StatusCode: 400, Body: "bad audio"}

	_, err := h.orch.Run(ctx, "vn1")
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageASR, se.Stage)
	assert.Equal(t, KindVendor, se.Kind)

	n := h.note(t, "vn1")
	assert.Equal(t, types.StatusError, n.Status)
	assert.Contains(t, n.ErrorMessage, "status 400")
	assert.Zero(t, h.prov.classifyCalls)

	h.prov.transcribeErr = nil
	_, err = h.orch.Run(ctx, "vn1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, h.note(t, "vn1").Status)
}

func TestRunEmptyTranscriptIsFatal(t *testing.T) {
	h := newHarness(t)
	h.prov.transcript = transcription.Result{Text: "   ", LanguageCode: "en"}

	_, err := h.orch.Run(context.Background(), "vn1")
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	assert.Equal(t, types.StatusError, h.note(t, "vn1").Status)
}

func TestRunUnknownProviderIsConfigError(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Run(context.Background(), "vn2")
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindConfig, se.Kind)
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
	assert.Equal(t, types.StatusError, h.note(t, "vn2").Status)
	assert.Zero(t, h.src.calls)
}

func TestRunMissingNote(t *testing.T) {
	h := newHarness(t)

	res, err := h.orch.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "nope", res.VoiceNoteID)
}

func TestDisplayTranscription(t *testing.T) {
	assert.Equal(t, "hello", displayTranscription("en", "hello", "hello"))
	assert.Equal(t, "[Telugu] raw\n\n[English] eng", displayTranscription("te", "raw", "eng"))
}

func TestLanguageHint(t *testing.T) {
	assert.Equal(t, "", languageHint("en"))
	assert.Equal(t, "", languageHint(""))
	assert.Equal(t, "kn", languageHint("Kannada"))
}
