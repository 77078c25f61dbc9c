// Package pipeline runs one voice note through speech recognition,
// translation, classification and extraction, persisting progress after each
// phase so a failed run can be resumed by invoking it again.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"sitevoice-go/internal/actionable"
	"sitevoice-go/internal/aggregator"
	"sitevoice-go/internal/audio"
	"sitevoice-go/internal/config"
	"sitevoice-go/internal/dataset"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/policy"
	"sitevoice-go/internal/provider"
	"sitevoice-go/internal/store"
	"sitevoice-go/internal/transcription"
	"sitevoice-go/internal/types"
)

// Store is the persistence the orchestrator needs. *store.Store satisfies it.
type Store interface {
	LoadVoiceNote(ctx context.Context, id string) (*types.VoiceNote, error)
	UpdateVoiceNote(ctx context.Context, id string, u store.VoiceNoteUpdate) error
	ActivePrompt(ctx context.Context, provider, purpose string) (*types.Prompt, error)
	AccountStaff(ctx context.Context, accountID string) ([]types.User, error)
	NextAnalysisVersion(ctx context.Context, voiceNoteID string) (int, error)
	InsertBatch(ctx context.Context, table string, rows interface{}) error
	InsertOne(ctx context.Context, table string, row interface{}) error
	ActionItemFor(ctx context.Context, voiceNoteID string) (*types.ActionItem, error)
	Notified(ctx context.Context, actionItemID string) (bool, error)
	LatestAnalysis(ctx context.Context, voiceNoteID string) (*types.AIAnalysis, error)
}

// Resolver returns the adapter for a provider name.
type Resolver interface {
	Resolve(name string) (provider.Provider, error)
}

type Options struct {
	DefaultProvider   string
	ContextHint       string
	Examples          []types.FewShotExample
	ExamplesPerIntent int
	// FanOutLimit bounds concurrent recipient-language translations.
	FanOutLimit int
}

type Orchestrator struct {
	store     Store
	providers Resolver
	audio     audio.Source
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

func New(st Store, providers Resolver, src audio.Source, opts Options, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.New()
	}
	if opts.ExamplesPerIntent == 0 {
		opts.ExamplesPerIntent = 2
	}
	if opts.FanOutLimit <= 0 {
		opts.FanOutLimit = 4
	}
	return &Orchestrator{
		store:     st,
		providers: providers,
		audio:     src,
		opts:      opts,
		log:       log.With("component", "pipeline"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Result summarizes one run.
type Result struct {
	VoiceNoteID      string
	AlreadyCompleted bool
	Provider         string
	Intent           string
	Priority         string
	ActionCreated    bool
	ActionItemID     string
	IsCritical       bool
	DetectedLanguage string
	ASRConfidence    *float64
	Transcription    string
	Translations     map[string]string
	Duration         time.Duration
}

// checkpoint records which first-write-wins outputs already exist. It is
// computed once at load and decides which phases run.
type checkpoint struct {
	transcribed bool
	translated  bool
	// action is the item an earlier run committed before failing.
	action   *types.ActionItem
	notified bool
}

func checkpointOf(n *types.VoiceNote) checkpoint {
	return checkpoint{
		transcribed: nonEmpty(n.TranscriptRawOriginal),
		translated:  nonEmpty(n.TranscriptEnOriginal),
	}
}

// run carries the state of one invocation between phases.
type run struct {
	note     *types.VoiceNote
	prov     provider.Provider
	cp       checkpoint
	log      *logger.Logger
	clip     *audio.Clip
	trPrompt *types.Prompt
	anPrompt *types.Prompt

	raw        string
	english    string
	lang       string
	confidence *float64
}

// Run processes one voice note. A completed note is returned untouched. Any
// error outside the translation and classification fallbacks marks the note
// as error before returning; calling Run again resumes from the last phase
// that persisted its output.
func (o *Orchestrator) Run(ctx context.Context, voiceNoteID string) (Result, error) {
	start := time.Now()
	res, err := o.run(ctx, voiceNoteID)
	res.VoiceNoteID = voiceNoteID
	res.Duration = time.Since(start)
	if err != nil {
		o.log.With("voice_note_id", voiceNoteID).WithError(err).Error("pipeline failed")
		if !errors.Is(err, store.ErrNotFound) {
			o.markFailed(ctx, voiceNoteID, err)
		}
		return res, err
	}
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, id string) (Result, error) {
	log := o.log.With("voice_note_id", id)

	note, err := o.store.LoadVoiceNote(ctx, id)
	if err != nil {
		return Result{}, fail(StageLoad, KindPersistence, err)
	}
	if note.Status == types.StatusCompleted {
		log.Info("voice note already completed")
		return o.completedResult(ctx, note)
	}

	name := note.Account.TranscriptionProvider
	if strings.TrimSpace(name) == "" {
		name = o.opts.DefaultProvider
	}
	prov, err := o.providers.Resolve(name)
	if err != nil {
		return Result{}, fail(StageResolve, KindConfig, err)
	}

	cp := checkpointOf(note)
	if err := o.actionCheckpoint(ctx, note.ID, &cp); err != nil {
		return Result{}, fail(StageLoad, KindPersistence, err)
	}

	r := &run{
		note: note,
		prov: prov,
		cp:   cp,
		log:  log.With("provider", prov.Name()),
	}
	res := Result{Provider: prov.Name()}

	if err := o.prefetch(ctx, r); err != nil {
		return res, err
	}
	if err := o.transcribe(ctx, r); err != nil {
		return res, err
	}
	if err := o.translate(ctx, r); err != nil {
		return res, err
	}

	staff, err := o.store.AccountStaff(ctx, note.AccountID)
	if err != nil {
		return res, fail(StageTranslate, KindPersistence, err)
	}
	translations := o.fanOut(ctx, r, staff)

	analysis, promptVersion := o.classify(ctx, r)
	decision := policy.Decide(analysis.Intent, analysis.Priority, analysis.Confidence, r.english)
	r.log.WithField("phase", StageClassify).
		WithField("intent", decision.Intent).
		WithField("priority", decision.Priority).
		WithField("critical", decision.IsCritical).
		Info("classified")

	item, err := o.persist(ctx, r, analysis, decision, promptVersion, staff, translations)
	if err != nil {
		return res, err
	}

	res.Intent = string(decision.Intent)
	res.Priority = string(decision.Priority)
	res.IsCritical = decision.IsCritical
	res.DetectedLanguage = r.lang
	res.ASRConfidence = r.confidence
	res.Transcription = displayTranscription(r.lang, r.raw, r.english)
	res.Translations = translations
	if item != nil {
		res.ActionCreated = true
		res.ActionItemID = item.ID
	}
	r.log.WithField("phase", StageFinalize).Info("voice note completed")
	return res, nil
}

// completedResult rebuilds the response of a finished run from the stored
// analysis and action item.
func (o *Orchestrator) completedResult(ctx context.Context, note *types.VoiceNote) (Result, error) {
	res := Result{
		AlreadyCompleted: true,
		ASRConfidence:    note.ASRConfidence,
		DetectedLanguage: deref(note.DetectedLanguageCode),
		Transcription:    deref(note.Transcription),
	}
	a, err := o.store.LatestAnalysis(ctx, note.ID)
	switch {
	case err == nil:
		res.Intent = a.Intent
		res.Priority = a.Priority
	case !errors.Is(err, store.ErrNotFound):
		return Result{}, fail(StageLoad, KindPersistence, err)
	}
	item, err := o.store.ActionItemFor(ctx, note.ID)
	switch {
	case err == nil:
		res.ActionCreated = true
		res.ActionItemID = item.ID
		res.IsCritical = item.IsCriticalFlag
	case !errors.Is(err, store.ErrNotFound):
		return Result{}, fail(StageLoad, KindPersistence, err)
	}
	return res, nil
}

// actionCheckpoint picks up an action item committed by an earlier run so a
// resume neither composes a second one nor repeats its notification.
func (o *Orchestrator) actionCheckpoint(ctx context.Context, id string, cp *checkpoint) error {
	item, err := o.store.ActionItemFor(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	cp.action = item
	cp.notified, err = o.store.Notified(ctx, item.ID)
	return err
}

// prefetch downloads audio and loads prompts concurrently. Audio is only
// fetched when no transcript exists yet, and the translation prompt only when
// no English text exists. A missing prompt is not an error.
func (o *Orchestrator) prefetch(ctx context.Context, r *run) error {
	cache := audio.NewCache(o.audio)
	g, gctx := errgroup.WithContext(ctx)

	if !r.cp.transcribed {
		g.Go(func() error {
			clip, err := cache.FetchOnce(gctx, r.note.AudioURL)
			if err != nil {
				return fail(StagePrefetch, KindVendor, fmt.Errorf("fetch audio: %w", err))
			}
			r.clip = clip
			return nil
		})
	}
	if !r.cp.translated {
		g.Go(func() error {
			p, err := o.prompt(gctx, r, types.PurposeTranslation)
			r.trPrompt = p
			return err
		})
	}
	g.Go(func() error {
		p, err := o.prompt(gctx, r, types.PurposeAnalysis)
		r.anPrompt = p
		return err
	})
	return g.Wait()
}

func (o *Orchestrator) prompt(ctx context.Context, r *run, purpose string) (*types.Prompt, error) {
	p, err := o.store.ActivePrompt(ctx, r.prov.Name(), purpose)
	if errors.Is(err, store.ErrNotFound) {
		r.log.WithField("purpose", purpose).Warn("no active prompt")
		return nil, nil
	}
	if err != nil {
		return nil, fail(StagePrefetch, KindPersistence, err)
	}
	return p, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, r *run) error {
	if r.cp.transcribed {
		r.raw = firstNonEmpty(deref(r.note.TranscriptRawCurrent), deref(r.note.TranscriptRawOriginal))
		r.lang = transcription.NormalizeLanguage(deref(r.note.DetectedLanguageCode))
		r.confidence = r.note.ASRConfidence
		r.log.WithField("phase", StageASR).Debug("transcript exists, skipping")
		return nil
	}

	out, err := r.prov.Transcribe(ctx, r.clip, o.contextHint(), languageHint(r.note.User.PreferredLanguage))
	if err != nil {
		return fail(StageASR, KindVendor, err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return fail(StageASR, KindVendor, ErrEmptyTranscript)
	}
	r.raw = text
	r.lang = transcription.NormalizeLanguage(out.LanguageCode)
	r.confidence = out.Confidence

	status := types.StatusTranscribed
	err = o.store.UpdateVoiceNote(ctx, r.note.ID, store.VoiceNoteUpdate{
		Status:                &status,
		TranscriptRawOriginal: &text,
		TranscriptRawCurrent:  &text,
		DetectedLanguageCode:  &r.lang,
		ASRConfidence:         out.Confidence,
		Transcription:         &text,
	})
	if err != nil {
		return fail(StageASR, KindPersistence, err)
	}
	r.log.WithField("phase", StageASR).WithField("language", r.lang).Info("transcribed")
	return nil
}

func (o *Orchestrator) translate(ctx context.Context, r *run) error {
	if r.cp.translated {
		r.english = firstNonEmpty(deref(r.note.TranscriptEnCurrent), deref(r.note.TranscriptEnOriginal))
		r.log.WithField("phase", StageTranslate).Debug("english text exists, skipping")
		return nil
	}

	if transcription.IsEnglish(r.lang) {
		r.english = r.raw
	} else {
		tmpl := ""
		if r.trPrompt != nil {
			tmpl = r.trPrompt.Template
		}
		prompt := extractor.TranslationPrompt(tmpl, transcription.LanguageName(r.lang), r.lang, r.raw)
		out, err := r.prov.TranslateText(ctx, provider.TranslateRequest{Text: r.raw, TargetLanguage: "en", Prompt: prompt})
		switch {
		case err != nil:
			r.log.WithError(err).WithField("phase", StageTranslate).Warn("translation failed, using original text")
			r.english = r.raw
		case strings.TrimSpace(out) == "":
			r.log.WithField("phase", StageTranslate).Warn("empty translation, using original text")
			r.english = r.raw
		default:
			r.english = strings.TrimSpace(out)
		}
	}

	status := types.StatusTranslated
	err := o.store.UpdateVoiceNote(ctx, r.note.ID, store.VoiceNoteUpdate{
		Status:               &status,
		TranscriptEnOriginal: &r.english,
		TranscriptEnCurrent:  &r.english,
	})
	if err != nil {
		return fail(StageTranslate, KindPersistence, err)
	}
	r.log.WithField("phase", StageTranslate).Info("translated")
	return nil
}

// fanOut builds the translated-text map: English, the source language and
// every other language a user on the account prefers. A failed translation
// falls back to the English text.
func (o *Orchestrator) fanOut(ctx context.Context, r *run, staff []types.User) map[string]string {
	out := map[string]string{"en": r.english}
	if r.lang != "unknown" && !transcription.IsEnglish(r.lang) {
		out[r.lang] = r.raw
	}

	langs := aggregator.RecipientLanguages(staff, r.lang)
	if len(langs) == 0 {
		return out
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(o.opts.FanOutLimit)
	for _, lang := range langs {
		g.Go(func() error {
			text, err := r.prov.TranslateText(ctx, provider.TranslateRequest{Text: r.english, TargetLanguage: lang})
			if err != nil || strings.TrimSpace(text) == "" {
				r.log.WithError(err).WithField("language", lang).Warn("recipient translation failed, using english")
				text = r.english
			}
			mu.Lock()
			out[lang] = strings.TrimSpace(text)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// classify asks the provider for the structured analysis and falls back to
// the local keyword classifier when no prompt is configured or the call
// fails. The returned prompt version is 0 for the fallback.
func (o *Orchestrator) classify(ctx context.Context, r *run) (extractor.Analysis, int) {
	log := r.log.WithField("phase", StageClassify)
	if r.anPrompt == nil {
		log.Warn("no analysis prompt, using keyword classifier")
		return policy.Backfill(policy.FallbackClassify(r.english), r.english), 0
	}

	prompt := extractor.BuildAnalysisPrompt(extractor.PromptInput{
		Template:    r.anPrompt.Template,
		ProjectName: r.note.Project.Name,
		SpeakerRole: r.note.User.Role,
		SpeakerName: r.note.User.FullName,
		Examples:    dataset.Pick(o.opts.Examples, o.opts.ExamplesPerIntent),
		Transcript:  r.english,
	})
	a, err := r.prov.Classify(ctx, provider.ClassifyRequest{
		Instructions: extractor.AnalysisSystemMessage,
		Prompt:       prompt,
	})
	if err != nil {
		log.WithError(err).Warn("classification failed, using keyword classifier")
		return policy.Backfill(policy.FallbackClassify(r.english), r.english), 0
	}
	return policy.Backfill(a, r.english), r.anPrompt.Version
}

// persist issues the extraction batches, the analysis record, the action item
// and its notification, and the finalize update as one parallel batch. Status
// moves to completed only after every write in the batch succeeded.
func (o *Orchestrator) persist(ctx context.Context, r *run, a extractor.Analysis, d policy.Decision, promptVersion int, staff []types.User, translations map[string]string) (*types.ActionItem, error) {
	note := r.note
	now := o.now()

	version, err := o.store.NextAnalysisVersion(ctx, note.ID)
	if err != nil {
		return nil, fail(StagePersist, KindPersistence, err)
	}

	var writes []store.Write
	if rows := materialRows(note, a, now); len(rows) > 0 {
		writes = append(writes, o.batch("material_requests", &rows))
	}
	if rows := laborRows(note, a, now); len(rows) > 0 {
		writes = append(writes, o.batch("labor_requests", &rows))
	}
	if rows := approvalRows(note, a, now); len(rows) > 0 {
		writes = append(writes, o.batch("approval_requests", &rows))
	}
	if rows := eventRows(note, a, now); len(rows) > 0 {
		writes = append(writes, o.batch("project_events", &rows))
	}

	record := types.AIAnalysis{
		ID:               uuid.NewString(),
		VoiceNoteID:      note.ID,
		Version:          version,
		Intent:           string(d.Intent),
		Priority:         string(d.Priority),
		ShortSummary:     a.ShortSummary,
		DetailedSummary:  a.DetailedSummary,
		Confidence:       a.Confidence,
		Model:            a.Model,
		PromptVersion:    promptVersion,
		TranscriptSource: transcriptSource(r.lang),
		CreatedAt:        now,
	}
	writes = append(writes, o.single("ai_analysis", &record))

	var item *types.ActionItem
	switch {
	case r.cp.action != nil:
		item = r.cp.action
		r.log.WithField("action_item_id", item.ID).Info("reusing action item from earlier run")
	case d.CreateAction:
		composed, err := actionable.Compose(actionable.Input{
			Note:          note,
			Decision:      d,
			Analysis:      a,
			EnglishText:   r.english,
			AssigneeID:    actionable.ResolveAssignee(note.User, staff),
			PromptVersion: promptVersion,
			Now:           now,
		})
		if err != nil {
			return nil, fail(StagePersist, KindPersistence, err)
		}
		item = &composed
		writes = append(writes, o.actionItem(item, actionable.CriticalNotification(composed, note.Project.Name)))
	}
	if r.cp.action != nil && !r.cp.notified {
		if n := actionable.CriticalNotification(*item, note.Project.Name); n != nil {
			writes = append(writes, o.single("notifications", n))
		}
	}

	category := string(d.Category)
	if d.Category == policy.CategoryNone {
		category = string(d.Intent)
	}
	display := displayTranscription(r.lang, r.raw, r.english)
	translated := make(map[string]interface{}, len(translations))
	for k, v := range translations {
		translated[k] = v
	}
	cleared := ""
	final := store.VoiceNoteUpdate{
		TranscriptRawOriginal:   &r.raw,
		TranscriptRawCurrent:    &r.raw,
		TranscriptEnOriginal:    &r.english,
		TranscriptEnCurrent:     &r.english,
		TranscriptFinal:         &r.english,
		DetectedLanguageCode:    &r.lang,
		ASRConfidence:           r.confidence,
		Transcription:           &display,
		TranslatedTranscription: translated,
		Category:                &category,
		ErrorMessage:            &cleared,
		ProcessedAt:             &now,
	}
	writes = append(writes, store.Write{
		Name: "finalize voice note",
		Run: func(ctx context.Context) error {
			return o.store.UpdateVoiceNote(ctx, note.ID, final)
		},
	})

	if err := store.Dispatch(ctx, writes...); err != nil {
		return nil, fail(StagePersist, KindPersistence, err)
	}

	completed := types.StatusCompleted
	if err := o.store.UpdateVoiceNote(ctx, note.ID, store.VoiceNoteUpdate{Status: &completed}); err != nil {
		return nil, fail(StageFinalize, KindPersistence, err)
	}
	r.log.WithField("phase", StagePersist).
		WithField("writes", len(writes)).
		WithField("entities", aggregator.EntityCounts(a).Total()).
		Info("results persisted")
	return item, nil
}

func (o *Orchestrator) batch(table string, rows interface{}) store.Write {
	return store.Write{
		Name: "insert " + table,
		Run: func(ctx context.Context) error {
			return o.store.InsertBatch(ctx, table, rows)
		},
	}
}

// actionItem inserts a new item and then its notification, so a notification
// never references an item that failed to insert.
func (o *Orchestrator) actionItem(item *types.ActionItem, n *types.Notification) store.Write {
	return store.Write{
		Name: "insert action_items",
		Run: func(ctx context.Context) error {
			if err := o.store.InsertOne(ctx, "action_items", item); err != nil {
				return err
			}
			if n == nil {
				return nil
			}
			if err := o.store.InsertOne(ctx, "notifications", n); err != nil {
				return fmt.Errorf("insert notifications: %w", err)
			}
			return nil
		},
	}
}

func (o *Orchestrator) single(table string, row interface{}) store.Write {
	return store.Write{
		Name: "insert " + table,
		Run: func(ctx context.Context) error {
			return o.store.InsertOne(ctx, table, row)
		},
	}
}

// markFailed records the error on the note. It runs on a detached context so
// a cancelled request still leaves the note in error state, and its own
// failure is only logged.
func (o *Orchestrator) markFailed(ctx context.Context, id string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	status := types.StatusError
	msg := cause.Error()
	if err := o.store.UpdateVoiceNote(ctx, id, store.VoiceNoteUpdate{Status: &status, ErrorMessage: &msg}); err != nil {
		o.log.With("voice_note_id", id).WithError(err).Warn("could not mark voice note as failed")
	}
}

func (o *Orchestrator) contextHint() string {
	if o.opts.ContextHint != "" {
		return o.opts.ContextHint
	}
	return config.DefaultContextHint
}

// languageHint is the user's preferred language for speech recognition.
// English, the default preference, is not passed so the vendor detects the
// spoken language.
func languageHint(preferred string) string {
	lang := transcription.NormalizeLanguage(preferred)
	if lang == "unknown" || lang == "en" {
		return ""
	}
	return lang
}

func transcriptSource(lang string) string {
	if transcription.IsEnglish(lang) {
		return "original"
	}
	return "translation"
}

func nonEmpty(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
