package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Result is what every speech-to-text capability returns.
// Confidence is nil when the vendor gives nothing to derive it from.
type Result struct {
	Text         string
	LanguageCode string
	Confidence   *float64
}

// WhisperRequest is one upload to a Whisper-compatible /audio/transcriptions endpoint.
type WhisperRequest struct {
	Endpoint     string
	APIKey       string
	Model        string
	FileName     string
	MimeType     string
	Audio        []byte
	Prompt       string
	LanguageHint string
}

// WhisperResponse mirrors the verbose_json response format.
type WhisperResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []WhisperSegment `json:"segments"`
}

type WhisperSegment struct {
	ID         int     `json:"id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	AvgLogprob float64 `json:"avg_logprob"`
	NoSpeech   float64 `json:"no_speech_prob"`
}

// NewWhisperRequest builds the multipart request. The body is an in-memory
// reader so the retrying client can replay it.
func NewWhisperRequest(ctx context.Context, wr WhisperRequest) (*http.Request, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(wr.FileName)))
	if wr.MimeType != "" {
		h.Set("Content-Type", wr.MimeType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(wr.Audio); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}

	fields := map[string]string{
		"model":           wr.Model,
		"response_format": "verbose_json",
		"temperature":     "0",
	}
	if wr.Prompt != "" {
		fields["prompt"] = wr.Prompt
	}
	// Only pass ISO-639-1 hints; the endpoints reject anything else.
	if hint := NormalizeLanguage(wr.LanguageHint); len(hint) == 2 {
		fields["language"] = hint
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wr.Endpoint, bytes.NewReader(b.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+wr.APIKey)
	return req, nil
}

// ParseWhisperResponse decodes a verbose_json body into a Result.
func ParseWhisperResponse(body []byte) (Result, error) {
	var wr WhisperResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return Result{}, fmt.Errorf("json decode error: %v body=%s", err, truncate(string(body), 200))
	}
	logprobs := make([]float64, 0, len(wr.Segments))
	for _, s := range wr.Segments {
		logprobs = append(logprobs, s.AvgLogprob)
	}
	return Result{
		Text:         strings.TrimSpace(wr.Text),
		LanguageCode: NormalizeLanguage(wr.Language),
		Confidence:   ConfidenceFromLogProbs(logprobs),
	}, nil
}

// ConfidenceFromLogProbs turns per-segment average log-probabilities into a
// single 0-1 probability: exp of the mean. Nil when there are no segments.
func ConfidenceFromLogProbs(logprobs []float64) *float64 {
	if len(logprobs) == 0 {
		return nil
	}
	sum := 0.0
	for _, lp := range logprobs {
		sum += lp
	}
	p := ClampUnit(math.Exp(sum / float64(len(logprobs))))
	return &p
}

// ClampUnit keeps v inside [0,1].
func ClampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
