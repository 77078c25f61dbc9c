package transcription

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceFromLogProbs(t *testing.T) {
	assert.Nil(t, ConfidenceFromLogProbs(nil))

	c := ConfidenceFromLogProbs([]float64{0, 0})
	require.NotNil(t, c)
	assert.InDelta(t, 1.0, *c, 1e-9)

	c = ConfidenceFromLogProbs([]float64{-0.2, -0.4})
	require.NotNil(t, c)
	assert.InDelta(t, math.Exp(-0.3), *c, 1e-9)
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, 0.0, ClampUnit(-1))
	assert.Equal(t, 1.0, ClampUnit(3))
	assert.Equal(t, 0.0, ClampUnit(math.NaN()))
	assert.Equal(t, 0.4, ClampUnit(0.4))
}

func TestParseWhisperResponse(t *testing.T) {
	body := []byte(`{"text":"  Slab casting done  ","language":"english","segments":[{"avg_logprob":-0.1},{"avg_logprob":-0.3}]}`)
	res, err := ParseWhisperResponse(body)
	require.NoError(t, err)

	assert.Equal(t, "Slab casting done", res.Text)
	assert.Equal(t, "en", res.LanguageCode)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, math.Exp(-0.2), *res.Confidence, 1e-9)

	_, err = ParseWhisperResponse([]byte("not json"))
	assert.Error(t, err)
}

func TestParseWhisperResponseWithoutSegments(t *testing.T) {
	res, err := ParseWhisperResponse([]byte(`{"text":"hello","language":"hi"}`))
	require.NoError(t, err)
	assert.Nil(t, res.Confidence)
	assert.Equal(t, "hi", res.LanguageCode)
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"hi":      "hi",
		"HI":      "hi",
		"hi-IN":   "hi",
		"en_US":   "en",
		"hindi":   "hi",
		"Telugu":  "te",
		"english": "en",
		"":        "unknown",
		"unknown": "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLanguage(in), "input %q", in)
	}
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Hindi", LanguageName("hi"))
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "Unknown", LanguageName(""))
	assert.True(t, IsEnglish("English"))
	assert.False(t, IsEnglish("ta"))
}

func TestNewWhisperRequest(t *testing.T) {
	req, err := NewWhisperRequest(context.Background(), WhisperRequest{
		Endpoint:     "http://example.test/audio/transcriptions",
		APIKey:       "k",
		Model:        "whisper-1",
		FileName:     "note.webm",
		MimeType:     "audio/webm",
		Audio:        []byte("RIFF"),
		Prompt:       "site",
		LanguageHint: "hi-IN",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer k", req.Header.Get("Authorization"))
	require.NotNil(t, req.GetBody, "body must be replayable")

	require.NoError(t, req.ParseMultipartForm(1<<20))
	assert.Equal(t, "whisper-1", req.FormValue("model"))
	assert.Equal(t, "verbose_json", req.FormValue("response_format"))
	assert.Equal(t, "hi", req.FormValue("language"))
	assert.Equal(t, "site", req.FormValue("prompt"))

	f, hdr, err := req.FormFile("file")
	require.NoError(t, err)
	defer f.Close()
	data, _ := io.ReadAll(f)
	assert.Equal(t, "note.webm", hdr.Filename)
	assert.Equal(t, "RIFF", string(data))
}
