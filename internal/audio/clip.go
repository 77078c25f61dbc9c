package audio

import (
	"encoding/base64"
	"net/url"
	"path"
	"strings"
	"sync"
)

// DefaultFileName is used when a reference carries no usable file name.
const DefaultFileName = "audio.webm"

// DefaultMimeType is used for unknown extensions.
const DefaultMimeType = "audio/mpeg"

// Clip is downloaded audio plus a lazily derived base64 encoding.
type Clip struct {
	Bytes    []byte
	FileName string
	MimeType string

	once    sync.Once
	encoded string
}

// NewClip builds a clip, inferring the mime type from the file name.
func NewClip(data []byte, fileName string) *Clip {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Clip{Bytes: data, FileName: fileName, MimeType: MimeFromName(fileName)}
}

// Base64 returns the standard base64 encoding of the audio. It is computed on
// first call and reused afterwards.
func (c *Clip) Base64() string {
	c.once.Do(func() {
		c.encoded = base64.StdEncoding.EncodeToString(c.Bytes)
	})
	return c.encoded
}

var mimeTypes = map[string]string{
	".webm": "audio/webm",
	".mp3":  "audio/mpeg",
	".mpeg": "audio/mpeg",
	".mpga": "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".amr":  "audio/amr",
	".3gp":  "audio/3gpp",
}

// MimeFromName infers an audio mime type from the file extension.
func MimeFromName(name string) string {
	if mt, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return mt
	}
	return DefaultMimeType
}

// FileNameFromRef returns the last path segment of an audio reference,
// ignoring any query string.
func FileNameFromRef(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" || base == "" {
		return DefaultFileName
	}
	return base
}
