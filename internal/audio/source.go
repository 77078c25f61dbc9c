package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"sitevoice-go/internal/retryhttp"
)

// ErrUnsupportedRef is returned for references no source can serve.
var ErrUnsupportedRef = errors.New("unsupported audio reference")

// Source downloads the raw bytes behind an audio reference.
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// HTTPSource fetches http(s) references through the retrying client.
type HTTPSource struct {
	client *retryhttp.Client
}

func NewHTTPSource(client *retryhttp.Client) *HTTPSource {
	return &HTTPSource{client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("create audio request: %w", err)
	}
	resp, err := s.client.Execute(req)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("download audio: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// S3API is the slice of the S3 client used here, so tests can mock it.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Source fetches s3://bucket/key references.
type S3Source struct {
	client S3API
}

// NewS3Source loads the default AWS configuration, overriding the region when
// one is given.
func NewS3Source(ctx context.Context, region string) (*S3Source, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if region != "" {
		awsCfg.Region = region
	}
	return &S3Source{client: s3.NewFromConfig(awsCfg)}, nil
}

func NewS3SourceWithClient(client S3API) *S3Source {
	return &S3Source{client: client}
}

func (s *S3Source) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	})
	if err != nil {
		return nil, fmt.Errorf("download audio from S3: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read S3 audio: %w", err)
	}
	return data, nil
}

// FileSource reads file:// references and bare paths from an afero filesystem.
type FileSource struct {
	fs afero.Fs
}

func NewFileSource(fs afero.Fs) *FileSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileSource{fs: fs}
}

func (s *FileSource) Fetch(_ context.Context, ref string) ([]byte, error) {
	p := strings.TrimPrefix(ref, "file://")
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	return data, nil
}

// Router dispatches a reference to the source for its scheme. Nil sources
// are treated as unsupported.
type Router struct {
	HTTP Source
	S3   Source
	File Source
}

func (r *Router) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var src Source
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		src = r.HTTP
	case strings.HasPrefix(ref, "s3://"):
		src = r.S3
	case strings.HasPrefix(ref, "file://"), strings.HasPrefix(ref, "/"), strings.HasPrefix(ref, "."):
		src = r.File
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
	return src.Fetch(ctx, ref)
}
