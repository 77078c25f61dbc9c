package audio

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrEmptyAudio is returned when a reference resolves to zero bytes.
var ErrEmptyAudio = errors.New("audio is empty")

// Cache downloads each reference at most once for the lifetime of the cache.
// The pipeline creates one per run.
type Cache struct {
	src   Source
	group singleflight.Group

	mu    sync.Mutex
	clips map[string]*Clip
}

func NewCache(src Source) *Cache {
	return &Cache{src: src, clips: make(map[string]*Clip)}
}

// FetchOnce returns the clip for ref, downloading it on the first call only.
// Concurrent callers for the same ref share a single download. Failed
// downloads are not cached.
func (c *Cache) FetchOnce(ctx context.Context, ref string) (*Clip, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrUnsupportedRef
	}

	c.mu.Lock()
	clip, ok := c.clips[ref]
	c.mu.Unlock()
	if ok {
		return clip, nil
	}

	v, err, _ := c.group.Do(ref, func() (interface{}, error) {
		c.mu.Lock()
		done, ok := c.clips[ref]
		c.mu.Unlock()
		if ok {
			return done, nil
		}

		data, err := c.src.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, ErrEmptyAudio
		}
		clip := NewClip(data, FileNameFromRef(ref))
		c.mu.Lock()
		c.clips[ref] = clip
		c.mu.Unlock()
		return clip, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Clip), nil
}
