package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Write is one logical write in a batch.
type Write struct {
	Name string
	Run  func(ctx context.Context) error
}

// BatchError reports every write of a batch that failed.
type BatchError struct {
	Failed []string
	Errs   []error
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, name := range e.Failed {
		parts[i] = fmt.Sprintf("%s: %v", name, e.Errs[i])
	}
	return "batch write failed: " + strings.Join(parts, "; ")
}

func (e *BatchError) Unwrap() []error { return e.Errs }

// Dispatch runs all writes concurrently and waits for every one of them.
// Failures do not cancel siblings; they are collected and returned together
// in submission order.
func Dispatch(ctx context.Context, writes ...Write) error {
	if len(writes) == 0 {
		return nil
	}

	errs := make([]error, len(writes))
	var g errgroup.Group
	g.SetLimit(len(writes))
	for i, w := range writes {
		g.Go(func() error {
			errs[i] = w.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var be *BatchError
	for i, err := range errs {
		if err == nil {
			continue
		}
		if be == nil {
			be = &BatchError{}
		}
		be.Failed = append(be.Failed, writes[i].Name)
		be.Errs = append(be.Errs, err)
	}
	if be != nil {
		return be
	}
	return nil
}
