package processor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchSummary counts the outcomes of ProcessMany.
type BatchSummary struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Results   []Response `json:"results"`
}

// ProcessMany runs independent voice notes with at most concurrency runs in
// flight. Results keep the order of ids. Individual failures are reported in
// the summary, not returned.
func (p *Processor) ProcessMany(ctx context.Context, ids []string, concurrency int) BatchSummary {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]Response, len(ids))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, _ := p.Process(ctx, TriggerRequest{VoiceNoteID: id})
			if res.VoiceNoteID == "" {
				res.VoiceNoteID = id
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	sum := BatchSummary{Total: len(ids), Results: results}
	for _, r := range results {
		if r.Success {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}
	p.log.WithField("total", sum.Total).
		WithField("succeeded", sum.Succeeded).
		WithField("failed", sum.Failed).
		Info("batch finished")
	return sum
}
