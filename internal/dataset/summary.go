package dataset

import (
	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/types"
)

type DatasetSummary struct {
	TotalExamples int            `json:"total_examples"`
	ByIntent      map[string]int `json:"by_intent"`
	ByPriority    map[string]int `json:"by_priority"`
	Samples       []string       `json:"samples"`
}

// Summarize produces a compact overview of the loaded examples, logged at
// startup so operators can see what the classifier is primed with.
func Summarize(examples []types.FewShotExample, log *logger.Logger) DatasetSummary {
	ds := DatasetSummary{
		TotalExamples: len(examples),
		ByIntent:      map[string]int{},
		ByPriority:    map[string]int{},
		Samples:       []string{},
	}
	for _, ex := range examples {
		ds.ByIntent[ex.Intent]++
		ds.ByPriority[ex.Priority]++
		if len(ds.Samples) < 3 && ex.Summary != "" {
			ds.Samples = append(ds.Samples, ex.Summary)
		}
	}

	if log != nil {
		log.WithFields(map[string]interface{}{
			"component":      "dataset.summary",
			"total_examples": ds.TotalExamples,
			"intents":        len(ds.ByIntent),
		}).Info("few-shot examples loaded")
		for i, s := range ds.Samples {
			log.WithField("example_index", i).Debug("example summary: ", s)
		}
	}
	return ds
}
