package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"sitevoice-go/internal/policy"
	"sitevoice-go/internal/types"
)

// DefaultExamples are used when no workbook is configured.
var DefaultExamples = []types.FewShotExample{
	{Transcript: "Slab casting on the third floor is completed, curing started today.", Intent: "update", Priority: "Low", Summary: "Completed third floor slab casting, curing started"},
	{Transcript: "Can we start the shuttering for the east wing tomorrow? Need your go ahead.", Intent: "approval", Priority: "Med", Summary: "Need approval to start east wing shuttering tomorrow"},
	{Transcript: "The railing near the lift shaft is weak, someone can fall, please fix it today.", Intent: "action_required", Priority: "High", Summary: "Fix weak railing near lift shaft today"},
	{Transcript: "We need 50 bags of cement and 2 tonnes of 12mm rebar by Friday.", Intent: "action_required", Priority: "Med", Summary: "Order 50 cement bags and 2 tonnes 12mm rebar by Friday"},
	{Transcript: "Inspector visit is scheduled for Monday morning.", Intent: "information", Priority: "Low", Summary: "Inspector visit scheduled Monday morning"},
}

// LoadExamples reads few-shot examples from the first sheet of an .xlsx
// workbook, finding columns by header name. An empty path returns the
// built-in examples.
func LoadExamples(path string) ([]types.FewShotExample, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultExamples, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	header := rows[0]
	transcriptIdx, intentIdx, priorityIdx, summaryIdx := -1, -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || strings.Contains(l, "text") || strings.Contains(l, "message"):
			if transcriptIdx == -1 {
				transcriptIdx = i
			}
		case strings.Contains(l, "intent") || strings.Contains(l, "category"):
			if intentIdx == -1 {
				intentIdx = i
			}
		case strings.Contains(l, "priority"):
			priorityIdx = i
		case strings.Contains(l, "summary"):
			summaryIdx = i
		}
	}
	// fallback heuristics: transcript first, intent second
	if transcriptIdx == -1 {
		transcriptIdx = 0
	}
	if intentIdx == -1 && len(header) > 1 {
		intentIdx = 1
	}

	var out []types.FewShotExample
	for i, r := range rows {
		if i == 0 {
			continue
		}
		ex := types.FewShotExample{
			Transcript: cell(r, transcriptIdx),
			Intent:     cell(r, intentIdx),
			Priority:   cell(r, priorityIdx),
			Summary:    cell(r, summaryIdx),
		}
		// skip rows without a transcript quietly
		if ex.Transcript == "" {
			continue
		}
		ex.Intent = string(policy.MapIntent(ex.Intent))
		ex.Priority = string(policy.MapPriority(ex.Priority))
		if ex.Summary == "" {
			ex.Summary = policy.Truncate(ex.Transcript, policy.SummaryMaxLen)
		}
		out = append(out, ex)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable rows")
	}
	return out, nil
}

// Pick returns up to perIntent examples for each intent, preserving order.
func Pick(examples []types.FewShotExample, perIntent int) []types.FewShotExample {
	if perIntent <= 0 {
		return nil
	}
	seen := map[string]int{}
	var out []types.FewShotExample
	for _, ex := range examples {
		if seen[ex.Intent] >= perIntent {
			continue
		}
		seen[ex.Intent]++
		out = append(out, ex)
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
