package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Analysis is the fixed extraction schema every classify call is coerced into.
// Intent and Priority are raw vendor strings; mapping them into the taxonomy is
// the policy package's job.
type Analysis struct {
	Intent          string         `json:"intent"`
	Priority        string         `json:"priority"`
	ShortSummary    string         `json:"short_summary"`
	DetailedSummary string         `json:"detailed_summary"`
	Confidence      float64        `json:"confidence"`
	Materials       []MaterialItem `json:"materials"`
	Labor           []LaborItem    `json:"labor"`
	Approvals       []ApprovalItem `json:"approvals"`
	Events          []EventItem    `json:"events"`

	// Model is filled by the caller, never by the vendor.
	Model string `json:"-"`
}

type MaterialItem struct {
	Name       string     `json:"name"`
	Quantity   *FlexFloat `json:"quantity"`
	Unit       string     `json:"unit"`
	NeededBy   string     `json:"needed_by"`
	Confidence FlexFloat  `json:"confidence"`
}

type LaborItem struct {
	Trade      string    `json:"trade"`
	Headcount  FlexFloat `json:"headcount"`
	Duration   string    `json:"duration"`
	NeededBy   string    `json:"needed_by"`
	Confidence FlexFloat `json:"confidence"`
}

type ApprovalItem struct {
	Type        string     `json:"approval_type"`
	Description string     `json:"description"`
	Amount      *FlexFloat `json:"amount"`
	Confidence  FlexFloat  `json:"confidence"`
}

type EventItem struct {
	Type        string    `json:"event_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Confidence  FlexFloat `json:"confidence"`
}

// EntityCount is the number of extracted entities across all groups.
func (a Analysis) EntityCount() int {
	return len(a.Materials) + len(a.Labor) + len(a.Approvals) + len(a.Events)
}

// UnmarshalJSON accepts the field spellings vendors actually produce:
// "category" for intent, "summary" for short_summary, "analysis" or
// "details" for detailed_summary, and "*_requests" for the entity groups.
// Confidence may be a number, a numeric string, or a percentage.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var raw struct {
		Intent           string         `json:"intent"`
		Category         string         `json:"category"`
		Priority         string         `json:"priority"`
		ShortSummary     string         `json:"short_summary"`
		Summary          string         `json:"summary"`
		DetailedSummary  string         `json:"detailed_summary"`
		Analysis         string         `json:"analysis"`
		Details          string         `json:"details"`
		Confidence       *FlexFloat     `json:"confidence"`
		ConfidenceScore  *FlexFloat     `json:"confidence_score"`
		Materials        []MaterialItem `json:"materials"`
		MaterialRequests []MaterialItem `json:"material_requests"`
		Labor            []LaborItem    `json:"labor"`
		LaborRequests    []LaborItem    `json:"labor_requests"`
		Approvals        []ApprovalItem `json:"approvals"`
		ApprovalRequests []ApprovalItem `json:"approval_requests"`
		Events           []EventItem    `json:"events"`
		ProjectEvents    []EventItem    `json:"project_events"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Analysis{
		Intent:          firstNonEmpty(raw.Intent, raw.Category),
		Priority:        strings.TrimSpace(raw.Priority),
		ShortSummary:    firstNonEmpty(raw.ShortSummary, raw.Summary),
		DetailedSummary: firstNonEmpty(raw.DetailedSummary, raw.Analysis, raw.Details),
		Materials:       append(raw.Materials, raw.MaterialRequests...),
		Labor:           append(raw.Labor, raw.LaborRequests...),
		Approvals:       append(raw.Approvals, raw.ApprovalRequests...),
		Events:          append(raw.Events, raw.ProjectEvents...),
	}
	switch {
	case raw.Confidence != nil:
		a.Confidence = raw.Confidence.Unit()
	case raw.ConfidenceScore != nil:
		a.Confidence = raw.ConfidenceScore.Unit()
	}
	return nil
}

// FlexFloat decodes numbers that arrive as JSON numbers, numeric strings,
// "85%", or "20 bags". Anything unparseable decodes to zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("flex float: %w", err)
		}
		*f = FlexFloat(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flex float: %w", err)
	}
	*f = FlexFloat(parseLooseFloat(s))
	return nil
}

// Float returns the plain value.
func (f FlexFloat) Float() float64 { return float64(f) }

// Ptr returns nil for a nil receiver, else a pointer to the value.
func (f *FlexFloat) Ptr() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

// Unit reads the value as a probability: values above 1 are treated as
// percentages, and the result is clamped to [0,1].
func (f FlexFloat) Unit() float64 {
	v := float64(f)
	if v > 1 && v <= 100 {
		v /= 100
	}
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func parseLooseFloat(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return 0
		}
		return v / 100
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}

	// Leading number of "20 bags" style quantities.
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
