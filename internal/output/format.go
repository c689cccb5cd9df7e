package output

import (
	"fmt"
	"strings"
)

// Section constants to avoid hardcoded strings
const (
	SectionHigh    = "high"
	SectionMedium  = "medium"
	SectionLow     = "low"
	SectionSafe    = "safe"
	SectionUnknown = "unknown"
)

// UI/view-model types (no printing here)
type Line struct {
	Key        string
	Supplement string
	Drug       string
	Severity   string
	Tier       string
	Source     string
	Note       string
}

type Section struct {
	ID    string // high/medium/low/safe/unknown
	Title string
	Lines []Line
}

type ReportView struct {
	Verdict     string
	RiskScore   int
	Confidence  float64
	Explanation string

	Sections   []Section
	GraphLabel string
	Stages     map[string]int

	TotalFindings int
	UnknownCount  int
	Degraded      bool
}

// BuildReport converts a check payload into UI-ready sections grouped by
// severity, with SAFE and UNKNOWN entries in sections of their own.
func BuildReport(payload *CheckPayload) ReportView {
	sec := map[string]*Section{
		SectionHigh:    {ID: SectionHigh, Title: "High Risk"},
		SectionMedium:  {ID: SectionMedium, Title: "Moderate Risk"},
		SectionLow:     {ID: SectionLow, Title: "Low Risk"},
		SectionSafe:    {ID: SectionSafe, Title: "No Known Interactions"},
		SectionUnknown: {ID: SectionUnknown, Title: "No Data Found"},
	}

	view := ReportView{
		Verdict:     payload.Verdict.Overall,
		RiskScore:   payload.Verdict.RiskScore,
		Confidence:  payload.Verdict.Confidence,
		Explanation: payload.Verdict.Explanation,
	}

	res := payload.Result
	if res == nil {
		view.Sections = orderedSections(sec)
		return view
	}

	for _, f := range res.Findings {
		line := Line{
			Key:        lineKey(f.Supplement, f.Drug),
			Supplement: f.Supplement,
			Drug:       f.Drug,
			Severity:   f.Severity.String(),
			Tier:       f.Tier.String(),
			Source:     f.Source,
			Note:       f.Warning,
		}

		switch f.Severity.String() {
		case "HIGH":
			sec[SectionHigh].Lines = append(sec[SectionHigh].Lines, line)
		case "MEDIUM":
			sec[SectionMedium].Lines = append(sec[SectionMedium].Lines, line)
		case "LOW":
			sec[SectionLow].Lines = append(sec[SectionLow].Lines, line)
		default:
			sec[SectionUnknown].Lines = append(sec[SectionUnknown].Lines, line)
		}
	}

	for _, rec := range res.Safe {
		note := rec.Note
		if note == "" {
			note = "No interactions found in the knowledge graph."
		}
		sec[SectionSafe].Lines = append(sec[SectionSafe].Lines, Line{
			Key:        lineKey(rec.Supplement.Name, ""),
			Supplement: rec.Supplement.Name,
			Severity:   "SAFE",
			Source:     "graph",
			Note:       note,
		})
	}

	view.Sections = orderedSections(sec)
	view.GraphLabel = fmt.Sprintf("Knowledge Graph (%d records)", res.Diagnostics.GraphRows)
	view.Stages = res.Diagnostics.Stages
	view.TotalFindings = len(res.Findings)
	view.UnknownCount = res.UnknownCount()
	view.Degraded = res.Diagnostics.Degraded
	return view
}

func orderedSections(sec map[string]*Section) []Section {
	return []Section{
		*sec[SectionHigh],
		*sec[SectionMedium],
		*sec[SectionLow],
		*sec[SectionSafe],
		*sec[SectionUnknown],
	}
}

func lineKey(supplement, drug string) string {
	key := strings.ToLower(strings.TrimSpace(supplement))
	if drug != "" {
		key += "+" + strings.ToLower(strings.TrimSpace(drug))
	}
	return strings.ReplaceAll(key, " ", "_")
}

func (v ReportView) SectionByID(id string) *Section {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}

func (s Section) LineByKey(key string) *Line {
	for i := range s.Lines {
		if s.Lines[i].Key == key {
			return &s.Lines[i]
		}
	}
	return nil
}
