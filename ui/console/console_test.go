package console

import (
	"bytes"
	"strings"
	"suppcheck/internal/output"
	"testing"
)

func TestColorForSeverity(t *testing.T) {
	tests := []struct {
		severity string
		expected string
	}{
		{"HIGH", colorRed},
		{"MEDIUM", colorYellow},
		{"LOW", colorCyan},
		{"SAFE", colorGreen},
		{"UNKNOWN", colorGray},
		{"", colorGray},
	}

	for _, tt := range tests {
		result := colorForSeverity(tt.severity)
		if result != tt.expected {
			t.Errorf("colorForSeverity(%q) = %q; want %q", tt.severity, result, tt.expected)
		}
	}
}

func TestMarkerFor(t *testing.T) {
	tests := []struct {
		severity string
		expected string
	}{
		{"HIGH", "X"},
		{"MEDIUM", "!"},
		{"SAFE", "✓"},
		{"UNKNOWN", "?"},
		{"LOW", "·"},
	}

	for _, tt := range tests {
		result := markerFor(tt.severity)
		if result != tt.expected {
			t.Errorf("markerFor(%q) = %q; want %q", tt.severity, result, tt.expected)
		}
	}
}

func TestPrint(t *testing.T) {
	view := output.ReportView{
		Verdict:     "CAUTION ADVISED",
		RiskScore:   60,
		Confidence:  0.85,
		Explanation: "1 high-severity interaction found.",
		GraphLabel:  "Knowledge Graph (12 records)",
		Degraded:    true,
		Sections: []output.Section{
			{
				ID:    output.SectionHigh,
				Title: "High Risk",
				Lines: []output.Line{
					{Supplement: "St Johns Wort", Drug: "Sertraline", Severity: "HIGH", Source: "direct_interaction", Note: "Serotonin syndrome risk."},
				},
			},
			{
				ID:    output.SectionMedium,
				Title: "Moderate Risk",
				Lines: []output.Line{
					{Supplement: "A Supplement With A Very Long Name", Drug: "Warfarin", Severity: "MEDIUM", Source: "web_answered"},
				},
			},
			{
				ID:    output.SectionSafe,
				Title: "No Known Interactions",
				Lines: []output.Line{
					{Supplement: "Vitamin C", Severity: "SAFE", Note: "No interactions found in the knowledge graph."},
				},
			},
			{ID: output.SectionUnknown, Title: "No Data Found"},
		},
	}

	var buf bytes.Buffer
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Print panicked: %v", r)
		}
	}()
	Print(&buf, view)

	out := buf.String()
	if !strings.Contains(out, "SUPPCHECK REPORT") {
		t.Errorf("Expected report header in output, got %q", out)
	}
	if !strings.Contains(out, "CAUTION ADVISED") {
		t.Errorf("Expected verdict in summary line, got %q", out)
	}
	if !strings.Contains(out, "St Johns Wort + Sertraline") {
		t.Errorf("Expected pair label in output, got %q", out)
	}
	if strings.Contains(out, "No Data Found") {
		t.Errorf("Expected empty sections to be skipped, got %q", out)
	}
}

func TestPrintEmptyReport(t *testing.T) {
	view := output.ReportView{
		Verdict:    "SAFE",
		Confidence: 0.90,
	}

	var buf bytes.Buffer
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Print panicked: %v", r)
		}
	}()
	Print(&buf, view)

	if !strings.Contains(buf.String(), "SAFE") {
		t.Errorf("Expected SAFE verdict in output, got %q", buf.String())
	}
}
