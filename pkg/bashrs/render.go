package bashrs

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paiml/bashrs-sub019/pkg/diag"
)

// jsonFix is the optional `fix` object of the JSON diagnostic rendering
// from spec §6 ("fix?:{replacement}").
type jsonFix struct {
	Replacement string `json:"replacement" yaml:"replacement"`
}

type jsonSpan struct {
	StartLine int `json:"start_line" yaml:"start_line"`
	StartCol  int `json:"start_col" yaml:"start_col"`
	EndLine   int `json:"end_line" yaml:"end_line"`
	EndCol    int `json:"end_col" yaml:"end_col"`
}

type jsonDiagnostic struct {
	Code     string   `json:"code" yaml:"code"`
	Severity string   `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Span     jsonSpan `json:"span" yaml:"span"`
	Fix      *jsonFix `json:"fix,omitempty" yaml:"fix,omitempty"`
}

type jsonSummary struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Infos    int `json:"infos" yaml:"infos"`
}

// jsonReport is the `{file, diagnostics, summary}` shape spec §6 defines
// for the JSON rendering; ToYAML reuses the same shape.
type jsonReport struct {
	File        string           `json:"file" yaml:"file"`
	RunID       string           `json:"run_id" yaml:"run_id"`
	Diagnostics []jsonDiagnostic `json:"diagnostics" yaml:"diagnostics"`
	Summary     jsonSummary      `json:"summary" yaml:"summary"`
}

func toJSONReport(file, runID string, ds []diag.Diagnostic) jsonReport {
	out := jsonReport{File: file, RunID: runID, Diagnostics: make([]jsonDiagnostic, 0, len(ds))}
	for _, d := range ds {
		jd := jsonDiagnostic{
			Code:     d.Code,
			Severity: d.Severity.String(),
			Message:  d.Message,
			Span: jsonSpan{
				StartLine: d.Span.StartLn,
				StartCol:  d.Span.StartCol,
				EndLine:   d.Span.EndLn,
				EndCol:    d.Span.EndCol,
			},
		}
		if len(d.Fixes) > 0 {
			jd.Fix = &jsonFix{Replacement: d.Fixes[0].Replacement}
		}
		out.Diagnostics = append(out.Diagnostics, jd)
	}
	sum := diag.Summarize(ds)
	out.Summary = jsonSummary{Errors: sum.Errors, Warnings: sum.Warnings, Infos: sum.Infos + sum.Notes}
	return out
}

// ToJSON renders r as the JSON diagnostic report spec §6 defines.
func (r LintResult) ToJSON(file string) ([]byte, error) {
	return json.MarshalIndent(toJSONReport(file, r.RunID, r.Diagnostics), "", "  ")
}

// ToYAML renders r as a YAML document with the same shape as ToJSON, the
// supplemented CI-artifact rendering SPEC_FULL.md's domain stack adds.
func (r LintResult) ToYAML(file string) ([]byte, error) {
	return yaml.Marshal(toJSONReport(file, r.RunID, r.Diagnostics))
}

// sarifLevel maps a Severity onto one of SARIF's three result levels;
// Info/Note both map to "note" since SARIF has no fourth level.
func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.Error:
		return "error"
	case diag.Warning:
		return "warning"
	default:
		return "note"
	}
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifDriver struct {
	Name           string   `json:"name"`
	InformationURI string   `json:"informationUri"`
	Rules          []string `json:"rules,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifRun struct {
	Tool       sarifTool     `json:"tool"`
	Results    []sarifResult `json:"results"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

// ToSARIF renders r as a SARIF v2.1.0 log with a single run and a single
// tool, per spec §6.
func (r LintResult) ToSARIF(file string) ([]byte, error) {
	results := make([]sarifResult, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		results = append(results, sarifResult{
			RuleID:  d.Code,
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: file},
					Region: sarifRegion{
						StartLine:   d.Span.StartLn,
						StartColumn: d.Span.StartCol,
						EndLine:     d.Span.EndLn,
						EndColumn:   d.Span.EndCol,
					},
				},
			}},
		})
	}
	log := sarifLog{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "bashrs",
				InformationURI: "https://github.com/paiml/bashrs-sub019",
			}},
			Results:    results,
			Properties: map[string]string{"runId": r.RunID},
		}},
	}
	return json.MarshalIndent(log, "", "  ")
}

// ToHuman renders r in the human format spec §6 defines, one line per
// diagnostic: `PATH:LINE:COL[-ENDCOL] [severity] CODE: message`, followed
// by a `Fix:` line when the diagnostic carries one. No source snippet is
// printed.
func (r LintResult) ToHuman(file string) string {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		loc := fmt.Sprintf("%d:%d", d.Span.StartLn, d.Span.StartCol)
		if d.Span.EndCol != d.Span.StartCol {
			loc += fmt.Sprintf("-%d", d.Span.EndCol)
		}
		fmt.Fprintf(&b, "%s:%s [%s] %s: %s\n", file, loc, d.Severity, d.Code, d.Message)
		if len(d.Fixes) > 0 {
			fmt.Fprintf(&b, "  Fix: %s\n", d.Fixes[0].Replacement)
		}
	}
	return b.String()
}
