package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/core/runner"
	"github.com/google/uuid"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Summary  JSONSummary `json:"summary"`
	Suites   []JSONSuite `json:"suites"`
	Errors   []string    `json:"errors,omitempty"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the suite summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONSuite represents a single suite result
type JSONSuite struct {
	Name       string      `json:"name"`
	File       string      `json:"file"`
	Line       int         `json:"line,omitempty"`
	Passed     bool        `json:"passed"`
	Skipped    bool        `json:"skipped,omitempty"`
	SkipReason string      `json:"skipReason,omitempty"`
	Duration   float64     `json:"duration"`
	Error      string      `json:"error,omitempty"`
	Checks     []JSONCheck `json:"checks,omitempty"`
}

// JSONCheck represents one structural check
type JSONCheck struct {
	Subject  string `json:"subject"`
	Check    string `json:"check"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONFormatter formats suite results as JSON
type JSONFormatter struct {
	writer  io.Writer
	runID   string
	results []JSONSuite
	errors  []string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		runID:   uuid.New().String(),
		results: make([]JSONSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithRunID overrides the generated run id.
func JSONWithRunID(id string) JSONOption {
	return func(f *JSONFormatter) {
		f.runID = id
	}
}

// RunID returns the id written with the report.
func (f *JSONFormatter) RunID() string {
	return f.runID
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		suite := JSONSuite{
			Name:     r.Name,
			File:     result.File,
			Line:     r.Line,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: float64(r.Duration.Milliseconds()),
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			suite.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			suite.Error = r.Error.Error()
		}

		if len(r.Results) > 0 {
			suite.Checks = make([]JSONCheck, len(r.Results))
			for i, c := range r.Results {
				suite.Checks[i] = JSONCheck{
					Subject:  c.Subject,
					Check:    c.Check,
					Expected: jsonSafe(c.Expected),
					Actual:   jsonSafe(c.Actual),
					Passed:   c.Passed,
					Message:  c.Message,
				}
			}
		}

		f.results = append(f.results, suite)
	}
}

// FormatError records errors that happen outside of a suite, such as a
// file that fails to parse.
func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, s := range f.results {
		if s.Skipped {
			skipped++
		} else if s.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		RunID: f.runID,
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Suites:   f.results,
		Errors:   f.errors,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
