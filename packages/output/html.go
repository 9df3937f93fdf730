package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/core/runner"
)

// HTMLOutput represents the complete HTML output structure
type HTMLOutput struct {
	Version        string
	Summary        HTMLSummary
	Suites         []HTMLSuite
	Errors         []string
	Duration       float64
	Time           string
	PassedPercent  float64
	FailedPercent  float64
	SkippedPercent float64
}

// HTMLSummary represents the suite summary for HTML output
type HTMLSummary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// HTMLSuite represents a single suite result for HTML output
type HTMLSuite struct {
	Name        string
	File        string
	Passed      bool
	Skipped     bool
	SkipReason  string
	Duration    float64
	Error       string
	StatusClass string
	Checks      []HTMLCheck
}

// HTMLCheck represents a check result for HTML output
type HTMLCheck struct {
	Subject     string
	Check       string
	ExpectedStr string
	ActualStr   string
	Passed      bool
	Message     string
}

// HTMLFormatter formats suite results as HTML
type HTMLFormatter struct {
	writer  io.Writer
	results []HTMLSuite
	errors  []string
	version string
}

// HTMLOption is a functional option for HTMLFormatter
type HTMLOption func(*HTMLFormatter)

// NewHTMLFormatter creates a new HTML formatter
func NewHTMLFormatter(opts ...HTMLOption) *HTMLFormatter {
	f := &HTMLFormatter{
		writer:  os.Stdout,
		results: make([]HTMLSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HTMLWithWriter sets the output writer
func HTMLWithWriter(w io.Writer) HTMLOption {
	return func(f *HTMLFormatter) {
		f.writer = w
	}
}

// FormatResult accumulates a file result
func (f *HTMLFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		suite := HTMLSuite{
			Name:        r.Name,
			File:        result.File,
			Passed:      r.Passed,
			Skipped:     r.Skipped,
			Duration:    float64(r.Duration.Milliseconds()),
			StatusClass: statusOf(r.Passed, r.Skipped),
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			suite.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			suite.Error = r.Error.Error()
		}

		for _, c := range r.Results {
			suite.Checks = append(suite.Checks, HTMLCheck{
				Subject:     c.Subject,
				Check:       c.Check,
				ExpectedStr: formatValue(c.Expected, 200),
				ActualStr:   formatValue(c.Actual, 200),
				Passed:      c.Passed,
				Message:     c.Message,
			})
		}

		f.results = append(f.results, suite)
	}
}

// FormatError records errors outside of a suite run
func (f *HTMLFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

// FormatHeader captures the version for the HTML report
func (f *HTMLFormatter) FormatHeader(version string) {
	f.version = version
}

// Flush writes the accumulated HTML output
func (f *HTMLFormatter) Flush(totalDuration time.Duration) error {
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

	total := len(f.results)
	var passedPct, failedPct, skippedPct float64
	if total > 0 {
		passedPct = float64(passed) / float64(total) * 100
		failedPct = float64(failed) / float64(total) * 100
		skippedPct = float64(skipped) / float64(total) * 100
	}

	output := HTMLOutput{
		Version: f.version,
		Summary: HTMLSummary{
			Total:   total,
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Suites:         f.results,
		Errors:         f.errors,
		Duration:       float64(totalDuration.Milliseconds()),
		Time:           time.Now().Format("2006-01-02 15:04:05"),
		PassedPercent:  passedPct,
		FailedPercent:  failedPct,
		SkippedPercent: skippedPct,
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return tmpl.Execute(f.writer, output)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>shapespec report</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; margin: 2rem; color: #222; }
.bar { display: flex; height: 8px; border-radius: 4px; overflow: hidden; margin: 1rem 0; }
.bar .passed { background: #2da44e; } .bar .failed { background: #cf222e; } .bar .skipped { background: #bf8700; }
.suite { border: 1px solid #ddd; border-radius: 6px; margin: 0.75rem 0; padding: 0.5rem 1rem; }
.suite.passed h3 { color: #2da44e; } .suite.failed h3 { color: #cf222e; } .suite.skipped h3 { color: #bf8700; }
table { border-collapse: collapse; width: 100%; font-size: 0.9rem; }
td, th { text-align: left; padding: 0.25rem 0.5rem; border-bottom: 1px solid #eee; }
tr.fail td { background: #fff0f0; }
.error { color: #cf222e; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>shapespec {{.Version}}</h1>
<p>{{.Summary.Total}} suites: {{.Summary.Passed}} passed, {{.Summary.Failed}} failed, {{.Summary.Skipped}} skipped in {{.Duration}}ms ({{.Time}})</p>
<div class="bar">
<div class="passed" style="width: {{printf "%.1f" .PassedPercent}}%"></div>
<div class="failed" style="width: {{printf "%.1f" .FailedPercent}}%"></div>
<div class="skipped" style="width: {{printf "%.1f" .SkippedPercent}}%"></div>
</div>
{{range .Errors}}<p class="error">{{.}}</p>
{{end}}
{{range .Suites}}
<div class="suite {{.StatusClass}}">
<h3>{{.Name}} <small>{{.File}} · {{.Duration}}ms</small></h3>
{{if .SkipReason}}<p>Skipped: {{.SkipReason}}</p>{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Checks}}
<table>
<tr><th>Subject</th><th>Check</th><th>Expected</th><th>Actual</th><th>Message</th></tr>
{{range .Checks}}<tr{{if not .Passed}} class="fail"{{end}}><td>{{.Subject}}</td><td>{{.Check}}</td><td>{{.ExpectedStr}}</td><td>{{.ActualStr}}</td><td>{{if not .Passed}}{{.Message}}{{end}}</td></tr>
{{end}}</table>
{{end}}
</div>
{{end}}
</body>
</html>
`
