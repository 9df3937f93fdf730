package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/core/runner"
)

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"console", "json", "junit", "tap", "html"}

// Options carries the settings shared by every formatter NewFormatter builds.
type Options struct {
	Verbose bool
	NoColor bool
	// RunID is written by formats that identify the run. A random id is
	// generated when empty.
	RunID string
}

// NewFormatter builds the formatter registered under name.
func NewFormatter(name string, w io.Writer, opts Options) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(opts.Verbose), WithNoColor(opts.NoColor)), nil
	case "json":
		jsonOpts := []JSONOption{JSONWithWriter(w)}
		if opts.RunID != "" {
			jsonOpts = append(jsonOpts, JSONWithRunID(opts.RunID))
		}
		return NewJSONFormatter(jsonOpts...), nil
	case "junit":
		return NewJUnitFormatter(JUnitWithWriter(w)), nil
	case "tap":
		return NewTAPFormatter(TAPWithWriter(w)), nil
	case "html":
		return NewHTMLFormatter(HTMLWithWriter(w)), nil
	}
	return nil, fmt.Errorf("unknown output format %q (expected one of %s)", name, strings.Join(Formats, ", "))
}

// Multi fans every call out to several formatters, in order.
type Multi []Formatter

func (m Multi) FormatResult(result *runner.RunResult) {
	for _, f := range m {
		f.FormatResult(result)
	}
}

func (m Multi) FormatError(err error) {
	for _, f := range m {
		f.FormatError(err)
	}
}

func (m Multi) FormatHeader(version string) {
	for _, f := range m {
		f.FormatHeader(version)
	}
}

// Flush flushes every Flushable member and returns the first error.
func (m Multi) Flush(totalDuration time.Duration) error {
	var first error
	for _, f := range m {
		fl, ok := f.(Flushable)
		if !ok {
			continue
		}
		if err := fl.Flush(totalDuration); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Extension returns the file extension used when a format is written to
// an output directory.
func Extension(name string) string {
	switch strings.ToLower(name) {
	case "json":
		return ".json"
	case "junit", "xml":
		return ".xml"
	case "tap":
		return ".tap"
	case "html":
		return ".html"
	}
	return ".txt"
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	case string:
		if len(val) > maxLen {
			return fmt.Sprintf("%q...", val[:maxLen])
		}
		return fmt.Sprintf("%q", val)
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

// jsonSafe returns v when it can be encoded as JSON and its printed form
// otherwise. Check results may carry functions or other Go values.
func jsonSafe(v any) any {
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}

func statusOf(passed, skipped bool) string {
	switch {
	case skipped:
		return "skipped"
	case passed:
		return "passed"
	}
	return "failed"
}
