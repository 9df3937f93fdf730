// Package notify provides notification functionality for shapespec run results.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/core/runner"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when suites fail
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when suites pass
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and when suites recover from failure
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a policy name. An empty name means failure.
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch NotifyOn(strings.ToLower(s)) {
	case "":
		return NotifyFailure, nil
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return NotifyOn(strings.ToLower(s)), nil
	}
	return "", fmt.Errorf("invalid notify policy %q (expected always, failure, success or recovery)", s)
}

// RunSummary represents the summary of a run for notifications
type RunSummary struct {
	RunID         string        `json:"run_id,omitempty"`
	TotalFiles    int           `json:"total_files"`
	TotalSuites   int           `json:"total_suites"`
	PassedSuites  int           `json:"passed_suites"`
	FailedSuites  int           `json:"failed_suites"`
	SkippedSuites int           `json:"skipped_suites"`
	FailedChecks  int           `json:"failed_checks"`
	Duration      time.Duration `json:"duration"`
	Errors        []string      `json:"errors,omitempty"`
	FailedResults []FailedSuite `json:"failed_results,omitempty"`
	IsRecovery    bool          `json:"is_recovery,omitempty"`
}

// FailedSuite represents a failed suite for notifications
type FailedSuite struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Errors []string `json:"errors,omitempty"`
}

// maxFailureLines bounds the messages listed per failed suite.
const maxFailureLines = 5

// NewSummary aggregates file results and errors from files that could not
// be run.
func NewSummary(results []*runner.RunResult, loadErrors []error, duration time.Duration) *RunSummary {
	s := &RunSummary{
		TotalFiles: len(results) + len(loadErrors),
		Duration:   duration,
	}

	for _, err := range loadErrors {
		s.Errors = append(s.Errors, err.Error())
	}

	for _, file := range results {
		s.PassedSuites += file.Passed
		s.FailedSuites += file.Failed
		s.SkippedSuites += file.Skipped

		for _, sr := range file.Results {
			if sr.Skipped || sr.Passed {
				continue
			}
			failed := FailedSuite{Name: sr.Name, File: file.File}
			if sr.Error != nil {
				failed.Errors = append(failed.Errors, sr.Error.Error())
			}
			failures := sr.Failures()
			s.FailedChecks += len(failures)
			for i, f := range failures {
				if i == maxFailureLines {
					failed.Errors = append(failed.Errors, fmt.Sprintf("... and %d more", len(failures)-i))
					break
				}
				failed.Errors = append(failed.Errors, f.Message)
			}
			s.FailedResults = append(s.FailedResults, failed)
		}
	}

	s.TotalSuites = s.PassedSuites + s.FailedSuites + s.SkippedSuites
	return s
}

// Success reports whether every file loaded and no suite failed.
func (s *RunSummary) Success() bool {
	return s.FailedSuites == 0 && len(s.Errors) == 0
}

// Headline is the one line status of a run: "Error" when a file could not
// be run, then "Failed n/t", "Success n/t" or "No tests ran", where t
// counts the suites that ran.
func Headline(s *RunSummary) string {
	ran := s.PassedSuites + s.FailedSuites
	switch {
	case len(s.Errors) > 0:
		return "Error"
	case s.FailedSuites > 0:
		return fmt.Sprintf("Failed %d/%d", s.FailedSuites, ran)
	case s.PassedSuites > 0:
		return fmt.Sprintf("Success %d/%d", s.PassedSuites, ran)
	}
	return "No tests ran"
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about run results
	Notify(summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager manages multiple notifiers
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true, // Assume success initially
	}
}

// AddNotifier adds a notifier to the manager
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// HasNotifiers reports whether any notifier is configured
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// SetLastState seeds the outcome of the previous run, such as one read
// from the run history.
func (m *Manager) SetLastState(success bool) {
	m.lastState = success
}

// Notify sends notifications based on the configured policy
func (m *Manager) Notify(summary *RunSummary) error {
	shouldNotify := false
	currentSuccess := summary.Success()

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		// Notify if recovering from failure
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		// Also notify on failure
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess

	if !shouldNotify {
		return nil
	}

	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Notify(summary); err != nil {
			lastErr = fmt.Errorf("%s: %w", n.Name(), err)
		}
	}

	return lastErr
}
