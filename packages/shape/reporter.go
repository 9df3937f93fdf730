package shape

import "sync"

// Check names recorded on each Result.
const (
	CheckType     = "type"
	CheckNull     = "null"
	CheckNotNull  = "not null"
	CheckArray    = "array"
	CheckNotEmpty = "not empty"
	CheckClass    = "class"
	CheckValue    = "value"
	CheckDefined  = "defined"
	CheckKey      = "key"
	CheckObject   = "object"
	CheckCall     = "call"
	CheckCoverage = "coverage"
)

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Check    string
}

// Reporter receives the outcome of every check the engine performs.
type Reporter interface {
	Report(result *Result)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(result *Result)

func (f ReporterFunc) Report(result *Result) {
	f(result)
}

// Recorder is a Reporter that keeps every result it receives.
type Recorder struct {
	mu      sync.Mutex
	results []*Result
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Results returns a copy of all recorded results in report order.
func (r *Recorder) Results() []*Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Result, len(r.results))
	copy(out, r.results)
	return out
}

// Failures returns the failed results in report order.
func (r *Recorder) Failures() []*Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Result
	for _, res := range r.results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Passed reports whether no failure has been recorded.
func (r *Recorder) Passed() bool {
	return len(r.Failures()) == 0
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = nil
}

func report(r Reporter, passed bool, subject, check string, expected, actual any, msg string) bool {
	r.Report(&Result{
		Passed:   passed,
		Message:  msg,
		Expected: expected,
		Actual:   actual,
		Subject:  subject,
		Check:    check,
	})
	return passed
}
