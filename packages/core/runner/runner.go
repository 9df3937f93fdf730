package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/core/env"
	"github.com/abdul-hamid-achik/shapespec/packages/core/parser"
	"github.com/abdul-hamid-achik/shapespec/packages/shape"
)

const (
	// DefaultConcurrency is the default number of concurrent suites in parallel mode
	DefaultConcurrency = 5
	// DefaultCommandTimeout bounds a suite command when no timeout is configured
	DefaultCommandTimeout = 30 * time.Second
)

type Runner struct {
	resolver *env.Resolver
	config   *Config
}

type Config struct {
	Verbose     bool
	Bail        bool
	Exhaustive  *bool
	NameFilter  string
	TagsFilter  []string
	Parallel    bool
	Concurrency int
	Timeout     time.Duration
	Variables   map[string]any
	WarnFunc    env.WarnFunc
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCommandTimeout
	}

	resolver := env.NewResolver()
	resolver.SetVariables(cfg.Variables)
	if cfg.WarnFunc != nil {
		resolver.SetWarnFunc(cfg.WarnFunc)
	}

	return &Runner{
		resolver: resolver,
		config:   cfg,
	}
}

type RunResult struct {
	File     string
	Results  []*SuiteResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

type SuiteResult struct {
	Name       string
	Line       int
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Results    []*shape.Result
	Error      error
}

// Failures returns the failed checks of the suite.
func (s *SuiteResult) Failures() []*shape.Result {
	var out []*shape.Result
	for _, r := range s.Results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	file, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	return r.Run(ctx, file)
}

// Run executes every suite of an already parsed file.
func (r *Runner) Run(ctx context.Context, file *parser.File) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		File: file.Path,
	}

	resolver := r.resolver.Clone()
	for k, v := range file.Variables {
		resolver.SetVariable(k, resolver.ResolveValue(v))
	}

	baseDir := filepath.Dir(file.Path)

	hasOnly := false
	for _, s := range file.Suites {
		if s.Only {
			hasOnly = true
			break
		}
	}

	var selected []*parser.Suite
	for _, s := range file.Suites {
		if !r.shouldRun(s, hasOnly) {
			result.Results = append(result.Results, &SuiteResult{
				Name:       s.Name,
				Line:       s.Line,
				Skipped:    true,
				SkipReason: "filtered out",
			})
			result.Skipped++
			continue
		}
		if s.Skip != "" {
			result.Results = append(result.Results, &SuiteResult{
				Name:       s.Name,
				Line:       s.Line,
				Skipped:    true,
				SkipReason: s.Skip,
			})
			result.Skipped++
			continue
		}
		selected = append(selected, s)
	}

	if r.config.Parallel {
		for _, sr := range r.runParallel(ctx, selected, resolver, baseDir) {
			result.Results = append(result.Results, sr)
			if sr.Passed {
				result.Passed++
			} else {
				result.Failed++
			}
		}
	} else {
		for _, s := range selected {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			sr := r.runSuite(ctx, s, resolver, baseDir)
			result.Results = append(result.Results, sr)

			if sr.Passed {
				result.Passed++
			} else {
				result.Failed++
				if r.config.Bail {
					break
				}
			}
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) runParallel(ctx context.Context, suites []*parser.Suite, resolver *env.Resolver, baseDir string) []*SuiteResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*SuiteResult, len(suites))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, s := range suites {
		wg.Add(1)
		sem <- struct{}{} // acquire semaphore

		go func(idx int, suite *parser.Suite) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			results[idx] = r.runSuite(ctx, suite, resolver, baseDir)
		}(i, s)
	}

	wg.Wait()
	return results
}

func (r *Runner) shouldRun(s *parser.Suite, hasOnly bool) bool {
	if hasOnly && !s.Only {
		return false
	}

	if r.config.NameFilter != "" && !matchesPattern(s.Name, r.config.NameFilter) {
		return false
	}

	if len(r.config.TagsFilter) > 0 && !hasAnyTag(s.Tags, r.config.TagsFilter) {
		return false
	}

	return true
}

func (r *Runner) exhaustive(s *parser.Suite) bool {
	if s.Exhaustive != nil {
		return *s.Exhaustive
	}
	if r.config.Exhaustive != nil {
		return *r.config.Exhaustive
	}
	return true
}

func (r *Runner) runSuite(ctx context.Context, s *parser.Suite, resolver *env.Resolver, baseDir string) *SuiteResult {
	result := &SuiteResult{
		Name: s.Name,
		Line: s.Line,
	}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	value, err := r.loadTarget(ctx, s, resolver, baseDir)
	if err != nil {
		result.Error = err
		return result
	}

	rec := shape.NewRecorder()

	if s.Schema != "" {
		schemaPath := resolvePath(resolver.Resolve(s.Schema), baseDir)
		if err := validateSchema(rec, s.Name, schemaPath, value); err != nil {
			result.Error = err
			result.Results = rec.Results()
			return result
		}
	}

	var tests shape.Tests
	if s.Tests != nil {
		resolved, _ := resolver.ResolveValue(s.Tests).(map[string]any)
		tests = shape.Tests(resolved)
	}

	opts := []shape.ObjectOption{shape.WithExhaustive(r.exhaustive(s))}
	if s.Class != "" {
		opts = append(opts, shape.WithClass(s.Class))
	}

	err = shape.ValidateObject(rec, s.Name, value, tests, opts...)
	result.Results = rec.Results()

	if err != nil {
		result.Error = fmt.Errorf("suite %q: %w", s.Name, err)
		return result
	}

	result.Passed = rec.Passed()
	return result
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if pattern[0] == '*' && pattern[len(pattern)-1] == '*' && len(pattern) > 1 {
		substr := pattern[1 : len(pattern)-1]
		for i := 0; i <= len(name)-len(substr); i++ {
			if name[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(name) >= len(prefix) && name[:len(prefix)] == prefix
	}

	return name == pattern
}

func hasAnyTag(tags []string, filters []string) bool {
	for _, filter := range filters {
		for _, tag := range tags {
			if tag == filter {
				return true
			}
		}
	}
	return false
}
