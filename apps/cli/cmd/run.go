package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/shapespec/packages/core/config"
	"github.com/abdul-hamid-achik/shapespec/packages/core/env"
	"github.com/abdul-hamid-achik/shapespec/packages/core/parser"
	"github.com/abdul-hamid-achik/shapespec/packages/core/runner"
	"github.com/abdul-hamid-achik/shapespec/packages/history"
	"github.com/abdul-hamid-achik/shapespec/packages/notify"
	"github.com/abdul-hamid-achik/shapespec/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>",
	Short: "Check data against suite files",
	Long: `Run the suites defined in .shape.yaml, .shape.yml or .shape.json files.

Examples:
  shapespec run user.shape.yaml
  shapespec run ./checks/ --tags smoke
  shapespec run ./checks/ --name "user*" --no-exhaustive
  shapespec run ./checks/ -o console,junit --output-dir reports
  shapespec run ./checks/ --watch

Notifications:
  shapespec run ./checks/ --notify slack --slack-webhook $SLACK_WEBHOOK
  shapespec run ./checks/ --notify command --notify-command 'notify-send {{title}} {{message}}'
  shapespec run ./checks/ --notify slack --notify-on recovery --history runs.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond

	// WatchMinInterval is the shortest time between two watch reruns
	WatchMinInterval = time.Second
)

var errNoSuiteFiles = errors.New("no .shape.yaml, .shape.yml or .shape.json files found")

var (
	configFlag      string
	envFileFlag     string
	nameFlag        string
	tagsFlag        string
	verboseFlag     bool
	quietFlag       bool
	noColorFlag     bool
	outputFlag      string
	outputFileFlag  string
	outputDirFlag   string
	bailFlag        bool
	timeoutFlag     string
	parallelFlag    bool
	concurrencyFlag int
	watchFlag       bool
	noExhaustFlag   bool
	historyFlag     string

	// Notification flags
	notifyFlag        string
	notifyOnFlag      string
	slackWebhookFlag  string
	slackChannelFlag  string
	notifyCommandFlag string
)

func init() {
	// Core flags
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("SHAPESPEC_CONFIG", ""), "Path to config file (env: SHAPESPEC_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("SHAPESPEC_ENV_FILE", ""), "Path to .env file for variable interpolation (env: SHAPESPEC_ENV_FILE)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only suites matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("SHAPESPEC_TAGS", ""), "Run only suites with specified tags (comma-separated) (env: SHAPESPEC_TAGS)")
	runCmd.Flags().BoolVar(&noExhaustFlag, "no-exhaustive", getEnvBool("SHAPESPEC_NO_EXHAUSTIVE", false), "Do not require every member to be tested (env: SHAPESPEC_NO_EXHAUSTIVE)")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("SHAPESPEC_VERBOSE", false), "Show passing checks and command output (env: SHAPESPEC_VERBOSE)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("SHAPESPEC_QUIET", false), "Suppress console output, report only through the exit code (env: SHAPESPEC_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("SHAPESPEC_NO_COLOR", false), "Disable colored output (env: SHAPESPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("SHAPESPEC_OUTPUT", ""), "Output formats, comma-separated: console, json, junit, tap, html (env: SHAPESPEC_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("SHAPESPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: SHAPESPEC_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&outputDirFlag, "output-dir", getEnvString("SHAPESPEC_OUTPUT_DIR", ""), "Write one report per format into this directory (env: SHAPESPEC_OUTPUT_DIR)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("SHAPESPEC_BAIL", false), "Stop on first failure (env: SHAPESPEC_BAIL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("SHAPESPEC_TIMEOUT", "30s"), "Timeout for command targets (e.g., 30s, 1m) (env: SHAPESPEC_TIMEOUT)")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("SHAPESPEC_PARALLEL", false), "Run the suites of a file in parallel (env: SHAPESPEC_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("SHAPESPEC_CONCURRENCY", runner.DefaultConcurrency), "Number of concurrent suites when running in parallel (env: SHAPESPEC_CONCURRENCY)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run suites")
	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("SHAPESPEC_HISTORY", ""), "SQLite file recording run outcomes (env: SHAPESPEC_HISTORY)")

	// Notification flags
	runCmd.Flags().StringVar(&notifyFlag, "notify", getEnvString("SHAPESPEC_NOTIFY", ""), "Notification services, comma-separated: slack, command (env: SHAPESPEC_NOTIFY)")
	runCmd.Flags().StringVar(&notifyOnFlag, "notify-on", getEnvString("SHAPESPEC_NOTIFY_ON", ""), "When to notify: always, failure, success, recovery (env: SHAPESPEC_NOTIFY_ON)")
	runCmd.Flags().StringVar(&slackWebhookFlag, "slack-webhook", getEnvString("SLACK_WEBHOOK", ""), "Slack webhook URL (env: SLACK_WEBHOOK)")
	runCmd.Flags().StringVar(&slackChannelFlag, "slack-channel", getEnvString("SLACK_CHANNEL", ""), "Slack channel override (env: SLACK_CHANNEL)")
	runCmd.Flags().StringVar(&notifyCommandFlag, "notify-command", getEnvString("SHAPESPEC_NOTIFY_COMMAND", ""), "Command run with {{title}} and {{message}} (env: SHAPESPEC_NOTIFY_COMMAND)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// flagConfig returns the config values set through flags or the
// environment. Unset values stay empty so the config file keeps them.
func flagConfig() *config.Config {
	c := &config.Config{
		OutputDir:   outputDirFlag,
		NotifyOn:    notifyOnFlag,
		HistoryPath: historyFlag,
		Reporters:   splitList(strings.ToLower(outputFlag)),
	}
	if noExhaustFlag {
		c.Exhaustive = config.BoolPtr(false)
	}
	if bailFlag {
		c.Bail = config.BoolPtr(true)
	}
	if verboseFlag {
		c.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		c.NoColor = config.BoolPtr(true)
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// session holds everything that survives between watch reruns.
type session struct {
	cmd      *cobra.Command
	cfg      *config.Config
	runner   *runner.Runner
	notifier *notify.Manager
	store    *history.Store
}

func runCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitError(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitError(ExitUsageError, errNoSuiteFiles)
	}

	// Load config from file (if present) and apply CLI overrides
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return exitError(ExitConfigError, err)
	}
	cfg := fileConfig.Merge(flagConfig())
	if err := cfg.Validate(); err != nil {
		return exitError(ExitUsageError, err)
	}

	timeout, err := time.ParseDuration(timeoutFlag)
	if err != nil {
		return exitError(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err))
	}

	variables, err := env.LoadVariables(cfg.Variables, envFileFlag)
	if err != nil {
		return exitError(ExitConfigError, err)
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return exitError(ExitUsageError, err)
	}

	s := &session{
		cmd:      cmd,
		cfg:      cfg,
		notifier: notifier,
		runner: runner.NewRunner(&runner.Config{
			Verbose:     cfg.GetVerbose(),
			Bail:        cfg.GetBail(),
			Exhaustive:  cfg.Exhaustive,
			NameFilter:  nameFlag,
			TagsFilter:  splitList(tagsFlag),
			Parallel:    parallelFlag,
			Concurrency: concurrencyFlag,
			Timeout:     timeout,
			Variables:   variables,
			WarnFunc: func(format string, args ...any) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+format+"\n", args...)
			},
		}),
	}

	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return exitError(ExitConfigError, err)
		}
		defer store.Close()
		s.store = store

		if last, err := store.Last(cmd.Context()); err == nil && notifier != nil {
			notifier.SetLastState(last.Success)
		}
	}

	if !watchFlag {
		code, err := s.run(cmd.Context(), files)
		if err != nil {
			return err
		}
		if code != ExitSuccess {
			return exitError(code, nil)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := s.run(ctx, files); err != nil {
		return err
	}
	return s.watch(ctx, args, files)
}

// run executes every file once and returns the exit code for the outcome.
func (s *session) run(ctx context.Context, files []string) (int, error) {
	runID := uuid.NewString()
	formatter, closeOutputs, err := s.openFormatter(runID)
	if err != nil {
		return ExitUsageError, exitError(ExitUsageError, err)
	}
	defer closeOutputs()

	formatter.FormatHeader(version)

	start := time.Now()
	results, loadErrors := runFiles(ctx, s.runner, files, formatter, s.cfg.GetBail())
	duration := time.Since(start)

	if err := formatter.Flush(duration); err != nil {
		return ExitConfigError, exitError(ExitConfigError, fmt.Errorf("error writing output: %w", err))
	}

	summary := notify.NewSummary(results, loadErrors, duration)
	summary.RunID = runID

	if s.notifier != nil {
		if err := s.notifier.Notify(summary); err != nil {
			fmt.Fprintf(s.cmd.ErrOrStderr(), "warning: failed to send notification: %v\n", err)
		}
	}

	if s.store != nil {
		if err := s.store.Record(ctx, history.NewRun(runID, start, summary)); err != nil {
			fmt.Fprintf(s.cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	return exitCode(summary, loadErrors), nil
}

func runFiles(ctx context.Context, r *runner.Runner, files []string, formatter output.Formatter, bail bool) ([]*runner.RunResult, []error) {
	var (
		results    []*runner.RunResult
		loadErrors []error
	)

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		result, err := r.RunFile(ctx, file)
		if err != nil {
			formatter.FormatError(err)
			loadErrors = append(loadErrors, err)
			if bail {
				break
			}
			continue
		}

		formatter.FormatResult(result)
		results = append(results, result)

		if bail && result.Failed > 0 {
			break
		}
	}

	return results, loadErrors
}

func exitCode(summary *notify.RunSummary, loadErrors []error) int {
	for _, err := range loadErrors {
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			return ExitParseError
		}
	}
	if !summary.Success() {
		return ExitTestFailure
	}
	return ExitSuccess
}

// openFormatter builds one formatter per configured reporter. With an
// output directory each non-console reporter gets its own file there;
// otherwise a single reporter writes to --output-file or stdout.
func (s *session) openFormatter(runID string) (output.Multi, func(), error) {
	reporters := s.cfg.Reporters
	if len(reporters) == 0 {
		reporters = []string{"console"}
	}

	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	stdout := s.cmd.OutOrStdout()
	if quietFlag {
		stdout = io.Discard
	}
	opts := output.Options{
		Verbose: s.cfg.GetVerbose(),
		NoColor: s.cfg.GetNoColor(),
		RunID:   runID,
	}

	if s.cfg.OutputDir == "" && len(reporters) > 1 {
		return nil, closeAll, fmt.Errorf("%d output formats need --output-dir", len(reporters))
	}
	if s.cfg.OutputDir != "" {
		if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
			return nil, closeAll, fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	var formatters output.Multi
	for _, name := range reporters {
		w := stdout
		var path string
		switch {
		case s.cfg.OutputDir != "" && !strings.EqualFold(name, "console"):
			path = filepath.Join(s.cfg.OutputDir, "shapespec-report"+output.Extension(name))
		case s.cfg.OutputDir == "" && outputFileFlag != "":
			path = outputFileFlag
		}
		if path != "" {
			f, err := os.Create(path)
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("cannot create output file: %w", err)
			}
			closers = append(closers, f)
			w = f
		}

		formatter, err := output.NewFormatter(name, w, opts)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		formatters = append(formatters, formatter)
	}

	return formatters, closeAll, nil
}

func buildNotifier(cfg *config.Config) (*notify.Manager, error) {
	services := splitList(notifyFlag)
	if len(services) == 0 {
		return nil, nil
	}

	notifyOn, err := notify.ParseNotifyOn(cfg.NotifyOn)
	if err != nil {
		return nil, err
	}

	manager := notify.NewManager(notifyOn)
	for _, service := range services {
		switch strings.ToLower(service) {
		case "slack":
			if slackWebhookFlag == "" {
				return nil, fmt.Errorf("--slack-webhook is required when using --notify slack")
			}
			var slackOpts []notify.SlackOption
			if slackChannelFlag != "" {
				slackOpts = append(slackOpts, notify.WithSlackChannel(slackChannelFlag))
			}
			manager.AddNotifier(notify.NewSlackNotifier(slackWebhookFlag, slackOpts...))

		case "command":
			if notifyCommandFlag == "" {
				return nil, fmt.Errorf("--notify-command is required when using --notify command")
			}
			manager.AddNotifier(notify.NewCommandNotifier(notifyCommandFlag))

		default:
			return nil, fmt.Errorf("unknown notification service %q (expected slack or command)", service)
		}
	}
	return manager, nil
}

// watch re-runs the suites when a suite file, fixture or config file
// changes, until ctx is cancelled.
func (s *session) watch(ctx context.Context, args, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	out := s.cmd.OutOrStdout()

	// Add files and directories to watch
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(s.cmd.ErrOrStderr(), "warning: failed to watch %s: %v\n", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	// Also watch the original args if they're directories
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// An editor save often produces a burst of events; the debounce folds
	// them into one rerun and the limiter spaces reruns apart.
	limiter := rate.NewLimiter(rate.Every(WatchMinInterval), 1)
	limiter.Allow()

	// Reports written by a run must not trigger the next one.
	var ignore []string
	if s.cfg.OutputDir != "" {
		ignore = append(ignore, s.cfg.OutputDir)
	}
	if outputFileFlag != "" {
		ignore = append(ignore, outputFileFlag)
	}

	var (
		debounce <-chan time.Time
		changed  string
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && isWatchedFile(event.Name, ignore...) {
				changed = event.Name
				debounce = time.After(WatchDebounceDelay)
			}

		case <-debounce:
			debounce = nil
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}

			fmt.Fprintf(out, "\n\nFile changed: %s\nRe-running suites...\n\n", changed)

			// Pick up suite files created since the last run
			if current, err := collectFiles(args); err == nil && len(current) > 0 {
				files = current
			}
			if _, err := s.run(ctx, files); err != nil {
				fmt.Fprintf(s.cmd.ErrOrStderr(), "Error: %v\n", err)
			}

			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(s.cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

// isWatchedFile reports whether a change to path can affect a run: suite
// files, JSON and YAML fixtures, and config files. Paths equal to or under
// an ignored file or directory never count.
func isWatchedFile(path string, ignore ...string) bool {
	for _, root := range ignore {
		if within(path, root) {
			return false
		}
	}
	if parser.IsSuiteFile(path) {
		return true
	}
	base := filepath.Base(path)
	for _, name := range config.ConfigFilenames {
		if base == name {
			return true
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// collectFiles expands the arguments into suite files. Directories are
// walked for suite extensions; files named explicitly are always kept.
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && parser.IsSuiteFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			files = append(files, arg)
		}
	}

	return files, nil
}
