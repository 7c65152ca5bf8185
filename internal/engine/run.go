package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"pubcheck/internal/config"
	"pubcheck/internal/output"
	"pubcheck/internal/rules"
	"pubcheck/internal/submission"
	"pubcheck/internal/verdict"
	"pubcheck/internal/watch"
)

func exitCodeForRun(fatal, partial, wrongs bool) int {
	// Exit code contract:
	// 0 = every submission compliant
	// 1 = at least one non-compliant submission
	// 2 = partial failure (some rules errored)
	// 3 = fatal error (check did not run)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if wrongs {
		return 1
	}
	return 0
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus...)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func configureRules(cfg *config.Config) (int, error) {
	if err := rules.Complete(); err != nil {
		return 0, err
	}
	opts, err := cfg.RuleOptions()
	if err != nil {
		return 0, err
	}
	if err := rules.Configure(opts); err != nil {
		return 0, err
	}
	return len(rules.List()), nil
}

// runState accumulates the outcome flags that feed the exit code.
type runState struct {
	errored atomic.Bool
	failed  atomic.Bool
}

func (s *runState) observe(v *verdict.Verdict) {
	switch {
	case v.Errored:
		s.errored.Store(true)
	case !v.Passed:
		s.failed.Store(true)
	}
}

// Run evaluates every submission named by cfg.Input and writes the verdicts to the
// configured sinks. It returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	ruleCount, err := e.prepareRules(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring rules: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	subs, err := submission.LoadPaths(cfg.Input.Paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading submissions: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	subs = FilterSubmissions(subs, cfg)
	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Found %d submissions.\n", len(subs))
	}

	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, Submissions: len(subs), Rules: ruleCount})

	state := &runState{}
	fatal := false

	if cfg.Input.Watch {
		if err := e.evaluateAll(ctx, cfg, subs, outMgr, state); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fatal = true
		}
		if !fatal {
			if err := e.watch(ctx, cfg, outMgr, state); err != nil {
				fmt.Fprintf(os.Stderr, "Error watching submissions: %v\n", err)
				fatal = true
			}
		}
	} else {
		runCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
		if err := e.evaluateAll(runCtx, cfg, subs, outMgr, state); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fatal = true
		}
	}

	if cfg.Output.MetricsOut != "" && e.metrics != nil {
		if err := e.metrics.WriteTextfile(cfg.Output.MetricsOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
		}
	}

	code := exitCodeForRun(fatal, state.errored.Load(), state.failed.Load())
	_ = outMgr.Write(output.Event{Type: output.EventRunFinished, ExitCode: code})
	return code
}

func (e *Engine) prepareRules(cfg *config.Config) (int, error) {
	if e.rules != nil {
		return len(e.rules()), nil
	}
	return configureRules(cfg)
}

// evaluateAll evaluates subs with bounded parallelism. Verdicts are written to
// outMgr from a single goroutine, in completion order.
func (e *Engine) evaluateAll(ctx context.Context, cfg *config.Config, subs []*submission.Submission, outMgr *output.Manager, state *runState) error {
	results := make(chan *verdict.Verdict)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Runtime.Concurrency)

	go func() {
		defer close(results)
		for _, s := range subs {
			s := s
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				v, err := e.evaluateAndPersist(gctx, cfg, s)
				if v == nil {
					return err
				}
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error saving verdict: %v\n", err)
					state.errored.Store(true)
				}
				select {
				case results <- v:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		_ = g.Wait()
	}()

	for v := range results {
		state.observe(v)
		_ = outMgr.Write(v)
	}
	return g.Wait()
}

// evaluateAndPersist evaluates s and saves the verdict. Errored verdicts are only
// saved with --tolerate-errors. A non-nil verdict with an error means the save failed.
func (e *Engine) evaluateAndPersist(ctx context.Context, cfg *config.Config, s *submission.Submission) (*verdict.Verdict, error) {
	v, err := e.Evaluate(ctx, s)
	if v == nil {
		return nil, err
	}
	if err != nil {
		e.logger.Warn("evaluation errored", "submission", v.Submission, "error", err)
		if !cfg.Runtime.TolerateErrors {
			return v, nil
		}
	}
	if err := e.Persist(ctx, s, v); err != nil {
		return v, err
	}
	return v, nil
}

// watch evaluates submission files written to the directory inputs until ctx ends.
func (e *Engine) watch(ctx context.Context, cfg *config.Config, outMgr *output.Manager, state *runState) error {
	var dirs []string
	for _, p := range cfg.Input.Paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	w, err := watch.New(watch.Config{Dirs: dirs})
	if err != nil {
		return err
	}

	return w.Watch(ctx, func(ctx context.Context, path string) error {
		subs, err := submission.Load(path)
		if err != nil {
			return err
		}
		subs = FilterSubmissions(subs, cfg)
		return e.evaluateAll(ctx, cfg, subs, outMgr, state)
	})
}
