package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pubcheck/internal/data"
	"pubcheck/internal/fetcher"
	"pubcheck/internal/metrics"
	"pubcheck/internal/rules"
	"pubcheck/internal/store"
	"pubcheck/internal/submission"
	"pubcheck/internal/verdict"
)

// Engine evaluates submissions against the registered rules.
type Engine struct {
	fetcher *fetcher.Fetcher
	store   store.Store
	metrics *metrics.Collector
	verbose bool
	logger  *slog.Logger
	now     func() time.Time

	// rules is a test seam. If nil, the global registry is used.
	rules func() []rules.Rule
}

type Option func(*Engine)

// WithStore enables persistence. A nil store disables it.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithVerbose keeps full error text (including request URLs) in ERROR details.
func WithVerbose(v bool) Option {
	return func(e *Engine) { e.verbose = v }
}

func WithRules(rs []rules.Rule) Option {
	return func(e *Engine) {
		e.rules = func() []rules.Rule { return rs }
	}
}

func NewEngine(f *fetcher.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher: f,
		logger:  slog.Default().With("component", "engine"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() store.Store {
	return e.store
}

func (e *Engine) Metrics() *metrics.Collector {
	return e.metrics
}

func (e *Engine) ruleList() []rules.Rule {
	if e.rules != nil {
		return e.rules()
	}
	return rules.List()
}

// Evaluate runs every rule against sub in registry order and returns the verdict.
//
// Derived data is computed lazily through a fresh data.EvalContext, so each piece is
// fetched at most once per call and never shared across calls. Rules never
// short-circuit: a rule that errors, or returns an ERROR result, is recorded as
// ERROR and the remaining rules still run. In that case the complete verdict is returned together with an
// *EvaluationError.
func (e *Engine) Evaluate(ctx context.Context, sub *submission.Submission) (*verdict.Verdict, error) {
	if sub == nil {
		return nil, errors.New("evaluate: nil submission")
	}

	start := e.now()
	ec := data.NewEvalContext(e.fetcher.Resolver(sub))
	checks := rules.NewResultSet()
	var ruleErrs []*RuleError

	for _, rule := range e.ruleList() {
		ruleStart := time.Now()
		res, err := e.evaluateRule(ctx, rule, sub, ec)
		if err == nil && res.Status == rules.StatusError {
			// Rules may report ERROR directly, e.g. on a malformed dependency value.
			err = errors.New(res.Details)
		}
		if err != nil {
			ruleErrs = append(ruleErrs, &RuleError{RuleID: rule.ID(), Err: err})
		}
		checks.Set(rule.ID(), res)
		e.metrics.RecordRule(rule.ID(), string(res.Status), time.Since(ruleStart))
	}

	v := &verdict.Verdict{
		ID:          uuid.New().String(),
		Submission:  sub.Label(),
		Source:      sub.Source,
		Passed:      checks.AllPassed(),
		Errored:     len(ruleErrs) > 0,
		Checks:      checks,
		EvaluatedAt: start,
	}
	v.Duration = e.now().Sub(start)
	e.metrics.RecordVerdict(v.Passed, v.Errored, v.Duration)

	e.logger.Debug("evaluated submission",
		"submission", v.Submission,
		"passed", v.Passed,
		"errored", v.Errored,
		"resolved", ec.Resolved(),
		"duration", v.Duration,
	)

	if len(ruleErrs) > 0 {
		return v, &EvaluationError{Submission: v.Submission, Rules: ruleErrs}
	}
	return v, nil
}

// evaluateRule runs one rule and always returns a usable result. The returned error
// is non-nil when the result is a synthetic ERROR.
func (e *Engine) evaluateRule(ctx context.Context, rule rules.Rule, sub *submission.Submission, dc data.DataContext) (res rules.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			res = rules.ErrorResult(rule.ID(), fmt.Sprintf("Evaluation failed: %v", err))
		}
	}()

	// Enforce the rules contract: a rule must not read dependency keys it did not
	// declare in Dependencies().
	tracked := data.NewTrackingDataContext(dc)
	res, err = rule.Evaluate(ctx, sub, tracked)
	if undeclared := undeclaredDependencyAccesses(tracked.AccessedKeys(), rule.Dependencies()); len(undeclared) > 0 {
		msg := fmt.Sprintf("Rule accessed undeclared dependencies: %s. Declare them in Dependencies().", strings.Join(undeclared, ", "))
		if err != nil {
			msg = fmt.Sprintf("%s (evaluation error: %v)", msg, err)
		}
		return rules.ErrorResult(rule.ID(), msg), errors.New(msg)
	}
	if err != nil {
		return rules.ErrorResult(rule.ID(), "Evaluation failed: "+presentDependencyError(err, e.verbose)), err
	}

	// Backfill the rule ID so output stays consistent.
	if res.RuleID == "" {
		res.RuleID = rule.ID()
	}
	if res.Status == "" {
		res.Status = rules.StatusFail
		if res.Check {
			res.Status = rules.StatusPass
		}
	}
	return res, nil
}

// Persist resolves the record ID of sub and saves v. It is a no-op without a store.
//
// The submission's RecID wins when set; otherwise the store maps the primary DOI to
// a stable record ID, minting one on first sight.
func (e *Engine) Persist(ctx context.Context, sub *submission.Submission, v *verdict.Verdict) error {
	if e.store == nil {
		return nil
	}
	if v == nil {
		return errors.New("persist: nil verdict")
	}

	recordID := ""
	if sub != nil {
		recordID = strings.TrimSpace(sub.RecID)
	}
	if recordID == "" {
		doi, err := sub.PrimaryDOI()
		if err != nil {
			return fmt.Errorf("persist %s: %w", v.Submission, err)
		}
		recordID, err = e.store.Resolve(ctx, doi)
		if err != nil {
			return fmt.Errorf("persist %s: %w", v.Submission, err)
		}
	}

	v.RecordID = recordID
	if err := e.store.Save(ctx, v); err != nil {
		return fmt.Errorf("persist %s: %w", v.Submission, err)
	}
	return nil
}

func undeclaredDependencyAccesses(accessed []data.DependencyKey, declared []data.DependencyKey) []string {
	if len(accessed) == 0 {
		return nil
	}
	decl := make(map[data.DependencyKey]struct{}, len(declared))
	for _, d := range declared {
		decl[d] = struct{}{}
	}

	var out []string
	for _, k := range accessed {
		if _, ok := decl[k]; ok {
			continue
		}
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}
