package checks

import (
	"context"
	"fmt"
	"time"

	"pubcheck/internal/data"
	"pubcheck/internal/rules"
	"pubcheck/internal/submission"
)

const (
	defaultInTimeThreshold = 24 * time.Hour
	debugTimeLayout        = "2006-01-02 15:04:05"
)

type InTimeRule struct {
	threshold time.Duration
}

func init() {
	rules.Register(&InTimeRule{threshold: defaultInTimeThreshold})
}

func (r *InTimeRule) ID() string {
	return "in_time"
}

func (r *InTimeRule) Title() string {
	return "Received In Time"
}

func (r *InTimeRule) Description() string {
	return "Verifies that the submission arrived within the allowed delay after its DOI was created at the registry."
}

func (r *InTimeRule) Dependencies() []data.DependencyKey {
	return []data.DependencyKey{data.DepRegistryCreated}
}

func (r *InTimeRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "threshold",
			Description: "Maximum delay between registry creation and receipt (Go duration).",
			Default:     defaultInTimeThreshold.String(),
		},
	}
}

func (r *InTimeRule) Configure(opts map[string]string) error {
	r.threshold = defaultInTimeThreshold

	if val, ok := opts["threshold"]; ok && val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid threshold: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("invalid threshold: must not be negative")
		}
		r.threshold = d
	}
	return nil
}

func (r *InTimeRule) Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (rules.Result, error) {
	val, err := dc.Get(ctx, data.DepRegistryCreated)
	if err != nil {
		return rules.Result{}, err
	}
	created, ok := val.(time.Time)
	if !ok {
		return rules.ErrorResult(r.ID(), fmt.Sprintf("unexpected type for %s: %T", data.DepRegistryCreated, val)), nil
	}

	received, err := sub.ReceivedAt()
	if err != nil {
		return rules.Result{}, err
	}

	delta := received.Sub(created)
	details := fmt.Sprintf("Arrived %d hours later than creation date on crossref.org.", int64(delta.Hours()))
	debug := map[string]string{
		"registry_created": created.Format(debugTimeLayout),
		"received":         received.Format(debugTimeLayout),
	}

	if delta <= r.threshold {
		return rules.PassResultWithDebug(r.ID(), details, debug), nil
	}
	return rules.FailResultWithDebug(r.ID(), details, debug), nil
}
