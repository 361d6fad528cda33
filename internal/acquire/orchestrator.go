package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/model"
)

// ErrExhausted is returned when every applicable strategy failed or came
// back empty.
var ErrExhausted = errors.New("no strategy produced content")

// Baseline records and restores the view the batch started from.
// *navigate.Controller implements it.
type Baseline interface {
	RecordBaseline() (string, error)
	ReturnToBaseline(ctx context.Context) error
}

// Status values of a TargetStatus.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// TargetStatus records what happened to one target.
type TargetStatus struct {
	Target    string           `yaml:"target"              json:"target"`
	Status    string           `yaml:"status"              json:"status"`
	Attempted []model.Strategy `yaml:"attempted"           json:"attempted"`
	Errors    []string         `yaml:"errors,omitempty"    json:"errors,omitempty"`
	Blocks    int              `yaml:"block_count"         json:"block_count"`
	Strategy  model.Strategy   `yaml:"strategy,omitempty"  json:"strategy,omitempty"`
	Matched   model.Resolution `yaml:"matched,omitempty"   json:"matched,omitempty"`
	Clarified string           `yaml:"clarified,omitempty" json:"clarified,omitempty"`
}

// Report is the outcome of a batch.
type Report struct {
	RunID    string                    `yaml:"run_id"   json:"run_id"`
	Started  time.Time                 `yaml:"started"  json:"started"`
	Finished time.Time                 `yaml:"finished" json:"finished"`
	Results  []*model.ExtractionResult `yaml:"-"        json:"-"`
	Targets  []TargetStatus            `yaml:"targets"  json:"targets"`
}

// Failures returns the statuses of targets that were not acquired.
func (r *Report) Failures() []TargetStatus {
	var out []TargetStatus
	for _, s := range r.Targets {
		if s.Status != StatusOK {
			out = append(out, s)
		}
	}
	return out
}

// Orchestrator runs the strategy cascade.
type Orchestrator struct {
	strategies []Strategy
	baseline   Baseline
	clarifier  Clarifier
	log        zerolog.Logger

	// ReturnTimeout bounds the return to the baseline after a cancelled
	// target.
	ReturnTimeout time.Duration
}

// New returns an orchestrator trying strategies in the given order. baseline
// and clarifier may be nil.
func New(strategies []Strategy, baseline Baseline, clarifier Clarifier, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		strategies:    strategies,
		baseline:      baseline,
		clarifier:     clarifier,
		log:           log,
		ReturnTimeout: 5 * time.Second,
	}
}

// cascade tries each applicable strategy in order. It stops at the first
// result with at least one block; only permission denial and cancellation
// end it early.
func (o *Orchestrator) cascade(ctx context.Context, t model.NavigationTarget, st *TargetStatus) (*model.ExtractionResult, error) {
	for _, s := range o.strategies {
		if !s.Applicable(t) {
			continue
		}
		if len(st.Attempted) > 0 {
			o.restore(ctx)
		}
		st.Attempted = append(st.Attempted, s.Name())
		log := o.log.With().Str("target", t.String()).Str("strategy", string(s.Name())).Logger()

		res, err := s.Acquire(ctx, t)
		switch {
		case model.IsFatal(err):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			log.Warn().Err(err).Msg("strategy failed")
			st.Errors = append(st.Errors, fmt.Sprintf("%s: %v", s.Name(), err))
		case res == nil || len(res.Blocks) == 0:
			log.Warn().Msg("strategy returned no blocks")
			st.Errors = append(st.Errors, fmt.Sprintf("%s: no blocks", s.Name()))
		default:
			log.Info().Int("blocks", len(res.Blocks)).Msg("acquired")
			return res, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", t, ErrExhausted)
}

// Acquire runs the cascade for one target. When it is exhausted the
// clarifier may supply a replacement target, which gets one more cascade.
// The returned status is filled in either way.
func (o *Orchestrator) Acquire(ctx context.Context, t model.NavigationTarget) (*model.ExtractionResult, TargetStatus, error) {
	st := TargetStatus{Target: t.String(), Status: StatusFailed}
	res, err := o.cascade(ctx, t, &st)
	if errors.Is(err, ErrExhausted) && o.clarifier != nil {
		ans, cerr := o.clarifier.Clarify(ctx, Question{Target: t, Attempted: st.Attempted, Errors: st.Errors})
		switch {
		case cerr != nil:
			o.log.Warn().Err(cerr).Str("target", t.String()).Msg("clarification failed")
		case ans.Replacement != nil:
			st.Clarified = ans.Replacement.String()
			o.log.Info().Str("target", t.String()).Str("replacement", st.Clarified).Msg("retrying with clarified target")
			res, err = o.cascade(ctx, *ans.Replacement, &st)
		case ans.Skip:
			st.Status = StatusSkipped
		}
	}
	if err != nil {
		return nil, st, err
	}
	st.Status = StatusOK
	st.Blocks = len(res.Blocks)
	st.Strategy = res.Metadata.StrategyUsed
	st.Matched = res.Metadata.Resolution
	return res, st, nil
}

// restore returns to the baseline, logging failures. A cancelled ctx is
// replaced by a short-lived one so the app is not left mid-navigation.
func (o *Orchestrator) restore(ctx context.Context) {
	if o.baseline == nil {
		return
	}
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), o.ReturnTimeout)
		defer cancel()
	}
	if err := o.baseline.ReturnToBaseline(ctx); err != nil {
		o.log.Warn().Err(err).Msg("could not return to baseline")
	}
}

// Run acquires every target in order. A failed target is recorded and the
// batch moves on; only permission denial and cancellation stop it, in which
// case the partial report is returned with the error.
func (o *Orchestrator) Run(ctx context.Context, targets []model.NavigationTarget) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), Started: time.Now()}
	log := o.log.With().Str("run_id", rep.RunID).Logger()
	defer func() { rep.Finished = time.Now() }()

	if o.baseline != nil {
		base, err := o.baseline.RecordBaseline()
		if model.IsFatal(err) {
			return rep, err
		}
		if err != nil {
			log.Warn().Err(err).Msg("could not record baseline")
		} else {
			log.Debug().Str("baseline", base).Msg("recorded baseline")
		}
	}

	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		log.Info().Int("n", i+1).Int("of", len(targets)).Str("target", t.String()).Msg("acquiring")
		res, st, err := o.Acquire(ctx, t)
		rep.Targets = append(rep.Targets, st)
		if res != nil {
			rep.Results = append(rep.Results, res)
		}
		if model.IsFatal(err) {
			return rep, err
		}
		o.restore(ctx)

		switch {
		case ctx.Err() != nil:
			return rep, ctx.Err()
		case err != nil:
			log.Warn().Err(err).Str("target", t.String()).Msg("target failed")
		}
	}
	log.Info().Int("acquired", len(rep.Results)).Int("failed", len(rep.Failures())).Msg("batch complete")
	return rep, nil
}
