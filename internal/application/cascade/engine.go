// Package cascade runs one daily evaluation: factor scoring, synergy,
// chain aggregation, contribution, history maintenance, ceiling, momentum
// and state.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cascade/internal/algo/momentum"
	"github.com/sawpanic/cascade/internal/config"
	"github.com/sawpanic/cascade/internal/domain/backfill"
	"github.com/sawpanic/cascade/internal/domain/ceiling"
	"github.com/sawpanic/cascade/internal/domain/chain"
	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/dcs"
	"github.com/sawpanic/cascade/internal/domain/factors"
	"github.com/sawpanic/cascade/internal/domain/history"
	"github.com/sawpanic/cascade/internal/domain/nutrition"
	"github.com/sawpanic/cascade/internal/domain/state"
	"github.com/sawpanic/cascade/internal/domain/synergy"
	"github.com/sawpanic/cascade/internal/domain/timing"
	"github.com/sawpanic/cascade/internal/metrics"
)

// ErrInvalidInput wraps every input rejection.
var ErrInvalidInput = errors.New("invalid cascade input")

// HistoryStore loads and saves the contribution history. The loader is
// expected to have discarded other schema versions already.
type HistoryStore interface {
	Load(ctx context.Context) (history.History, error)
	Save(ctx context.Context, h history.History, ref time.Time) error
}

// Input is one evaluation request.
type Input struct {
	Record  *day.Record `json:"record"`
	Window  day.Window  `json:"window"`
	Profile day.Profile `json:"profile"`
	// At is the reference timestamp. It decides how much of the record's
	// day has elapsed and whether the post-training window is open.
	At time.Time `json:"at"`
}

// Result is the full outcome of one evaluation. Consumers treat it as
// read-only.
type Result struct {
	Date              string             `json:"date"`
	Events            []factors.Event    `json:"events"`
	ChainLength       int                `json:"chain_length"`
	MaxChainToday     int                `json:"max_chain_today"`
	Warnings          []chain.Warning    `json:"warnings"`
	TotalPenalty      int                `json:"total_penalty"`
	RawScore          float64            `json:"raw_score"`
	DailyContribution float64            `json:"daily_contribution"`
	Override          string             `json:"override,omitempty"`
	State             state.State        `json:"state"`
	MessagePool       string             `json:"message_pool"`
	Message           string             `json:"message"`
	Momentum          float64            `json:"momentum"`
	Ceiling           ceiling.Result     `json:"ceiling"`
	Trend             momentum.Trend     `json:"trend"`
	PeakDays          int                `json:"peak_days"`
	DayType           synergy.DayType    `json:"day_type"`
	Synergies         []string           `json:"synergies"`
	Confidence        map[string]float64 `json:"confidence"`
	Intake            factors.Intake     `json:"intake"`
	History           history.History    `json:"history"`
	BackfilledDates   []string           `json:"backfilled_dates"`
	// Degraded is set when the history store failed and the result was
	// computed on empty or unsaved history.
	Degraded bool `json:"degraded,omitempty"`
}

// Engine wires the stages together. It holds no per-call state.
type Engine struct {
	policy   *config.Policy
	store    HistoryStore
	scorer   *factors.Scorer
	momentum *momentum.MomentumCore
	metrics  *metrics.Registry
	lookup   nutrition.Lookup
	analyzer timing.Analyzer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLookup sets the nutrition lookup. Without one, items fall back to
// their raw calories.
func WithLookup(l nutrition.Lookup) Option {
	return func(e *Engine) { e.lookup = l }
}

// WithAnalyzer sets the meal-timing analyzer. Without one the timing
// factor contributes nothing.
func WithAnalyzer(a timing.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine over store with the given policy; a nil
// policy uses the defaults.
func NewEngine(policy *config.Policy, store HistoryStore, opts ...Option) *Engine {
	if policy == nil {
		policy = config.DefaultPolicy()
	}
	e := &Engine{
		policy: policy,
		store:  store,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.scorer = factors.NewScorer(policy.Factors, e.lookup, e.analyzer)
	e.momentum = momentum.NewMomentumCore(policy.Momentum)
	return e
}

// Policy returns the engine's policy.
func (e *Engine) Policy() *config.Policy { return e.policy }

// Compute evaluates in. Only invalid input is an error; storage failures
// degrade the result instead.
func (e *Engine) Compute(ctx context.Context, in Input) (*Result, error) {
	timer := e.metrics.StartTimer()
	if in.Record == nil {
		timer.Stop("invalid")
		return nil, fmt.Errorf("%w: nil record", ErrInvalidInput)
	}
	date, err := in.Record.ParseDate()
	if err != nil {
		timer.Stop("invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Str("date", in.Record.Date).Logger()
	p := e.policy

	scored := e.scorer.Score(factors.Input{Record: in.Record, Window: in.Window, Profile: in.Profile})
	events := factors.SortEvents(scored.Events)
	syn := p.Synergy.Detect(scored)
	raw := syn.Apply(scored.Total(), p.Synergy)
	chained := p.Chain.Aggregate(events)
	contribution := p.DCS.Normalize(dcs.Input{
		Raw:         raw,
		Intake:      scored.Intake,
		Profile:     in.Profile,
		TrainingDay: syn.DayType == synergy.DayTraining,
	})

	res := &Result{
		Date:              in.Record.Date,
		Events:            events,
		ChainLength:       chained.Length,
		MaxChainToday:     chained.Max,
		Warnings:          chained.Warnings,
		TotalPenalty:      chained.TotalPenalty,
		RawScore:          raw,
		DailyContribution: contribution.Value,
		Override:          contribution.Override,
		DayType:           syn.DayType,
		Synergies:         syn.Synergies,
		Confidence:        scored.Confidence(),
		Intake:            scored.Intake,
	}

	h, loaded := e.loadHistory(ctx, logger)
	res.Degraded = !loaded

	hasEvents := len(events) > 0
	if hasEvents {
		h.Put(date, contribution.Value)
	}
	res.BackfilledDates = p.Backfill.Fill(h, date, backfill.WindowSource(in.Record, in.Window))
	e.metrics.RecordBackfill(len(res.BackfilledDates))
	if len(res.BackfilledDates) > 0 {
		logger.Info().Strs("dates", res.BackfilledDates).Msg("backfilled missing history")
	}
	h.Prune(date, p.History.RetentionDays)

	if loaded && (hasEvents || len(res.BackfilledDates) > 0) {
		if err := e.store.Save(ctx, h, date); err != nil {
			logger.Warn().Err(err).Msg("history save failed, continuing with unsaved history")
			e.metrics.RecordStorageError("save")
			res.Degraded = true
		}
	}

	res.Ceiling = p.Ceiling.Estimate(in.Record, in.Window, h.Values())
	mom := e.momentum.Calculate(momentum.MomentumInput{
		History:     h,
		Today:       date,
		DayFraction: momentum.DayFraction(date, in.At),
		Ceiling:     res.Ceiling.Value,
	})
	res.Momentum = mom.Value
	res.Trend = mom.Trend
	res.PeakDays = mom.PeakDays
	res.History = h

	res.State = p.State.Classify(hasEvents, res.Momentum)
	res.MessagePool = p.State.Pool(state.PoolInput{
		State:     res.State,
		Sessions:  scored.Sessions,
		RefMinute: refMinute(date, in.At),
		Profile:   in.Profile,
		Ratio:     scored.Intake.Ratio,
	})
	res.Message = p.State.Message(res.MessagePool, date.YearDay())

	e.metrics.RecordOutcome(res.Momentum, res.Ceiling.Value, string(res.State))
	timer.Stop("ok")

	logger.Debug().
		Int("events", len(events)).
		Int("chain", res.ChainLength).
		Float64("dcs", res.DailyContribution).
		Float64("momentum", res.Momentum).
		Float64("ceiling", res.Ceiling.Value).
		Str("state", string(res.State)).
		Msg("cascade computed")

	return res, nil
}

// loadHistory returns the stored history, or an empty one and false when
// the store is missing or failing.
func (e *Engine) loadHistory(ctx context.Context, logger zerolog.Logger) (history.History, bool) {
	if e.store == nil {
		return history.History{}, false
	}
	h, err := e.store.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("history load failed, continuing with empty history")
		e.metrics.RecordStorageError("load")
		return history.History{}, false
	}
	if h == nil {
		h = history.History{}
	}
	return h, true
}

// refMinute is the minute of day of at when it falls on date, else -1.
func refMinute(date, at time.Time) int {
	if at.IsZero() {
		return -1
	}
	y, m, d := at.Date()
	dy, dm, dd := date.Date()
	if y != dy || m != dm || d != dd {
		return -1
	}
	return at.Hour()*60 + at.Minute()
}
