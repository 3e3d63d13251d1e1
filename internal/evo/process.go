package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"evokit/internal/evaluation"
	"evokit/internal/model"
	"evokit/internal/population"
)

var ErrAlreadyStarted = errors.New("process already started")

type State int

const (
	StateIdle State = iota
	StateRunning
	StateConverged
	StateMaxGenerationsReached
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateConverged:
		return "converged"
	case StateMaxGenerationsReached:
		return "max_generations_reached"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further generations will run.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateMaxGenerationsReached || s == StateStopped
}

// Snapshot is what reporters see after each generation. Members must be
// treated as read-only.
type Snapshot struct {
	Summary model.GenerationSummary
	Members []*population.Individual
}

type Reporter interface {
	Report(ctx context.Context, snapshot Snapshot) error
}

type ReporterFunc func(ctx context.Context, snapshot Snapshot) error

func (f ReporterFunc) Report(ctx context.Context, snapshot Snapshot) error {
	return f(ctx, snapshot)
}

// Config is the static pipeline of a process. Selection, Integration and
// Evaluator are required; Clash defaults to Strict and TargetSize to the
// seed size.
type Config struct {
	Selection   Selector
	Stages      []Stage
	Clash       Arbiter
	Integration Integrator
	Evaluator   evaluation.Evaluator
	TargetSize  int
	Termination Termination
	Seed        int64
	Reporters   []Reporter
	Logger      *slog.Logger
}

func (c Config) validate() error {
	if c.Selection == nil {
		return configError("selection", "is required")
	}
	if c.Selection.Iteration() == nil {
		return configError("selection", "%s has no iteration", c.Selection.Descriptor().Name)
	}
	if c.Integration == nil {
		return configError("integration", "is required")
	}
	if c.Evaluator == nil {
		return configError("evaluator", "is required")
	}
	if c.TargetSize < 0 {
		return configError("target_size", "must be >= 0, got %d", c.TargetSize)
	}
	for i, stage := range c.Stages {
		if len(stage.Variations) == 0 {
			return configError(fmt.Sprintf("stages[%d]", i), "has no operators")
		}
		for j, v := range stage.Variations {
			if !v.valid() {
				return configError(fmt.Sprintf("stages[%d][%d]", i, j), "operator is not bound")
			}
			if v.iter.Arity() == 0 {
				return configError(fmt.Sprintf("stages[%d][%d]", i, j), "%s has arity 0", v.desc.Name)
			}
		}
	}
	if c.Selection.Iteration().Arity() == 0 {
		return configError("selection", "%s has arity 0", c.Selection.Descriptor().Name)
	}
	return c.Termination.validate()
}

// Result is returned by Run once the process reaches a terminal state.
type Result struct {
	State       State
	Reason      string
	Generations int
	Best        *population.Individual
	Population  []*population.Individual
	History     []model.GenerationSummary
}

// Process drives generations until a termination criterion holds, the
// context is cancelled, or an error stops it. A process runs once.
type Process struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer

	mu         sync.RWMutex
	state      State
	err        error
	reason     string
	generation int
	pop        *population.Population
	history    []model.GenerationSummary
}

func NewProcess(cfg Config) (*Process, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Clash == nil {
		cfg.Clash = Strict{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Termination.MaxGenerations == 0 {
		logger.Warn("no generation limit configured; run ends only on convergence or cancellation")
	}
	return &Process{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("evokit/evo"),
		pop:    population.New(),
	}, nil
}

func (p *Process) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Err is the error that stopped the process, if any.
func (p *Process) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *Process) Reason() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reason
}

func (p *Process) Generation() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// Population returns the members of the last integrated generation.
func (p *Process) Population() []*population.Individual {
	return p.pop.Members()
}

func (p *Process) History() []model.GenerationSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.history)
}

// Run evolves seed until the process reaches a terminal state. The returned
// error is non-nil exactly when the process ends Stopped.
func (p *Process) Run(ctx context.Context, seed []*population.Individual) (Result, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return Result{}, ErrAlreadyStarted
	}
	p.state = StateRunning
	p.mu.Unlock()

	ctx, span := p.tracer.Start(ctx, "evo.Process.Run",
		trace.WithAttributes(
			attribute.Int("seed_size", len(seed)),
			attribute.Int64("seed", p.cfg.Seed),
		),
	)
	defer span.End()

	if len(seed) == 0 || slices.Contains(seed, nil) {
		return p.stop(ctx, span, configError("seed", "must contain at least one individual and no nil entries"))
	}
	target := p.cfg.TargetSize
	if target == 0 {
		target = len(seed)
	}
	if err := p.pop.Replace(unique(seed, 0)); err != nil {
		return p.stop(ctx, span, err)
	}

	rng := rand.New(rand.NewSource(p.cfg.Seed))
	track := &tracker{criteria: p.cfg.Termination}
	p.logger.Info("evolution started",
		slog.Int("seed_size", len(seed)),
		slog.Int("target_size", target),
		slog.Int64("seed", p.cfg.Seed),
	)

	scope := NewScope(rng, 0, p.cfg.Evaluator)
	if err := scope.Evaluate(context.WithoutCancel(ctx), p.pop.Members()); err != nil {
		return p.stop(ctx, span, err)
	}
	if state, reason, done := p.record(ctx, track, Summarize(0, p.pop.Members(), scope.Evaluations())); done {
		return p.finish(span, state, reason), nil
	}

	for gen := 1; ; gen++ {
		if err := ctx.Err(); err != nil {
			return p.stop(ctx, span, err)
		}
		next, evaluations, err := p.step(context.WithoutCancel(ctx), rng, gen, target)
		if err != nil {
			return p.stop(ctx, span, fmt.Errorf("generation %d: %w", gen, err))
		}
		if err := p.pop.Replace(next); err != nil {
			return p.stop(ctx, span, err)
		}
		p.mu.Lock()
		p.generation = gen
		p.mu.Unlock()

		if state, reason, done := p.record(ctx, track, Summarize(gen, next, evaluations)); done {
			return p.finish(span, state, reason), nil
		}
	}
}

// step computes the next generation from the committed one. The committed
// population is not touched until the caller replaces it.
func (p *Process) step(ctx context.Context, rng *rand.Rand, gen, target int) ([]*population.Individual, int, error) {
	ctx, span := p.tracer.Start(ctx, "evo.Process.Generation",
		trace.WithAttributes(attribute.Int("generation", gen)),
	)
	defer span.End()

	end := p.pop.BeginPass()
	defer end()

	scope := NewScope(rng, gen, p.cfg.Evaluator)
	current := p.pop.Members()

	pool, err := p.selectParents(ctx, scope, current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	for i, stage := range p.cfg.Stages {
		pool, err = stage.run(ctx, scope, p.cfg.Clash, pool)
		if err != nil {
			err = fmt.Errorf("stage %d: %w", i, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, 0, err
		}
	}

	next, err := p.cfg.Integration.Integrate(ctx, scope, current, pool, target)
	if err != nil {
		err = fmt.Errorf("integration %s: %w", p.cfg.Integration.Descriptor().Name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	if len(next) != target {
		err = fmt.Errorf("%w: integration %s produced %d members, want %d",
			ErrSizeInvariant, p.cfg.Integration.Descriptor().Name, len(next), target)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	next = unique(next, gen)
	if err := scope.Evaluate(ctx, next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	span.SetAttributes(
		attribute.Int("candidates", len(pool)),
		attribute.Int("evaluations", scope.Evaluations()),
	)
	return next, scope.Evaluations(), nil
}

func (p *Process) selectParents(ctx context.Context, scope *Scope, members []*population.Individual) ([]*population.Individual, error) {
	sel := p.cfg.Selection
	part, err := sel.Iteration().Partition(members, scope.Rand)
	if err != nil {
		return nil, nameOperator(err, sel.Descriptor().Name)
	}
	var out []*population.Individual
	for group := range part.All() {
		if err := scope.Evaluate(ctx, group.Members); err != nil {
			return nil, err
		}
		picked, err := sel.Select(ctx, scope, group.Members)
		if err != nil {
			return nil, fmt.Errorf("selection %s: %w", sel.Descriptor().Name, err)
		}
		for _, ind := range picked {
			if !slices.Contains(group.Members, ind) {
				return nil, fmt.Errorf("selection %s returned an individual outside its group", sel.Descriptor().Name)
			}
		}
		out = append(out, picked...)
	}
	if len(out) == 0 {
		return nil, &InsufficientPopulationError{Operator: sel.Descriptor().Name, Arity: sel.Iteration().Arity(), Size: len(members)}
	}
	return out, nil
}

func (p *Process) record(ctx context.Context, track *tracker, summary model.GenerationSummary) (State, string, bool) {
	p.mu.Lock()
	p.history = append(p.history, summary)
	p.mu.Unlock()

	p.logger.Debug("generation complete",
		slog.Int("generation", summary.Generation),
		slog.Float64("best", summary.Best),
		slog.Float64("mean", summary.Mean),
		slog.Int("diversity", summary.Diversity),
		slog.Int("evaluations", summary.Evaluations),
	)
	snapshot := Snapshot{Summary: summary, Members: p.pop.Members()}
	for _, r := range p.cfg.Reporters {
		if err := r.Report(context.WithoutCancel(ctx), snapshot); err != nil {
			p.logger.Warn("reporter failed",
				slog.Int("generation", summary.Generation),
				slog.String("error", err.Error()),
			)
		}
	}
	return track.observe(summary)
}

func (p *Process) finish(span trace.Span, state State, reason string) Result {
	p.mu.Lock()
	p.state = state
	p.reason = reason
	p.mu.Unlock()

	res := p.result()
	span.SetAttributes(
		attribute.String("state", state.String()),
		attribute.String("reason", reason),
		attribute.Int("generations", res.Generations),
	)
	attrs := []any{
		slog.String("state", state.String()),
		slog.String("reason", reason),
		slog.Int("generations", res.Generations),
	}
	if res.Best != nil {
		best, _ := res.Best.Fitness()
		attrs = append(attrs, slog.Float64("best", best))
	}
	p.logger.Info("evolution finished", attrs...)
	return res
}

func (p *Process) stop(ctx context.Context, span trace.Span, err error) (Result, error) {
	reason := ReasonError
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		reason = ReasonCancelled
	}
	p.mu.Lock()
	p.state = StateStopped
	p.err = err
	p.reason = reason
	p.mu.Unlock()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if reason == ReasonCancelled {
		p.logger.Info("evolution cancelled", slog.Int("generation", p.Generation()))
	} else {
		p.logger.Error("evolution stopped",
			slog.Int("generation", p.Generation()),
			slog.String("error", err.Error()),
		)
	}
	return p.result(), err
}

func (p *Process) result() Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	best, _ := p.pop.Best()
	return Result{
		State:       p.state,
		Reason:      p.reason,
		Generations: p.generation,
		Best:        best,
		Population:  p.pop.Members(),
		History:     slices.Clone(p.history),
	}
}

// unique replaces repeated references with copies so that every committed
// member has its own identity.
func unique(members []*population.Individual, gen int) []*population.Individual {
	seen := make(map[*population.Individual]bool, len(members))
	out := make([]*population.Individual, len(members))
	for i, ind := range members {
		if seen[ind] {
			out[i] = ind.Copy(gen)
			continue
		}
		seen[ind] = true
		out[i] = ind
	}
	return out
}
