// Package batch runs the generate-until-budget loop with periodic
// checkpoints and resume.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abhisek/corpusgen/internal/budget"
	"github.com/abhisek/corpusgen/internal/checkpoint"
	"github.com/abhisek/corpusgen/internal/generation"
	"github.com/abhisek/corpusgen/internal/llm"
	"github.com/abhisek/corpusgen/internal/prompt"
	"github.com/abhisek/corpusgen/internal/topics"
)

// Generator produces one entry for a topic.
type Generator interface {
	Generate(ctx context.Context, item topics.Item, prompt string) (generation.Result, error)
}

// Checkpointer persists run state and corpus.
type Checkpointer interface {
	Load() (checkpoint.RunState, bool, error)
	LoadCorpus() ([]string, error)
	Save(ctx context.Context, state checkpoint.RunState, corpus []string) error
}

// Config controls a batch run.
type Config struct {
	// Budget is the spend ceiling in currency units.
	Budget float64

	// CostPerThousandChars is the price of 1000 generated characters.
	CostPerThousandChars float64

	// CheckpointEvery saves after every Nth successful generation.
	CheckpointEvery int

	// Cooldown is the pause between the end of one request and the start of
	// the next, whatever the outcome of the first.
	Cooldown time.Duration

	// MaxItems stops the run after this many new entries. Zero is unlimited.
	MaxItems int

	// MaxConsecutiveFailures aborts the run after this many failures in a
	// row. Zero is unlimited.
	MaxConsecutiveFailures int

	// Seed orders topics for a fresh run. Zero picks a random seed. A
	// resumed run always uses the seed stored in its state.
	Seed uint64

	// Catalog names the topic catalog; stored in the state for reference.
	Catalog string
}

// DefaultConfig returns the standard batch configuration.
func DefaultConfig() Config {
	return Config{
		Budget:               budget.DefaultLimit,
		CostPerThousandChars: budget.DefaultCostPerThousandChars,
		CheckpointEvery:      5,
		Cooldown:             2 * time.Second,
		Catalog:              topics.CatalogAspects,
	}
}

// Event describes a finished step, for progress reporting.
type Event struct {
	Outcome   Outcome
	Item      topics.Item
	Chars     int64
	Err       error
	State     checkpoint.RunState
	Remaining int64
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithRunID tags every request of the run in the ledger.
func WithRunID(id string) Option {
	return func(d *Driver) { d.runID = id }
}

// WithObserver registers fn to be called after every step.
func WithObserver(fn func(Event)) Option {
	return func(d *Driver) { d.observer = fn }
}

// Driver owns the run state while a batch is in progress. It is not safe
// for concurrent use.
type Driver struct {
	items    []topics.Item
	template prompt.Template
	client   Generator
	store    Checkpointer
	cfg      Config
	tracker  *budget.Tracker

	logger   *slog.Logger
	runID    string
	observer func(Event)

	rotator      *topics.Rotator
	state        checkpoint.RunState
	corpus       []string
	itemsThisRun int
	failures     int
}

// New creates a Driver over the given catalog items.
func New(items []topics.Item, tmpl prompt.Template, client Generator, store Checkpointer, cfg Config, opts ...Option) (*Driver, error) {
	if len(items) == 0 {
		return nil, errors.New("topic catalog is empty")
	}
	if cfg.CheckpointEvery <= 0 {
		return nil, fmt.Errorf("checkpoint interval must be positive, got %d", cfg.CheckpointEvery)
	}
	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("cooldown must not be negative, got %s", cfg.Cooldown)
	}
	tracker, err := budget.New(cfg.Budget, cfg.CostPerThousandChars)
	if err != nil {
		return nil, fmt.Errorf("create budget tracker: %w", err)
	}

	d := &Driver{
		items:    items,
		template: tmpl,
		client:   client,
		store:    store,
		cfg:      cfg,
		tracker:  tracker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run loads any previous progress and generates until the budget is spent,
// ctx is cancelled, or a fatal error occurs. Progress is saved on every
// exit path. Cancellation is a normal stop and returns a nil error.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	if err := d.init(); err != nil {
		return Summary{}, err
	}
	if d.runID != "" {
		ctx = llm.WithRunID(ctx, d.runID)
	}

	d.logger.Info("starting generation",
		slog.Int64("cap_chars", d.tracker.Cap()),
		slog.Int64("remaining_chars", d.tracker.RemainingChars()),
		slog.Int("cursor", d.state.Cursor),
		slog.Int("corpus_entries", len(d.corpus)),
	)

	reason, loopErr := d.generate(ctx)

	saveErr := d.save(ctx)
	if saveErr != nil {
		reason = StopError
	}

	sum := d.summary(reason)
	d.logger.Info("generation stopped",
		slog.String("reason", string(sum.StopReason)),
		slog.Int("items_this_run", sum.ItemsThisRun),
		slog.Int("items_generated", sum.ItemsGenerated),
		slog.Int64("chars_generated", sum.CharsGenerated),
	)

	if err := errors.Join(loopErr, saveErr); err != nil {
		return sum, err
	}
	return sum, nil
}

// init restores the run state, corpus, tracker and topic order.
func (d *Driver) init() error {
	state, found, err := d.store.Load()
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	corpus, err := d.store.LoadCorpus()
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	if found && state.Catalog != "" && d.cfg.Catalog != "" && state.Catalog != d.cfg.Catalog {
		d.logger.Warn("resuming with a different catalog; the cursor now indexes the new one",
			slog.String("previous", state.Catalog), slog.String("current", d.cfg.Catalog))
	}
	if d.cfg.Catalog != "" {
		state.Catalog = d.cfg.Catalog
	}

	if state.Seed == 0 {
		state.Seed = d.cfg.Seed
		if state.Seed == 0 {
			state.Seed = topics.NewSeed()
		}
	}

	if found {
		var onDisk int64
		for _, e := range corpus {
			onDisk += int64(utf8.RuneCountInString(e))
		}
		if onDisk != state.CharsGenerated {
			d.logger.Warn("corpus size differs from recorded character count",
				slog.Int64("recorded", state.CharsGenerated), slog.Int64("on_disk", onDisk))
		}
	}

	d.state = state
	d.corpus = corpus
	d.rotator = topics.NewRotator(d.items, state.Seed)
	d.tracker.Restore(state.CharsGenerated)
	return nil
}

// generate runs the GENERATING state. Panics are converted into errors so
// that Run still saves.
func (d *Driver) generate(ctx context.Context) (reason StopReason, err error) {
	defer func() {
		if r := recover(); r != nil {
			reason = StopError
			err = fmt.Errorf("generation loop panicked: %v", r)
		}
	}()

	failuresInRow := 0
	for first := true; d.tracker.Remains(); first = false {
		if d.cfg.MaxItems > 0 && d.itemsThisRun >= d.cfg.MaxItems {
			return StopMaxItems, nil
		}
		if ctx.Err() != nil {
			return StopCancelled, nil
		}
		if !first && !d.cooldown(ctx) {
			return StopCancelled, nil
		}

		outcome, err := d.step(ctx)
		switch outcome {
		case OutcomeGenerated:
			failuresInRow = 0
			if d.state.ItemsGenerated%d.cfg.CheckpointEvery == 0 {
				if err := d.save(ctx); err != nil {
					return StopError, err
				}
			}
		case OutcomeFailed:
			d.failures++
			failuresInRow++
			if llm.IsFatal(err) {
				return StopError, fmt.Errorf("generate: %w", err)
			}
			if d.cfg.MaxConsecutiveFailures > 0 && failuresInRow >= d.cfg.MaxConsecutiveFailures {
				return StopError, fmt.Errorf("%d consecutive generation failures: %w", failuresInRow, err)
			}
		case OutcomeBudgetExhausted:
			return StopBudgetExhausted, nil
		case OutcomeCancelled:
			return StopCancelled, nil
		}
	}
	return StopBudgetExhausted, nil
}

// cooldown waits out the pause between iterations. It reports false if ctx
// was cancelled first.
func (d *Driver) cooldown(ctx context.Context) bool {
	if d.cfg.Cooldown <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d.cfg.Cooldown):
		return true
	}
}

// step generates one entry for the topic under the cursor.
func (d *Driver) step(ctx context.Context) (Outcome, error) {
	item := d.rotator.Next(d.state.Cursor)
	res, err := d.client.Generate(ctx, item, prompt.BuildItem(d.template, item))
	if err != nil {
		if ctx.Err() != nil {
			d.notify(Event{Outcome: OutcomeCancelled, Item: item, Err: err})
			return OutcomeCancelled, nil
		}
		d.logger.Warn("generation failed",
			slog.String("category", item.Category),
			slog.String("label", item.Label),
			slog.String("error", err.Error()),
		)
		if !llm.IsFatal(err) {
			d.state = d.state.Attempted()
		}
		d.notify(Event{Outcome: OutcomeFailed, Item: item, Err: err})
		return OutcomeFailed, err
	}

	if d.tracker.WouldExceed(res.Chars) {
		d.logger.Info("discarding entry that would exceed the budget",
			slog.String("category", item.Category),
			slog.String("label", item.Label),
			slog.Int64("chars", res.Chars),
			slog.Int64("remaining_chars", d.tracker.RemainingChars()),
		)
		d.notify(Event{Outcome: OutcomeBudgetExhausted, Item: item, Chars: res.Chars})
		return OutcomeBudgetExhausted, nil
	}

	if strings.Contains(res.Text, checkpoint.Separator) {
		d.logger.Warn("entry contains the corpus separator and will split on reload",
			slog.String("category", item.Category), slog.String("label", item.Label))
	}

	d.tracker.Record(res.Chars)
	d.corpus = append(d.corpus, res.Text)
	d.state = d.state.Generated(res.Chars)
	d.itemsThisRun++

	d.logger.Debug("entry generated",
		slog.String("category", item.Category),
		slog.String("label", item.Label),
		slog.Int64("chars", res.Chars),
		slog.Int64("total_chars", d.state.CharsGenerated),
	)
	d.notify(Event{Outcome: OutcomeGenerated, Item: item, Chars: res.Chars})
	return OutcomeGenerated, nil
}

func (d *Driver) notify(ev Event) {
	if d.observer == nil {
		return
	}
	ev.State = d.state
	ev.Remaining = d.tracker.RemainingChars()
	d.observer(ev)
}

func (d *Driver) save(ctx context.Context) error {
	d.state.BudgetUsed = d.tracker.Cost()
	if err := d.store.Save(ctx, d.state, d.corpus); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (d *Driver) summary(reason StopReason) Summary {
	sum := Summary{
		StopReason:     reason,
		ItemsGenerated: d.state.ItemsGenerated,
		CharsGenerated: d.state.CharsGenerated,
		ItemsThisRun:   d.itemsThisRun,
		Failures:       d.failures,
		Cost:           d.tracker.Cost(),
		CorpusEntries:  len(d.corpus),
		RemainingChars: d.tracker.RemainingChars(),
		Cap:            d.tracker.Cap(),
		Cursor:         d.state.Cursor,
	}
	if sum.ItemsGenerated > 0 {
		sum.AverageChars = float64(sum.CharsGenerated) / float64(sum.ItemsGenerated)
	}
	return sum
}
