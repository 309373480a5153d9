package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/corpusgen/internal/checkpoint"
	"github.com/abhisek/corpusgen/internal/generation"
	"github.com/abhisek/corpusgen/internal/llm"
	"github.com/abhisek/corpusgen/internal/prompt"
	"github.com/abhisek/corpusgen/internal/topics"
)

// genFunc adapts a function to Generator. call counts from zero.
type genFunc func(ctx context.Context, call int, item topics.Item) (generation.Result, error)

type fakeGenerator struct {
	fn    genFunc
	calls []topics.Item
}

func (g *fakeGenerator) Generate(ctx context.Context, item topics.Item, _ string) (generation.Result, error) {
	call := len(g.calls)
	g.calls = append(g.calls, item)
	return g.fn(ctx, call, item)
}

func entry(n int) generation.Result {
	return generation.Result{Text: strings.Repeat("a", n), Chars: int64(n)}
}

func always(n int) genFunc {
	return func(context.Context, int, topics.Item) (generation.Result, error) {
		return entry(n), nil
	}
}

var twoItems = []topics.Item{{Category: "A", Label: "x"}, {Category: "B", Label: "y"}}

func testConfig(budgetLimit float64) Config {
	return Config{
		Budget:               budgetLimit,
		CostPerThousandChars: 1, // one currency unit buys 1000 chars
		CheckpointEvery:      5,
		Seed:                 7,
		Catalog:              "test",
	}
}

func newDriver(t *testing.T, dir string, gen Generator, cfg Config, opts ...Option) *Driver {
	t.Helper()
	d, err := New(twoItems, prompt.CoachingTips, gen, checkpoint.New(dir), cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func loadState(t *testing.T, dir string) (checkpoint.RunState, []string) {
	t.Helper()
	s := checkpoint.New(dir)
	state, found, err := s.Load()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if !found {
		t.Fatal("expected a saved state")
	}
	corpus, err := s.LoadCorpus()
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	return state, corpus
}

func TestRun_StopsWhenNextEntryExceedsCap(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{fn: always(60)}
	d := newDriver(t, dir, gen, testConfig(0.1)) // cap 100

	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.StopReason != StopBudgetExhausted {
		t.Fatalf("stop reason = %s, want %s", sum.StopReason, StopBudgetExhausted)
	}
	if sum.ItemsGenerated != 1 || sum.CharsGenerated != 60 {
		t.Fatalf("items=%d chars=%d, want 1 and 60", sum.ItemsGenerated, sum.CharsGenerated)
	}
	if sum.RemainingChars != 40 {
		t.Fatalf("remaining = %d, want 40", sum.RemainingChars)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("expected 2 generation calls, got %d", len(gen.calls))
	}

	state, corpus := loadState(t, dir)
	if state.ItemsGenerated != 1 || state.CharsGenerated != 60 {
		t.Fatalf("persisted state %+v", state)
	}
	if state.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1 (rejected entry does not advance)", state.Cursor)
	}
	if len(corpus) != 1 {
		t.Fatalf("corpus has %d entries, want 1", len(corpus))
	}
}

func TestRun_FailureAdvancesCursor(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{fn: func(_ context.Context, call int, _ topics.Item) (generation.Result, error) {
		if call == 0 {
			return generation.Result{}, &llm.ErrProviderUnavailable{Err: errors.New("503")}
		}
		return entry(40), nil
	}}
	d := newDriver(t, dir, gen, testConfig(0.04)) // cap 40

	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.ItemsGenerated != 1 || sum.Failures != 1 {
		t.Fatalf("items=%d failures=%d, want 1 and 1", sum.ItemsGenerated, sum.Failures)
	}

	state, corpus := loadState(t, dir)
	if state.Cursor != 2 {
		t.Fatalf("cursor = %d, want 2", state.Cursor)
	}
	if state.ItemsGenerated != 1 || state.CharsGenerated != 40 {
		t.Fatalf("persisted state %+v", state)
	}
	if len(corpus) != 1 {
		t.Fatalf("corpus has %d entries, want 1", len(corpus))
	}
	if gen.calls[0] == gen.calls[1] {
		t.Fatal("failed topic should not be retried")
	}
}

func TestRun_CancelSavesProgress(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &fakeGenerator{fn: func(_ context.Context, call int, _ topics.Item) (generation.Result, error) {
		if call == 2 {
			cancel()
		}
		return entry(10), nil
	}}
	cfg := testConfig(1000)
	cfg.MaxItems = 10
	d := newDriver(t, dir, gen, cfg)

	sum, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("cancellation should not be an error: %v", err)
	}
	if sum.StopReason != StopCancelled {
		t.Fatalf("stop reason = %s, want %s", sum.StopReason, StopCancelled)
	}

	state, corpus := loadState(t, dir)
	if state.ItemsGenerated != 3 {
		t.Fatalf("items_generated = %d, want 3", state.ItemsGenerated)
	}
	if len(corpus) != 3 {
		t.Fatalf("corpus has %d entries, want 3", len(corpus))
	}
}

func TestRun_CancelDuringRequestKeepsCursor(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &fakeGenerator{fn: func(ctx context.Context, call int, _ topics.Item) (generation.Result, error) {
		if call == 1 {
			cancel()
			return generation.Result{}, ctx.Err()
		}
		return entry(10), nil
	}}
	d := newDriver(t, dir, gen, testConfig(1000))

	sum, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.StopReason != StopCancelled || sum.Failures != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	state, _ := loadState(t, dir)
	if state.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", state.Cursor)
	}
}

func TestRun_CheckpointsEveryN(t *testing.T) {
	dir := t.TempDir()
	var saved []int
	store := checkpoint.New(dir, checkpoint.WithRecorder(func(_ context.Context, st checkpoint.RunState, _ int) error {
		saved = append(saved, st.ItemsGenerated)
		return nil
	}))

	cfg := testConfig(1000)
	cfg.MaxItems = 12
	d, err := New(twoItems, prompt.CoachingTips, &fakeGenerator{fn: always(10)}, store, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.StopReason != StopMaxItems {
		t.Fatalf("stop reason = %s, want %s", sum.StopReason, StopMaxItems)
	}

	want := []int{5, 10, 12}
	if len(saved) != len(want) {
		t.Fatalf("saves at %v, want %v", saved, want)
	}
	for i := range want {
		if saved[i] != want[i] {
			t.Fatalf("saves at %v, want %v", saved, want)
		}
	}
}

func TestRun_FatalErrorSavesThenReturns(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{fn: func(_ context.Context, call int, _ topics.Item) (generation.Result, error) {
		if call == 2 {
			return generation.Result{}, &llm.ErrAuth{Err: errors.New("401")}
		}
		return entry(10), nil
	}}
	d := newDriver(t, dir, gen, testConfig(1000))

	sum, err := d.Run(context.Background())
	if !llm.IsFatal(err) {
		t.Fatalf("expected fatal auth error, got %v", err)
	}
	if sum.StopReason != StopError {
		t.Fatalf("stop reason = %s, want %s", sum.StopReason, StopError)
	}

	state, corpus := loadState(t, dir)
	if state.ItemsGenerated != 2 || len(corpus) != 2 {
		t.Fatalf("state %+v with %d entries, want 2 items", state, len(corpus))
	}
	if state.Cursor != 2 {
		t.Fatalf("cursor = %d, want 2 (fatal error does not consume the topic)", state.Cursor)
	}
}

func TestRun_TooManyConsecutiveFailures(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{fn: func(context.Context, int, topics.Item) (generation.Result, error) {
		return generation.Result{}, llm.ErrEmptyResponse
	}}
	cfg := testConfig(1000)
	cfg.MaxConsecutiveFailures = 3
	d := newDriver(t, dir, gen, cfg)

	sum, err := d.Run(context.Background())
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected wrapped ErrEmptyResponse, got %v", err)
	}
	if sum.Failures != 3 || len(gen.calls) != 3 {
		t.Fatalf("failures=%d calls=%d, want 3", sum.Failures, len(gen.calls))
	}
	state, _ := loadState(t, dir)
	if state.Cursor != 3 {
		t.Fatalf("cursor = %d, want 3", state.Cursor)
	}
}

func TestRun_PanicIsSavedAndReturned(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{fn: func(_ context.Context, call int, _ topics.Item) (generation.Result, error) {
		if call == 1 {
			panic("boom")
		}
		return entry(10), nil
	}}
	d := newDriver(t, dir, gen, testConfig(1000))

	_, err := d.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic to surface as error, got %v", err)
	}
	state, corpus := loadState(t, dir)
	if state.ItemsGenerated != 1 || len(corpus) != 1 {
		t.Fatalf("state %+v with %d entries, want 1 item", state, len(corpus))
	}
}

type failingStore struct {
	saves atomic.Int32
}

func (f *failingStore) Load() (checkpoint.RunState, bool, error) { return checkpoint.RunState{}, false, nil }
func (f *failingStore) LoadCorpus() ([]string, error)            { return nil, nil }
func (f *failingStore) Save(context.Context, checkpoint.RunState, []string) error {
	f.saves.Add(1)
	return errors.New("disk full")
}

func TestRun_CheckpointFailureIsFatal(t *testing.T) {
	store := &failingStore{}
	gen := &fakeGenerator{fn: always(10)}
	d, err := New(twoItems, prompt.CoachingTips, gen, store, testConfig(1000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sum, err := d.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected save error, got %v", err)
	}
	if sum.StopReason != StopError {
		t.Fatalf("stop reason = %s, want %s", sum.StopReason, StopError)
	}
	if len(gen.calls) != 5 {
		t.Fatalf("expected the run to stop at the first checkpoint, got %d calls", len(gen.calls))
	}
	if store.saves.Load() != 2 {
		t.Fatalf("expected periodic and final save attempts, got %d", store.saves.Load())
	}
}

func TestRun_ResumeContinuesAccounting(t *testing.T) {
	dir := t.TempDir()

	cfg := testConfig(1000)
	cfg.MaxItems = 3
	first := &fakeGenerator{fn: always(25)}
	if _, err := newDriver(t, dir, first, cfg).Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	cfg.Seed = 12345 // ignored: the stored seed wins
	second := &fakeGenerator{fn: always(25)}
	sum, err := newDriver(t, dir, second, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if sum.ItemsGenerated != 6 || sum.CharsGenerated != 150 || sum.ItemsThisRun != 3 {
		t.Fatalf("unexpected summary after resume: %+v", sum)
	}
	if sum.CorpusEntries != 6 {
		t.Fatalf("corpus entries = %d, want 6", sum.CorpusEntries)
	}

	order := topics.NewRotator(twoItems, 7)
	for i, item := range second.calls {
		if want := order.Next(3 + i); item != want {
			t.Fatalf("call %d got %v, want %v", i, item, want)
		}
	}

	state, _ := loadState(t, dir)
	if state.Seed != 7 || state.Cursor != 6 {
		t.Fatalf("persisted state %+v", state)
	}
}

func TestRun_ResumeWithZeroGenerationsMatchesFreshTracker(t *testing.T) {
	dir := t.TempDir()
	if err := checkpoint.New(dir).Save(context.Background(),
		checkpoint.RunState{ItemsGenerated: 2, CharsGenerated: 70, Cursor: 5, Seed: 7},
		[]string{strings.Repeat("a", 35), strings.Repeat("b", 35)}); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	d := newDriver(t, dir, &fakeGenerator{fn: always(1)}, testConfig(0.1))
	if err := d.init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if d.tracker.RemainingChars() != 30 {
		t.Fatalf("remaining = %d, want 30", d.tracker.RemainingChars())
	}
	if d.state.Cursor != 5 {
		t.Fatalf("cursor = %d, want 5", d.state.Cursor)
	}
}

func TestRun_BudgetAlreadySpent(t *testing.T) {
	dir := t.TempDir()
	if err := checkpoint.New(dir).Save(context.Background(),
		checkpoint.RunState{ItemsGenerated: 1, CharsGenerated: 100, Cursor: 1, Seed: 7},
		[]string{strings.Repeat("a", 100)}); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	gen := &fakeGenerator{fn: always(1)}
	sum, err := newDriver(t, dir, gen, testConfig(0.1)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("expected no generation calls, got %d", len(gen.calls))
	}
	if sum.StopReason != StopBudgetExhausted || sum.ItemsGenerated != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestRun_ObserverSeesEveryStep(t *testing.T) {
	gen := &fakeGenerator{fn: func(_ context.Context, call int, _ topics.Item) (generation.Result, error) {
		if call == 0 {
			return generation.Result{}, llm.ErrEmptyResponse
		}
		return entry(60), nil
	}}
	var outcomes []Outcome
	d := newDriver(t, t.TempDir(), gen, testConfig(0.1), WithObserver(func(ev Event) {
		outcomes = append(outcomes, ev.Outcome)
	}))

	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []Outcome{OutcomeFailed, OutcomeGenerated, OutcomeBudgetExhausted}
	if len(outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", outcomes, want)
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Fatalf("outcomes = %v, want %v", outcomes, want)
		}
	}
}

func TestRun_CooldownFollowsEachRequest(t *testing.T) {
	const (
		callTime = 60 * time.Millisecond
		pause    = 40 * time.Millisecond
	)
	var starts, ends []time.Time
	gen := &fakeGenerator{fn: func(context.Context, int, topics.Item) (generation.Result, error) {
		starts = append(starts, time.Now())
		time.Sleep(callTime)
		ends = append(ends, time.Now())
		return entry(10), nil
	}}
	cfg := testConfig(1000)
	cfg.Cooldown = pause
	cfg.MaxItems = 3

	sum, err := newDriver(t, t.TempDir(), gen, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.ItemsGenerated != 3 || len(starts) != 3 {
		t.Fatalf("items=%d calls=%d, want 3 and 3", sum.ItemsGenerated, len(starts))
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(ends[i-1]); gap < pause {
			t.Fatalf("gap before request %d = %s, want at least %s", i, gap, pause)
		}
	}
}

func TestRun_CancelDuringCooldown(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &fakeGenerator{fn: always(10)}
	cfg := testConfig(1000)
	cfg.Cooldown = time.Hour
	d := newDriver(t, dir, gen, cfg, WithObserver(func(Event) {
		time.AfterFunc(20*time.Millisecond, cancel)
	}))

	start := time.Now()
	sum, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("cancellation took %s", elapsed)
	}
	if sum.StopReason != StopCancelled || len(gen.calls) != 1 {
		t.Fatalf("reason=%s calls=%d, want %s and 1", sum.StopReason, len(gen.calls), StopCancelled)
	}

	state, corpus := loadState(t, dir)
	if state.ItemsGenerated != 1 || len(corpus) != 1 {
		t.Fatalf("items=%d corpus=%d, want 1 and 1", state.ItemsGenerated, len(corpus))
	}
}

func TestRun_EntryContainingSeparatorSplitsOnReload(t *testing.T) {
	dir := t.TempDir()
	text := "first half" + checkpoint.Separator + "second half"
	gen := &fakeGenerator{fn: func(_ context.Context, call int, _ topics.Item) (generation.Result, error) {
		if call == 0 {
			return generation.Result{Text: text, Chars: int64(len(text))}, nil
		}
		return entry(10), nil
	}}
	cfg := testConfig(1000)
	cfg.MaxItems = 2

	sum, err := newDriver(t, dir, gen, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.StopReason != StopMaxItems || sum.ItemsGenerated != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	state, corpus := loadState(t, dir)
	if state.ItemsGenerated != 2 {
		t.Fatalf("items_generated = %d, want 2", state.ItemsGenerated)
	}
	if len(corpus) != 3 {
		t.Fatalf("corpus reloads as %d entries, want 3", len(corpus))
	}
	if corpus[0] != "first half" || corpus[1] != "second half" {
		t.Fatalf("unexpected split %q", corpus[:2])
	}
}

func TestNew_Validates(t *testing.T) {
	gen := &fakeGenerator{fn: always(1)}
	store := checkpoint.New(t.TempDir())

	if _, err := New(nil, prompt.CoachingTips, gen, store, testConfig(1)); err == nil {
		t.Fatal("expected error for empty catalog")
	}

	cfg := testConfig(1)
	cfg.CheckpointEvery = 0
	if _, err := New(twoItems, prompt.CoachingTips, gen, store, cfg); err == nil {
		t.Fatal("expected error for zero checkpoint interval")
	}

	cfg = testConfig(1)
	cfg.CostPerThousandChars = 0
	if _, err := New(twoItems, prompt.CoachingTips, gen, store, cfg); err == nil {
		t.Fatal("expected error for zero rate")
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeBudgetExhausted.String() != "budget_exhausted" {
		t.Fatalf("unexpected %q", OutcomeBudgetExhausted.String())
	}
}
