package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/corpusgen/internal/batch"
	"github.com/abhisek/corpusgen/internal/budget"
	"github.com/abhisek/corpusgen/internal/checkpoint"
	"github.com/abhisek/corpusgen/internal/generation"
	"github.com/abhisek/corpusgen/internal/llm"
	"github.com/abhisek/corpusgen/internal/prompt"
	"github.com/abhisek/corpusgen/internal/store"
	"github.com/abhisek/corpusgen/internal/topics"
	"github.com/abhisek/corpusgen/internal/ui/components"
	"github.com/abhisek/corpusgen/internal/ui/theme"
)

// checkpointHistory is how many checkpoint rows the ledger keeps.
const checkpointHistory = 500

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate entries until the budget is used up (resumes automatically)",
	RunE:  runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
}

// addGenerateFlags registers the generate flags on c. The root command
// carries them too since generate is its default action.
func addGenerateFlags(c *cobra.Command) {
	def := batch.DefaultConfig()
	f := c.Flags()
	f.String("catalog", def.Catalog, "Topic catalog: aspects or scenarios")
	f.Float64("budget", def.Budget, "Spending budget in USD")
	f.Float64("rate", def.CostPerThousandChars, "Cost in USD per 1000 generated characters")
	f.Int("checkpoint-every", def.CheckpointEvery, "Save progress after every N generated entries")
	f.Duration("cooldown", def.Cooldown, "Pause between the end of one request and the start of the next")
	f.Int("max-items", 0, "Stop after N new entries (0 = until the budget is spent)")
	f.Int("max-failures", 0, "Abort after N consecutive failed requests (0 = never)")
	f.Int("keep-snapshots", 0, "Keep only the newest N corpus snapshots (0 = keep all)")
	f.Uint64("seed", 0, "Topic order seed for a fresh run (0 = random)")
	f.String("provider", "", "LLM provider: gemini or mock (overrides CORPUSGEN_PROVIDER)")
	f.String("model", "", "Model name or alias (overrides CORPUSGEN_GEMINI_MODEL)")
	f.Bool("no-ledger", false, "Do not record requests in the SQLite ledger")
}

// runGenerate wires the store, provider and checkpoint store into a batch
// driver and runs it until the budget is spent or the user interrupts.
func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	flags := cmd.Flags()

	catalogName, _ := flags.GetString("catalog")
	catalog, err := topics.Lookup(catalogName)
	if err != nil {
		return err
	}
	tmpl, err := prompt.ForCatalog(catalogName)
	if err != nil {
		return err
	}

	cfg := batch.DefaultConfig()
	cfg.Catalog = catalog.Name
	cfg.Budget, _ = flags.GetFloat64("budget")
	cfg.CostPerThousandChars, _ = flags.GetFloat64("rate")
	cfg.CheckpointEvery, _ = flags.GetInt("checkpoint-every")
	cfg.Cooldown, _ = flags.GetDuration("cooldown")
	cfg.MaxItems, _ = flags.GetInt("max-items")
	cfg.MaxConsecutiveFailures, _ = flags.GetInt("max-failures")
	cfg.Seed, _ = flags.GetUint64("seed")
	keepSnapshots, _ := flags.GetInt("keep-snapshots")
	noLedger, _ := flags.GetBool("no-ledger")

	outDir := resolveOutputDir(cmd)
	runID := uuid.NewString()

	ckptOpts := []checkpoint.Option{
		checkpoint.WithLogger(logger),
		checkpoint.WithKeepSnapshots(keepSnapshots),
	}

	var eventRepo store.EventRepo
	if !noLedger {
		ledgerPath, err := store.LedgerPath(outDir)
		if err != nil {
			return fmt.Errorf("resolve ledger path: %w", err)
		}
		st, err := store.Open(ledgerPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer st.Close()

		eventRepo = st.EventRepo()
		ckptOpts = append(ckptOpts, checkpoint.WithRecorder(recordCheckpoint(st.CheckpointRepo(), runID)))
	}

	llmCfg := llm.ConfigFromEnv()
	if p, _ := flags.GetString("provider"); p != "" {
		llmCfg.Provider = p
	}
	if m, _ := flags.GetString("model"); m != "" {
		llmCfg.Gemini.Model = m
	}
	provider, err := llm.NewProvider(ctx, llmCfg, eventRepo, logger)
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}

	client := generation.New(provider, generation.DefaultSampling(), tmpl.EntrySuffix)
	driver, err := batch.New(catalog.Flatten(), tmpl, client, checkpoint.New(outDir, ckptOpts...), cfg,
		batch.WithLogger(logger),
		batch.WithRunID(runID),
		batch.WithObserver(printStep),
	)
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s\n", theme.Title.Render("corpusgen"),
		theme.Subtitle.Render(fmt.Sprintf("catalog %s · model %s · output %s · run %s",
			catalog.Name, client.ModelID(), outDir, runID)))

	sum, runErr := driver.Run(ctx)
	fmt.Println()
	fmt.Println(renderSummary(sum, outDir))

	if runErr != nil {
		return runErr
	}
	if sum.StopReason == batch.StopCancelled {
		fmt.Println(theme.Warn.Render("Interrupted. Progress saved; run again to resume."))
	}
	return nil
}

// recordCheckpoint mirrors every saved checkpoint into the ledger.
func recordCheckpoint(repo store.CheckpointRepo, runID string) checkpoint.Recorder {
	return func(ctx context.Context, state checkpoint.RunState, entries int) error {
		if err := repo.Save(ctx, &store.Checkpoint{
			RunID:          runID,
			ItemsGenerated: state.ItemsGenerated,
			CharsGenerated: state.CharsGenerated,
			Cursor:         state.Cursor,
			BudgetUsed:     state.BudgetUsed,
			CorpusEntries:  entries,
		}); err != nil {
			return err
		}
		return repo.Prune(ctx, checkpointHistory)
	}
}

// printStep reports one finished generation step on stdout.
func printStep(ev batch.Event) {
	topic := fmt.Sprintf("%s / %s", topics.CategoryDisplayName(ev.Item.Category), ev.Item.Label)
	switch ev.Outcome {
	case batch.OutcomeGenerated:
		fmt.Printf("%s #%d %s  %s\n", theme.Good.Render("✓"), ev.State.ItemsGenerated, topic,
			theme.Subtitle.Render(fmt.Sprintf("%s chars, %s left", formatCount(ev.Chars), formatCount(ev.Remaining))))
	case batch.OutcomeFailed:
		fmt.Printf("%s %s  %s\n", theme.Bad.Render("✗"), topic, theme.Subtitle.Render(ev.Err.Error()))
	case batch.OutcomeBudgetExhausted:
		fmt.Printf("%s %s  %s\n", theme.Warn.Render("■"), topic,
			theme.Subtitle.Render(fmt.Sprintf("%s chars would exceed the remaining %s; discarded",
				formatCount(ev.Chars), formatCount(ev.Remaining))))
	}
}

func renderSummary(sum batch.Summary, outDir string) string {
	used := 1.0
	if sum.Cap > 0 {
		used = float64(sum.CharsGenerated) / float64(sum.Cap)
	}
	return components.Report{
		Title: "Generation summary",
		Fields: []components.Field{
			{Label: "Stopped", Value: stopReasonText(sum.StopReason)},
			{Label: "Entries generated", Value: fmt.Sprintf("%s (%s this run)", formatCount(int64(sum.ItemsGenerated)), formatCount(int64(sum.ItemsThisRun)))},
			{Label: "Failed requests", Value: formatCount(int64(sum.Failures))},
			{Label: "Characters", Value: formatCount(sum.CharsGenerated)},
			{Label: "Average per entry", Value: fmt.Sprintf("%.1f chars", sum.AverageChars)},
			{Label: "Estimated cost", Value: formatCost(sum.Cost)},
			{Label: "Remaining", Value: formatCount(sum.RemainingChars) + " chars"},
			{Label: "Corpus entries", Value: formatCount(int64(sum.CorpusEntries))},
			{Label: "Output", Value: outDir},
		},
		Footer: []string{components.NewProgressBar("Budget", used, true, 56).View()},
	}.View()
}

func stopReasonText(r batch.StopReason) string {
	switch r {
	case batch.StopBudgetExhausted:
		return theme.Good.Render("budget reached")
	case batch.StopCancelled:
		return theme.Warn.Render("interrupted")
	case batch.StopMaxItems:
		return theme.Good.Render("item limit reached")
	default:
		return theme.Bad.Render("error")
	}
}

// budgetTracker rebuilds a tracker for reporting on a saved state.
func budgetTracker(cmd *cobra.Command, chars int64) (*budget.Tracker, error) {
	limit, _ := cmd.Flags().GetFloat64("budget")
	rate, _ := cmd.Flags().GetFloat64("rate")
	tr, err := budget.New(limit, rate)
	if err != nil {
		return nil, err
	}
	tr.Restore(chars)
	return tr, nil
}
