package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/corpusgen/internal/budget"
	"github.com/abhisek/corpusgen/internal/checkpoint"
	"github.com/abhisek/corpusgen/internal/store"
	"github.com/abhisek/corpusgen/internal/ui/components"
	"github.com/abhisek/corpusgen/internal/ui/theme"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved progress of the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := resolveOutputDir(cmd)
		cs := checkpoint.New(outDir, checkpoint.WithLogger(discardLogger()))

		state, found, err := cs.Load()
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("No saved run in %s.\n", outDir)
			return nil
		}

		tr, err := budgetTracker(cmd, state.CharsGenerated)
		if err != nil {
			return err
		}
		corpus, err := cs.LoadCorpus()
		if err != nil {
			return err
		}
		snaps, err := cs.Snapshots()
		if err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}

		avg := 0.0
		if state.ItemsGenerated > 0 {
			avg = float64(state.CharsGenerated) / float64(state.ItemsGenerated)
		}
		catalog := state.Catalog
		if catalog == "" {
			catalog = "(not recorded)"
		}

		fmt.Println(components.Report{
			Title: "Run status",
			Fields: []components.Field{
				{Label: "Last saved", Value: state.Timestamp},
				{Label: "Catalog", Value: catalog},
				{Label: "Entries generated", Value: formatCount(int64(state.ItemsGenerated))},
				{Label: "Characters", Value: formatCount(state.CharsGenerated)},
				{Label: "Average per entry", Value: fmt.Sprintf("%.1f chars", avg)},
				{Label: "Cursor", Value: formatCount(int64(state.Cursor))},
				{Label: "Cost", Value: fmt.Sprintf("%s of %s", formatCost(tr.Cost()), formatCost(tr.Limit()))},
				{Label: "Remaining", Value: formatCount(tr.RemainingChars()) + " chars"},
				{Label: "Corpus entries", Value: formatCount(int64(len(corpus)))},
				{Label: "Snapshots", Value: formatCount(int64(len(snaps)))},
			},
			Footer: []string{components.NewProgressBar("Budget", tr.Fraction(), true, 56).View()},
		}.View())

		if len(corpus) != state.ItemsGenerated {
			fmt.Println(theme.Warn.Render(fmt.Sprintf(
				"Corpus has %d entries but the state records %d; an entry may contain the separator.",
				len(corpus), state.ItemsGenerated)))
		}

		limit, _ := cmd.Flags().GetInt("limit")
		return printCheckpointHistory(cmd.Context(), outDir, tr, limit)
	},
}

func init() {
	statusCmd.Flags().Float64("budget", budget.DefaultLimit, "Spending budget in USD")
	statusCmd.Flags().Float64("rate", budget.DefaultCostPerThousandChars, "Cost in USD per 1000 generated characters")
	statusCmd.Flags().IntP("limit", "n", 5, "Number of recent checkpoints to show")
}

// printCheckpointHistory lists recent checkpoints from the ledger, if any.
func printCheckpointHistory(ctx context.Context, outDir string, tr *budget.Tracker, limit int) error {
	path := filepath.Join(outDir, store.LedgerFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer s.Close()

	cps, err := s.CheckpointRepo().List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list checkpoints: %w", err)
	}
	if len(cps) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println(theme.Title.Render("Recent checkpoints"))
	fmt.Printf("%-19s  %-8s  %8s  %14s  %9s  %s\n",
		"Time", "Run", "Entries", "Chars", "Cost", "Budget")
	fmt.Println(strings.Repeat("─", 80))
	for _, cp := range cps {
		used := 0.0
		if tr.Cap() > 0 {
			used = float64(cp.CharsGenerated) / float64(tr.Cap())
		}
		fmt.Printf("%-19s  %-8s  %8d  %14s  %9s  %s\n",
			cp.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncate(cp.RunID, 8),
			cp.ItemsGenerated,
			formatCount(cp.CharsGenerated),
			formatCost(cp.BudgetUsed),
			components.NewProgressBar("", used, true, 24).View(),
		)
	}
	return nil
}
