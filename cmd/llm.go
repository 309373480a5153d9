package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhisek/corpusgen/internal/llm"
	"github.com/abhisek/corpusgen/internal/store"
	"github.com/abhisek/corpusgen/internal/topics"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the generation request ledger",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		category, _ := cmd.Flags().GetString("category")
		runID, _ := cmd.Flags().GetString("run")
		failed, _ := cmd.Flags().GetBool("failed")

		s, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		events, err := s.EventRepo().QueryGenerationEvents(ctx, store.QueryOpts{
			Limit:    limit,
			RunID:    runID,
			Category: category,
			Failed:   failed,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No generation requests found.")
			return nil
		}

		// Header.
		fmt.Printf("%-5s  %-19s  %-20s  %-30s  %-7s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Category", "Label", "Chars", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 118))

		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf("%-5d  %-19s  %-20s  %-30s  %-7d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Category, 20),
				truncate(e.Label, 30),
				e.Chars,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full prompt and response of a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		e, err := s.EventRepo().GetGenerationEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Run:       %s\n", e.RunID)
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Topic:     %s / %s\n", topics.CategoryDisplayName(e.Category), e.Label)
		fmt.Printf("Chars:     %d\n", e.Chars)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		fmt.Println()
		fmt.Println(sep)
		fmt.Println("REQUEST")
		fmt.Println(sep)
		if e.RequestBody != "" {
			fmt.Println(e.RequestBody)
		} else {
			fmt.Println("(not captured)")
		}

		fmt.Println(sep)
		fmt.Println("RESPONSE")
		fmt.Println(sep)
		if e.ResponseBody != "" {
			fmt.Println(e.ResponseBody)
		} else {
			fmt.Println("(not captured)")
		}

		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated usage per category and estimated token cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		stats, err := s.EventRepo().UsageByCategory(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		if len(stats) == 0 {
			fmt.Println("No generation requests recorded yet.")
			return nil
		}

		// Usage by category.
		fmt.Println("Usage by Category")
		fmt.Println(strings.Repeat("─", 84))
		fmt.Printf("%-22s  %6s  %6s  %12s  %10s  %10s  %8s\n",
			"Category", "Calls", "Failed", "Chars", "Input", "Output", "Avg Ms")
		fmt.Println(strings.Repeat("─", 84))

		var totalCalls, totalFailed, totalIn, totalOut int
		var totalChars int64
		for _, st := range stats {
			fmt.Printf("%-22s  %6d  %6d  %12s  %10d  %10d  %8d\n",
				truncate(st.Category, 22), st.Calls, st.Failures, formatCount(st.Chars),
				st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
			totalCalls += st.Calls
			totalFailed += st.Failures
			totalChars += st.Chars
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}

		fmt.Println(strings.Repeat("─", 84))
		fmt.Printf("%-22s  %6d  %6d  %12s  %10d  %10d\n",
			"TOTAL", totalCalls, totalFailed, formatCount(totalChars), totalIn, totalOut)

		// Cost by model.
		modelUsage, err := s.EventRepo().UsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		if len(modelUsage) > 0 {
			fmt.Println()
			fmt.Println("Estimated Token Cost (USD)")
			fmt.Println(strings.Repeat("─", 84))
			fmt.Printf("%-32s  %6s  %12s  %10s  %10s  %10s\n",
				"Model", "Calls", "Chars", "Input", "Output", "Cost")
			fmt.Println(strings.Repeat("─", 84))

			var totalCost float64
			var unknownModels []string
			for _, mu := range modelUsage {
				cost := llm.LookupCost(mu.Model)
				if cost == nil {
					unknownModels = append(unknownModels, mu.Model)
					fmt.Printf("%-32s  %6d  %12s  %10d  %10d  %10s\n",
						truncate(mu.Model, 32), mu.Calls, formatCount(mu.Chars), mu.InputTokens, mu.OutputTokens, "?")
					continue
				}
				c := cost.Cost(mu.InputTokens, mu.OutputTokens)
				totalCost += c
				fmt.Printf("%-32s  %6d  %12s  %10d  %10d  %10s\n",
					truncate(mu.Model, 32), mu.Calls, formatCount(mu.Chars), mu.InputTokens, mu.OutputTokens, formatCost(c))
			}

			fmt.Println(strings.Repeat("─", 84))
			label := "TOTAL"
			if len(unknownModels) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Printf("%-32s  %6s  %12s  %10s  %10s  %10s\n",
				label, "", "", "", "", formatCost(totalCost))

			if len(unknownModels) > 0 {
				fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
			}
		}

		return nil
	},
}

// openLedger opens the ledger of the output directory. Unlike generate it
// never creates one.
func openLedger(cmd *cobra.Command) (*store.Store, error) {
	path := filepath.Join(resolveOutputDir(cmd), store.LedgerFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no ledger at %s (was the run started with --no-ledger?)", path)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return s, nil
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("category", "c", "", "Filter by category (e.g. mechanics, defensive_scenarios)")
	llmListCmd.Flags().String("run", "", "Filter by run ID")
	llmListCmd.Flags().Bool("failed", false, "Show only failed requests")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
