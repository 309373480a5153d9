package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// defaultOutputDir is used when neither --output nor CORPUSGEN_OUTPUT is set.
const defaultOutputDir = "rocket_league_output"

var rootCmd = &cobra.Command{
	Use:   "corpusgen",
	Short: "Budget-bounded batch corpus generator",
	Long: "corpusgen prompts a Gemini model with rotating Rocket League topics until a\n" +
		"spending budget is used up, checkpointing so an interrupted run resumes\n" +
		"exactly where it stopped.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	RunE: runGenerate,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output directory (overrides CORPUSGEN_OUTPUT env var, default \""+defaultOutputDir+"\")")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides CORPUSGEN_LOG_LEVEL env var)")

	addGenerateFlags(rootCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveOutputDir returns the output directory using --output (highest
// priority), then CORPUSGEN_OUTPUT, then the default.
func resolveOutputDir(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("output"); p != "" {
		return p
	}
	if p := os.Getenv("CORPUSGEN_OUTPUT"); p != "" {
		return p
	}
	return defaultOutputDir
}

// setupLogging installs a text slog handler on stderr as the default logger.
func setupLogging(cmd *cobra.Command) error {
	name, _ := cmd.Flags().GetString("log-level")
	if name == "" {
		name = os.Getenv("CORPUSGEN_LOG_LEVEL")
	}
	level, err := parseLevel(name)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
