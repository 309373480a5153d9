package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/corpusgen/internal/prompt"
	"github.com/abhisek/corpusgen/internal/topics"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Browse the topic catalogs",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog topics (all catalogs unless --catalog is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("catalog")

		names := topics.Names()
		if name != "" {
			names = []string{name}
		}

		for i, n := range names {
			catalog, err := topics.Lookup(n)
			if err != nil {
				return err
			}
			tmpl, err := prompt.ForCatalog(n)
			if err != nil {
				return err
			}

			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("%s: %s (template %s, max %d words)\n",
				catalog.Name, catalog.Description, tmpl.Name, tmpl.MaxWords)
			fmt.Printf("%-24s  %s\n", "Category", "Label")
			fmt.Println(strings.Repeat("─", 80))

			for _, item := range catalog.Flatten() {
				label := item.Label
				if len(label) > 52 {
					label = label[:49] + "..."
				}
				fmt.Printf("%-24s  %s\n", topics.CategoryDisplayName(item.Category), label)
			}

			fmt.Printf("\n%d topics in %d categories\n", catalog.Size(), len(catalog.Categories))
		}
		return nil
	},
}

var topicsPromptCmd = &cobra.Command{
	Use:   "prompt <category> <label>",
	Short: "Print the prompt that would be sent for a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("catalog")
		tmpl, err := prompt.ForCatalog(name)
		if err != nil {
			return err
		}
		fmt.Println(prompt.Build(tmpl, args[0], args[1]))
		return nil
	},
}

func init() {
	topicsListCmd.Flags().String("catalog", "", "Catalog to list (aspects or scenarios)")
	topicsPromptCmd.Flags().String("catalog", topics.CatalogAspects, "Catalog whose template to use")

	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsPromptCmd)
}
