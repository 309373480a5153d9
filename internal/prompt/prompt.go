package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/corpusgen/internal/topics"
)

// Template describes how a (category, label) pair becomes a prompt.
// Body may reference {label}, {category}, {max_words} and {opening}.
type Template struct {
	Name string
	Body string

	// MaxWords is the word ceiling stated in the prompt.
	MaxWords int

	// Opening, when set, is the phrase every response must start with.
	// It may itself reference {label} and {category}.
	Opening string

	// EntrySuffix is appended to every generated entry before it is counted.
	EntrySuffix string
}

// Build renders the template for one catalog item. It is deterministic
// and has no failure modes.
func Build(t Template, category, label string) string {
	opening := expand(t.Opening, category, label, t.MaxWords, "")
	return expand(t.Body, category, label, t.MaxWords, opening)
}

// BuildItem is Build for a topics.Item.
func BuildItem(t Template, item topics.Item) string {
	return Build(t, item.Category, item.Label)
}

func expand(s, category, label string, maxWords int, opening string) string {
	r := strings.NewReplacer(
		"{label}", label,
		"{category}", category,
		"{max_words}", fmt.Sprintf("%d", maxWords),
		"{opening}", opening,
	)
	return r.Replace(s)
}

// ForCatalog returns the template paired with a built-in catalog.
func ForCatalog(name string) (Template, error) {
	switch name {
	case topics.CatalogAspects:
		return CoachingTips, nil
	case topics.CatalogScenarios:
		return TacticalAdvice, nil
	default:
		return Template{}, fmt.Errorf("no prompt template for catalog %q", name)
	}
}
