package topics

import (
	"fmt"
	"sort"
	"strings"
)

// Item is a single (category, label) pair that drives one prompt.
type Item struct {
	Category string
	Label    string
}

// String returns "category/label".
func (i Item) String() string {
	return i.Category + "/" + i.Label
}

// Category groups related labels in a catalog.
type Category struct {
	Name   string
	Labels []string
}

// Catalog is a fixed, enumerable set of categories.
type Catalog struct {
	Name        string
	Description string
	Categories  []Category
}

// Flatten returns every (category, label) pair in declaration order.
func (c Catalog) Flatten() []Item {
	var items []Item
	for _, cat := range c.Categories {
		for _, label := range cat.Labels {
			items = append(items, Item{Category: cat.Name, Label: label})
		}
	}
	return items
}

// Size returns the number of items in the catalog.
func (c Catalog) Size() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Labels)
	}
	return n
}

// CategoryDisplayName turns a snake_case category into a readable name.
func CategoryDisplayName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var catalogs = map[string]Catalog{
	aspectsCatalog.Name:   aspectsCatalog,
	scenariosCatalog.Name: scenariosCatalog,
}

// Lookup returns the built-in catalog with the given name.
func Lookup(name string) (Catalog, error) {
	c, ok := catalogs[name]
	if !ok {
		return Catalog{}, fmt.Errorf("unknown catalog %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Names returns the names of all built-in catalogs, sorted.
func Names() []string {
	names := make([]string, 0, len(catalogs))
	for name := range catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
