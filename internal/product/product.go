// Package product categorizes a code sample into a product name and category.
// It uses a hybrid strategy: a fast ordered keyword-rule lookup over the
// sample's source link, region tags, and code, with a generative fallback
// when the rules miss. Categorization always returns a value; the final
// fallback is {"Other", "Other"}.
package product

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/codehealth/internal/llm"
)

//go:embed hierarchy.yaml
var hierarchyYAML []byte

// Category is the result of product categorization.
type Category struct {
	Name     string // product name, e.g. "BigQuery"
	Category string // product category, e.g. "Data Analytics"
}

// Other is the fallback category when neither rules nor the generative
// fallback produce a match.
var Other = Category{Name: "Other", Category: "Other"}

// entry is one product with its keyword list, in rule order.
type entry struct {
	category string
	product  string
	keywords []string
}

// yamlCategory mirrors the hierarchy file structure.
type yamlCategory struct {
	Category string `yaml:"category"`
	Products []struct {
		Product  string   `yaml:"product"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"products"`
}

// Categorizer resolves products for code samples. The zero value is not
// usable; construct with New.
type Categorizer struct {
	entries []entry
	// fallback, when non-nil, is consulted after a rule miss. Errors from the
	// fallback are swallowed; categorization never fails the pipeline.
	fallback llm.Provider
	model    string
}

// New builds a Categorizer from the embedded hierarchy. fallback may be nil
// to disable the generative path.
func New(fallback llm.Provider, model string) (*Categorizer, error) {
	var cats []yamlCategory
	if err := yaml.Unmarshal(hierarchyYAML, &cats); err != nil {
		return nil, fmt.Errorf("product: parse hierarchy: %w", err)
	}
	var entries []entry
	for _, c := range cats {
		for _, p := range c.Products {
			entries = append(entries, entry{
				category: c.Category,
				product:  p.Product,
				keywords: p.Keywords,
			})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("product: hierarchy is empty")
	}
	return &Categorizer{entries: entries, fallback: fallback, model: model}, nil
}

// Categorize resolves the product for a sample. The rule pass searches the
// source URI first, then the region tags, then the code itself; the first
// keyword hit in rule order wins. On a rule miss the generative fallback is
// consulted (when configured), constrained to the known product list.
func (c *Categorizer) Categorize(ctx context.Context, code, sourceURI string, regionTags []string) Category {
	for _, hay := range []string{sourceURI, strings.Join(regionTags, " "), code} {
		if hay == "" {
			continue
		}
		if cat, ok := c.matchRules(hay); ok {
			return cat
		}
	}

	if c.fallback != nil {
		if cat, ok := c.categorizeWithModel(ctx, code); ok {
			return cat
		}
	}
	return Other
}

// matchRules returns the first product whose keywords match the haystack.
func (c *Categorizer) matchRules(haystack string) (Category, bool) {
	haystack = strings.ToLower(haystack)
	for _, e := range c.entries {
		for _, kw := range e.keywords {
			if strings.Contains(haystack, kw) {
				return Category{Name: e.product, Category: e.category}, true
			}
		}
	}
	return Category{}, false
}

// categorizeWithModel asks the fallback model to pick one product from the
// known list. Output outside the list is rejected so a hallucinated product
// never reaches the result.
func (c *Categorizer) categorizeWithModel(ctx context.Context, code string) (Category, bool) {
	var sb strings.Builder
	sb.WriteString("Classify the following code sample as exactly one product from this list.\n")
	sb.WriteString("Respond with only the product name, nothing else.\n\nProducts:\n")
	for _, e := range c.entries {
		fmt.Fprintf(&sb, "- %s\n", e.product)
	}
	sb.WriteString("\nCode:\n")
	sb.WriteString(code)

	resp, err := c.fallback.Complete(ctx,
		"You classify code samples by the primary product or service they demonstrate.",
		sb.String(), 64, 0.0)
	if err != nil {
		return Category{}, false
	}

	answer := strings.TrimSpace(llm.StripMarkdownFences(resp))
	for _, e := range c.entries {
		if strings.EqualFold(answer, e.product) {
			return Category{Name: e.product, Category: e.category}, true
		}
	}
	return Category{}, false
}
