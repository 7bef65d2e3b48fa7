// Package llm handles LLM provider communication and the text hygiene
// applied to raw model output before structured parsing.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "google", "":
		return newGoogleProvider(model)
	case "anthropic":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences.
// Both backtick and tilde fence styles are supported. The content group uses
// `.*?` (not `.+?`) to allow empty bodies inside fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line (no closing fence required).
// Used to strip orphaned opening fences from truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// StripMarkdownFences removes leading/trailing markdown code fences that LLMs
// sometimes wrap around JSON output (e.g., "```json\n...\n```").
// If only an opening fence is present (e.g., the response was truncated before
// the closing fence), the opening line is stripped so that the JSON content
// can still be parsed.
func StripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Handle truncated fenced responses: strip the opening fence line only.
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// embeddedObjectRe finds a JSON object embedded in surrounding prose. Greedy
// so that nested objects are captured to the outermost closing brace.
var embeddedObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// invalidJSONEscapeRe matches a backslash followed by any character that is
// not a valid JSON string escape character ("\/bfnrtu). LLMs sometimes emit
// regex patterns (e.g. \d+, \w+) unescaped inside JSON strings; the sanitizer
// converts them to properly double-escaped sequences (\\d, \\w, etc.) so that
// the JSON parser accepts the response.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

// FixInvalidJSONEscapes replaces invalid JSON escape sequences in s with
// their correctly double-escaped equivalents.
func FixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

// DecodeJSON parses raw model output into v. Markdown fences are stripped
// first; on parse failure the payload is retried once with invalid escape
// sequences sanitized, then once more with the first embedded JSON object
// extracted from surrounding prose.
func DecodeJSON(raw string, v any) error {
	raw = StripMarkdownFences(raw)
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	fixed := FixInvalidJSONEscapes(raw)
	if err := json.Unmarshal([]byte(fixed), v); err == nil {
		return nil
	}
	if m := embeddedObjectRe.FindString(fixed); m != "" {
		if err := json.Unmarshal([]byte(m), v); err == nil {
			return nil
		}
	}
	// Report the error for the unsanitized payload; it reflects what the
	// model actually produced.
	err := json.Unmarshal([]byte(raw), v)
	return fmt.Errorf("llm: decode json: %w", err)
}
