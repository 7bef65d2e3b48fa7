// Package profile defines per-language analysis profiles that modulate LLM
// prompt construction. Each profile provides a SystemPromptAddendum that is
// appended to the analyzer's system prompt so that language-specific best
// practices are judged against the right conventions.
package profile

import "strings"

// Profile describes language-specific analysis guidance.
type Profile struct {
	Language             string
	SystemPromptAddendum string
}

// builtins is the registry of language profiles keyed by lowercase language
// label. Languages without an entry fall back to the default profile.
var builtins = map[string]Profile{
	"go": {
		Language: "Go",
		SystemPromptAddendum: "For the language_best_practices criterion, judge against idiomatic Go: " +
			"explicit error handling on every call that can fail, no ignored errors, " +
			"gofmt-compatible formatting, contexts passed to blocking operations, and " +
			"defer for cleanup. Penalize panics used for ordinary error flow.",
	},
	"python": {
		Language: "Python",
		SystemPromptAddendum: "For the language_best_practices criterion, judge against idiomatic Python: " +
			"PEP 8 naming and layout, context managers for resource handling, " +
			"specific exception types rather than bare except, and f-strings over " +
			"string concatenation. Penalize mutable default arguments.",
	},
	"java": {
		Language: "Java",
		SystemPromptAddendum: "For the language_best_practices criterion, judge against modern Java: " +
			"try-with-resources for closeables, meaningful exception handling, " +
			"and standard naming conventions. Penalize swallowed exceptions.",
	},
	"javascript": {
		Language: "JavaScript",
		SystemPromptAddendum: "For the language_best_practices criterion, judge against modern JavaScript: " +
			"const/let over var, async/await over raw promise chains, and rejected " +
			"promises always handled. Penalize unhandled promise rejections.",
	},
	"terraform": {
		Language: "Terraform",
		SystemPromptAddendum: "For the language_best_practices criterion, judge against Terraform style: " +
			"variables over hardcoded values, explicit provider version constraints, " +
			"and descriptive resource names.",
	},
}

// defaultProfile is used for languages without a registered profile.
var defaultProfile = Profile{
	Language: "Unknown",
	SystemPromptAddendum: "For the language_best_practices criterion, judge against the general " +
		"conventions of the detected language. When the language is unknown, evaluate " +
		"only universally applicable practices and note the uncertainty in the assessment.",
}

// Load returns the profile for a language label, falling back to the default
// profile for unrecognized languages. Lookup is case-insensitive.
func Load(language string) Profile {
	if p, ok := builtins[strings.ToLower(language)]; ok {
		return p
	}
	return defaultProfile
}
