// Package clean provides deterministic comment stripping. The stripped form
// is the only version of a sample shown to the analyzer's functional checks;
// the original (with comments) is used only for the clarity criterion.
package clean

import (
	"regexp"
	"strings"
)

// family groups languages by comment syntax.
type family int

const (
	familyUnknown family = iota
	familyHash           // # line comments
	familySlash          // // line and /* */ block comments
	familyMarkup         // <!-- --> comments
)

var languageFamilies = map[string]family{
	"python":     familyHash,
	"shell":      familyHash,
	"ruby":       familyHash,
	"terraform":  familySlash,
	"javascript": familySlash,
	"typescript": familySlash,
	"java":       familySlash,
	"c":          familySlash,
	"c++":        familySlash,
	"c#":         familySlash,
	"go":         familySlash,
	"swift":      familySlash,
	"kotlin":     familySlash,
	"rust":       familySlash,
	"php":        familySlash,
	"html":       familyMarkup,
	"xml":        familyMarkup,
}

var (
	hashCommentRe   = regexp.MustCompile(`#.*`)
	slashLineRe     = regexp.MustCompile(`//.*`)
	slashBlockRe    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	markupCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// StripComments removes comments from code according to the comment syntax of
// language. Languages with unrecognized comment syntax are returned
// unchanged. Region-tag markers live inside comments and are therefore
// removed too; callers must extract tags before cleaning.
func StripComments(code, language string) string {
	switch languageFamilies[strings.ToLower(language)] {
	case familyHash:
		return hashCommentRe.ReplaceAllString(code, "")
	case familySlash:
		code = slashLineRe.ReplaceAllString(code, "")
		return slashBlockRe.ReplaceAllString(code, "")
	case familyMarkup:
		return markupCommentRe.ReplaceAllString(code, "")
	default:
		return code
	}
}
