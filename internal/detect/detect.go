// Package detect provides deterministic metadata detection for code samples:
// programming-language identification and region-tag extraction. Both are
// pure functions over the input; no LLM calls are made here.
package detect

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

// Metadata is the result of the initial detection pass over a sample.
type Metadata struct {
	Language   string
	RegionTags []string
}

// Unknown is the language label used when detection has no signal.
const Unknown = "Unknown"

// extensionMap maps file extensions to language labels. JVM languages are
// normalized to Java and TypeScript to JavaScript, matching the label set the
// analyzer is prompted with.
var extensionMap = map[string]string{
	".py":     "Python",
	".java":   "Java",
	".groovy": "Java",
	".kt":     "Java",
	".scala":  "Java",
	".go":     "Go",
	".rb":     "Ruby",
	".rs":     "Rust",
	".cs":     "C#",
	".cpp":    "C++",
	".cc":     "C++",
	".hpp":    "C++",
	".h":      "C++",
	".c":      "C++",
	".php":    "PHP",
	".tf":     "Terraform",
	".js":     "JavaScript",
	".jsx":    "JavaScript",
	".ts":     "JavaScript",
	".tsx":    "JavaScript",
}

// Detect runs language detection and region-tag extraction over a sample.
// sourceURI, when non-empty, is preferred for language detection since a file
// extension is more reliable than content heuristics.
func Detect(code, sourceURI string) Metadata {
	lang := Unknown
	if sourceURI != "" {
		lang = LanguageFromURI(sourceURI)
	}
	if lang == Unknown {
		lang = LanguageFromCode(code)
	}
	return Metadata{
		Language:   lang,
		RegionTags: RegionTags(code),
	}
}

// LanguageFromURI identifies the language from the file extension of a URI
// path. Returns Unknown for unrecognized extensions or unparseable URIs.
func LanguageFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return Unknown
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if lang, ok := extensionMap[ext]; ok {
		return lang
	}
	return Unknown
}

var (
	goPackageRe   = regexp.MustCompile(`(?m)^package\s+\w+\s*$`)
	pythonDefRe   = regexp.MustCompile(`(?m)^(?:def|class)\s+\w+.*:\s*$|^import\s+\w+|^from\s+\w+\s+import\s`)
	javaClassRe   = regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:final\s+)?class\s+\w+|^import\s+(?:java|com|org)\.`)
	jsRe          = regexp.MustCompile(`(?m)\b(?:const|let)\s+\w+\s*=|=>\s*{|\brequire\(['"]`)
	rubyRe        = regexp.MustCompile(`(?m)^(?:require|def)\s|\bend\s*$`)
	phpOpenRe     = regexp.MustCompile(`<\?php`)
	terraformRe   = regexp.MustCompile(`(?m)^(?:resource|provider|variable|module)\s+"`)
	csharpRe      = regexp.MustCompile(`(?m)^\s*(?:using\s+System|namespace\s+\w+)`)
	cppIncludeRe  = regexp.MustCompile(`(?m)^#include\s*[<"]`)
	rustRe        = regexp.MustCompile(`(?m)^\s*(?:fn\s+\w+|use\s+\w+::|let\s+mut\s)`)
	shebangLangRe = regexp.MustCompile(`^#!\S*/(?:env\s+)?(\w+)`)
)

// LanguageFromCode identifies the language from content heuristics. The
// checks run from most to least distinctive signature; the first match wins.
// Returns Unknown when nothing matches.
func LanguageFromCode(code string) string {
	if m := shebangLangRe.FindStringSubmatch(code); m != nil {
		switch m[1] {
		case "python", "python3":
			return "Python"
		case "ruby":
			return "Ruby"
		case "node":
			return "JavaScript"
		case "php":
			return "PHP"
		}
	}
	switch {
	case phpOpenRe.MatchString(code):
		return "PHP"
	case goPackageRe.MatchString(code) && strings.Contains(code, "func "):
		return "Go"
	case terraformRe.MatchString(code):
		return "Terraform"
	case csharpRe.MatchString(code):
		return "C#"
	case cppIncludeRe.MatchString(code):
		return "C++"
	case rustRe.MatchString(code) && strings.Contains(code, "fn "):
		return "Rust"
	case javaClassRe.MatchString(code) && strings.Contains(code, ";"):
		return "Java"
	case pythonDefRe.MatchString(code):
		return "Python"
	case jsRe.MatchString(code):
		return "JavaScript"
	case rubyRe.MatchString(code):
		return "Ruby"
	}
	return Unknown
}

var (
	startTagRe = regexp.MustCompile(`\[START\s+([A-Za-z0-9_]+)\]`)
	endTagRe   = regexp.MustCompile(`\[END\s+([A-Za-z0-9_]+)\]`)
)

// RegionTags extracts the unique region-tag identifiers from [START name]
// and [END name] markers, sorted for deterministic output.
func RegionTags(code string) []string {
	seen := make(map[string]bool)
	for _, re := range []*regexp.Regexp{startTagRe, endTagRe} {
		for _, m := range re.FindAllStringSubmatch(code, -1) {
			seen[m[1]] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
