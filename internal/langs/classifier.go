// Package langs maps file paths to language labels.
package langs

import (
	"strings"

	"github.com/go-enry/go-enry/v2"
	"github.com/huangsam/gitreport/schema"
)

// Classifier maps a path to a language label. Implementations must be total and
// safe for concurrent use.
type Classifier interface {
	Classify(path string) schema.Language
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(path string) schema.Language

// Classify calls f(path).
func (f ClassifierFunc) Classify(path string) schema.Language { return f(path) }

// Default is the table-driven classifier without memoization.
var Default Classifier = ClassifierFunc(Classify)

// Classify returns the language of a slash-separated path. It never fails:
// anything it cannot place resolves to schema.UnknownLanguage.
//
// Lookup order is exact file name, then the longest known extension, then a
// single unambiguous go-enry candidate.
func Classify(path string) schema.Language {
	base := baseName(path)
	if base == "" || base == "." || base == ".." || strings.HasSuffix(base, ".") {
		return schema.UnknownLanguage
	}
	lower := strings.ToLower(base)

	if lang, ok := filenames[lower]; ok {
		return lang
	}

	// The first dot after position 0 starts the longest candidate extension
	for i := 1; i < len(lower); i++ {
		if lower[i] != '.' {
			continue
		}
		if lang, ok := extensions[lower[i:]]; ok {
			return lang
		}
	}

	return enryFallback(base)
}

// enryFallback asks go-enry's linguist index, accepting only unambiguous answers.
func enryFallback(base string) schema.Language {
	if candidates := enry.GetLanguagesByFilename(base, nil, nil); len(candidates) == 1 {
		return schema.Language(candidates[0])
	}
	// Dotfiles without a further extension are only known by name
	if strings.HasPrefix(base, ".") && strings.Count(base, ".") == 1 {
		return schema.UnknownLanguage
	}
	if candidates := enry.GetLanguagesByExtension(base, nil, nil); len(candidates) == 1 {
		return schema.Language(candidates[0])
	}
	return schema.UnknownLanguage
}

// IsVendored reports whether a path lives in a vendored or generated dependency directory.
func IsVendored(path string) bool {
	return enry.IsVendor(path)
}

// baseName returns the last slash-separated element, or "" for directory paths.
func baseName(path string) string {
	if path == "" || strings.HasSuffix(path, "/") {
		return ""
	}
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
