package agg

import (
	"github.com/huangsam/gitreport/internal/langs"
	"github.com/huangsam/gitreport/schema"
)

// BuildComposition sums the files of one tree per language. Binary files and
// paths rejected by skip are left out.
func BuildComposition(files []schema.FileEntry, classifier langs.Classifier, skip func(path string) bool) []schema.LanguageShare {
	byLang := make(map[schema.Language]*schema.LanguageShare)
	for _, f := range files {
		if f.Binary || (skip != nil && skip(f.Path)) {
			continue
		}
		lang := classifier.Classify(f.Path)
		share, ok := byLang[lang]
		if !ok {
			share = &schema.LanguageShare{Language: lang}
			byLang[lang] = share
		}
		share.Files++
		share.Lines += f.Lines
		share.Bytes += f.Bytes
	}

	out := make([]schema.LanguageShare, 0, len(byLang))
	for _, share := range byLang {
		out = append(out, *share)
	}
	return SortComposition(out)
}
