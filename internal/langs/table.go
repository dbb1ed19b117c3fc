package langs

import (
	"sort"

	"github.com/huangsam/gitreport/schema"
)

// filenames maps lower-cased exact file names to a language. Checked before extensions.
var filenames = map[string]schema.Language{
	"makefile":          "Makefile",
	"gnumakefile":       "Makefile",
	"dockerfile":        "Dockerfile",
	"containerfile":     "Dockerfile",
	"cmakelists.txt":    "CMake",
	"go.mod":            "Go Module",
	"go.sum":            "Go Checksums",
	"go.work":           "Go Workspace",
	"cargo.lock":        "TOML",
	"gemfile":           "Ruby",
	"rakefile":          "Ruby",
	"vagrantfile":       "Ruby",
	"jenkinsfile":       "Groovy",
	"justfile":          "Just",
	"build.bazel":       "Starlark",
	"workspace":         "Starlark",
	"license":           "Text",
	"copying":           "Text",
	".gitignore":        "Ignore List",
	".dockerignore":     "Ignore List",
	".gitattributes":    "Git Attributes",
	".editorconfig":     "EditorConfig",
	".bashrc":           "Shell",
	".zshrc":            "Shell",
	".profile":          "Shell",
	"pkgbuild":          "Shell",
	"package-lock.json": "JSON",
}

// extensions maps lower-cased extensions (with the leading dot) to a language.
// Multi-part extensions such as ".d.ts" win over their shorter suffixes.
var extensions = map[string]schema.Language{
	".go":         "Go",
	".rs":         "Rust",
	".c":          "C",
	".h":          "C",
	".cc":         "C++",
	".cpp":        "C++",
	".cxx":        "C++",
	".hpp":        "C++",
	".hh":         "C++",
	".cs":         "C#",
	".java":       "Java",
	".kt":         "Kotlin",
	".kts":        "Kotlin",
	".scala":      "Scala",
	".groovy":     "Groovy",
	".gradle":     "Gradle",
	".swift":      "Swift",
	".m":          "Objective-C",
	".mm":         "Objective-C++",
	".py":         "Python",
	".pyi":        "Python",
	".ipynb":      "Jupyter Notebook",
	".rb":         "Ruby",
	".php":        "PHP",
	".blade.php":  "Blade",
	".pl":         "Perl",
	".pm":         "Perl",
	".lua":        "Lua",
	".r":          "R",
	".jl":         "Julia",
	".hs":         "Haskell",
	".ex":         "Elixir",
	".exs":        "Elixir",
	".erl":        "Erlang",
	".clj":        "Clojure",
	".dart":       "Dart",
	".zig":        "Zig",
	".nim":        "Nim",
	".ml":         "OCaml",
	".fs":         "F#",
	".js":         "JavaScript",
	".mjs":        "JavaScript",
	".cjs":        "JavaScript",
	".jsx":        "JavaScript",
	".ts":         "TypeScript",
	".mts":        "TypeScript",
	".d.ts":       "TypeScript",
	".tsx":        "TSX",
	".vue":        "Vue",
	".svelte":     "Svelte",
	".html":       "HTML",
	".htm":        "HTML",
	".css":        "CSS",
	".scss":       "SCSS",
	".sass":       "Sass",
	".less":       "Less",
	".md":         "Markdown",
	".markdown":   "Markdown",
	".mdx":        "MDX",
	".rst":        "reStructuredText",
	".adoc":       "AsciiDoc",
	".txt":        "Text",
	".json":       "JSON",
	".jsonc":      "JSON with Comments",
	".yaml":       "YAML",
	".yml":        "YAML",
	".toml":       "TOML",
	".xml":        "XML",
	".ini":        "INI",
	".csv":        "CSV",
	".sql":        "SQL",
	".proto":      "Protocol Buffer",
	".graphql":    "GraphQL",
	".sh":         "Shell",
	".bash":       "Shell",
	".zsh":        "Shell",
	".fish":       "fish",
	".ps1":        "PowerShell",
	".bat":        "Batchfile",
	".cmd":        "Batchfile",
	".cmake":      "CMake",
	".mk":         "Makefile",
	".tf":         "HCL",
	".hcl":        "HCL",
	".nix":        "Nix",
	".bzl":        "Starlark",
	".dockerfile": "Dockerfile",
	".tmpl":       "Go Template",
	".tex":        "TeX",
	".vim":        "Vim Script",
	".el":         "Emacs Lisp",
}

// Entry is one row of the built-in classification table.
type Entry struct {
	Pattern  string          // File name or extension
	Kind     string          // "filename" or "extension"
	Language schema.Language // Resulting language
}

// Table lists the built-in classification table, file names first, each group sorted by pattern.
func Table() []Entry {
	entries := make([]Entry, 0, len(filenames)+len(extensions))
	for name, lang := range filenames {
		entries = append(entries, Entry{Pattern: name, Kind: "filename", Language: lang})
	}
	for ext, lang := range extensions {
		entries = append(entries, Entry{Pattern: ext, Kind: "extension", Language: lang})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind == "filename"
		}
		return entries[i].Pattern < entries[j].Pattern
	})
	return entries
}
