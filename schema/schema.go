// Package schema has the models and constants shared by all parts of gitreport.
package schema

import "time"

// Language is a language label such as "Go", "Markdown" or "Unknown".
type Language string

// Author identifies who wrote a commit.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FileChange is the delta one commit introduced to one file.
type FileChange struct {
	Path    string     `json:"path"`               // Path after the change (pre-existing path for deletions)
	OldPath string     `json:"old_path,omitempty"` // Source path for renames
	Added   int        `json:"added"`              // Lines added
	Removed int        `json:"removed"`            // Lines removed
	Kind    ChangeKind `json:"kind"`               // added, modified, deleted or renamed
	Binary  bool       `json:"binary,omitempty"`   // Binary content, line counts are zero
}

// PureRename reports whether the change only moved a file without touching content.
func (fc FileChange) PureRename() bool {
	return fc.Kind == ChangeRenamed && fc.Added == 0 && fc.Removed == 0
}

// Commit is an immutable snapshot of commit metadata plus the changes it introduced.
type Commit struct {
	ID      string       `json:"id"`
	Parents []string     `json:"parents"`
	Author  Author       `json:"author"`
	When    time.Time    `json:"when"` // Author timestamp in UTC
	Changes []FileChange `json:"changes,omitempty"`
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// IsRoot reports whether the commit has no parents.
func (c Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// FileEntry describes one file in the tree of a reference.
type FileEntry struct {
	Path   string
	Lines  int
	Bytes  int64
	Binary bool
}
