package sprite

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// Ext is the file suffix of icon sources. Matching is case-sensitive.
	Ext = ".svg"

	// Separator joins flattened directory segments in bundle names and
	// symbol ids.
	Separator = "-"
)

// Icon is one discovered source file.
type Icon struct {
	// Path is the file path as found on disk (input root joined with RelPath).
	Path string `json:"path"`

	// RelPath is the slash-separated path relative to the input root.
	RelPath string `json:"rel_path"`

	// Dir is the slash-separated containing directory relative to the
	// input root, or "" for icons directly under it.
	Dir string `json:"dir,omitempty"`

	// Name is the file's base name without Ext.
	Name string `json:"name"`

	// Bundle is the name of the bundle the icon belongs to.
	Bundle string `json:"bundle"`

	// SymbolID is the icon's id in the compiled output.
	SymbolID string `json:"symbol_id"`
}

// NewIcon derives an icon's names from its path relative to the input root.
// rel may use either OS or slash separators.
func NewIcon(root, rel, defaultBundle string) Icon {
	rel = filepath.ToSlash(rel)
	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	name := strings.TrimSuffix(path.Base(rel), Ext)

	return Icon{
		Path:     filepath.Join(root, filepath.FromSlash(rel)),
		RelPath:  rel,
		Dir:      dir,
		Name:     name,
		Bundle:   BundleName(dir, defaultBundle),
		SymbolID: SymbolID(dir, name),
	}
}

// BundleName returns the bundle an icon in dir belongs to: defaultBundle for
// the input root, otherwise dir with separators flattened ("a/b" → "a-b").
func BundleName(dir, defaultBundle string) string {
	if dir == "" || dir == "." {
		return defaultBundle
	}
	return flatten(dir)
}

// SymbolID returns the symbol id of the icon name in dir: the name itself at
// the input root, otherwise the flattened dir and name ("a/b", "c" → "a-b-c").
func SymbolID(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return flatten(dir) + Separator + name
}

func flatten(dir string) string {
	return strings.ReplaceAll(filepath.ToSlash(dir), "/", Separator)
}
