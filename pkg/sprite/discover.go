package sprite

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/svgsprite/pkg/errors"
)

// Discover walks root recursively and returns every regular file ending in
// Ext, in lexical path order. A root that does not exist yields no icons and
// no error. Subdirectories that cannot be read are skipped.
func Discover(root, defaultBundle string) ([]Icon, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat input root %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "input root %s is not a directory", root)
	}

	walkRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		walkRoot = resolved
	}

	var icons []Icon
	err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == walkRoot {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), Ext) {
			return nil
		}
		rel, err := filepath.Rel(walkRoot, p)
		if err != nil {
			return nil
		}
		icons = append(icons, NewIcon(root, rel, defaultBundle))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "walk input root %s", root)
	}

	// WalkDir is lexical per directory; sort the flattened list so order does
	// not depend on how names interleave across directory levels.
	sort.SliceStable(icons, func(i, j int) bool {
		return icons[i].RelPath < icons[j].RelPath
	})
	return icons, nil
}

// Group buckets icons by bundle name. Members keep the order of icons.
func Group(icons []Icon) map[string][]Icon {
	groups := make(map[string][]Icon)
	for _, icon := range icons {
		groups[icon.Bundle] = append(groups[icon.Bundle], icon)
	}
	return groups
}

// Names returns the keys of groups in sorted order.
func Names[V any](groups map[string]V) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// dedupe drops icons whose symbol id was already taken by an earlier icon.
// Flattening maps both "a/b-c.svg" and "a-b/c.svg" to "a-b-c".
func dedupe(icons []Icon) ([]Icon, []Failure) {
	owner := make(map[string]string, len(icons))
	kept := icons[:0:0]
	var failures []Failure
	for _, icon := range icons {
		if first, ok := owner[icon.SymbolID]; ok {
			failures = append(failures, Failure{
				Icon:   icon.RelPath,
				Bundle: icon.Bundle,
				Stage:  StageDiscover,
				Err: errors.New(errors.ErrCodeDuplicateSymbol,
					"symbol id %q already used by %s", icon.SymbolID, first),
			})
			continue
		}
		owner[icon.SymbolID] = icon.RelPath
		kept = append(kept, icon)
	}
	return kept, failures
}
