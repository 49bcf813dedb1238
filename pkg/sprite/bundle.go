package sprite

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/svg"
)

const (
	bundleOpen  = `<svg xmlns="http://www.w3.org/2000/svg" style="display: none;">`
	bundleClose = `</svg>`
)

// RenderBundle joins fragments into one hidden sprite document, one symbol
// per line, in the given order.
func RenderBundle(frags []svg.Fragment) string {
	var b strings.Builder
	b.WriteString(bundleOpen)
	b.WriteByte('\n')
	for i, f := range frags {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Symbol())
	}
	b.WriteByte('\n')
	b.WriteString(bundleClose)
	return b.String()
}

// BundlePath returns where the bundle name is written under dir.
func BundlePath(dir, name string) string {
	return filepath.Join(dir, name+Ext)
}

// WriteBundle writes content to dir/<name>.svg, creating dir if needed, and
// returns the file path.
func WriteBundle(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create output directory %s", dir)
	}
	path := BundlePath(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "write bundle %s", name)
	}
	return path, nil
}
