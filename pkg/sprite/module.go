package sprite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/svgsprite/pkg/errors"
)

// templateEscaper makes text safe inside a JavaScript template literal.
var templateEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"$", `\$`,
)

// moduleTypes declares the exports of a module written by WriteModule.
const moduleTypes = `export declare const spriteContent: Record<string, string>;
export declare const options: Record<string, unknown>;
`

// RenderModule renders bundle documents as an ES module exporting
// spriteContent (bundle name → document) and options (options encoded as
// JSON). Bundles are emitted in sorted name order.
func RenderModule(content map[string]string, options any) (string, error) {
	var b strings.Builder
	b.WriteString("export const spriteContent = {\n")
	for _, name := range Names(content) {
		key, err := json.Marshal(name)
		if err != nil {
			return "", err
		}
		b.WriteString("  ")
		b.Write(key)
		b.WriteString(": `")
		b.WriteString(templateEscaper.Replace(content[name]))
		b.WriteString("`,\n")
	}
	b.WriteString("}\n\n")

	opts, err := json.MarshalIndent(options, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "encode module options")
	}
	b.WriteString("export const options = ")
	b.Write(opts)
	b.WriteByte('\n')
	return b.String(), nil
}

// TypesPath returns the declaration file written next to the module at path
// ("sprite-data.mjs" → "sprite-data.d.ts").
func TypesPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".d.ts"
}

// WriteModule writes the module rendered by RenderModule to path, plus its
// TypeScript declarations at TypesPath(path).
func WriteModule(path string, content map[string]string, options any) error {
	src, err := RenderModule(content, options)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create module directory")
	}
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write module %s", path)
	}
	if err := os.WriteFile(TypesPath(path), []byte(moduleTypes), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write module types")
	}
	return nil
}
