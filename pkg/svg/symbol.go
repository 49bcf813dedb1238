package svg

import (
	"context"
	"strings"
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeAttr escapes s for use inside a quoted attribute value.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// Symbol renders the fragment as a <symbol> element.
func (f Fragment) Symbol() string {
	var b strings.Builder
	b.WriteString(`<symbol id="`)
	b.WriteString(EscapeAttr(f.ID))
	b.WriteString(`" viewBox="`)
	b.WriteString(EscapeAttr(f.ViewBox))
	b.WriteByte('"')
	writeAttrs(&b, f.Attrs)
	b.WriteByte('>')
	b.WriteString(f.Body)
	b.WriteString("</symbol>")
	return b.String()
}

// Process runs the full per-icon pipeline without an optimizer: transform,
// style inlining, then identifier rewriting.
func Process(raw, symbolID string) (Fragment, error) {
	return Pipeline{}.Process(context.Background(), raw, symbolID)
}

// Pipeline is the per-icon compilation pipeline. The zero value is ready to
// use and skips optimization.
type Pipeline struct {
	// Optimizer, when set, rewrites raw markup before it is transformed.
	Optimizer Optimizer
}

// Process compiles one icon's raw markup into a fragment published as
// symbolID.
func (p Pipeline) Process(ctx context.Context, raw, symbolID string) (Fragment, error) {
	if p.Optimizer != nil && strings.TrimSpace(raw) != "" {
		optimized, err := p.Optimizer.Optimize(ctx, raw)
		if err != nil {
			return Fragment{}, err
		}
		raw = optimized
	}

	frag, err := Transform(raw, symbolID)
	if err != nil {
		return Fragment{}, err
	}
	if HasStyleBlock(frag.Body) {
		frag.Body = ExtractAndInline(frag.Body)
	}
	frag.Body = RewriteIdentifiers(frag.Body, symbolID)
	return frag, nil
}
