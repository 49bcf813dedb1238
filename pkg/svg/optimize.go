package svg

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/matzehuels/svgsprite/pkg/errors"
)

// Optimizer rewrites raw icon markup before it is transformed.
type Optimizer interface {
	Optimize(ctx context.Context, markup string) (string, error)
}

var (
	editorElementRe = regexp.MustCompile(`(?s)<sodipodi:namedview\b[^>]*/>|<sodipodi:namedview\b.*?</sodipodi:namedview\s*>`)
	editorAttrRe    = regexp.MustCompile(`\s(?:inkscape|sodipodi):[\w.-]+\s*=\s*(?:"[^"]*"|'[^']*')`)
	preambleRe      = regexp.MustCompile(`(?s)<\?xml.*?\?>|<!DOCTYPE[^>]*>`)
)

// BasicOptimizer strips what editors leave behind: the XML preamble,
// comments, Inkscape/Sodipodi metadata, and the root element's width,
// height and style. When the root has no viewBox, one is synthesized from
// its width and height first so stripping sizing never loses the
// coordinate system.
type BasicOptimizer struct{}

// Optimize implements Optimizer.
func (BasicOptimizer) Optimize(_ context.Context, markup string) (string, error) {
	markup = preambleRe.ReplaceAllString(markup, "")
	markup = markupCommentRe.ReplaceAllString(markup, "")
	markup = editorElementRe.ReplaceAllString(markup, "")
	markup = editorAttrRe.ReplaceAllString(markup, "")

	loc := rootOpenRe.FindStringSubmatchIndex(markup)
	if loc == nil {
		return strings.TrimSpace(markup), nil
	}
	root := tag{
		name:        "svg",
		attrs:       parseAttrs(markup[loc[2]:loc[3]]),
		selfClosing: loc[4] < loc[5],
	}
	if _, ok := root.get("viewBox"); !ok {
		if vb := inferViewBox(&root); vb != DefaultViewBox {
			root.set("viewBox", vb)
		}
	}
	root.remove("width")
	root.remove("height")
	root.remove("style")

	return strings.TrimSpace(markup[:loc[0]] + root.String() + markup[loc[1]:]), nil
}

// CommandOptimizer pipes markup through an external program (for example
// svgo with "-i - -o -") and uses its standard output.
type CommandOptimizer struct {
	Path string
	Args []string
}

// NewCommandOptimizer builds a CommandOptimizer from an argv slice.
func NewCommandOptimizer(argv []string) (*CommandOptimizer, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "optimizer command is empty")
	}
	return &CommandOptimizer{Path: argv[0], Args: argv[1:]}, nil
}

// Optimize implements Optimizer.
func (o *CommandOptimizer) Optimize(ctx context.Context, markup string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.Path, o.Args...)
	cmd.Stdin = strings.NewReader(markup)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.Wrap(errors.ErrCodeOptimizerFailed, err, "%s: %s", o.Path, msg)
		}
		return "", errors.Wrap(errors.ErrCodeOptimizerFailed, err, "%s", o.Path)
	}
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", errors.New(errors.ErrCodeOptimizerFailed, "%s produced no output", o.Path)
	}
	return out, nil
}
