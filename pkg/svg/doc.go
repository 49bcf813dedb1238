// Package svg compiles a single icon's markup into a namespace-safe fragment
// that can be merged with other icons into one sprite document.
//
// # Pipeline
//
// Each icon goes through three passes, in this order:
//
//  1. [Transform] drops the root element's sizing and style, computes the
//     effective view box, and keeps only the inner content.
//  2. [ExtractAndInline] resolves simple class rules from embedded <style>
//     blocks onto the elements that use them and removes the blocks, since a
//     style element inside a sprite applies to the whole host document.
//  3. [RewriteIdentifiers] prefixes every referenced id with the symbol id
//     and drops unreferenced ids, so two icons declaring "grad1" cannot
//     collide once merged.
//
// [Pipeline.Process] runs the passes (after an optional [Optimizer]) and
// [Fragment.Symbol] renders the result as a <symbol> element.
//
// # Markup Handling
//
// The passes rewrite markup text with regular expressions instead of building
// a DOM. Icons routinely carry editor namespaces, entities and doctype
// declarations that a strict XML decoder rejects, and untouched markup is
// preserved byte for byte. Only start tags that a pass rewrites are
// re-rendered.
//
// # Example
//
//	frag, err := svg.Process(raw, "nav-home")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(frag.Symbol())
package svg
