// Package sprite groups an icon tree into bundles and compiles each bundle
// into one sprite document.
//
// # Naming
//
// An icon's bundle is its containing directory relative to the input root,
// with path separators flattened to "-". Icons directly under the root go to
// the default bundle ("icons"). The symbol id is the flattened directory plus
// the file name without extension:
//
//	arrow.svg              bundle "icons"        symbol "arrow"
//	nav/home.svg           bundle "nav"          symbol "nav-home"
//	brand/social/x.svg     bundle "brand-social" symbol "brand-social-x"
//
// Symbol ids are unique across the whole output, not just within a bundle.
// When flattening maps two files to the same id, the later one in path order
// is rejected with a DUPLICATE_SYMBOL failure.
//
// # Output
//
// Each bundle is written to <output>/<bundle>.svg as a hidden <svg> holding
// one <symbol> per icon, ready to be inlined into a page and referenced with
// <use href="#nav-home"/>. [WriteModule] additionally emits the documents as
// an ES module for bundlers.
//
// Compilation is deterministic: members are emitted in path order, so an
// unchanged tree produces byte-identical bundles.
package sprite
