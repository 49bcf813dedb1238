// Package pkg provides the libraries behind the svgsprite command.
//
// # Overview
//
// svgsprite compiles a directory tree of SVG icons into sprite documents:
// one hidden <svg> per directory, holding one <symbol> per icon. Pages embed
// the documents once and reference icons with <use href="#symbol-id"/>.
//
//  1. [svg] - per-icon compilation (view box, inlined styles, scoped ids)
//  2. [sprite] - discovery, grouping, bundle and ES module output
//  3. [pipeline] - options, the cache-aware Runner and run results
//  4. [cache] - compiled fragment caching (file, Redis, null)
//  5. [errors], [observability], [buildinfo] - shared infrastructure
//
// # Architecture
//
//	assets/svg/nav/home.svg
//	         ↓
//	    [sprite] package (discover, group by directory)
//	         ↓
//	    [svg] package (optimize, transform, inline styles, rewrite ids)
//	         ↓
//	    [sprite] package (assemble bundle, write nav.svg)
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "assets/svg",
//	    Output: "assets/sprite/gen",
//	})
//	if err != nil {
//	    return err
//	}
//	for _, name := range result.Names() {
//	    fmt.Println(name, result.Bundles[name].Symbols)
//	}
package pkg
