// Package render exports the live topology as Graphviz DOT and SVG.
//
// # Overview
//
// The renderer projects the reconciled buffer plus the style engine's
// decisions into a DOT document: node colors, link colors, stroke widths,
// dash styles, and labels all come from [style.Engine], so an exported
// image matches what an interactive view would show for the same
// selection.
//
//	eng := style.New(buffer, sel, maxHops, time.Now())
//	dot := render.ToDOT(buffer, eng, render.Options{})
//	svg, err := render.SVG(dot)
//
// # Format Conversion
//
// [SVG] and [PNG] render DOT through the embedded Graphviz engine
// (goccy/go-graphviz); no external binaries are required.
package render
