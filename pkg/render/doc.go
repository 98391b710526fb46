// Package render groups the visual outputs of a mind map.
//
// The [nodelink] subpackage draws a map as a Graphviz node-link diagram and
// implements the engine's Exporter interface for DOT, SVG and PNG output:
//
//	exp, err := nodelink.NewExporter(nodelink.FormatSVG, nodelink.Options{})
//	svg, err := eng.Export(ctx, exp)
//
// [nodelink]: github.com/matzehuels/mindweave/pkg/render/nodelink
package render
