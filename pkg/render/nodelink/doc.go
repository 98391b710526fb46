// Package nodelink renders mind maps as node-link diagrams.
//
// # Overview
//
// Every node becomes a rounded box and every branch an edge. Hierarchical
// branches are drawn solid; associative, dependency, sequence, conflict and
// reference branches use their own color, dash pattern and arrowhead, so a
// diagram shows both the outline and the cross-links between ideas.
//
// # Usage
//
// Convert a snapshot to DOT, then render it:
//
//	dot := nodelink.ToDOT(doc, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := nodelink.RenderPNG(dot)
//
// [Exporter] wraps the same steps behind the engine's export interface.
//
// # Options
//
//   - Detailed: labels include tags and task progress
//   - Pinned: nodes are fixed at their stored positions (neato layout)
//     instead of being placed by Graphviz
//
// # Dependencies
//
// Rendering runs in-process through [github.com/goccy/go-graphviz]; no
// Graphviz installation is needed.
package nodelink
