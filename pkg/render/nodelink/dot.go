package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/mindmap"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds tags and task progress to node labels.
	// When false, only the node text is shown.
	Detailed bool

	// Pinned fixes every node at its stored position and switches the
	// diagram to the neato engine.
	Pinned bool
}

// ToDOT converts a document to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Nodes appear in pre-order from the root and branches in ID order, so the
// same document always yields the same DOT text.
func ToDOT(doc snapshot.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Pinned {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  notranslate=true;\n")
	} else {
		buf.WriteString("  rankdir=LR;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range doc.NodeList() {
		attrs := nodeAttrs(n, n.ID == doc.RootID, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, b := range doc.BranchList() {
		attrs := edgeAttrs(b)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", b.Source, b.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", b.Source, b.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n mindmap.Node, detailed bool) string {
	if !detailed {
		return n.Text
	}
	parts := []string{n.Text}
	if len(n.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(n.Tags, " #"))
	}
	if done, total := n.Progress(); total > 0 {
		parts = append(parts, fmt.Sprintf("tasks: %d/%d", done, total))
	}
	return strings.Join(parts, "\n")
}

func nodeAttrs(n mindmap.Node, root bool, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
	if root {
		attrs = append(attrs, "penwidth=2")
	}
	if s := n.Style; s != (mindmap.Style{}) {
		if s.Shape != "" {
			attrs = append(attrs, fmt.Sprintf("shape=%q", s.Shape))
		}
		if s.Background != "" {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", s.Background))
		}
		if s.Color != "" {
			attrs = append(attrs, fmt.Sprintf("color=%q", s.Color), fmt.Sprintf("fontcolor=%q", s.Color))
		}
		if s.FontFamily != "" {
			attrs = append(attrs, fmt.Sprintf("fontname=%q", s.FontFamily))
		}
		if s.FontSize > 0 {
			attrs = append(attrs, "fontsize="+strconv.FormatFloat(s.FontSize, 'f', -1, 64))
		}
	}
	if opts.Pinned {
		// Graphviz Y grows upward.
		x, y := n.Position.X, -n.Position.Y
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"",
			strconv.FormatFloat(x, 'f', 2, 64), strconv.FormatFloat(y, 'f', 2, 64)))
	}
	return attrs
}

func edgeAttrs(b branch.Branch) []string {
	if b.Kind == branch.KindHierarchical && b.Label == "" {
		return nil
	}
	var attrs []string
	if b.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", b.Label))
	}
	if b.Kind == branch.KindHierarchical {
		return attrs
	}
	s := b.Style
	if s.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", s.Color))
	}
	if s.Width > 0 {
		attrs = append(attrs, "penwidth="+strconv.FormatFloat(s.Width, 'f', -1, 64))
	}
	if s.Dash != "" {
		attrs = append(attrs, "style=dashed")
	}
	if !s.Arrow {
		attrs = append(attrs, "arrowhead=none")
	}
	attrs = append(attrs, "constraint=false")
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := renderDOT(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderDOT(dot, graphviz.PNG)
}

func renderDOT(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
