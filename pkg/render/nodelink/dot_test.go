package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

func testDoc() snapshot.Document {
	return snapshot.Document{
		Version: snapshot.Version,
		RootID:  "root",
		Nodes: map[string]mindmap.Node{
			"root": {ID: "root", Text: "Trip", Children: []string{"a", "b"}},
			"a": {
				ID: "a", Text: "Packing", Parent: "root",
				Tags:     []string{"todo"},
				Tasks:    []mindmap.Task{{ID: "t1", Text: "Socks", Done: true}, {ID: "t2", Text: "Hat"}},
				Style:    mindmap.Style{Color: "#ff0000", Shape: "ellipse"},
				Position: mindmap.Position{X: 10, Y: 20},
			},
			"b": {ID: "b", Text: "Budget", Parent: "root"},
		},
		Branches: map[string]branch.Branch{
			"h1": branch.New("h1", "root", "a", branch.KindHierarchical),
			"h2": branch.New("h2", "root", "b", branch.KindHierarchical),
			"x1": branch.New("x1", "a", "b", branch.KindAssociative),
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testDoc(), Options{})

	wants := []string{
		"rankdir=LR;",
		`"root" [label="Trip", penwidth=2];`,
		`"a" [label="Packing", shape="ellipse", color="#ff0000", fontcolor="#ff0000"];`,
		`"root" -> "a";`,
		`"root" -> "b";`,
		`"a" -> "b" [color="#3b82f6", penwidth=1.5, style=dashed, arrowhead=none, constraint=false];`,
	}
	for _, want := range wants {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Index(dot, `"a" [`) > strings.Index(dot, `"b" [`) {
		t.Error("nodes not in pre-order")
	}
	if ToDOT(testDoc(), Options{}) != dot {
		t.Error("ToDOT is not deterministic")
	}
}

func TestToDOTOptions(t *testing.T) {
	dot := ToDOT(testDoc(), Options{Detailed: true, Pinned: true})
	for _, want := range []string{
		"layout=neato;",
		`label="Packing\n#todo\ntasks: 1/2"`,
		`pos="10.00,-20.00!"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "rankdir") {
		t.Error("pinned diagram should not set rankdir")
	}
}

func TestExporter(t *testing.T) {
	if _, err := NewExporter("pdf", Options{}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("NewExporter(pdf) = %v, want UNSUPPORTED", err)
	}

	x, err := NewExporter(FormatDOT, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if x.Format() != "dot" {
		t.Errorf("Format = %q", x.Format())
	}
	out, err := x.Export(context.Background(), testDoc())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != ToDOT(testDoc(), Options{}) {
		t.Error("DOT export differs from ToDOT")
	}

	detailed, _ := NewExporter(FormatSVG, Options{Detailed: true})
	if detailed.Format() != "svg+detailed" {
		t.Errorf("Format = %q", detailed.Format())
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(testDoc(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("Packing")) {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}
