package layout

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
)

const eps = 1e-9

// sample is R -> [A, B, C], A -> [D, E].
func sample() Outline {
	return Outline{
		RootID: "R",
		Kids: map[string][]string{
			"R": {"A", "B", "C"},
			"A": {"D", "E"},
		},
	}
}

// wide builds a tree with fan-out k and the given depth.
func wide(k, depth int) Outline {
	o := Outline{RootID: "n", Kids: map[string][]string{}}
	level := []string{"n"}
	for d := 0; d < depth; d++ {
		var next []string
		for _, p := range level {
			for i := 0; i < k; i++ {
				c := p + string(rune('a'+i))
				o.Kids[p] = append(o.Kids[p], c)
				next = append(next, c)
			}
		}
		level = next
	}
	return o
}

func TestApplyDeterministic(t *testing.T) {
	tree := wide(3, 3)
	cfg := DefaultConfig()
	cfg.Iterations = 30
	for _, alg := range Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			first, err := Apply(tree, alg, cfg)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			second, err := Apply(tree.Clone(), alg, cfg)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Error("positions differ between identical runs")
			}
			if len(first) != 40 {
				t.Errorf("positioned %d nodes, want 40", len(first))
			}
			for id, p := range first {
				if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
					t.Errorf("%s has non-finite position %+v", id, p)
				}
			}
		})
	}
}

func TestApplyDoesNotMutateConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSeparation = 30
	before := cfg
	if _, err := Apply(sample(), Organic, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg != before {
		t.Errorf("config changed: %+v", cfg)
	}
}

func TestMindMap(t *testing.T) {
	cfg := DefaultConfig()
	pos, err := Apply(sample(), MindMap, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if pos["R"] != cfg.Center {
		t.Errorf("root at %+v, want center", pos["R"])
	}
	// First half (A, B) to the right, second half (C) to the left.
	for _, id := range []string{"A", "B", "D", "E"} {
		if pos[id].X <= cfg.Center.X {
			t.Errorf("%s at x=%g, want right of center", id, pos[id].X)
		}
	}
	if pos["C"].X >= cfg.Center.X {
		t.Errorf("C at x=%g, want left of center", pos["C"].X)
	}
	if pos["D"].X != pos["A"].X+cfg.LevelSpacing {
		t.Errorf("D.x = %g, want one level right of A", pos["D"].X)
	}
	// A sits at the vertical midpoint of its children.
	if mid := (pos["D"].Y + pos["E"].Y) / 2; math.Abs(mid-pos["A"].Y) > eps {
		t.Errorf("A.y = %g, children midpoint = %g", pos["A"].Y, mid)
	}
	// A's subtree is two slots tall, so B sits 1.5 slots below A.
	if gap := pos["B"].Y - pos["A"].Y; math.Abs(gap-1.5*cfg.SiblingSpacing) > eps {
		t.Errorf("A to B gap = %g, want %g", gap, 1.5*cfg.SiblingSpacing)
	}
}

func TestRadial(t *testing.T) {
	cfg := DefaultConfig()
	pos, err := Apply(sample(), Radial, cfg)
	if err != nil {
		t.Fatal(err)
	}
	depth := map[string]int{"R": 0, "A": 1, "B": 1, "C": 1, "D": 2, "E": 2}
	for id, d := range depth {
		got := pos[id].Distance(cfg.Center)
		if want := float64(d) * cfg.LevelSpacing; math.Abs(got-want) > 1e-6 {
			t.Errorf("%s radius = %g, want %g", id, got, want)
		}
	}
}

func TestTreeRows(t *testing.T) {
	cfg := DefaultConfig()
	pos, err := Apply(sample(), TreeDown, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if pos["A"].Y != pos["C"].Y || pos["D"].Y != pos["E"].Y {
		t.Error("nodes at the same depth should share a row")
	}
	if pos["D"].Y-pos["A"].Y != cfg.LevelSpacing {
		t.Errorf("row gap = %g, want %g", pos["D"].Y-pos["A"].Y, cfg.LevelSpacing)
	}
	if !(pos["A"].X < pos["B"].X && pos["B"].X < pos["C"].X) {
		t.Error("siblings should keep child-list order left to right")
	}
}

func TestForcePinsRoot(t *testing.T) {
	cfg := DefaultConfig()
	for _, alg := range []Algorithm{Force, Organic} {
		pos, err := Apply(sample(), alg, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if alg == Organic && pos["R"] != cfg.Center {
			t.Errorf("%s moved the root to %+v", alg, pos["R"])
		}
		if pos["D"] == pos["E"] {
			t.Errorf("%s left siblings on top of each other", alg)
		}
	}
}

func TestSingleNode(t *testing.T) {
	o := Outline{RootID: "only"}
	for _, alg := range Algorithms {
		pos, err := Apply(o, alg, DefaultConfig())
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		if len(pos) != 1 {
			t.Errorf("%s: %d positions", alg, len(pos))
		}
	}
}

func TestApplyStore(t *testing.T) {
	s, _ := mindmap.New("root")
	a, _ := s.CreateNode("a", "", nil)
	_, _ = s.CreateNode("b", a, nil)
	pos, err := Apply(s, "", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 3 {
		t.Errorf("positions = %d, want 3", len(pos))
	}
}

func TestApplyErrors(t *testing.T) {
	if _, err := Apply(sample(), "spiral", DefaultConfig()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown algorithm error = %v", err)
	}
	cfg := DefaultConfig()
	cfg.LevelSpacing = 0
	if _, err := Apply(sample(), MindMap, cfg); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("bad config error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero sibling spacing", func(c *Config) { c.SiblingSpacing = 0 }, "sibling_spacing"},
		{"negative level spacing", func(c *Config) { c.LevelSpacing = -5 }, "level_spacing"},
		{"zero width", func(c *Config) { c.Width = 0 }, "width"},
		{"negative padding", func(c *Config) { c.Padding = -1 }, "padding"},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }, "iterations"},
		{"negative separation", func(c *Config) { c.MinSeparation = -0.5 }, "min_separation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Validate = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config: %v", err)
	}
}

func TestDefaultApplySeparatesNodes(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MinSeparation <= 0 {
		t.Fatalf("default MinSeparation = %g, want positive", cfg.MinSeparation)
	}
	for _, alg := range Algorithms {
		pos, err := Apply(sample(), alg, cfg)
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		if n := Overlaps(pos, cfg.MinSeparation); n != 0 {
			t.Errorf("%s: %d overlapping pairs", alg, n)
		}
	}

	// A crowded row: the optimize pass runs on the default pipeline.
	row := Outline{RootID: "r", Kids: map[string][]string{}}
	for i := 0; i < 60; i++ {
		row.Kids["r"] = append(row.Kids["r"], fmt.Sprintf("c%02d", i))
	}
	raw := cfg
	raw.MinSeparation = 0
	unopt, err := Apply(row, TreeDown, raw)
	if err != nil {
		t.Fatal(err)
	}
	if Overlaps(unopt, cfg.MinSeparation) == 0 {
		t.Fatal("crowded row has no overlaps to resolve")
	}
	got, err := Apply(row, TreeDown, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if want := Optimize(unopt, cfg.MinSeparation, MaxOptimizeIterations); !reflect.DeepEqual(got, want) {
		t.Error("default Apply did not run the optimize pass")
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", MindMap, false},
		{"Radial", Radial, false},
		{" grid ", Grid, false},
		{"tree", TreeDown, false},
		{"spiral", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestOptimize(t *testing.T) {
	pos := Positions{
		"a":   {X: 0, Y: 0},
		"b":   {X: 0, Y: 0},
		"c":   {X: 10, Y: 0},
		"far": {X: 500, Y: 500},
	}
	out := Optimize(pos, 40, 10)

	if pos["a"] != pos["b"] {
		t.Fatal("Optimize modified its input")
	}
	if out["far"] != pos["far"] {
		t.Errorf("isolated node moved to %+v", out["far"])
	}
	if before, after := Overlaps(pos, 40), Overlaps(out, 40); after >= before {
		t.Errorf("overlaps %d -> %d, want fewer", before, after)
	}
	if !reflect.DeepEqual(out, Optimize(pos, 40, 10)) {
		t.Error("Optimize is not deterministic")
	}
}

func TestOptimizeSinglePair(t *testing.T) {
	pos := Positions{"a": {X: 0, Y: 0}, "b": {X: 0, Y: 0}}
	out := Optimize(pos, 40, 1)
	if d := out["a"].Distance(out["b"]); d < 40-eps {
		t.Errorf("distance = %g, want >= 40", d)
	}
}
