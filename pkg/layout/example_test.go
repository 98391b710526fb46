package layout_test

import (
	"fmt"

	"github.com/matzehuels/mindweave/pkg/layout"
)

func ExampleApply() {
	tree := layout.Outline{
		RootID: "root",
		Kids:   map[string][]string{"root": {"left", "right"}},
	}
	cfg := layout.DefaultConfig()
	pos, _ := layout.Apply(tree, layout.TreeDown, cfg)

	for _, id := range []string{"root", "left", "right"} {
		fmt.Printf("%s: (%.0f, %.0f)\n", id, pos[id].X, pos[id].Y)
	}
	// Output:
	// root: (800, 40)
	// left: (547, 240)
	// right: (1053, 240)
}
