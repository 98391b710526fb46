package layout

import (
	"math"

	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// =============================================================================
// Mind map
// =============================================================================

// mindMap places the root at the center and grows subtrees horizontally:
// the first half of the root's children to the right, the rest to the left.
// Each node is centered against the vertical span of its children.
func mindMap(t *indexed, cfg Config) Positions {
	ext := extents(t, cfg.SiblingSpacing)
	root := t.order[0]
	pos := Positions{root: cfg.Center}

	kids := t.children[root]
	half := (len(kids) + 1) / 2
	stackSide(t, ext, pos, kids[:half], cfg.Center, 1, cfg)
	stackSide(t, ext, pos, kids[half:], cfg.Center, -1, cfg)
	return pos
}

// extents returns the vertical space each subtree needs: a leaf takes one
// sibling slot, an inner node the sum of its children. Computed bottom-up by
// walking the BFS order backwards, so every child is sized before its parent.
func extents(t *indexed, slot float64) map[string]float64 {
	ext := make(map[string]float64, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		id := t.order[i]
		var sum float64
		for _, c := range t.children[id] {
			sum += ext[c]
		}
		ext[id] = max(sum, slot)
	}
	return ext
}

// stackSide lays out a column of sibling subtrees whose parent sits at
// anchor, growing in direction dir (+1 right, -1 left).
func stackSide(t *indexed, ext map[string]float64, pos Positions, kids []string, anchor mindmap.Position, dir float64, cfg Config) {
	type job struct {
		kids   []string
		anchor mindmap.Position
	}
	stack := []job{{kids, anchor}}
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var total float64
		for _, c := range j.kids {
			total += ext[c]
		}
		y := j.anchor.Y - total/2
		x := j.anchor.X + dir*cfg.LevelSpacing
		for _, c := range j.kids {
			p := mindmap.Position{X: x, Y: y + ext[c]/2}
			pos[c] = p
			y += ext[c]
			if len(t.children[c]) > 0 {
				stack = append(stack, job{t.children[c], p})
			}
		}
	}
}

// =============================================================================
// Radial
// =============================================================================

// radial places depth d on a circle of radius d × LevelSpacing, spreading
// each ring evenly by angle starting at twelve o'clock.
func radial(t *indexed, cfg Config) Positions {
	pos := make(Positions, len(t.order))
	for d, ring := range t.byLevel {
		if d == 0 {
			pos[ring[0]] = cfg.Center
			continue
		}
		r := float64(d) * cfg.LevelSpacing
		for i, id := range ring {
			pos[id] = onCircle(cfg.Center, r, i, len(ring))
		}
	}
	return pos
}

func onCircle(c mindmap.Position, r float64, i, n int) mindmap.Position {
	a := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
	return mindmap.Position{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
}

// =============================================================================
// Tree
// =============================================================================

// levels gives every depth its own row and spreads each row evenly across
// the padded canvas width.
func levels(t *indexed, cfg Config) Positions {
	pos := make(Positions, len(t.order))
	usable := cfg.Width - 2*cfg.Padding
	for d, row := range t.byLevel {
		y := cfg.Padding + float64(d)*cfg.LevelSpacing
		step := usable / float64(len(row)+1)
		for i, id := range row {
			pos[id] = mindmap.Position{X: cfg.Padding + float64(i+1)*step, Y: y}
		}
	}
	return pos
}

// =============================================================================
// Circle and grid
// =============================================================================

// circle puts every node on one circle around the center in BFS order.
func circle(t *indexed, cfg Config) Positions {
	pos := make(Positions, len(t.order))
	n := len(t.order)
	if n == 1 {
		pos[t.order[0]] = cfg.Center
		return pos
	}
	r := max(min(cfg.Width, cfg.Height)/2-cfg.Padding, cfg.SiblingSpacing)
	for i, id := range t.order {
		pos[id] = onCircle(cfg.Center, r, i, n)
	}
	return pos
}

// grid fills rows of ceil(sqrt(n)) cells left to right, top to bottom.
func grid(t *indexed, cfg Config) Positions {
	pos := make(Positions, len(t.order))
	cols := int(math.Ceil(math.Sqrt(float64(len(t.order)))))
	for i, id := range t.order {
		pos[id] = mindmap.Position{
			X: cfg.Padding + float64(i%cols)*cfg.LevelSpacing,
			Y: cfg.Padding + float64(i/cols)*cfg.LevelSpacing,
		}
	}
	return pos
}
