package layout

import (
	"math"

	"github.com/matzehuels/mindweave/pkg/mindmap"
)

const (
	organicPasses = 50

	// minDistance keeps repulsion finite for coincident nodes.
	minDistance = 0.1
	springK     = 0.05
)

// relax runs passes force-directed steps starting from seed. The root stays
// pinned so the drawing does not drift off the canvas.
func relax(t *indexed, seed Positions, passes int, cfg Config) Positions {
	n := len(t.order)
	xs := make([]float64, n)
	ys := make([]float64, n)
	at := make(map[string]int, n)
	for i, id := range t.order {
		xs[i], ys[i] = seed[id].X, seed[id].Y
		at[id] = i
	}
	type edge struct{ a, b int }
	edges := make([]edge, 0, n-1)
	for _, id := range t.order[1:] {
		edges = append(edges, edge{at[t.parent[id]], at[id]})
	}

	repulsion := cfg.LevelSpacing * cfg.LevelSpacing
	rest := cfg.LevelSpacing
	maxStep := cfg.LevelSpacing / 2
	dx := make([]float64, n)
	dy := make([]float64, n)

	for iter := 0; iter < passes; iter++ {
		clear(dx)
		clear(dy)

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				vx, vy := xs[i]-xs[j], ys[i]-ys[j]
				d := math.Hypot(vx, vy)
				if d < minDistance {
					// Coincident: push i right and j left.
					vx, vy, d = minDistance, 0, minDistance
				}
				f := repulsion / (d * d)
				fx, fy := f*vx/d, f*vy/d
				dx[i] += fx
				dy[i] += fy
				dx[j] -= fx
				dy[j] -= fy
			}
		}

		for _, e := range edges {
			vx, vy := xs[e.b]-xs[e.a], ys[e.b]-ys[e.a]
			d := max(math.Hypot(vx, vy), minDistance)
			f := springK * (d - rest)
			fx, fy := f*vx/d, f*vy/d
			dx[e.a] += fx
			dy[e.a] += fy
			dx[e.b] -= fx
			dy[e.b] -= fy
		}

		damping := 1 - float64(iter)/float64(passes)
		for i := 1; i < n; i++ {
			mx, my := dx[i]*damping, dy[i]*damping
			if m := math.Hypot(mx, my); m > maxStep {
				mx, my = mx*maxStep/m, my*maxStep/m
			}
			xs[i] += mx
			ys[i] += my
		}
	}

	pos := make(Positions, n)
	for i, id := range t.order {
		pos[id] = mindmap.Position{X: xs[i], Y: ys[i]}
	}
	return pos
}
