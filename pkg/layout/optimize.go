package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// MaxOptimizeIterations caps the passes Optimize will run.
const MaxOptimizeIterations = 10

// Optimize returns a copy of pos in which pairs of nodes closer than minSep
// have been pushed apart along the line joining them, each moving half the
// shortfall. It runs at most iterations passes (capped at
// MaxOptimizeIterations) and stops early once no pair overlaps. Nodes are
// processed in sorted ID order so the result is deterministic.
func Optimize(pos Positions, minSep float64, iterations int) Positions {
	out := make(Positions, len(pos))
	ids := make([]string, 0, len(pos))
	for id, p := range pos {
		out[id] = p
		ids = append(ids, id)
	}
	if minSep <= 0 {
		return out
	}
	slices.Sort(ids)
	iterations = min(iterations, MaxOptimizeIterations)

	for iter := 0; iter < iterations; iter++ {
		moved := false
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := out[ids[i]], out[ids[j]]
				vx, vy := b.X-a.X, b.Y-a.Y
				d := math.Hypot(vx, vy)
				if d >= minSep {
					continue
				}
				push := (minSep - d) / 2
				ux, uy := 1.0, 0.0
				if d >= minDistance {
					ux, uy = vx/d, vy/d
				}
				out[ids[i]] = mindmap.Position{X: a.X - ux*push, Y: a.Y - uy*push}
				out[ids[j]] = mindmap.Position{X: b.X + ux*push, Y: b.Y + uy*push}
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return out
}

// Overlaps counts pairs of positions closer than minSep.
func Overlaps(pos Positions, minSep float64) int {
	ps := make([]mindmap.Position, 0, len(pos))
	for _, p := range pos {
		ps = append(ps, p)
	}
	n := 0
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			if ps[i].Distance(ps[j]) < minSep {
				n++
			}
		}
	}
	return n
}
