// Package layout computes node positions for a mind map.
//
// Layout is a pure function of a tree and a [Config]: [Apply] never touches
// the map it reads from and always returns a fresh position table, so it is
// safe to run concurrently against an immutable [Outline] snapshot.
//
// # Algorithms
//
//   - [MindMap] (default): root in the middle, the first half of its children
//     fanned out to the right and the second half to the left. Subtree
//     heights are estimated bottom-up before anything is placed.
//   - [Radial]: depth d sits on a circle of radius d × LevelSpacing.
//   - [TreeDown]: one horizontal row per depth level.
//   - [Organic]: a radial seed relaxed by 50 force-directed passes.
//   - [Force]: inverse-square repulsion plus springs along parent/child links.
//   - [Circle], [Grid]: parametric placement that ignores the hierarchy.
//
// Every algorithm visits nodes breadth-first over ordered child lists and uses
// no randomness, so the same input always yields the same positions.
//
// # Overlap
//
// [Optimize] nudges apart pairs of nodes closer than a minimum separation.
// Apply runs it after every algorithm when Config.MinSeparation is positive,
// which it is by default.
package layout
