// Package pkg provides the libraries behind mindweave, a collaborative
// mind-map engine.
//
// # Overview
//
// A mind map is a rooted tree of ideas plus typed cross-links between them.
// The packages are layered from the data model up:
//
//  1. [mindmap] - nodes and the tree store (create, delete, reparent, search)
//  2. [branch] - typed links between nodes and the adjacency index
//  3. [collab] - users, locks, the operation log, conflicts and undo/redo
//  4. [layout] - position algorithms (mindmap, radial, tree, force, ...)
//  5. [engine] - the thread-safe facade tying the above together
//  6. [snapshot] - the persisted document format
//  7. [store], [cache] - where documents and computed layouts are kept
//  8. [render/nodelink] - Graphviz DOT, SVG and PNG output
//  9. [server] - the read-only HTTP API
//
// Supporting packages: [config] (TOML settings), [errors] (coded errors),
// [observability] (metrics hooks) and [buildinfo] (version stamping).
//
// # Architecture
//
// Every edit flows through the engine:
//
//	engine.CreateNode / DeleteNode / ReparentNode / ...
//	         ↓
//	    [collab] Session.Admit (locks, conflict window, operation log)
//	         ↓
//	    [mindmap] + [branch] mutation, hierarchy branches resynced
//	         ↓
//	    events to subscribers, metrics hooks
//
// Reads (snapshots, search, paths, layouts, exports) take a read lock and
// work on copies.
//
// # Quick Start
//
//	eng, _ := engine.New("Product launch")
//	press, _ := eng.CreateNode("alice", "Press", "", nil)
//	_, _ = eng.CreateNode("alice", "Venue", "", nil)
//	_ = eng.AddTag("alice", press, "urgent")
//
//	_, _ = eng.Layout(ctx, layout.Radial, layout.DefaultConfig(), false)
//	exp, _ := nodelink.NewExporter(nodelink.FormatSVG, nodelink.Options{Pinned: true})
//	svg, _ := eng.Export(ctx, exp)
//
//	_ = store.NewMemoryStore().Put(ctx, "launch", eng.Snapshot())
//
// [mindmap]: github.com/matzehuels/mindweave/pkg/mindmap
// [branch]: github.com/matzehuels/mindweave/pkg/branch
// [collab]: github.com/matzehuels/mindweave/pkg/collab
// [layout]: github.com/matzehuels/mindweave/pkg/layout
// [engine]: github.com/matzehuels/mindweave/pkg/engine
// [snapshot]: github.com/matzehuels/mindweave/pkg/snapshot
// [store]: github.com/matzehuels/mindweave/pkg/store
// [cache]: github.com/matzehuels/mindweave/pkg/cache
// [render/nodelink]: github.com/matzehuels/mindweave/pkg/render/nodelink
// [server]: github.com/matzehuels/mindweave/pkg/server
// [config]: github.com/matzehuels/mindweave/pkg/config
// [errors]: github.com/matzehuels/mindweave/pkg/errors
// [observability]: github.com/matzehuels/mindweave/pkg/observability
// [buildinfo]: github.com/matzehuels/mindweave/pkg/buildinfo
package pkg
