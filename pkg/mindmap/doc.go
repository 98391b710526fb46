// Package mindmap holds the node model and the tree store behind a mind map.
//
// A mind map is a single rooted tree of [Node] values. Each node records its
// parent and an ordered list of children; the [Store] keeps both sides of
// every link consistent and rejects edits that would break the tree, such as
// deleting the root or moving a node beneath one of its own descendants.
//
// # Editing
//
// Structural edits ([Store.CreateNode], [Store.DeleteNode],
// [Store.ReparentNode]) return enough information for the caller to undo
// them: DeleteNode hands back a [Removal] that [Store.Restore] accepts, and
// ReparentNode returns the previous parent. Content edits (text, notes, tags,
// tasks, comments, style) touch a single node and never change topology.
//
// # Traversal
//
// [Store.Walk] visits nodes in pre-order using an explicit stack. Searches
// are exposed as [iter.Seq] values:
//
//	for n := range store.Search("budget") {
//	    fmt.Println(n.ID, n.Text)
//	}
//
// The store is not safe for concurrent use; the engine package wraps it
// behind a mutex.
package mindmap
