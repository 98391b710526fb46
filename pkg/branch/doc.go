// Package branch indexes the typed edges of a mind map.
//
// Every parent/child link in the tree has a matching [KindHierarchical]
// branch; the remaining kinds (associative, dependency, sequence, conflict,
// reference) connect nodes anywhere in the map. The [Index] keeps branches in
// insertion order and answers the queries the engine needs: per-node views,
// shortest directed paths ([Index.FindPath]), undirected reachability
// ([Index.ConnectedComponent]) and dangling-endpoint checks
// ([Index.ValidateIntegrity]).
package branch
