package graph

import (
	"splitit/pkg/domain"
)

// BFSResult encapsulates the result of a BFS traversal.
// Imported from domain package for consistency across the codebase.
type BFSResult = domain.BFSResult

// =============================================================================
// Augmenting Path Search
// =============================================================================

// BFS searches for an augmenting path from the network's source to its sink
// using the default Epsilon.
func BFS(net *domain.Network) *BFSResult {
	return FindAugmentingPath(net, Epsilon)
}

// FindAugmentingPath performs breadth-first search over residual capacities.
//
// The visited and parent state is created fresh for every call and never
// stored on the nodes. Children are scanned in adjacency order, so the
// search is deterministic.
//
// For each dequeued node u and each child v:
//   - if v is the sink, the path is complete and the search stops at once;
//   - otherwise v is enqueued when unvisited and residual(u, v) > eps.
//
// Reaching the sink needs no residual check: the only nodes with the sink as
// a child are creditors, and a creditor is enqueued only while its own
// residual is positive.
//
// Time Complexity: O(V + E)
// Space Complexity: O(V)
func FindAugmentingPath(net *domain.Network, eps float64) *BFSResult {
	result := domain.NewBFSResult()
	if net.Source == nil || net.Sink == nil {
		return result
	}

	queue := NewQueue[*domain.Node]()
	queue.Enqueue(net.Source)
	result.Visit(net.Source, nil)

	for !queue.IsEmpty() {
		current, _ := queue.Dequeue()

		for _, child := range current.Children {
			if child == net.Sink {
				result.Visit(child, current)
				result.Found = true
				return result
			}

			if result.Visited[child] {
				continue
			}

			residual, ok := EdgeResidual(net, current, child)
			if !ok || residual <= eps {
				continue
			}

			result.Visit(child, current)
			queue.Enqueue(child)
		}
	}

	return result
}
