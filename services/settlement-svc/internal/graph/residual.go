package graph

import (
	"splitit/pkg/domain"
)

// Epsilon is the tolerance for "positive residual" checks.
const Epsilon = domain.Epsilon

// Infinity is the capacity of unbounded nodes.
const Infinity = domain.Infinity

// EdgeResidual returns the residual capacity of the edge from -> to.
//
// For edges leaving the source the per-debtor source edge is used.
// For every other edge the residual is the residual of the receiving node.
// The boolean is false when from is the source and to has no source edge.
func EdgeResidual(net *domain.Network, from, to *domain.Node) (float64, bool) {
	if from.IsSource() {
		edge, ok := net.SourceEdge(to)
		if !ok {
			return 0, false
		}
		return edge.Residual(), true
	}
	return to.ResidualCapacity(), true
}

// EdgeCapacity returns the capacity shown on the edge from -> to.
//
// Edges leaving the source carry the debtor's source edge capacity.
// Every other edge carries the capacity of the sending node.
func EdgeCapacity(net *domain.Network, from, to *domain.Node) float64 {
	if from.IsSource() {
		if edge, ok := net.SourceEdge(to); ok {
			return edge.Capacity
		}
		return 0
	}
	return from.Capacity
}
