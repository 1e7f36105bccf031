package algorithms

import (
	"context"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/graph"
)

// =============================================================================
// Edmonds-Karp Algorithm
// =============================================================================
//
// Edmonds-Karp is Ford-Fulkerson with breadth-first search: each iteration
// pushes flow along a shortest augmenting path (by edge count). In the
// settlement network every augmentation saturates either a source edge or a
// creditor, so the number of iterations is at most debtors + creditors.
//
// Time Complexity: O(V × E²) in general, O(P × E) here (P = participants)
// Space Complexity: O(V)
//
// Each iteration:
//  1. BFS from the source with fresh visited/parent state
//  2. Reconstruct the path sink -> source and reverse it
//  3. Bottleneck = minimum residual along the path
//  4. Push the bottleneck: source edge or node flow, plus flow log entries
//  5. Add the bottleneck to the running total
//
// References:
//   - Edmonds, J. & Karp, R.M. (1972). "Theoretical improvements in
//     algorithmic efficiency for network flow problems"
// =============================================================================

// EdmondsKarpResult contains the result of the Edmonds-Karp algorithm.
type EdmondsKarpResult struct {
	// MaxFlow is the total amount moved from debtors to creditors.
	MaxFlow float64

	// Iterations is the number of augmenting paths found.
	Iterations int

	// Paths contains the augmenting paths (if ReturnPaths is enabled).
	Paths []domain.Path

	// Canceled indicates whether the run was stopped via context.
	Canceled bool
}

// EdmondsKarp runs the engine without cancellation.
func EdmondsKarp(net *domain.Network, options *SolverOptions) (*EdmondsKarpResult, error) {
	return EdmondsKarpWithContext(context.Background(), net, options)
}

// EdmondsKarpWithContext runs the engine on net, mutating its flows and flow logs.
//
// Errors:
//   - NIL_INPUT for a nil network
//   - INVALID_SOURCE / INVALID_SINK when the endpoints are not part of the network
//   - ITERATION_LIMIT when augmentations exceed the bound
//   - INVARIANT_VIOLATION when a path or the final flow is inconsistent
//   - TIMEOUT when ctx is done before the run completes
//
// On TIMEOUT and ITERATION_LIMIT the partial result is returned with the error.
func EdmondsKarpWithContext(ctx context.Context, net *domain.Network, options *SolverOptions) (*EdmondsKarpResult, error) {
	opts := options.normalize()

	if net == nil {
		return nil, apperror.New(apperror.CodeNilInput, "network is nil")
	}
	if !net.Contains(net.Source) || !net.Source.IsSource() {
		return nil, apperror.New(apperror.CodeInvalidSource, "source node not found in network")
	}
	if !net.Contains(net.Sink) || !net.Sink.IsSink() {
		return nil, apperror.New(apperror.CodeInvalidSink, "sink node not found in network")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	limit := opts.MaxIterations
	if limit <= 0 {
		limit = net.EdgeCount() + 1
	}

	result := &EdmondsKarpResult{}

	for {
		select {
		case <-ctx.Done():
			result.Canceled = true
			return result, apperror.Wrap(ctx.Err(), apperror.CodeTimeout, "settlement canceled").
				WithDetails("iterations", result.Iterations)
		default:
		}

		// Find shortest augmenting path using BFS
		bfsResult := graph.FindAugmentingPath(net, opts.Epsilon)
		if !bfsResult.Found {
			break
		}

		if result.Iterations >= limit {
			return result, apperror.Newf(apperror.CodeIterationLimit,
				"augmenting paths remain after %d iterations", result.Iterations).
				WithDetails("limit", limit)
		}

		path := graph.ReconstructPath(net, bfsResult)
		if len(path) == 0 {
			return result, apperror.NewCritical(apperror.CodeInvariantViolation,
				"search reached the sink but the parent chain is broken")
		}

		pathFlow, err := graph.FindMinCapacityOnPath(net, path)
		if err != nil {
			return result, err
		}
		if pathFlow <= opts.Epsilon {
			break
		}

		if err := graph.AugmentPath(net, path, pathFlow); err != nil {
			return result, err
		}

		result.MaxFlow += pathFlow
		result.Iterations++

		if opts.ReturnPaths {
			pathCopy := make([]*domain.Node, len(path))
			copy(pathCopy, path)
			result.Paths = append(result.Paths, domain.Path{Nodes: pathCopy, Flow: pathFlow})
		}
	}

	if opts.Verify {
		if err := graph.VerifyFlow(net); err != nil {
			return result, err
		}
	}

	return result, nil
}
