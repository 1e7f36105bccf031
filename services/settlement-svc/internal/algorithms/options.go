// Package algorithms provides the max-flow engine that turns a settlement
// network into a set of transfers.
//
// # Thread Safety
//
// The engine mutates the network it is given and is NOT thread-safe. Every
// settlement run builds its own network, so concurrent runs share nothing.
//
// # Determinism
//
// Children are scanned in adjacency order and the queue is FIFO, so the
// same balances always produce the same augmenting paths and transfers.
//
// # Context Support
//
// The engine checks the context between augmentations. A cancelled run
// stops early, reports Canceled and returns a TIMEOUT error.
//
// # Example Usage
//
//	net, err := graph.Build(balances)
//	if err != nil {
//	    return err
//	}
//	result, err := algorithms.EdmondsKarpWithContext(ctx, net, nil)
//	if err != nil {
//	    return err
//	}
//	log.Printf("settled %.2f in %d iterations", result.MaxFlow, result.Iterations)
package algorithms

import (
	"time"

	"splitit/pkg/domain"
)

// =============================================================================
// Solver Options
// =============================================================================

// SolverOptions configures the engine.
//
// A nil *SolverOptions is replaced by DefaultSolverOptions().
//
//	opts := DefaultSolverOptions().
//	    WithTimeout(5 * time.Second).
//	    WithReturnPaths(true)
type SolverOptions struct {
	// Epsilon is the tolerance for floating-point comparisons.
	// Residuals at or below Epsilon count as zero.
	// Default: domain.Epsilon (1e-9)
	Epsilon float64

	// MaxIterations caps the number of augmentations.
	// Zero or negative means the network's edge count plus one.
	// Default: 0
	MaxIterations int

	// Timeout bounds the whole run. Zero relies on the caller's context.
	// Default: 0
	Timeout time.Duration

	// ReturnPaths collects every augmenting path with the flow pushed on it.
	// Default: false
	ReturnPaths bool

	// Verify runs the flow invariant check after the last augmentation.
	// Default: true
	Verify bool
}

// DefaultSolverOptions returns the default options.
func DefaultSolverOptions() *SolverOptions {
	return &SolverOptions{
		Epsilon: domain.Epsilon,
		Verify:  true,
	}
}

// WithTimeout sets Timeout and returns the options.
func (o *SolverOptions) WithTimeout(d time.Duration) *SolverOptions {
	o.Timeout = d
	return o
}

// WithReturnPaths sets ReturnPaths and returns the options.
func (o *SolverOptions) WithReturnPaths(v bool) *SolverOptions {
	o.ReturnPaths = v
	return o
}

// WithMaxIterations sets MaxIterations and returns the options.
func (o *SolverOptions) WithMaxIterations(n int) *SolverOptions {
	o.MaxIterations = n
	return o
}

// normalize fills zero values with defaults.
func (o *SolverOptions) normalize() *SolverOptions {
	if o == nil {
		return DefaultSolverOptions()
	}
	opts := *o
	if opts.Epsilon <= 0 {
		opts.Epsilon = domain.Epsilon
	}
	return &opts
}
