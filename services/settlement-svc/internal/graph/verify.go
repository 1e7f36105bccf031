package graph

import (
	"math"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
)

// VerifyFlow checks the flow invariants of a network after augmentation:
//   - no residual capacity is negative;
//   - every ordinary node forwards exactly what it receives;
//   - every creditor's flow equals what it sends to the sink.
//
// All violations are collected; the returned error is critical.
func VerifyFlow(net *domain.Network) error {
	verr := apperror.NewValidationErrors()

	inflow := make(map[*domain.Node]float64, len(net.Nodes))
	for _, e := range net.SourceEdges {
		if e.Residual() < -Epsilon {
			verr.Add(apperror.NewCritical(apperror.CodeInvariantViolation, "source edge over capacity").
				WithDetails("debtor", e.Debtor.Name))
		}
		inflow[e.Debtor] += e.Flow
	}

	for _, node := range net.Nodes {
		if node.IsSource() {
			continue
		}
		for _, entry := range node.FlowLog.Entries() {
			inflow[entry.To] += entry.Amount
		}
	}

	for _, node := range net.Nodes {
		if node.Role.IsSynthetic() {
			continue
		}

		if node.ResidualCapacity() < -Epsilon {
			verr.Add(apperror.NewCritical(apperror.CodeInvariantViolation, "node over capacity").
				WithDetails("node", node.Name))
		}

		out := node.FlowLog.Total()
		if !withinTolerance(inflow[node], out) {
			verr.Add(apperror.NewCritical(apperror.CodeInvariantViolation, "flow is not conserved").
				WithDetails("node", node.Name).
				WithDetails("in", inflow[node]).
				WithDetails("out", out))
		}

		if node.Role == domain.RoleCreditor && !withinTolerance(node.Flow, node.FlowLog.Amount(net.Sink)) {
			verr.Add(apperror.NewCritical(apperror.CodeInvariantViolation, "creditor flow does not reach the sink").
				WithDetails("node", node.Name))
		}
	}

	if verr.HasErrors() {
		first := verr.First()
		first.WithDetails("violations", len(verr.Errors))
		return first
	}
	return nil
}

// withinTolerance compares amounts with a tolerance scaled to their size.
func withinTolerance(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= Epsilon*scale*10
}
