package graph

import (
	"math"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
)

// =============================================================================
// Network Builder
// =============================================================================

// Build converts ordered participant balances into a settlement network.
//
// Roles follow the sign of the balance:
//   - balance < 0: debtor. Fed by the source on its own edge with capacity
//     |balance|; the node itself is unbounded.
//   - balance > 0: creditor. Node capacity equals the balance; the sink is
//     its first child.
//   - balance == 0: settled. Unbounded, joins the mesh only.
//
// Every ordered pair of distinct participants is joined by an unbounded mesh
// edge, in input order. The resulting node list is the participants in input
// order followed by the source and the sink.
//
// Errors:
//   - NO_DEBTORS when no balance is negative (checked first)
//   - NO_CREDITORS when no balance is positive
//   - UNBALANCED when the balances do not sum to zero
//
// Names are used as given. Uniqueness and case folding are the caller's job.
func Build(balances []domain.Balance) (*domain.Network, error) {
	participants := make([]*domain.Node, 0, len(balances))
	var debtors, creditors []*domain.Node

	for _, b := range balances {
		role := domain.RoleForBalance(b.Amount)
		capacity := domain.Infinity
		if role == domain.RoleCreditor {
			capacity = b.Amount
		}

		node := domain.NewNode(b.Name, role, b.Amount, capacity)
		participants = append(participants, node)

		switch role {
		case domain.RoleDebtor:
			debtors = append(debtors, node)
		case domain.RoleCreditor:
			creditors = append(creditors, node)
		}
	}

	if len(debtors) == 0 {
		return nil, apperror.New(apperror.CodeNoDebtors, apperror.MsgNoDebtors).
			WithDetails("participants", len(balances))
	}
	if len(creditors) == 0 {
		return nil, apperror.New(apperror.CodeNoCreditors, apperror.MsgNoCreditors).
			WithDetails("participants", len(balances))
	}

	if sum, scale := balanceSum(balances); math.Abs(sum) > balanceTolerance*math.Max(1, scale) {
		return nil, apperror.Newf(apperror.CodeUnbalanced,
			"balances do not sum to zero (off by %.6f), check the amounts", sum).
			WithDetails("sum", sum)
	}

	source := domain.NewNode(domain.SourceName, domain.RoleSource, 0, domain.Infinity)
	sink := domain.NewNode(domain.SinkName, domain.RoleSink, 0, domain.Infinity)

	// Sink goes first so BFS reaches it before any mesh peer
	for _, c := range creditors {
		c.AddChild(sink)
	}

	connectMesh(participants)

	net := domain.NewNetwork()
	for _, p := range participants {
		net.AddNode(p)
	}
	net.AddNode(source)
	net.AddNode(sink)

	for _, d := range debtors {
		net.AddSourceEdge(d, math.Abs(d.Balance))
	}

	return net, nil
}

// balanceTolerance is the relative slack allowed on the balance sum.
const balanceTolerance = 1e-6

// balanceSum returns the sum of balances and the sum of their magnitudes.
func balanceSum(balances []domain.Balance) (sum, scale float64) {
	for _, b := range balances {
		sum += b.Amount
		scale += math.Abs(b.Amount)
	}
	return sum, scale
}

// connectMesh links every ordered pair of distinct nodes.
func connectMesh(nodes []*domain.Node) {
	for _, from := range nodes {
		for _, to := range nodes {
			if from != to {
				from.AddChild(to)
			}
		}
	}
}
