package graph

import (
	"splitit/pkg/apperror"
	"splitit/pkg/domain"
)

// ReconstructPath восстанавливает путь source -> sink из результата BFS
// Делегирует в pkg/domain
func ReconstructPath(net *domain.Network, result *BFSResult) []*domain.Node {
	if result == nil || !result.Found {
		return nil
	}
	return domain.ReconstructPath(result.Parent, net.Source, net.Sink)
}

// FindMinCapacityOnPath находит bottleneck пути: минимум остаточных
// пропускных способностей узлов. Для source берётся ребро к path[1].
func FindMinCapacityOnPath(net *domain.Network, path []*domain.Node) (float64, error) {
	if err := checkPath(net, path); err != nil {
		return 0, err
	}

	minCapacity := Infinity
	for _, node := range path {
		var residual float64
		if node.IsSource() {
			edge, ok := net.SourceEdge(path[1])
			if !ok {
				return 0, invariantError("path leaves the source through a node without a source edge", path)
			}
			residual = edge.Residual()
		} else {
			residual = node.ResidualCapacity()
		}

		if residual < -Epsilon {
			return 0, invariantError("negative residual capacity on path", path).
				WithDetails("node", node.Name).
				WithDetails("residual", residual)
		}
		minCapacity = domain.Min(minCapacity, residual)
	}

	return minCapacity, nil
}

// AugmentPath проталкивает amount вдоль пути.
// Поток source идёт в ребро к path[1], у sink исходящих записей нет.
// Каждый узел кроме sink записывает amount в FlowLog следующего узла.
func AugmentPath(net *domain.Network, path []*domain.Node, amount float64) error {
	if err := checkPath(net, path); err != nil {
		return err
	}

	for i, node := range path {
		switch {
		case node.IsSink():
			continue
		case node.IsSource():
			edge, ok := net.SourceEdge(path[i+1])
			if !ok {
				return invariantError("path leaves the source through a node without a source edge", path)
			}
			edge.Flow += amount
			if edge.Residual() < -Epsilon {
				return invariantError("source edge flow exceeds capacity", path).
					WithDetails("debtor", edge.Debtor.Name)
			}
		default:
			node.Flow += amount
			if node.ResidualCapacity() < -Epsilon {
				return invariantError("node flow exceeds capacity", path).
					WithDetails("node", node.Name)
			}
		}

		node.FlowLog.Add(path[i+1], amount)
	}

	return nil
}

func checkPath(net *domain.Network, path []*domain.Node) error {
	if len(path) < 2 {
		return invariantError("augmenting path is too short", path)
	}
	if path[0] != net.Source {
		return invariantError("augmenting path does not start at the source", path)
	}
	if path[len(path)-1] != net.Sink {
		return invariantError("augmenting path does not end at the sink", path)
	}
	return nil
}

func invariantError(msg string, path []*domain.Node) *apperror.Error {
	p := domain.Path{Nodes: path}
	return apperror.NewCritical(apperror.CodeInvariantViolation, msg).
		WithDetails("path", p.String())
}
