package domain

// SettlementStatistics сводная статистика сети после расчёта
type SettlementStatistics struct {
	Participants    int     `json:"participants"`
	Debtors         int     `json:"debtors"`
	Creditors       int     `json:"creditors"`
	Settled         int     `json:"settled"`
	NodeCount       int     `json:"node_count"`
	EdgeCount       int     `json:"edge_count"`
	TotalDebt       float64 `json:"total_debt"`
	TotalCredit     float64 `json:"total_credit"`
	Routed          float64 `json:"routed"`
	Unrouted        float64 `json:"unrouted"`
	SourceSaturated bool    `json:"source_saturated"`
	SinkSaturated   bool    `json:"sink_saturated"`
}

// CalculateStatistics вычисляет статистику сети
func CalculateStatistics(n *Network) *SettlementStatistics {
	stats := &SettlementStatistics{
		NodeCount:       n.NodeCount(),
		EdgeCount:       n.EdgeCount(),
		SourceSaturated: true,
		SinkSaturated:   true,
	}

	for _, node := range n.Nodes {
		switch node.Role {
		case RoleDebtor:
			stats.Debtors++
			stats.TotalDebt += -node.Balance
		case RoleCreditor:
			stats.Creditors++
			stats.TotalCredit += node.Balance
			if IsPositive(node.ResidualCapacity()) {
				stats.SinkSaturated = false
			}
		case RoleSettled:
			stats.Settled++
		}
	}
	stats.Participants = stats.Debtors + stats.Creditors + stats.Settled

	for _, e := range n.SourceEdges {
		stats.Routed += e.Flow
		if !e.IsSaturated() {
			stats.SourceSaturated = false
		}
	}

	stats.Unrouted = stats.TotalDebt - stats.Routed
	if IsZero(stats.Unrouted) {
		stats.Unrouted = 0
	}

	return stats
}

// IsFullySettled проверяет, что весь долг дошёл до кредиторов
func (s *SettlementStatistics) IsFullySettled() bool {
	return s.SourceSaturated && s.SinkSaturated
}
