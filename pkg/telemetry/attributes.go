package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сеть
	AttrNetworkNodes = "network.nodes"
	AttrNetworkEdges = "network.edges"
	AttrDebtors      = "network.debtors"
	AttrCreditors    = "network.creditors"

	// Алгоритм
	AttrAlgorithm  = "algorithm.name"
	AttrIterations = "algorithm.iterations"
	AttrMaxFlow    = "algorithm.max_flow"

	// Расчёт
	AttrRunID        = "settlement.run_id"
	AttrParticipants = "settlement.participants"
	AttrTotalPaid    = "settlement.total_paid"
	AttrTransfers    = "settlement.transfers"
	AttrCacheHit     = "settlement.cache_hit"

	// Отчёт
	AttrReportFormat = "report.format"
	AttrReportBytes  = "report.bytes"
)

// NetworkAttributes возвращает атрибуты сети
func NetworkAttributes(nodes, edges, debtors, creditors int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrNetworkNodes, nodes),
		attribute.Int(AttrNetworkEdges, edges),
		attribute.Int(AttrDebtors, debtors),
		attribute.Int(AttrCreditors, creditors),
	}
}

// AlgorithmAttributes возвращает атрибуты алгоритма
func AlgorithmAttributes(name string, iterations int, maxFlow float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, name),
		attribute.Int(AttrIterations, iterations),
		attribute.Float64(AttrMaxFlow, maxFlow),
	}
}

// SettlementAttributes возвращает атрибуты расчёта
func SettlementAttributes(runID string, participants int, totalPaid float64, transfers int, cacheHit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrParticipants, participants),
		attribute.Float64(AttrTotalPaid, totalPaid),
		attribute.Int(AttrTransfers, transfers),
		attribute.Bool(AttrCacheHit, cacheHit),
	}
}

// ReportAttributes возвращает атрибуты отчёта
func ReportAttributes(format string, size int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrReportFormat, format),
		attribute.Int(AttrReportBytes, size),
	}
}
