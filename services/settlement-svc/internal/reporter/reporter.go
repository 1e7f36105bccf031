// Package reporter reads the flow logs of a solved network and turns them
// into transfers, visualisation edges and the printable summary.
//
// Reporting never mutates the network, so every function may be called any
// number of times with identical results.
package reporter

import (
	"fmt"
	"strings"

	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/graph"
)

// Header открывает текстовый отчёт
const Header = "\n'Split It' is always here to help!\n" +
	"The Following are the transfers needed to be done in order to settle up:\n"

// Transfer перевод между двумя участниками
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// String возвращает строку вида "Kate gives 10.00 to John"
func (t Transfer) String() string {
	return fmt.Sprintf("%s gives %.2f to %s",
		domain.DisplayName(t.From), t.Amount, domain.DisplayName(t.To))
}

// Edge ребро сети для визуализации
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EdgeLabel подпись ребра "поток/ёмкость"
type EdgeLabel struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	Capacity float64 `json:"capacity"`
	Label    string  `json:"label"`
}

// Transfers собирает переводы из журналов потока.
// Порядок: порядок узлов сети, затем порядок вставки в журнал.
// Рёбра из source и в sink пропускаются.
func Transfers(net *domain.Network) []Transfer {
	var transfers []Transfer
	for _, node := range net.Nodes {
		if node.IsSource() || node.IsSink() {
			continue
		}
		for _, entry := range node.FlowLog.Entries() {
			if entry.To.IsSink() || entry.To == node {
				continue
			}
			transfers = append(transfers, Transfer{
				From:   node.Name,
				To:     entry.To.Name,
				Amount: entry.Amount,
			})
		}
	}
	return transfers
}

// TotalTransferred возвращает сумму всех переводов
func TotalTransferred(transfers []Transfer) float64 {
	var total float64
	for _, t := range transfers {
		total += t.Amount
	}
	return total
}

// Edges возвращает все рёбра сети, кроме исходящих из sink
func Edges(net *domain.Network) []Edge {
	edges := make([]Edge, 0, net.EdgeCount())
	for _, node := range net.Nodes {
		if node.IsSink() {
			continue
		}
		for _, child := range node.Children {
			edges = append(edges, Edge{From: node.Name, To: child.Name})
		}
	}
	return edges
}

// EdgeLabels возвращает подписи для каждого ребра с ненулевым потоком.
// Ёмкость ребра из source берётся из ребра источника, иначе из узла-отправителя.
func EdgeLabels(net *domain.Network) []EdgeLabel {
	var labels []EdgeLabel
	for _, node := range net.Nodes {
		if node.IsSink() {
			continue
		}
		for _, entry := range node.FlowLog.Entries() {
			capacity := graph.EdgeCapacity(net, node, entry.To)
			labels = append(labels, EdgeLabel{
				From:     node.Name,
				To:       entry.To.Name,
				Amount:   entry.Amount,
				Capacity: capacity,
				Label:    FormatLabel(entry.Amount, capacity),
			})
		}
	}
	return labels
}

// FormatLabel форматирует "поток/ёмкость"; бесконечная ёмкость выводится как inf
func FormatLabel(amount, capacity float64) string {
	return fmt.Sprintf("%.2f/%s", amount, formatCapacity(capacity))
}

func formatCapacity(capacity float64) string {
	if domain.IsInfinite(capacity) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", capacity)
}

// Summary возвращает текстовый отчёт: заголовок, переводы и итог
func Summary(net *domain.Network, maxFlow float64) string {
	return FormatSummary(Transfers(net), maxFlow)
}

// FormatSummary форматирует готовый список переводов
func FormatSummary(transfers []Transfer, maxFlow float64) string {
	var sb strings.Builder
	sb.WriteString(Header)
	for _, t := range transfers {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Total amount settled: %.2f\n", maxFlow)
	return sb.String()
}
