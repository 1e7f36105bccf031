// services/settlement-svc/internal/generator/json.go
package generator

import (
	"context"
	"encoding/json"
	"time"

	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/reporter"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
}

// NewJSONGenerator создаёт новый генератор
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// Format возвращает формат генератора
func (g *JSONGenerator) Format() Format {
	return FormatJSON
}

// JSONReport структура JSON отчёта
type JSONReport struct {
	Metadata   JSONMetadata                 `json:"metadata"`
	Summary    JSONSummary                  `json:"summary"`
	Balances   []domain.Balance             `json:"balances,omitempty"`
	Transfers  []JSONTransfer               `json:"transfers"`
	Network    *JSONNetwork                 `json:"network,omitempty"`
	Statistics *domain.SettlementStatistics `json:"statistics,omitempty"`
}

type JSONMetadata struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	RunID       string `json:"runId,omitempty"`
	GeneratedAt string `json:"generatedAt"`
	Currency    string `json:"currency,omitempty"`
	Version     string `json:"version"`
}

type JSONSummary struct {
	TotalPaid    float64 `json:"totalPaid"`
	FairShare    float64 `json:"fairShare"`
	MaxFlow      float64 `json:"maxFlow"`
	Iterations   int     `json:"iterations"`
	DurationMs   float64 `json:"durationMs"`
	Transfers    int     `json:"transferCount"`
	Participants int     `json:"participantCount"`
}

type JSONTransfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Text   string  `json:"text"`
}

type JSONNetwork struct {
	Edges  []reporter.Edge      `json:"edges"`
	Labels []reporter.EdgeLabel `json:"labels"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	report := JSONReport{
		Metadata: JSONMetadata{
			Title:       g.GetTitle(data),
			Author:      g.GetAuthor(data),
			RunID:       data.RunID,
			GeneratedAt: g.generatedAt(data),
			Currency:    g.GetCurrency(data),
			Version:     "1.0",
		},
		Summary: JSONSummary{
			TotalPaid:    domain.RoundAmount(data.TotalPaid),
			FairShare:    domain.RoundAmount(data.FairShare),
			MaxFlow:      domain.RoundAmount(data.MaxFlow),
			Iterations:   data.Iterations,
			DurationMs:   float64(data.Duration) / float64(time.Millisecond),
			Transfers:    len(data.Transfers),
			Participants: len(data.Balances),
		},
		Balances:   data.Balances,
		Transfers:  make([]JSONTransfer, 0, len(data.Transfers)),
		Statistics: data.Stats,
	}

	for _, t := range data.Transfers {
		report.Transfers = append(report.Transfers, JSONTransfer{
			From:   t.From,
			To:     t.To,
			Amount: domain.RoundAmount(t.Amount),
			Text:   t.String(),
		})
	}

	if g.ShouldIncludeNetwork(data) {
		report.Network = &JSONNetwork{
			Edges:  data.Edges,
			Labels: data.EdgeLabels,
		}
	}

	return json.MarshalIndent(report, "", "  ")
}

func (g *JSONGenerator) generatedAt(data *ReportData) string {
	t := data.GeneratedAt
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}
