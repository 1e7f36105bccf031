// services/settlement-svc/internal/generator/csv.go
package generator

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	BaseGenerator
}

// NewCSVGenerator создаёт новый генератор
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() Format {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Generate генерирует CSV отчёт: секция переводов, затем балансов и, по запросу, сети
func (g *CSVGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	g.writeSummary(cw, data)
	g.writeTransfers(cw, data)
	g.writeBalances(cw, data)
	if g.ShouldIncludeNetwork(data) {
		g.writeNetwork(cw, data)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *CSVGenerator) writeSummary(cw *csvWriter, data *ReportData) {
	cw.Write([]string{"# Summary"})
	cw.Write([]string{"Metric", "Value"})
	if data.RunID != "" {
		cw.Write([]string{"Run ID", data.RunID})
	}
	cw.Write([]string{"Total Paid", formatAmount(data.TotalPaid)})
	cw.Write([]string{"Fair Share", formatAmount(data.FairShare)})
	cw.Write([]string{"Total Settled", formatAmount(data.MaxFlow)})
	cw.Write([]string{"Transfers", strconv.Itoa(len(data.Transfers))})
	cw.Write([]string{"Iterations", strconv.Itoa(data.Iterations)})
	if cur := g.GetCurrency(data); cur != "" {
		cw.Write([]string{"Currency", cur})
	}
	cw.Write([]string{})
}

func (g *CSVGenerator) writeTransfers(cw *csvWriter, data *ReportData) {
	cw.Write([]string{"# Transfers"})
	cw.Write([]string{"From", "To", "Amount"})
	for _, t := range data.Transfers {
		cw.Write([]string{t.From, t.To, formatAmount(t.Amount)})
	}
	cw.Write([]string{})
}

func (g *CSVGenerator) writeBalances(cw *csvWriter, data *ReportData) {
	if len(data.Balances) == 0 {
		return
	}
	cw.Write([]string{"# Balances"})
	cw.Write([]string{"Name", "Balance"})
	for _, b := range data.Balances {
		cw.Write([]string{b.Name, formatAmount(b.Amount)})
	}
	cw.Write([]string{})
}

func (g *CSVGenerator) writeNetwork(cw *csvWriter, data *ReportData) {
	cw.Write([]string{"# Network Flows"})
	cw.Write([]string{"From", "To", "Flow", "Label"})
	for _, l := range data.EdgeLabels {
		cw.Write([]string{l.From, l.To, formatAmount(l.Amount), l.Label})
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
