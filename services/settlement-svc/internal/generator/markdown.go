// services/settlement-svc/internal/generator/markdown.go
package generator

import (
	"bytes"
	"context"
	"fmt"

	"splitit/pkg/domain"
)

// MarkdownGenerator генератор Markdown отчётов
type MarkdownGenerator struct {
	BaseGenerator
}

// NewMarkdownGenerator создаёт новый генератор
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Format возвращает формат генератора
func (g *MarkdownGenerator) Format() Format {
	return FormatMarkdown
}

// Generate генерирует Markdown отчёт
func (g *MarkdownGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer

	g.writeHeader(&buf, data)
	g.writeSummary(&buf, data)
	g.writeTransfers(&buf, data)
	g.writeBalances(&buf, data)
	if g.ShouldIncludeNetwork(data) {
		g.writeNetwork(&buf, data)
	}
	g.writeFooter(&buf)

	return buf.Bytes(), nil
}

func (g *MarkdownGenerator) writeHeader(buf *bytes.Buffer, data *ReportData) {
	buf.WriteString(fmt.Sprintf("# %s\n\n", g.GetTitle(data)))

	buf.WriteString("## Report Information\n\n")
	buf.WriteString(fmt.Sprintf("- **Generated:** %s\n", g.FormatTimestamp(data.GeneratedAt)))
	buf.WriteString(fmt.Sprintf("- **Author:** %s\n", g.GetAuthor(data)))
	if data.RunID != "" {
		buf.WriteString(fmt.Sprintf("- **Run ID:** `%s`\n", data.RunID))
	}

	buf.WriteString("\n---\n\n")
}

func (g *MarkdownGenerator) writeSummary(buf *bytes.Buffer, data *ReportData) {
	buf.WriteString("## Summary\n\n")
	buf.WriteString("| Metric | Value |\n")
	buf.WriteString("|--------|-------|\n")
	buf.WriteString(fmt.Sprintf("| Total Paid | %s |\n", g.FormatAmount(data, data.TotalPaid)))
	buf.WriteString(fmt.Sprintf("| Fair Share | %s |\n", g.FormatAmount(data, data.FairShare)))
	buf.WriteString(fmt.Sprintf("| Total Settled | %s |\n", g.FormatAmount(data, data.MaxFlow)))
	buf.WriteString(fmt.Sprintf("| Transfers | %d |\n", len(data.Transfers)))
	buf.WriteString(fmt.Sprintf("| Iterations | %d |\n", data.Iterations))
	if data.Duration > 0 {
		buf.WriteString(fmt.Sprintf("| Computation Time | %s |\n", g.FormatDuration(data.Duration)))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeTransfers(buf *bytes.Buffer, data *ReportData) {
	buf.WriteString("## Transfers\n\n")
	if len(data.Transfers) == 0 {
		buf.WriteString("_Everything is settled up._\n\n")
		return
	}

	buf.WriteString("| # | From | To | Amount |\n")
	buf.WriteString("|---|------|----|--------|\n")
	for i, t := range data.Transfers {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
			i+1, domain.DisplayName(t.From), domain.DisplayName(t.To), g.FormatAmount(data, t.Amount)))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeBalances(buf *bytes.Buffer, data *ReportData) {
	if len(data.Balances) == 0 {
		return
	}

	buf.WriteString("## Balances\n\n")
	buf.WriteString("| Participant | Balance | Status |\n")
	buf.WriteString("|-------------|---------|--------|\n")
	for _, b := range data.Balances {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			domain.DisplayName(b.Name), g.FormatAmount(data, b.Amount), balanceStatus(b.Amount)))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeNetwork(buf *bytes.Buffer, data *ReportData) {
	if len(data.EdgeLabels) == 0 {
		return
	}

	buf.WriteString("## Network Flows\n\n")
	buf.WriteString("| From | To | Flow/Capacity |\n")
	buf.WriteString("|------|----|---------------|\n")
	for _, l := range data.EdgeLabels {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n", l.From, l.To, l.Label))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeFooter(buf *bytes.Buffer) {
	buf.WriteString("---\n\n")
	buf.WriteString("_'Split It' is always here to help!_\n")
}

// balanceStatus описывает баланс участника
func balanceStatus(amount float64) string {
	switch domain.RoleForBalance(amount) {
	case domain.RoleDebtor:
		return "owes"
	case domain.RoleCreditor:
		return "is owed"
	default:
		return "settled"
	}
}
