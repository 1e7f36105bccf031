// services/settlement-svc/internal/generator/dot.go
package generator

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"splitit/pkg/domain"
)

// DOTGenerator рисует сеть расчёта в формате Graphviz DOT.
// Рёбра с потоком подписываются "поток/ёмкость" и выделяются цветом.
type DOTGenerator struct {
	BaseGenerator
}

// NewDOTGenerator создаёт новый генератор
func NewDOTGenerator() *DOTGenerator {
	return &DOTGenerator{}
}

// Format возвращает формат генератора
func (g *DOTGenerator) Format() Format {
	return FormatDOT
}

// Generate генерирует DOT-описание графа
func (g *DOTGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("digraph splitit {\n")
	buf.WriteString("\trankdir=LR;\n")
	buf.WriteString(fmt.Sprintf("\tlabel=%s;\n", strconv.Quote(g.GetTitle(data))))
	buf.WriteString("\tnode [shape=ellipse];\n")
	buf.WriteString(fmt.Sprintf("\t%s [shape=box];\n", strconv.Quote(domain.SourceName)))
	buf.WriteString(fmt.Sprintf("\t%s [shape=box];\n", strconv.Quote(domain.SinkName)))

	labels := make(map[[2]string]string, len(data.EdgeLabels))
	for _, l := range data.EdgeLabels {
		labels[[2]string{l.From, l.To}] = l.Label
	}

	// Without the full edge list only the edges that carried flow are drawn
	if len(data.Edges) == 0 {
		for _, l := range data.EdgeLabels {
			writeDOTEdge(&buf, l.From, l.To, l.Label)
		}
	} else {
		for _, e := range data.Edges {
			writeDOTEdge(&buf, e.From, e.To, labels[[2]string{e.From, e.To}])
		}
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeDOTEdge(buf *bytes.Buffer, from, to, label string) {
	if label == "" {
		buf.WriteString(fmt.Sprintf("\t%s -> %s [color=gray];\n", strconv.Quote(from), strconv.Quote(to)))
		return
	}
	buf.WriteString(fmt.Sprintf("\t%s -> %s [label=%s, color=red, fontcolor=red];\n",
		strconv.Quote(from), strconv.Quote(to), strconv.Quote(label)))
}
