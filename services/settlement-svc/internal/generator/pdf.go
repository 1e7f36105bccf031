// services/settlement-svc/internal/generator/pdf.go
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"splitit/pkg/domain"
)

// PDFOptions параметры страницы PDF
type PDFOptions struct {
	MarginTop   float64
	MarginLeft  float64
	MarginRight float64
	FontSize    float64
	PageNumbers bool
}

// DefaultPDFOptions возвращает параметры по умолчанию
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		MarginTop:   15,
		MarginLeft:  15,
		MarginRight: 15,
		FontSize:    9,
		PageNumbers: true,
	}
}

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
	opts PDFOptions
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator(opts PDFOptions) *PDFGenerator {
	def := DefaultPDFOptions()
	if opts.MarginTop <= 0 {
		opts.MarginTop = def.MarginTop
	}
	if opts.MarginLeft <= 0 {
		opts.MarginLeft = def.MarginLeft
	}
	if opts.MarginRight <= 0 {
		opts.MarginRight = def.MarginRight
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	return &PDFGenerator{opts: opts}
}

// Format возвращает формат генератора
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	titleStyle = props.Text{
		Size:  24,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   5,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// maxPDFRows ограничивает длину таблиц в PDF
const maxPDFRows = 40

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	builder := config.NewBuilder().
		WithLeftMargin(g.opts.MarginLeft).
		WithTopMargin(g.opts.MarginTop).
		WithRightMargin(g.opts.MarginRight)
	if g.opts.PageNumbers {
		builder = builder.WithPageNumber()
	}

	m := maroto.New(builder.Build())

	g.addHeader(m, data)
	g.addSummary(m, data)
	g.addTransfersTable(m, data)
	if len(data.Balances) > 0 {
		g.addBalancesTable(m, data)
	}
	g.addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (g *PDFGenerator) cellText() props.Text {
	style := tableCellTextStyle
	style.Size = g.opts.FontSize
	return style
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *ReportData) {
	m.AddRow(15,
		text.NewCol(12, g.GetTitle(data), titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Author: %s", g.GetAuthor(data)), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(data.GeneratedAt)),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	if data.RunID != "" {
		m.AddRow(5,
			text.NewCol(12, fmt.Sprintf("Run: %s", data.RunID), smallStyle),
		)
	}

	m.AddRow(8)
}

func (g *PDFGenerator) addSummary(m core.Maroto, data *ReportData) {
	g.addSection(m, "Summary")
	g.addMetricCards(m, []metricCard{
		{Label: "Total Paid", Value: g.FormatAmount(data, data.TotalPaid)},
		{Label: "Fair Share", Value: g.FormatAmount(data, data.FairShare)},
		{Label: "Total Settled", Value: g.FormatAmount(data, data.MaxFlow), Highlight: true},
		{Label: "Transfers", Value: fmt.Sprintf("%d", len(data.Transfers))},
	})
}

func (g *PDFGenerator) addTransfersTable(m core.Maroto, data *ReportData) {
	g.addSection(m, "Transfers")

	m.AddRow(8,
		text.NewCol(2, "#", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(4, "From", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(4, "To", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Amount", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	cell := g.cellText()
	for i, t := range data.Transfers {
		if i >= maxPDFRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more transfers", len(data.Transfers)-maxPDFRows), smallStyle),
			)
			break
		}
		m.AddRow(6,
			text.NewCol(2, fmt.Sprintf("%d", i+1), cell).WithStyle(tableCellStyle),
			text.NewCol(4, domain.DisplayName(t.From), cell).WithStyle(tableCellStyle),
			text.NewCol(4, domain.DisplayName(t.To), cell).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatAmount(data, t.Amount), cell).WithStyle(tableCellStyle),
		)
	}
}

func (g *PDFGenerator) addBalancesTable(m core.Maroto, data *ReportData) {
	g.addSection(m, "Balances")

	m.AddRow(8,
		text.NewCol(6, "Participant", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Balance", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Status", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	cell := g.cellText()
	for i, b := range data.Balances {
		if i >= maxPDFRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more participants", len(data.Balances)-maxPDFRows), smallStyle),
			)
			break
		}

		statusStyle := cell
		switch domain.RoleForBalance(b.Amount) {
		case domain.RoleDebtor:
			statusStyle.Color = dangerColor
		case domain.RoleCreditor:
			statusStyle.Color = successColor
		}

		m.AddRow(6,
			text.NewCol(6, domain.DisplayName(b.Name), cell).WithStyle(tableCellStyle),
			text.NewCol(3, g.FormatAmount(data, b.Amount), cell).WithStyle(tableCellStyle),
			text.NewCol(3, balanceStatus(b.Amount), statusStyle).WithStyle(tableCellStyle),
		)
	}
}

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 14
		}

		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(20, cols...)
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(5)
}

func (g *PDFGenerator) addFooter(m core.Maroto) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("'Split It' is always here to help! | %s", time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
