// services/settlement-svc/internal/generator/excel.go
package generator

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"splitit/pkg/domain"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() Format {
	return FormatExcel
}

// Имена листов
const (
	SheetTransfers = "Transfers"
	SheetBalances  = "Balances"
	SheetNetwork   = "Network"
)

// Generate генерирует Excel отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	g.writeTransfersSheet(f, data, headerStyle, amountStyle)
	g.writeBalancesSheet(f, data, headerStyle, amountStyle)
	if g.ShouldIncludeNetwork(data) {
		g.writeNetworkSheet(f, data, headerStyle, amountStyle)
	}

	// Удаляем дефолтный лист, когда остальные уже созданы
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetTransfers); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeTransfersSheet(f *excelize.File, data *ReportData, headerStyle, amountStyle int) {
	sheet := SheetTransfers
	f.NewSheet(sheet)

	row := 1
	f.SetCellValue(sheet, Cell("A", row), g.GetTitle(data))
	f.MergeCell(sheet, Cell("A", row), Cell("D", row))
	row += 2

	// Сводка
	summary := []struct {
		label string
		value any
	}{
		{"Run ID", data.RunID},
		{"Total Paid", domain.RoundAmount(data.TotalPaid)},
		{"Fair Share", domain.RoundAmount(data.FairShare)},
		{"Total Settled", domain.RoundAmount(data.MaxFlow)},
		{"Iterations", data.Iterations},
	}
	f.SetCellValue(sheet, Cell("A", row), "Summary")
	f.SetCellStyle(sheet, Cell("A", row), Cell("B", row), headerStyle)
	row++
	for _, item := range summary {
		f.SetCellValue(sheet, Cell("A", row), item.label)
		f.SetCellValue(sheet, Cell("B", row), item.value)
		row++
	}
	row++

	headers := []string{"#", "From", "To", "Amount"}
	for i, h := range headers {
		f.SetCellValue(sheet, CellByIndex(i, row), h)
	}
	f.SetCellStyle(sheet, Cell("A", row), Cell("D", row), headerStyle)
	row++

	first := row
	for i, t := range data.Transfers {
		f.SetCellValue(sheet, Cell("A", row), i+1)
		f.SetCellValue(sheet, Cell("B", row), domain.DisplayName(t.From))
		f.SetCellValue(sheet, Cell("C", row), domain.DisplayName(t.To))
		f.SetCellValue(sheet, Cell("D", row), domain.RoundAmount(t.Amount))
		row++
	}
	if row > first {
		f.SetCellStyle(sheet, Cell("D", first), Cell("D", row-1), amountStyle)
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "D", 18)
}

func (g *ExcelGenerator) writeBalancesSheet(f *excelize.File, data *ReportData, headerStyle, amountStyle int) {
	if len(data.Balances) == 0 {
		return
	}

	sheet := SheetBalances
	f.NewSheet(sheet)

	headers := []string{"Participant", "Paid", "Balance", "Status"}
	for i, h := range headers {
		f.SetCellValue(sheet, CellByIndex(i, 1), h)
	}
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)

	paid := make(map[string]float64, len(data.Payments))
	for _, p := range data.Payments {
		paid[p.Name] = p.Paid
	}

	for i, b := range data.Balances {
		row := i + 2
		f.SetCellValue(sheet, Cell("A", row), domain.DisplayName(b.Name))
		f.SetCellValue(sheet, Cell("B", row), paid[b.Name])
		f.SetCellValue(sheet, Cell("C", row), domain.RoundAmount(b.Amount))
		f.SetCellValue(sheet, Cell("D", row), balanceStatus(b.Amount))
	}
	f.SetCellStyle(sheet, "B2", Cell("C", len(data.Balances)+1), amountStyle)
	f.SetColWidth(sheet, "A", "D", 16)
}

func (g *ExcelGenerator) writeNetworkSheet(f *excelize.File, data *ReportData, headerStyle, amountStyle int) {
	sheet := SheetNetwork
	f.NewSheet(sheet)

	headers := []string{"From", "To", "Flow", "Capacity", "Label"}
	for i, h := range headers {
		f.SetCellValue(sheet, CellByIndex(i, 1), h)
	}
	f.SetCellStyle(sheet, "A1", "E1", headerStyle)

	for i, l := range data.EdgeLabels {
		row := i + 2
		f.SetCellValue(sheet, Cell("A", row), l.From)
		f.SetCellValue(sheet, Cell("B", row), l.To)
		f.SetCellValue(sheet, Cell("C", row), l.Amount)
		if domain.IsInfinite(l.Capacity) {
			f.SetCellValue(sheet, Cell("D", row), "inf")
		} else {
			f.SetCellValue(sheet, Cell("D", row), l.Capacity)
		}
		f.SetCellValue(sheet, Cell("E", row), l.Label)
	}
	if len(data.EdgeLabels) > 0 {
		f.SetCellStyle(sheet, "C2", Cell("C", len(data.EdgeLabels)+1), amountStyle)
	}
	f.SetColWidth(sheet, "A", "E", 14)
}
