// services/settlement-svc/internal/generator/text.go
package generator

import (
	"context"

	"splitit/services/settlement-svc/internal/reporter"
)

// TextGenerator генератор текстового отчёта
type TextGenerator struct {
	BaseGenerator
}

// NewTextGenerator создаёт новый генератор
func NewTextGenerator() *TextGenerator {
	return &TextGenerator{}
}

// Format возвращает формат генератора
func (g *TextGenerator) Format() Format {
	return FormatText
}

// Generate генерирует текстовый отчёт в том же виде, что печатает CLI
func (g *TextGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	return []byte(reporter.FormatSummary(data.Transfers, data.MaxFlow)), nil
}
