// services/settlement-svc/internal/generator/generator.go
package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/reporter"
)

// Format формат отчёта
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatExcel    Format = "excel"
	FormatPDF      Format = "pdf"
	FormatDOT      Format = "dot"
)

// String возвращает имя формата
func (f Format) String() string {
	return string(f)
}

// Extension возвращает расширение файла для формата
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatExcel:
		return ".xlsx"
	case FormatPDF:
		return ".pdf"
	case FormatDOT:
		return ".dot"
	default:
		return ".txt"
	}
}

// ContentType возвращает MIME-тип формата
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatMarkdown:
		return "text/markdown"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "text/plain; charset=utf-8"
	}
}

// IsBinary проверяет, является ли формат бинарным
func (f Format) IsBinary() bool {
	return f == FormatExcel || f == FormatPDF
}

// ParseFormat разбирает имя формата. Пустая строка означает text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText, "txt":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatExcel, "xlsx":
		return FormatExcel, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOT, "graphviz":
		return FormatDOT, nil
	}
	return "", apperror.NewWithField(apperror.CodeInvalidFormat,
		fmt.Sprintf("unknown report format %q", s), "format")
}

// Options параметры оформления отчёта
type Options struct {
	Title    string
	Author   string
	Currency string
	// IncludeNetwork добавляет рёбра сети и подписи потоков
	IncludeNetwork bool
}

// ReportData данные для генерации отчёта
type ReportData struct {
	RunID       string
	GeneratedAt time.Time
	Options     *Options

	TotalPaid  float64
	FairShare  float64
	MaxFlow    float64
	Iterations int
	Duration   time.Duration

	Payments  []domain.Payment
	Balances  []domain.Balance
	Transfers []reporter.Transfer

	// Визуализация сети
	Edges      []reporter.Edge
	EdgeLabels []reporter.EdgeLabel

	Stats *domain.SettlementStatistics
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *ReportData) ([]byte, error)
	Format() Format
}

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct{}

// GetTitle возвращает заголовок отчёта
func (b *BaseGenerator) GetTitle(data *ReportData) string {
	if data.Options != nil && data.Options.Title != "" {
		return data.Options.Title
	}
	return "Split It"
}

// GetAuthor возвращает автора отчёта
func (b *BaseGenerator) GetAuthor(data *ReportData) string {
	if data.Options != nil && data.Options.Author != "" {
		return data.Options.Author
	}
	return "Split It"
}

// GetCurrency возвращает валюту, может быть пустой
func (b *BaseGenerator) GetCurrency(data *ReportData) string {
	if data.Options != nil {
		return data.Options.Currency
	}
	return ""
}

// ShouldIncludeNetwork проверяет, нужно ли выводить рёбра сети
func (b *BaseGenerator) ShouldIncludeNetwork(data *ReportData) bool {
	return data.Options != nil && data.Options.IncludeNetwork
}

// FormatAmount форматирует сумму с двумя знаками и валютой
func (b *BaseGenerator) FormatAmount(data *ReportData, v float64) string {
	if cur := b.GetCurrency(data); cur != "" {
		return fmt.Sprintf("%.2f %s", v, cur)
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatDuration форматирует длительность
func (b *BaseGenerator) FormatDuration(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// FormatTimestamp форматирует время
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04:05")
}

// ColName преобразует индекс колонки в буквенное обозначение (0 -> A, 25 -> Z, 26 -> AA)
func ColName(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// Cell возвращает адрес ячейки
func Cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// CellByIndex возвращает адрес ячейки по индексам
func CellByIndex(colIndex, rowIndex int) string {
	return fmt.Sprintf("%s%d", ColName(colIndex), rowIndex)
}

// =============================================================================
// Registry
// =============================================================================

// Registry реестр генераторов по формату
type Registry struct {
	mu         sync.RWMutex
	generators map[Format]Generator
}

// NewRegistry создаёт реестр со всеми встроенными генераторами
func NewRegistry(pdf PDFOptions) *Registry {
	r := &Registry{generators: make(map[Format]Generator)}
	r.Register(NewTextGenerator())
	r.Register(NewJSONGenerator())
	r.Register(NewCSVGenerator())
	r.Register(NewMarkdownGenerator())
	r.Register(NewExcelGenerator())
	r.Register(NewPDFGenerator(pdf))
	r.Register(NewDOTGenerator())
	return r
}

// Register добавляет или заменяет генератор
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.Format()] = g
}

// Get возвращает генератор для формата
func (r *Registry) Get(format Format) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[format]
	if !ok {
		return nil, apperror.NewWithField(apperror.CodeInvalidFormat,
			fmt.Sprintf("no generator for format %q", format), "format")
	}
	return g, nil
}

// Formats возвращает зарегистрированные форматы в алфавитном порядке
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]Format, 0, len(r.generators))
	for f := range r.generators {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Generate находит генератор и строит отчёт
func (r *Registry) Generate(ctx context.Context, format Format, data *ReportData) ([]byte, error) {
	g, err := r.Get(format)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, apperror.New(apperror.CodeNilInput, "report data is nil")
	}
	return g.Generate(ctx, data)
}
