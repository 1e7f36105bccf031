// Package repository хранит историю расчётов.
package repository

import (
	"context"
	"errors"
	"time"

	"splitit/pkg/domain"
)

// ErrRunNotFound расчёт с таким id не найден
var ErrRunNotFound = errors.New("settlement run not found")

// Run сохранённый расчёт
type Run struct {
	ID           string
	PaymentsHash string
	Participants int
	TotalPaid    float64
	FairShare    float64
	MaxFlow      float64
	Iterations   int
	CacheHit     bool
	DurationMs   float64
	Payments     []domain.Payment
	Transfers    []Transfer
	CreatedAt    time.Time
}

// Transfer перевод в порядке отчёта
type Transfer struct {
	From   string
	To     string
	Amount float64
}

// RunSummary строка списка расчётов
type RunSummary struct {
	ID           string
	Participants int
	TotalPaid    float64
	MaxFlow      float64
	Transfers    int
	CacheHit     bool
	CreatedAt    time.Time
}

// ListOptions параметры списка. Сортировка - от новых к старым.
type ListOptions struct {
	Limit  int
	Offset int

	// PaymentsHash оставляет только расчёты с тем же набором платежей
	PaymentsHash string
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Normalize приводит limit и offset к допустимым значениям
func (o *ListOptions) Normalize() *ListOptions {
	out := ListOptions{Limit: defaultListLimit}
	if o != nil {
		out = *o
	}
	if out.Limit <= 0 {
		out.Limit = defaultListLimit
	}
	if out.Limit > maxListLimit {
		out.Limit = maxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return &out
}

// RunRepository хранилище расчётов
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, opts *ListOptions) ([]*RunSummary, int64, error)
	Delete(ctx context.Context, id string) error
}
