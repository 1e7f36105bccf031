package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"splitit/pkg/apperror"
	"splitit/pkg/cache"
	"splitit/pkg/config"
	"splitit/pkg/domain"
	"splitit/pkg/logger"
	"splitit/pkg/metrics"
	"splitit/pkg/telemetry"
	"splitit/services/settlement-svc/internal/algorithms"
	"splitit/services/settlement-svc/internal/generator"
	"splitit/services/settlement-svc/internal/graph"
	"splitit/services/settlement-svc/internal/reporter"
	"splitit/services/settlement-svc/internal/repository"
)

// Options параметры сервиса расчёта
type Options struct {
	Version         string
	MaxParticipants int
	Epsilon         float64
	Timeout         time.Duration
	ReturnPaths     bool
	CacheTTL        time.Duration
	Report          generator.Options
	PDF             generator.PDFOptions
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Version:         "dev",
		MaxParticipants: 500,
		Epsilon:         domain.Epsilon,
		Timeout:         30 * time.Second,
		Report:          generator.Options{Title: "Split It"},
		PDF:             generator.DefaultPDFOptions(),
	}
}

// OptionsFromConfig собирает параметры из конфигурации приложения
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Version:         cfg.App.Version,
		MaxParticipants: cfg.Settlement.MaxParticipants,
		Epsilon:         cfg.Settlement.Epsilon,
		Timeout:         cfg.Settlement.Timeout,
		ReturnPaths:     cfg.Settlement.ReturnPaths,
		CacheTTL:        cfg.Cache.DefaultTTL,
		Report: generator.Options{
			Title:    cfg.Report.Title,
			Author:   cfg.Report.Author,
			Currency: cfg.Report.Currency,
		},
		PDF: generator.PDFOptions{
			MarginTop:   cfg.Report.PDF.MarginTop,
			MarginLeft:  cfg.Report.PDF.MarginLeft,
			MarginRight: cfg.Report.PDF.MarginRight,
			FontSize:    cfg.Report.PDF.FontSize,
			PageNumbers: cfg.Report.PDF.EnablePageNumbers,
		},
	}
}

// SettleRequest входные данные расчёта: платежи в порядке ввода
type SettleRequest struct {
	Payments []domain.Payment
}

// SettleResult результат расчёта
type SettleResult struct {
	RunID      string
	TotalPaid  float64
	FairShare  float64
	MaxFlow    float64
	Iterations int
	Payments   []domain.Payment
	Balances   []domain.Balance
	Transfers  []reporter.Transfer
	Edges      []reporter.Edge
	EdgeLabels []reporter.EdgeLabel
	Paths      []string
	Stats      *domain.SettlementStatistics
	CacheHit   bool
	Duration   time.Duration
	ComputedAt time.Time
}

// Summary возвращает текстовый отчёт о переводах
func (r *SettleResult) Summary() string {
	return reporter.FormatSummary(r.Transfers, r.MaxFlow)
}

// SettlementService считает переводы для выравнивания балансов
type SettlementService struct {
	opts     Options
	metrics  *metrics.Metrics
	cache    *cache.SettlementCache
	history  repository.RunRepository
	registry *generator.Registry
}

// NewSettlementService создаёт сервис. settlementCache может быть nil.
func NewSettlementService(opts Options, settlementCache *cache.SettlementCache) *SettlementService {
	def := DefaultOptions()
	if opts.MaxParticipants <= 0 {
		opts.MaxParticipants = def.MaxParticipants
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = def.Epsilon
	}
	if opts.Version == "" {
		opts.Version = def.Version
	}

	return &SettlementService{
		opts:     opts,
		metrics:  metrics.Get(),
		cache:    settlementCache,
		registry: generator.NewRegistry(opts.PDF),
	}
}

// Settle валидирует платежи, строит сеть и прогоняет Edmonds-Karp
func (s *SettlementService) Settle(ctx context.Context, req *SettleRequest) (*SettleResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SettlementService.Settle")
	defer span.End()

	if req == nil {
		err := apperror.New(apperror.CodeNilInput, "settle request is nil")
		telemetry.SetError(ctx, err)
		return nil, err
	}

	runID := uuid.NewString()
	log := logger.WithRunID(runID)
	start := time.Now()

	payments, err := s.validate(req.Payments)
	if err != nil {
		telemetry.SetError(ctx, err)
		log.Warn("Invalid payments", "error", err, "participants", len(req.Payments))
		return nil, err
	}

	result := &SettleResult{
		RunID:     runID,
		TotalPaid: domain.TotalPaid(payments),
		FairShare: domain.FairShare(payments),
		Payments:  payments,
		Balances:  domain.ComputeBalances(payments),
	}

	// Пути в кэше не хранятся, поэтому при ReturnPaths считаем заново
	if s.cache != nil && !s.opts.ReturnPaths {
		cached, found, err := s.cache.Get(ctx, payments)
		if err != nil {
			telemetry.RecordError(ctx, err)
			log.Warn("Settlement cache lookup failed", "error", err)
		}
		s.metrics.RecordCacheLookup(found)
		if found {
			fromCached(result, cached)
			result.Duration = time.Since(start)
			telemetry.AddEvent(ctx, "cache_hit", attribute.Float64("max_flow", cached.MaxFlow))
			span.SetAttributes(telemetry.SettlementAttributes(runID, len(payments), result.TotalPaid, len(result.Transfers), true)...)
			log.Info("Settlement served from cache",
				"participants", len(payments),
				"max_flow", result.MaxFlow,
				"transfers", len(result.Transfers),
			)
			s.record(ctx, result)
			return result, nil
		}
	}

	if err := s.solve(ctx, result); err != nil {
		elapsed := time.Since(start)
		s.metrics.RecordSettlement(false, elapsed, 0, 0, 0)
		telemetry.SetError(ctx, err)
		if apperror.IsCritical(err) {
			log.Error("Settlement failed", "error", err, "code", apperror.Code(err))
		} else {
			log.Info("Settlement not possible", "error", err, "code", apperror.Code(err))
		}
		return nil, err
	}

	result.Duration = time.Since(start)
	result.ComputedAt = time.Now()
	s.metrics.RecordSettlement(true, result.Duration, result.MaxFlow, result.Iterations, len(result.Transfers))

	if s.cache != nil {
		if err := s.cache.Set(ctx, payments, toCached(result), s.opts.CacheTTL); err != nil {
			log.Warn("Failed to cache settlement result", "error", err)
		}
	}

	span.SetAttributes(telemetry.SettlementAttributes(runID, len(payments), result.TotalPaid, len(result.Transfers), false)...)
	log.Info("Settlement completed",
		"participants", len(payments),
		"max_flow", result.MaxFlow,
		"iterations", result.Iterations,
		"transfers", len(result.Transfers),
		"duration_ms", result.Duration.Milliseconds(),
	)

	s.record(ctx, result)
	return result, nil
}

// solve строит сеть и заполняет результат потоком
func (s *SettlementService) solve(ctx context.Context, result *SettleResult) error {
	ctx, span := telemetry.StartSpan(ctx, "SettlementService.solve",
		trace.WithAttributes(attribute.String(telemetry.AttrAlgorithm, "edmonds_karp")),
	)
	defer span.End()

	net, err := graph.Build(result.Balances)
	if err != nil {
		return err
	}

	stats := domain.CalculateStatistics(net)
	s.metrics.RecordNetworkSize(net.NodeCount(), net.EdgeCount())
	span.SetAttributes(telemetry.NetworkAttributes(net.NodeCount(), net.EdgeCount(), stats.Debtors, stats.Creditors)...)

	opts := algorithms.DefaultSolverOptions().
		WithTimeout(s.opts.Timeout).
		WithReturnPaths(s.opts.ReturnPaths)
	opts.Epsilon = s.opts.Epsilon

	ek, err := algorithms.EdmondsKarpWithContext(ctx, net, opts)
	if err != nil {
		return err
	}
	span.SetAttributes(telemetry.AlgorithmAttributes("edmonds_karp", ek.Iterations, ek.MaxFlow)...)

	result.MaxFlow = ek.MaxFlow
	result.Iterations = ek.Iterations
	result.Transfers = reporter.Transfers(net)
	result.Edges = reporter.Edges(net)
	result.EdgeLabels = reporter.EdgeLabels(net)
	result.Stats = domain.CalculateStatistics(net)
	for i := range ek.Paths {
		result.Paths = append(result.Paths, ek.Paths[i].String())
	}

	return nil
}

// validate проверяет платежи и возвращает копию с нормализованными именами
func (s *SettlementService) validate(payments []domain.Payment) ([]domain.Payment, error) {
	if len(payments) == 0 {
		return nil, apperror.New(apperror.CodeEmptyInput, "no payments given")
	}

	if len(payments) > s.opts.MaxParticipants {
		return nil, apperror.Newf(apperror.CodeTooManyParticipants,
			"too many participants: %d, limit is %d", len(payments), s.opts.MaxParticipants).
			WithDetails("limit", s.opts.MaxParticipants)
	}

	v := apperror.NewValidationErrors()
	seen := make(map[string]int, len(payments))
	normalized := make([]domain.Payment, len(payments))

	for i, p := range payments {
		name := domain.NormalizeName(p.Name)
		normalized[i] = domain.Payment{Name: name, Paid: p.Paid}

		if name == "" {
			v.Add(apperror.Newf(apperror.CodeInvalidName, "participant #%d has an empty name", i+1).
				WithField("name"))
			continue
		}
		if name == domain.SourceName || name == domain.SinkName {
			v.Add(apperror.Newf(apperror.CodeInvalidName,
				"participant #%d uses the reserved name %q", i+1, name).
				WithField("name"))
			continue
		}

		if first, ok := seen[name]; ok {
			v.Add(apperror.Newf(apperror.CodeDuplicateParticipant,
				"%q appears more than once (entries #%d and #%d)", name, first+1, i+1).
				WithField("name"))
		} else {
			seen[name] = i
		}

		switch {
		case math.IsNaN(p.Paid) || math.IsInf(p.Paid, 0):
			v.Add(apperror.Newf(apperror.CodeInvalidAmount, "%q paid a non-finite amount", name).
				WithField("paid"))
		case p.Paid < 0:
			v.Add(apperror.Newf(apperror.CodeInvalidAmount, "%q paid a negative amount: %.2f", name, p.Paid).
				WithField("paid"))
		}
	}

	if v.HasErrors() {
		err := v.First()
		if len(v.Errors) > 1 {
			err = err.WithDetails("errors", v.ErrorMessages())
		}
		return nil, err
	}

	return normalized, nil
}

// Formats возвращает поддерживаемые форматы отчёта
func (s *SettlementService) Formats() []generator.Format {
	return s.registry.Formats()
}

// Render рендерит результат в указанном формате
func (s *SettlementService) Render(ctx context.Context, result *SettleResult, format string) ([]byte, generator.Format, error) {
	ctx, span := telemetry.StartSpan(ctx, "SettlementService.Render")
	defer span.End()

	if result == nil {
		return nil, "", apperror.New(apperror.CodeNilInput, "settle result is nil")
	}

	f, err := generator.ParseFormat(format)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, "", err
	}

	opts := s.opts.Report
	opts.IncludeNetwork = true

	data := &generator.ReportData{
		RunID:       result.RunID,
		GeneratedAt: time.Now(),
		Options:     &opts,
		TotalPaid:   result.TotalPaid,
		FairShare:   result.FairShare,
		MaxFlow:     result.MaxFlow,
		Iterations:  result.Iterations,
		Duration:    result.Duration,
		Payments:    result.Payments,
		Balances:    result.Balances,
		Transfers:   result.Transfers,
		Edges:       result.Edges,
		EdgeLabels:  result.EdgeLabels,
		Stats:       result.Stats,
	}

	out, err := s.registry.Generate(ctx, f, data)
	s.metrics.RecordReport(f.String(), err == nil)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, f, err
	}

	span.SetAttributes(telemetry.ReportAttributes(f.String(), len(out))...)
	return out, f, nil
}

func toCached(r *SettleResult) *cache.CachedSettlement {
	c := &cache.CachedSettlement{
		MaxFlow:    r.MaxFlow,
		Iterations: r.Iterations,
		Transfers:  make([]cache.CachedTransfer, len(r.Transfers)),
		Edges:      make([]cache.CachedEdge, len(r.Edges)),
		EdgeLabels: make([]cache.CachedEdgeLabel, len(r.EdgeLabels)),
		Stats:      r.Stats,
	}
	for i, t := range r.Transfers {
		c.Transfers[i] = cache.CachedTransfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	for i, e := range r.Edges {
		c.Edges[i] = cache.CachedEdge{From: e.From, To: e.To}
	}
	for i, l := range r.EdgeLabels {
		c.EdgeLabels[i] = cache.CachedEdgeLabel{
			From:     l.From,
			To:       l.To,
			Amount:   l.Amount,
			Capacity: l.Capacity,
			Label:    l.Label,
		}
	}
	return c
}

func fromCached(r *SettleResult, c *cache.CachedSettlement) {
	r.CacheHit = true
	r.MaxFlow = c.MaxFlow
	r.Iterations = c.Iterations
	r.Stats = c.Stats
	r.ComputedAt = c.ComputedAt

	r.Transfers = make([]reporter.Transfer, len(c.Transfers))
	for i, t := range c.Transfers {
		r.Transfers[i] = reporter.Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	r.Edges = make([]reporter.Edge, len(c.Edges))
	for i, e := range c.Edges {
		r.Edges[i] = reporter.Edge{From: e.From, To: e.To}
	}
	r.EdgeLabels = make([]reporter.EdgeLabel, len(c.EdgeLabels))
	for i, l := range c.EdgeLabels {
		r.EdgeLabels[i] = reporter.EdgeLabel{
			From:     l.From,
			To:       l.To,
			Amount:   l.Amount,
			Capacity: l.Capacity,
			Label:    l.Label,
		}
	}
}
