package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"splitit/pkg/apperror"
	"splitit/pkg/cache"
	"splitit/pkg/domain"
	"splitit/pkg/logger"
	"splitit/pkg/telemetry"
	"splitit/services/settlement-svc/internal/reporter"
	"splitit/services/settlement-svc/internal/repository"
)

// historySaveTimeout ограничивает запись истории, чтобы медленная база
// не задерживала ответ
const historySaveTimeout = 5 * time.Second

// WithHistory включает запись расчётов в хранилище
func (s *SettlementService) WithHistory(repo repository.RunRepository) *SettlementService {
	s.history = repo
	return s
}

// HistoryEnabled сообщает, подключено ли хранилище истории
func (s *SettlementService) HistoryEnabled() bool {
	return s.history != nil
}

// record сохраняет расчёт. Ошибка записи не влияет на результат.
func (s *SettlementService) record(ctx context.Context, result *SettleResult) {
	if s.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	if err := s.history.Save(ctx, toRun(result)); err != nil {
		telemetry.RecordError(ctx, err)
		logger.WithRunID(result.RunID).Warn("Failed to save settlement history", "error", err)
	}
}

// ListRuns возвращает страницу сохранённых расчётов
func (s *SettlementService) ListRuns(ctx context.Context, opts *repository.ListOptions) ([]*repository.RunSummary, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "SettlementService.ListRuns")
	defer span.End()

	if s.history == nil {
		return nil, 0, errHistoryDisabled()
	}

	runs, total, err := s.history.List(ctx, opts)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, 0, apperror.Wrap(err, apperror.CodeInternal, "failed to list settlement runs")
	}
	return runs, total, nil
}

// GetRun возвращает сохранённый расчёт по id
func (s *SettlementService) GetRun(ctx context.Context, id string) (*repository.Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "SettlementService.GetRun")
	defer span.End()

	if s.history == nil {
		return nil, errHistoryDisabled()
	}
	if err := validateRunID(id); err != nil {
		return nil, err
	}

	run, err := s.history.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return nil, apperror.Newf(apperror.CodeNotFound, "settlement run %s not found", id).
				WithField("id")
		}
		telemetry.SetError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to get settlement run")
	}
	return run, nil
}

// DeleteRun удаляет сохранённый расчёт
func (s *SettlementService) DeleteRun(ctx context.Context, id string) error {
	if s.history == nil {
		return errHistoryDisabled()
	}
	if err := validateRunID(id); err != nil {
		return err
	}

	if err := s.history.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return apperror.Newf(apperror.CodeNotFound, "settlement run %s not found", id).WithField("id")
		}
		return apperror.Wrap(err, apperror.CodeInternal, "failed to delete settlement run")
	}
	return nil
}

// RunTransfers переводит сохранённые переводы в вид отчёта
func RunTransfers(run *repository.Run) []reporter.Transfer {
	out := make([]reporter.Transfer, len(run.Transfers))
	for i, t := range run.Transfers {
		out[i] = reporter.Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return out
}

// validateRunID отсекает id, которые не могут быть ключом settlement_runs
func validateRunID(id string) error {
	if id == "" {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "run id is required", "id")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperror.Newf(apperror.CodeInvalidArgument, "run id %q is not a valid UUID", id).
			WithField("id")
	}
	return nil
}

func errHistoryDisabled() error {
	return apperror.New(apperror.CodeUnimplemented, "settlement history is not enabled")
}

func toRun(r *SettleResult) *repository.Run {
	run := &repository.Run{
		ID:           r.RunID,
		PaymentsHash: cache.PaymentsHash(r.Payments),
		Participants: len(r.Payments),
		TotalPaid:    r.TotalPaid,
		FairShare:    r.FairShare,
		MaxFlow:      r.MaxFlow,
		Iterations:   r.Iterations,
		CacheHit:     r.CacheHit,
		DurationMs:   float64(r.Duration.Microseconds()) / 1000,
		Payments:     append([]domain.Payment(nil), r.Payments...),
		Transfers:    make([]repository.Transfer, len(r.Transfers)),
	}
	for i, t := range r.Transfers {
		run.Transfers[i] = repository.Transfer{From: t.From, To: t.To, Amount: domain.RoundAmount(t.Amount)}
	}
	return run
}
