package handlers

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"splitit/pkg/apperror"
	"splitit/services/settlement-svc/internal/reporter"
	"splitit/services/settlement-svc/internal/repository"
	"splitit/services/settlement-svc/internal/service"
)

// ListRuns возвращает страницу сохранённых расчётов.
//
// Запрос:  {"limit": 20, "offset": 0, "payments_hash": "..."}
// Ответ:   {"total", "runs": [{"id", "participants", "total_paid",
// "max_flow", "transfers", "cache_hit", "created_at"}]}
func (h *SettlementHandler) ListRuns(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	opts := &repository.ListOptions{
		Limit:        int(fields["limit"].GetNumberValue()),
		Offset:       int(fields["offset"].GetNumberValue()),
		PaymentsHash: fields["payments_hash"].GetStringValue(),
	}

	runs, total, err := h.svc.ListRuns(ctx, opts)
	if err != nil {
		return nil, apperror.ToConnect(err)
	}

	items := make([]any, len(runs))
	for i, r := range runs {
		items[i] = map[string]any{
			"id":           r.ID,
			"participants": r.Participants,
			"total_paid":   r.TotalPaid,
			"max_flow":     r.MaxFlow,
			"transfers":    r.Transfers,
			"cache_hit":    r.CacheHit,
			"created_at":   r.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	msg, err := structpb.NewStruct(map[string]any{
		"total": total,
		"runs":  items,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// GetRun возвращает сохранённый расчёт.
//
// Запрос:  {"id": "..."}
// Ответ:   {"id", "created_at", "total_paid", "fair_share", "max_flow",
// "iterations", "cache_hit", "payments", "transfers", "summary"}
func (h *SettlementHandler) GetRun(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	id := req.Msg.GetFields()["id"].GetStringValue()

	run, err := h.svc.GetRun(ctx, id)
	if err != nil {
		return nil, apperror.ToConnect(err)
	}

	payments := make([]any, len(run.Payments))
	for i, p := range run.Payments {
		payments[i] = map[string]any{"name": p.Name, "paid": p.Paid}
	}

	transfers := service.RunTransfers(run)
	items := make([]any, len(transfers))
	for i, t := range transfers {
		items[i] = map[string]any{
			"from":   t.From,
			"to":     t.To,
			"amount": t.Amount,
			"text":   t.String(),
		}
	}

	msg, err := structpb.NewStruct(map[string]any{
		"id":         run.ID,
		"created_at": run.CreatedAt.UTC().Format(time.RFC3339),
		"total_paid": run.TotalPaid,
		"fair_share": run.FairShare,
		"max_flow":   run.MaxFlow,
		"iterations": run.Iterations,
		"cache_hit":  run.CacheHit,
		"payments":   payments,
		"transfers":  items,
		"summary":    reporter.FormatSummary(transfers, run.MaxFlow),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}
