package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"splitit/pkg/apperror"
	"splitit/pkg/audit"
	"splitit/pkg/auth"
	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/service"
)

// Процедуры connect API. Сообщения - google.protobuf.Struct, поэтому
// сервис доступен и из JSON клиентов без сгенерированного кода.
const (
	SettlementServiceName = "splitit.settlement.v1.SettlementService"

	SettleProcedure   = "/" + SettlementServiceName + "/Settle"
	FormatsProcedure  = "/" + SettlementServiceName + "/Formats"
	ListRunsProcedure = "/" + SettlementServiceName + "/ListRuns"
	GetRunProcedure   = "/" + SettlementServiceName + "/GetRun"
)

// SettlementHandler обслуживает connect процедуры расчёта
type SettlementHandler struct {
	svc           *service.SettlementService
	defaultFormat string
}

// NewSettlementHandler создаёт handler. defaultFormat используется, когда
// клиент запросил отчёт без явного формата.
func NewSettlementHandler(svc *service.SettlementService, defaultFormat string) *SettlementHandler {
	return &SettlementHandler{
		svc:           svc,
		defaultFormat: defaultFormat,
	}
}

// ProcedureScopes области доступа, нужные процедурам при включённой авторизации
func ProcedureScopes() map[string]string {
	return map[string]string{
		SettleProcedure:   auth.ScopeSettle,
		FormatsProcedure:  auth.ScopeSettle,
		ListRunsProcedure: auth.ScopeHistory,
		GetRunProcedure:   auth.ScopeHistory,
	}
}

// ProcedureActions действия журнала аудита. Всё, кроме Settle, - чтение.
func ProcedureActions() map[string]audit.Action {
	return map[string]audit.Action{
		SettleProcedure: audit.ActionSettle,
	}
}

// Routes возвращает путь и http.Handler для регистрации в mux
func (h *SettlementHandler) Routes(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(SettleProcedure, connect.NewUnaryHandler(SettleProcedure, h.Settle, opts...))
	mux.Handle(FormatsProcedure, connect.NewUnaryHandler(FormatsProcedure, h.Formats, opts...))
	mux.Handle(ListRunsProcedure, connect.NewUnaryHandler(ListRunsProcedure, h.ListRuns, opts...))
	mux.Handle(GetRunProcedure, connect.NewUnaryHandler(GetRunProcedure, h.GetRun, opts...))
	return "/" + SettlementServiceName + "/", mux
}

// Settle считает переводы.
//
// Запрос:  {"payments": [{"name": "john", "paid": 40}, ...], "format": "markdown"}
// Ответ:   {"run_id", "total_paid", "fair_share", "max_flow", "iterations",
// "cache_hit", "transfers": [{"from", "to", "amount", "text"}], "summary",
// "format"?, "report"?}
//
// Бинарные отчёты (excel, pdf) возвращаются в base64.
func (h *SettlementHandler) Settle(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	payments, format, wantReport, err := parseSettleRequest(req.Msg)
	if err != nil {
		return nil, apperror.ToConnect(err)
	}

	result, err := h.svc.Settle(ctx, &service.SettleRequest{Payments: payments})
	if err != nil {
		return nil, apperror.ToConnect(err)
	}

	body := settleResponse(result)

	if wantReport {
		if format == "" {
			format = h.defaultFormat
		}
		out, f, err := h.svc.Render(ctx, result, format)
		if err != nil {
			return nil, apperror.ToConnect(err)
		}
		body["format"] = f.String()
		if f.IsBinary() {
			body["report"] = base64.StdEncoding.EncodeToString(out)
		} else {
			body["report"] = string(out)
		}
	}

	msg, err := structpb.NewStruct(body)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := connect.NewResponse(msg)
	resp.Header().Set("X-Run-Id", result.RunID)
	return resp, nil
}

// Formats возвращает список форматов отчёта
func (h *SettlementHandler) Formats(
	_ context.Context,
	_ *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	formats := h.svc.Formats()
	names := make([]any, len(formats))
	for i, f := range formats {
		names[i] = f.String()
	}

	msg, err := structpb.NewStruct(map[string]any{
		"formats": names,
		"default": h.defaultFormat,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// parseSettleRequest достаёт платежи и параметры отчёта из запроса.
// Наличие поля format (даже пустого) означает, что нужен отчёт.
func parseSettleRequest(msg *structpb.Struct) ([]domain.Payment, string, bool, error) {
	if msg == nil {
		return nil, "", false, apperror.New(apperror.CodeNilInput, "request is empty")
	}

	field, ok := msg.GetFields()["payments"]
	if !ok {
		return nil, "", false, apperror.NewWithField(apperror.CodeEmptyInput, "no payments given", "payments")
	}

	list := field.GetListValue()
	if list == nil {
		return nil, "", false, apperror.NewWithField(apperror.CodeInvalidArgument, "payments must be a list", "payments")
	}

	payments := make([]domain.Payment, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		item := v.GetStructValue()
		if item == nil {
			return nil, "", false, apperror.NewWithField(apperror.CodeInvalidArgument,
				fmt.Sprintf("payments[%d] must be an object", i), "payments")
		}

		name, ok := item.GetFields()["name"].GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, "", false, apperror.NewWithField(apperror.CodeInvalidName,
				fmt.Sprintf("payments[%d].name must be a string", i), "name")
		}

		paid, ok := item.GetFields()["paid"].GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, "", false, apperror.NewWithField(apperror.CodeInvalidAmount,
				fmt.Sprintf("payments[%d].paid must be a number", i), "paid")
		}

		payments = append(payments, domain.Payment{Name: name.StringValue, Paid: paid.NumberValue})
	}

	var format string
	formatField, wantReport := msg.GetFields()["format"]
	if wantReport {
		format = formatField.GetStringValue()
	}

	return payments, format, wantReport, nil
}

func settleResponse(result *service.SettleResult) map[string]any {
	transfers := make([]any, len(result.Transfers))
	for i, t := range result.Transfers {
		transfers[i] = map[string]any{
			"from":   t.From,
			"to":     t.To,
			"amount": domain.RoundAmount(t.Amount),
			"text":   t.String(),
		}
	}

	return map[string]any{
		"run_id":     result.RunID,
		"total_paid": result.TotalPaid,
		"fair_share": result.FairShare,
		"max_flow":   result.MaxFlow,
		"iterations": result.Iterations,
		"cache_hit":  result.CacheHit,
		"transfers":  transfers,
		"summary":    result.Summary(),
	}
}
