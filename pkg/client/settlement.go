// pkg/client/settlement.go
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
)

// Процедуры settlement API
const (
	serviceName       = "splitit.settlement.v1.SettlementService"
	settleMethod      = "/" + serviceName + "/Settle"
	formatsMethod     = "/" + serviceName + "/Formats"
	listRunsMethod    = "/" + serviceName + "/ListRuns"
	getRunMethod      = "/" + serviceName + "/GetRun"
	errorCodeMetadata = "x-error-code"
	errorFieldMeta    = "x-error-field"
)

// SettlementClient клиент для settlement-svc
type SettlementClient struct {
	conn *grpc.ClientConn
}

// NewSettlementClient создаёт нового клиента
func NewSettlementClient(ctx context.Context, cfg ClientConfig) (*SettlementClient, error) {
	conn, err := NewGRPCClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to settlement service: %w", err)
	}
	return &SettlementClient{conn: conn}, nil
}

// Close закрывает соединение
func (c *SettlementClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SettleResult ответ Settle
type SettleResult struct {
	RunID     string
	TotalPaid float64
	FairShare float64
	MaxFlow   float64
	CacheHit  bool
	Transfers []Transfer
	Summary   string
	// Format и Report заполнены, если отчёт запрашивался.
	// Бинарные отчёты приходят в base64.
	Format string
	Report string
}

// Transfer один перевод
type Transfer struct {
	From   string
	To     string
	Amount float64
	Text   string
}

// Settle считает переводы на сервере. Пустой format без report - только
// переводы, иначе сервер добавит отчёт.
func (c *SettlementClient) Settle(ctx context.Context, payments []domain.Payment, format string, report bool) (*SettleResult, error) {
	list := make([]any, len(payments))
	for i, p := range payments {
		list[i] = map[string]any{"name": p.Name, "paid": p.Paid}
	}
	body := map[string]any{"payments": list}
	if report {
		body["format"] = format
	}

	resp, err := c.call(ctx, settleMethod, body)
	if err != nil {
		return nil, err
	}

	fields := resp.GetFields()
	result := &SettleResult{
		RunID:     fields["run_id"].GetStringValue(),
		TotalPaid: fields["total_paid"].GetNumberValue(),
		FairShare: fields["fair_share"].GetNumberValue(),
		MaxFlow:   fields["max_flow"].GetNumberValue(),
		CacheHit:  fields["cache_hit"].GetBoolValue(),
		Summary:   fields["summary"].GetStringValue(),
		Format:    fields["format"].GetStringValue(),
		Report:    fields["report"].GetStringValue(),
	}
	for _, v := range fields["transfers"].GetListValue().GetValues() {
		t := v.GetStructValue().GetFields()
		result.Transfers = append(result.Transfers, Transfer{
			From:   t["from"].GetStringValue(),
			To:     t["to"].GetStringValue(),
			Amount: t["amount"].GetNumberValue(),
			Text:   t["text"].GetStringValue(),
		})
	}
	return result, nil
}

// Formats возвращает форматы отчёта и формат по умолчанию
func (c *SettlementClient) Formats(ctx context.Context) ([]string, string, error) {
	resp, err := c.call(ctx, formatsMethod, nil)
	if err != nil {
		return nil, "", err
	}

	var formats []string
	for _, v := range resp.GetFields()["formats"].GetListValue().GetValues() {
		formats = append(formats, v.GetStringValue())
	}
	return formats, resp.GetFields()["default"].GetStringValue(), nil
}

// ListRuns возвращает ответ ListRuns как есть
func (c *SettlementClient) ListRuns(ctx context.Context, limit, offset int) (map[string]any, error) {
	resp, err := c.call(ctx, listRunsMethod, map[string]any{"limit": limit, "offset": offset})
	if err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

// GetRun возвращает сохранённый расчёт
func (c *SettlementClient) GetRun(ctx context.Context, id string) (map[string]any, error) {
	resp, err := c.call(ctx, getRunMethod, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

func (c *SettlementClient) call(ctx context.Context, method string, body map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "cannot encode request")
	}

	var trailer metadata.MD
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp, grpc.Trailer(&trailer)); err != nil {
		return nil, fromServer(err, trailer)
	}
	return resp, nil
}

// fromServer восстанавливает код ошибки из трейлеров, если сервер его прислал
func fromServer(err error, trailer metadata.MD) error {
	appErr := apperror.FromGRPC(err)
	if codes := trailer.Get(errorCodeMetadata); len(codes) > 0 {
		appErr.Code = apperror.ErrorCode(codes[0])
	}
	if fields := trailer.Get(errorFieldMeta); len(fields) > 0 {
		appErr.Field = fields[0]
	}
	return appErr
}
