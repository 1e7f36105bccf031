package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"splitit/pkg/domain"
)

// SettlementCache специализированный кэш для результатов расчёта
type SettlementCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedSettlement кэшированный результат расчёта
type CachedSettlement struct {
	MaxFlow    float64                      `json:"max_flow"`
	Iterations int                          `json:"iterations"`
	Transfers  []CachedTransfer             `json:"transfers"`
	Edges      []CachedEdge                 `json:"edges,omitempty"`
	EdgeLabels []CachedEdgeLabel            `json:"edge_labels,omitempty"`
	Stats      *domain.SettlementStatistics `json:"stats,omitempty"`
	ComputedAt time.Time                    `json:"computed_at"`
}

// CachedTransfer кэшированный перевод
type CachedTransfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// CachedEdge кэшированное ребро сети
type CachedEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CachedEdgeLabel кэшированная подпись ребра
type CachedEdgeLabel struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	Capacity float64 `json:"capacity"`
	Label    string  `json:"label"`
}

// NewSettlementCache создаёт кэш для результатов расчёта
func NewSettlementCache(cache Cache, defaultTTL time.Duration) *SettlementCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SettlementCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get получает кэшированный результат
func (sc *SettlementCache) Get(ctx context.Context, payments []domain.Payment) (*CachedSettlement, bool, error) {
	key := BuildSettlementKey(PaymentsHash(payments))

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSettlement
	if err := json.Unmarshal(data, &result); err != nil {
		// Повреждённый кэш - удаляем, ошибку удаления игнорируем намеренно
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат в кэш
func (sc *SettlementCache) Set(ctx context.Context, payments []domain.Payment, result *CachedSettlement, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	key := BuildSettlementKey(PaymentsHash(payments))

	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// Invalidate удаляет кэш для списка платежей
func (sc *SettlementCache) Invalidate(ctx context.Context, payments []domain.Payment) error {
	return sc.cache.Delete(ctx, BuildSettlementKey(PaymentsHash(payments)))
}

// InvalidateAll удаляет весь кэш результатов расчёта
func (sc *SettlementCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "settle:*")
}
