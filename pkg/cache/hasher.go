package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"splitit/pkg/domain"
)

// PaymentsHash вычисляет хеш списка платежей для использования как ключ кэша.
// Порядок участников входит в хеш: от него зависит порядок переводов.
func PaymentsHash(payments []domain.Payment) string {
	if len(payments) == 0 {
		return ""
	}

	hash := sha256.Sum256(paymentsToCanonical(payments))
	return hex.EncodeToString(hash[:16])
}

// paymentsToCanonical создаёт детерминированное представление платежей.
// Сумма пишется без потери точности: любые различия дают разные ключи.
func paymentsToCanonical(payments []domain.Payment) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("n:%d;", len(payments)))
	for _, p := range payments {
		sb.WriteString("p:")
		sb.WriteString(strconv.Quote(domain.NormalizeName(p.Name)))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(p.Paid, 'g', -1, 64))
		sb.WriteByte(';')
	}
	return []byte(sb.String())
}

// BuildSettlementKey строит ключ кэша для результата расчёта
func BuildSettlementKey(paymentsHash string) string {
	return fmt.Sprintf("settle:%s", paymentsHash)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
