package domain

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Математические константы
const (
	Epsilon          = 1e-9
	Infinity         = math.MaxFloat64
	NegativeInfinity = -math.MaxFloat64
)

// Имена синтетических узлов
const (
	SourceName = "source"
	SinkName   = "sink"
)

// Точность денежных сумм в отчётах
const (
	AmountPrecision = 2
	AmountTolerance = 0.005
)

// IsInfinite проверяет, является ли значение бесконечной пропускной способностью
func IsInfinite(v float64) bool {
	return v >= Infinity || math.IsInf(v, 1)
}

// FloatEquals сравнивает два float64 с учётом Epsilon
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// FloatLess проверяет a < b с учётом Epsilon
func FloatLess(a, b float64) bool {
	return a < b-Epsilon
}

// FloatGreater проверяет a > b с учётом Epsilon
func FloatGreater(a, b float64) bool {
	return a > b+Epsilon
}

// IsZero проверяет, равно ли значение нулю
func IsZero(v float64) bool {
	return math.Abs(v) < Epsilon
}

// IsPositive проверяет, положительно ли значение
func IsPositive(v float64) bool {
	return v > Epsilon
}

// Min возвращает минимум двух float64
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max возвращает максимум двух float64
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// RoundAmount округляет сумму до центов
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeName приводит имя участника к каноническому виду
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName возвращает имя с заглавной первой буквой и строчными остальными
func DisplayName(name string) string {
	lower := strings.ToLower(name)
	r, size := utf8.DecodeRuneInString(lower)
	if r == utf8.RuneError {
		return lower
	}
	return string(unicode.ToUpper(r)) + lower[size:]
}
