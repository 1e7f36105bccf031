package domain

// Payment сколько участник заплатил из общего счёта
type Payment struct {
	Name string  `json:"name" yaml:"name"`
	Paid float64 `json:"paid" yaml:"paid"`
}

// TotalPaid возвращает сумму всех платежей
func TotalPaid(payments []Payment) float64 {
	var total float64
	for _, p := range payments {
		total += p.Paid
	}
	return total
}

// FairShare возвращает долю каждого участника
func FairShare(payments []Payment) float64 {
	if len(payments) == 0 {
		return 0
	}
	return TotalPaid(payments) / float64(len(payments))
}

// ComputeBalances переводит платежи в чистые балансы: paid - total/count.
// Порядок участников сохраняется. Значения в пределах Epsilon от нуля
// приводятся к нулю, чтобы такие участники считались рассчитавшимися.
func ComputeBalances(payments []Payment) []Balance {
	share := FairShare(payments)
	balances := make([]Balance, len(payments))
	for i, p := range payments {
		amount := p.Paid - share
		if IsZero(amount) {
			amount = 0
		}
		balances[i] = Balance{Name: p.Name, Amount: amount}
	}
	return balances
}

// SumBalances возвращает сумму балансов. Для корректного ввода близка к нулю.
func SumBalances(balances []Balance) float64 {
	var total float64
	for _, b := range balances {
		total += b.Amount
	}
	return total
}
