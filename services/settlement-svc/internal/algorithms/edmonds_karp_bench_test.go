package algorithms

import (
	"fmt"
	"math/rand"
	"testing"

	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/graph"
)

// generateBalances builds n zero-sum balances from random payments.
func generateBalances(n int, seed int64) []domain.Balance {
	rng := rand.New(rand.NewSource(seed))
	payments := make([]domain.Payment, n)
	for i := range payments {
		payments[i] = domain.Payment{
			Name: fmt.Sprintf("user-%d", i),
			Paid: float64(rng.Intn(10000)) / 100,
		}
	}
	return domain.ComputeBalances(payments)
}

func BenchmarkEdmondsKarp(b *testing.B) {
	for _, n := range []int{10, 50, 100} {
		balances := generateBalances(n, 42)

		b.Run(fmt.Sprintf("participants=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				net, err := graph.Build(balances)
				if err != nil {
					b.Fatal(err)
				}
				b.StartTimer()

				if _, err := EdmondsKarp(net, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEdmondsKarp_WithPaths(b *testing.B) {
	balances := generateBalances(50, 7)
	opts := DefaultSolverOptions().WithReturnPaths(true)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		net, err := graph.Build(balances)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()

		if _, err := EdmondsKarp(net, opts); err != nil {
			b.Fatal(err)
		}
	}
}
