package algorithms

import (
	"context"
	"testing"
	"time"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, pairs ...any) *domain.Network {
	t.Helper()
	input := make([]domain.Balance, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		input = append(input, domain.Balance{Name: pairs[i].(string), Amount: pairs[i+1].(float64)})
	}
	net, err := graph.Build(input)
	require.NoError(t, err)
	return net
}

func node(t *testing.T, net *domain.Network, name string) *domain.Node {
	t.Helper()
	n, ok := net.Lookup(name)
	require.True(t, ok, "participant %s", name)
	return n
}

func TestEdmondsKarp_OneCreditorTwoDebtors(t *testing.T) {
	net := build(t, "a", 20.0, "b", -10.0, "c", -10.0)

	result, err := EdmondsKarp(net, DefaultSolverOptions().WithReturnPaths(true))
	require.NoError(t, err)

	assert.InDelta(t, 20, result.MaxFlow, 1e-9)
	assert.Equal(t, 2, result.Iterations)
	assert.False(t, result.Canceled)

	require.Len(t, result.Paths, 2)
	assert.Equal(t, "source -> b -> a -> sink", result.Paths[0].String())
	assert.InDelta(t, 10, result.Paths[0].Flow, 1e-9)
	assert.Equal(t, "source -> c -> a -> sink", result.Paths[1].String())
	assert.InDelta(t, 10, result.Paths[1].Flow, 1e-9)

	a, b, c := node(t, net, "a"), node(t, net, "b"), node(t, net, "c")
	assert.InDelta(t, 10, b.FlowLog.Amount(a), 1e-9)
	assert.InDelta(t, 10, c.FlowLog.Amount(a), 1e-9)
	assert.InDelta(t, 20, a.FlowLog.Amount(net.Sink), 1e-9)
	assert.Zero(t, a.ResidualCapacity())
}

func TestEdmondsKarp_SettledParticipantIsBypassed(t *testing.T) {
	net := build(t, "a", -50.0, "b", 0.0, "c", 50.0)

	result, err := EdmondsKarp(net, nil)
	require.NoError(t, err)

	assert.InDelta(t, 50, result.MaxFlow, 1e-9)
	assert.Equal(t, 1, result.Iterations)
	assert.Nil(t, result.Paths, "paths are collected only on request")

	a, b, c := node(t, net, "a"), node(t, net, "b"), node(t, net, "c")
	assert.InDelta(t, 50, a.FlowLog.Amount(c), 1e-9)
	assert.Zero(t, b.FlowLog.Len(), "settled participant moves nothing")
	assert.Zero(t, b.Flow)
}

func TestEdmondsKarp_ConservesBalances(t *testing.T) {
	tests := []struct {
		name  string
		pairs []any
	}{
		{"two participants", []any{"a", -7.5, "b", 7.5}},
		{"two creditors", []any{"a", -30.0, "b", 10.0, "c", 20.0}},
		{"many to many", []any{"a", -12.0, "b", 5.0, "c", -3.0, "d", 0.0, "e", 10.0}},
		{"fractional", []any{"a", 33.34, "b", -16.67, "c", -16.67}},
		{"debtor listed last", []any{"a", 1.0, "b", 2.0, "c", 3.0, "d", -6.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := build(t, tt.pairs...)

			result, err := EdmondsKarp(net, nil)
			require.NoError(t, err)

			stats := domain.CalculateStatistics(net)
			assert.InDelta(t, stats.TotalDebt, result.MaxFlow, 1e-6)
			assert.True(t, stats.IsFullySettled())
			assert.LessOrEqual(t, result.Iterations, stats.Debtors+stats.Creditors)

			// Net flow between participants reproduces every balance
			in := map[*domain.Node]float64{}
			out := map[*domain.Node]float64{}
			for _, p := range net.Participants() {
				for _, e := range p.FlowLog.Entries() {
					if e.To == net.Sink {
						continue
					}
					out[p] += e.Amount
					in[e.To] += e.Amount
				}
			}
			for _, p := range net.Participants() {
				assert.InDelta(t, p.Balance, in[p]-out[p], 1e-6, "participant %s", p.Name)
			}
		})
	}
}

func TestEdmondsKarp_Deterministic(t *testing.T) {
	first := build(t, "a", -12.0, "b", 5.0, "c", -3.0, "d", 0.0, "e", 10.0)
	second := build(t, "a", -12.0, "b", 5.0, "c", -3.0, "d", 0.0, "e", 10.0)

	opts := DefaultSolverOptions().WithReturnPaths(true)
	r1, err := EdmondsKarp(first, opts)
	require.NoError(t, err)
	r2, err := EdmondsKarp(second, opts)
	require.NoError(t, err)

	require.Equal(t, len(r1.Paths), len(r2.Paths))
	for i := range r1.Paths {
		assert.Equal(t, r1.Paths[i].String(), r2.Paths[i].String())
		assert.InDelta(t, r1.Paths[i].Flow, r2.Paths[i].Flow, 1e-12)
	}
}

func TestEdmondsKarp_SecondRunFindsNothing(t *testing.T) {
	net := build(t, "a", 20.0, "b", -10.0, "c", -10.0)

	_, err := EdmondsKarp(net, nil)
	require.NoError(t, err)

	again, err := EdmondsKarp(net, nil)
	require.NoError(t, err)
	assert.Zero(t, again.MaxFlow)
	assert.Zero(t, again.Iterations)
}

func TestEdmondsKarp_IterationLimit(t *testing.T) {
	net := build(t, "a", 20.0, "b", -10.0, "c", -10.0)

	result, err := EdmondsKarp(net, DefaultSolverOptions().WithMaxIterations(1))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeIterationLimit))
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Iterations)
	assert.InDelta(t, 10, result.MaxFlow, 1e-9)
}

func TestEdmondsKarp_Canceled(t *testing.T) {
	net := build(t, "a", 20.0, "b", -10.0, "c", -10.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := EdmondsKarpWithContext(ctx, net, nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
	require.NotNil(t, result)
	assert.True(t, result.Canceled)
	assert.Zero(t, result.Iterations)
}

func TestEdmondsKarp_TimeoutOption(t *testing.T) {
	net := build(t, "a", 20.0, "b", -10.0, "c", -10.0)

	result, err := EdmondsKarp(net, DefaultSolverOptions().WithTimeout(time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, 20, result.MaxFlow, 1e-9)
}

func TestEdmondsKarp_InvalidNetwork(t *testing.T) {
	t.Run("nil network", func(t *testing.T) {
		_, err := EdmondsKarp(nil, nil)
		assert.True(t, apperror.Is(err, apperror.CodeNilInput))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := EdmondsKarp(domain.NewNetwork(), nil)
		assert.True(t, apperror.Is(err, apperror.CodeInvalidSource))
	})

	t.Run("foreign source", func(t *testing.T) {
		net := build(t, "a", 5.0, "b", -5.0)
		net.Source = domain.NewNode(domain.SourceName, domain.RoleSource, 0, domain.Infinity)
		_, err := EdmondsKarp(net, nil)
		assert.True(t, apperror.Is(err, apperror.CodeInvalidSource))
	})

	t.Run("foreign sink", func(t *testing.T) {
		net := build(t, "a", 5.0, "b", -5.0)
		net.Sink = domain.NewNode(domain.SinkName, domain.RoleSink, 0, domain.Infinity)
		_, err := EdmondsKarp(net, nil)
		assert.True(t, apperror.Is(err, apperror.CodeInvalidSink))
	})
}
