package domain

import (
	"testing"
)

func TestCalculateStatistics(t *testing.T) {
	n, john, kate, _ := newTestNetwork()
	edge := n.AddSourceEdge(kate, 10)
	john.AddChild(n.Sink)

	stats := CalculateStatistics(n)
	if stats.Participants != 3 || stats.Debtors != 1 || stats.Creditors != 1 || stats.Settled != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.NodeCount != 5 || stats.EdgeCount != 2 {
		t.Errorf("NodeCount/EdgeCount = %d/%d", stats.NodeCount, stats.EdgeCount)
	}
	if !FloatEquals(stats.TotalDebt, 10) || !FloatEquals(stats.TotalCredit, 40) {
		t.Errorf("TotalDebt/TotalCredit = %v/%v", stats.TotalDebt, stats.TotalCredit)
	}
	if stats.SourceSaturated || stats.SinkSaturated || stats.IsFullySettled() {
		t.Error("nothing routed yet")
	}
	if !FloatEquals(stats.Unrouted, 10) {
		t.Errorf("Unrouted = %v, want 10", stats.Unrouted)
	}

	edge.Flow = 10
	john.Flow = 40
	stats = CalculateStatistics(n)
	if !stats.IsFullySettled() {
		t.Error("saturated network should be fully settled")
	}
	if stats.Unrouted != 0 || !FloatEquals(stats.Routed, 10) {
		t.Errorf("Routed/Unrouted = %v/%v", stats.Routed, stats.Unrouted)
	}
}
