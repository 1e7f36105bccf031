package cache

import (
	"context"
	"testing"
	"time"

	"splitit/pkg/domain"
)

func newSettlementCache(t *testing.T) (*SettlementCache, *MemoryCache) {
	t.Helper()
	mem := newMemory(t, nil)
	return NewSettlementCache(mem, time.Minute), mem
}

func samplePayments() []domain.Payment {
	return []domain.Payment{
		{Name: "john", Paid: 40},
		{Name: "kate", Paid: 10},
		{Name: "ann", Paid: 10},
	}
}

func TestNewSettlementCache_DefaultTTL(t *testing.T) {
	sc := NewSettlementCache(nil, 0)
	if sc.defaultTTL != 10*time.Minute {
		t.Errorf("default TTL = %v, want 10m", sc.defaultTTL)
	}
}

func TestSettlementCache_Miss(t *testing.T) {
	sc, _ := newSettlementCache(t)

	result, found, err := sc.Get(context.Background(), samplePayments())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found || result != nil {
		t.Errorf("expected miss, got found=%v result=%v", found, result)
	}
}

func TestSettlementCache_SetGet(t *testing.T) {
	sc, _ := newSettlementCache(t)
	ctx := context.Background()

	in := &CachedSettlement{
		MaxFlow:    20,
		Iterations: 2,
		Transfers: []CachedTransfer{
			{From: "kate", To: "john", Amount: 10},
			{From: "ann", To: "john", Amount: 10},
		},
	}
	if err := sc.Set(ctx, samplePayments(), in, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if in.ComputedAt.IsZero() {
		t.Error("Set() should stamp ComputedAt")
	}

	out, found, err := sc.Get(ctx, samplePayments())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("expected hit")
	}
	if out.MaxFlow != 20 || out.Iterations != 2 {
		t.Errorf("got max flow %v, iterations %d", out.MaxFlow, out.Iterations)
	}
	if len(out.Transfers) != 2 || out.Transfers[0].From != "kate" || out.Transfers[1].From != "ann" {
		t.Errorf("transfers = %+v", out.Transfers)
	}
}

func TestSettlementCache_KeyIgnoresNameCase(t *testing.T) {
	sc, _ := newSettlementCache(t)
	ctx := context.Background()

	sc.Set(ctx, samplePayments(), &CachedSettlement{MaxFlow: 20}, 0)

	upper := []domain.Payment{
		{Name: " John ", Paid: 40},
		{Name: "KATE", Paid: 10},
		{Name: "Ann", Paid: 10},
	}
	if _, found, _ := sc.Get(ctx, upper); !found {
		t.Error("normalized names should hit the same entry")
	}

	reordered := []domain.Payment{
		{Name: "kate", Paid: 10},
		{Name: "john", Paid: 40},
		{Name: "ann", Paid: 10},
	}
	if _, found, _ := sc.Get(ctx, reordered); found {
		t.Error("a different input order should miss")
	}
}

func TestSettlementCache_CorruptEntry(t *testing.T) {
	sc, mem := newSettlementCache(t)
	ctx := context.Background()

	key := BuildSettlementKey(PaymentsHash(samplePayments()))
	mem.Set(ctx, key, []byte("{not json"), 0)

	_, found, err := sc.Get(ctx, samplePayments())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("corrupt entry should be reported as a miss")
	}
	if exists, _ := mem.Exists(ctx, key); exists {
		t.Error("corrupt entry should be removed")
	}
}

func TestSettlementCache_Invalidate(t *testing.T) {
	sc, _ := newSettlementCache(t)
	ctx := context.Background()

	sc.Set(ctx, samplePayments(), &CachedSettlement{MaxFlow: 20}, 0)
	if err := sc.Invalidate(ctx, samplePayments()); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, found, _ := sc.Get(ctx, samplePayments()); found {
		t.Error("entry should be gone after Invalidate")
	}
}

func TestSettlementCache_InvalidateAll(t *testing.T) {
	sc, mem := newSettlementCache(t)
	ctx := context.Background()

	sc.Set(ctx, samplePayments(), &CachedSettlement{MaxFlow: 20}, 0)
	sc.Set(ctx, samplePayments()[:2], &CachedSettlement{MaxFlow: 15}, 0)
	mem.Set(ctx, "other:key", []byte("v"), 0)

	n, err := sc.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}
	if n != 2 {
		t.Errorf("invalidated %d entries, want 2", n)
	}
	if exists, _ := mem.Exists(ctx, "other:key"); !exists {
		t.Error("unrelated keys should survive")
	}
}
