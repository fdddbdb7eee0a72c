package repository

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okian/peloton/internal/domain/rider"
)

func testRecords() []rider.Record {
	return []rider.Record{
		{Name: "VOLLERING Demi", Team: "FDJ-Suez", Cost: 8, Performance: 400},
		{Name: "KOPECKY Lotte", Team: "SD Worx", Cost: 6, Performance: 300},
	}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 7, 26, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return fixed }))

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	snap, err := store.Replace(ctx, testRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version != 1 {
		t.Errorf("expected version 1, got %d", snap.Version)
	}
	if !snap.LoadedAt.Equal(fixed) {
		t.Errorf("expected loaded at %v, got %v", fixed, snap.LoadedAt)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	r, err := store.Get(ctx, "kopecky lotte")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Team != "SD Worx" {
		t.Errorf("expected team SD Worx, got %s", r.Team)
	}

	if _, err := store.Get(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ReplaceKeepsOrderAndVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Replace(ctx, testRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := store.Replace(ctx, testRecords()[:1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version != 2 {
		t.Errorf("expected version 2, got %d", snap.Version)
	}
	if len(snap.Records) != 1 || snap.Records[0].Name != "VOLLERING Demi" {
		t.Errorf("unexpected records: %+v", snap.Records)
	}
	if _, err := store.Get(ctx, "KOPECKY Lotte"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected the replaced rider to be gone, got %v", err)
	}
}

func TestMemoryStore_RejectsInvalidPopulation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.Replace(ctx, testRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := append(testRecords(), rider.Record{Name: "KOPECKY Lotte", Cost: 1})
	if _, err := store.Replace(ctx, dup); !errors.Is(err, rider.ErrDuplicateRider) {
		t.Errorf("expected ErrDuplicateRider, got %v", err)
	}

	bad := testRecords()
	bad[0].Performance = math.NaN()
	_, err := store.Replace(ctx, bad)
	var verr *rider.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "points" {
		t.Errorf("expected field points, got %s", verr.Field)
	}

	if snap := store.Snapshot(ctx); snap.Version != 1 || len(snap.Records) != 2 {
		t.Errorf("failed replace must keep the previous population, got version %d with %d riders", snap.Version, len(snap.Records))
	}
}

func TestMemoryStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.Replace(ctx, testRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Snapshot(ctx)
	snap.Records[0].Performance = -1

	r, _ := store.Get(ctx, "VOLLERING Demi")
	if r.Performance != 400 {
		t.Errorf("store mutated through snapshot: %v", r.Performance)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.Replace(ctx, testRecords())
		}()
		go func() {
			defer wg.Done()
			snap := store.Snapshot(ctx)
			if n := len(snap.Records); n != 0 && n != 2 {
				t.Errorf("partial population observed: %d", n)
			}
		}()
	}
	wg.Wait()

	if v := store.Snapshot(ctx).Version; v != 8 {
		t.Errorf("expected version 8, got %d", v)
	}
}
