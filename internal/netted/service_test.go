package netted

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubStore struct {
	positions []Position
	total     int
	run       RunInfo
	listErr   error
	runErr    error
	replaced  []Position
}

func (s *stubStore) Replace(ctx context.Context, positions []Position) error {
	s.replaced = positions
	return nil
}

func (s *stubStore) List(ctx context.Context, nameFilter string, limit, offset int) ([]Position, int, error) {
	return s.positions, s.total, s.listErr
}

func (s *stubStore) LastRun(ctx context.Context) (RunInfo, error) {
	return s.run, s.runErr
}

func TestServiceListReturnsRunInfo(t *testing.T) {
	syncedAt := time.Date(2025, 8, 27, 3, 0, 0, 0, time.UTC)
	store := &stubStore{
		positions: []Position{{SupplierID: 1, SupplierName: "ACME", Net: 500}},
		total:     1,
		run:       RunInfo{RunID: "r1", SyncedAt: syncedAt, Suppliers: 1},
	}
	svc := NewService(store)

	positions, total, run, err := svc.List(context.Background(), "", 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(positions) != 1 {
		t.Fatalf("list mismatch: total %d, %d positions", total, len(positions))
	}
	if run.RunID != "r1" || !run.SyncedAt.Equal(syncedAt) {
		t.Fatalf("run info mismatch: %+v", run)
	}
}

func TestServiceListToleratesNoSync(t *testing.T) {
	store := &stubStore{runErr: ErrNoSync}
	svc := NewService(store)

	_, total, run, err := svc.List(context.Background(), "", 100, 0)
	if err != nil {
		t.Fatalf("an empty store is not an error: %v", err)
	}
	if total != 0 || run.RunID != "" {
		t.Fatalf("expected empty result: total %d, run %+v", total, run)
	}
}

func TestServiceListPropagatesStoreErrors(t *testing.T) {
	store := &stubStore{listErr: errors.New("connection refused")}
	svc := NewService(store)

	if _, _, _, err := svc.List(context.Background(), "", 100, 0); err == nil {
		t.Fatal("expected error")
	}

	store = &stubStore{runErr: errors.New("connection refused")}
	if _, _, _, err := NewService(store).List(context.Background(), "", 100, 0); err == nil {
		t.Fatal("run lookup failure must surface")
	}
}

func TestServiceReplaceDelegates(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)

	in := []Position{{SupplierID: 7, Net: 100}}
	if err := svc.Replace(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.replaced) != 1 || store.replaced[0].SupplierID != 7 {
		t.Fatalf("replace did not reach the store: %+v", store.replaced)
	}
}
