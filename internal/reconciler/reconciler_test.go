package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-order-service/internal/store"

	"go.uber.org/zap"
)

type fakeSweepStore struct {
	expired    []store.ExpiredReservation
	expiredErr error

	completeErr map[int64]error
	completed   []int64

	busyTables map[int64]bool
	busyErr    map[int64]error

	freed   []int64
	freeErr map[int64]error
}

func (f *fakeSweepStore) Expired(ctx context.Context, now time.Time) ([]store.ExpiredReservation, error) {
	return f.expired, f.expiredErr
}

func (f *fakeSweepStore) Complete(ctx context.Context, id int64) (bool, error) {
	if err := f.completeErr[id]; err != nil {
		return false, err
	}
	f.completed = append(f.completed, id)
	return true, nil
}

func (f *fakeSweepStore) HasActiveOrUpcoming(ctx context.Context, tableID int64, now time.Time) (bool, error) {
	if err := f.busyErr[tableID]; err != nil {
		return false, err
	}
	return f.busyTables[tableID], nil
}

func (f *fakeSweepStore) FreeTable(ctx context.Context, tableID int64) (bool, error) {
	if err := f.freeErr[tableID]; err != nil {
		return false, err
	}
	f.freed = append(f.freed, tableID)
	return true, nil
}

func newTestReconciler(st Store) *Reconciler {
	r := New(st, nil, zap.NewNop(), time.Minute, "restaurant.events")
	r.Now = func() time.Time {
		return time.Date(2024, 5, 20, 22, 0, 0, 0, time.UTC)
	}
	return r
}

func TestSweepCompletesAndFrees(t *testing.T) {
	st := &fakeSweepStore{
		expired: []store.ExpiredReservation{
			{ID: 1, TableID: 10},
			{ID: 2, TableID: 11},
		},
	}
	r := newTestReconciler(st)

	completed, freed := r.Sweep(context.Background())

	if completed != 2 {
		t.Fatalf("completed = %d, want 2", completed)
	}
	if freed != 2 {
		t.Fatalf("freed = %d, want 2", freed)
	}
	if len(st.freed) != 2 || st.freed[0] != 10 || st.freed[1] != 11 {
		t.Fatalf("freed tables = %v, want [10 11]", st.freed)
	}
}

func TestSweepKeepsTableWithUpcomingReservation(t *testing.T) {
	st := &fakeSweepStore{
		expired:    []store.ExpiredReservation{{ID: 5, TableID: 3}},
		busyTables: map[int64]bool{3: true},
	}
	r := newTestReconciler(st)

	completed, freed := r.Sweep(context.Background())

	if completed != 1 {
		t.Fatalf("completed = %d, want 1", completed)
	}
	if freed != 0 {
		t.Fatalf("freed = %d, want 0", freed)
	}
	if len(st.freed) != 0 {
		t.Fatalf("table 3 must stay occupied, freed %v", st.freed)
	}
}

func TestSweepContinuesPastRecordErrors(t *testing.T) {
	st := &fakeSweepStore{
		expired: []store.ExpiredReservation{
			{ID: 1, TableID: 10},
			{ID: 2, TableID: 11},
			{ID: 3, TableID: 12},
		},
		completeErr: map[int64]error{2: errors.New("deadlock detected")},
	}
	r := newTestReconciler(st)

	completed, freed := r.Sweep(context.Background())

	if completed != 2 {
		t.Fatalf("completed = %d, want 2 despite the failing record", completed)
	}
	if freed != 2 {
		t.Fatalf("freed = %d, want 2", freed)
	}
	if len(st.completed) != 2 || st.completed[0] != 1 || st.completed[1] != 3 {
		t.Fatalf("completed reservations = %v, want [1 3]", st.completed)
	}
}

func TestSweepLookupFailureReturnsNothing(t *testing.T) {
	st := &fakeSweepStore{expiredErr: errors.New("connection refused")}
	r := newTestReconciler(st)

	completed, freed := r.Sweep(context.Background())
	if completed != 0 || freed != 0 {
		t.Fatalf("got completed=%d freed=%d, want 0 0", completed, freed)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	st := &fakeSweepStore{}
	r := New(st, nil, zap.NewNop(), time.Millisecond, "restaurant.events")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
