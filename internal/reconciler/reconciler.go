// Package reconciler runs the periodic sweep that completes expired
// reservations and releases their tables.
package reconciler

import (
	"context"
	"time"

	"restaurant-order-service/internal/store"

	"go.uber.org/zap"
)

// Store is the slice of the reservation and table stores the sweep needs.
type Store interface {
	Expired(ctx context.Context, now time.Time) ([]store.ExpiredReservation, error)
	Complete(ctx context.Context, id int64) (bool, error)
	HasActiveOrUpcoming(ctx context.Context, tableID int64, now time.Time) (bool, error)
	FreeTable(ctx context.Context, tableID int64) (bool, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// SweepStore adapts the concrete pgx stores to the Store interface.
type SweepStore struct {
	Reservations *store.ReservationStore
	Tables       *store.TableStore
}

func (s SweepStore) Expired(ctx context.Context, now time.Time) ([]store.ExpiredReservation, error) {
	return s.Reservations.Expired(ctx, now)
}

func (s SweepStore) Complete(ctx context.Context, id int64) (bool, error) {
	return s.Reservations.Complete(ctx, id)
}

func (s SweepStore) HasActiveOrUpcoming(ctx context.Context, tableID int64, now time.Time) (bool, error) {
	return s.Reservations.HasActiveOrUpcoming(ctx, tableID, now)
}

func (s SweepStore) FreeTable(ctx context.Context, tableID int64) (bool, error) {
	return s.Tables.Free(ctx, tableID)
}

type Reconciler struct {
	Store     Store
	Publisher Publisher // optional
	Logger    *zap.Logger
	Interval  time.Duration
	Exchange  string
	Now       func() time.Time
}

func New(st Store, pub Publisher, logger *zap.Logger, interval time.Duration, exchange string) *Reconciler {
	return &Reconciler{
		Store:     st,
		Publisher: pub,
		Logger:    logger,
		Interval:  interval,
		Exchange:  exchange,
		Now:       time.Now,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.Logger.Info("reservation reconciler started", zap.Duration("interval", r.Interval))
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("reservation reconciler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

type reservationEvent struct {
	Event         string `json:"event"`
	ReservationID int64  `json:"reservationId,omitempty"`
	TableID       int64  `json:"tableId"`
}

// Sweep completes every reservation whose window has ended and frees tables
// with no remaining active or upcoming reservation. One failing record never
// stops the rest of the batch.
func (r *Reconciler) Sweep(ctx context.Context) (completed, freed int) {
	now := r.Now()

	expired, err := r.Store.Expired(ctx, now)
	if err != nil {
		r.Logger.Error("expired reservation lookup failed", zap.Error(err))
		return 0, 0
	}

	for _, res := range expired {
		ok, err := r.Store.Complete(ctx, res.ID)
		if err != nil {
			r.Logger.Error("reservation completion failed",
				zap.Int64("reservationId", res.ID), zap.Error(err))
			continue
		}
		if !ok {
			// Someone else moved the reservation out of an active status
			// between the lookup and now.
			continue
		}
		completed++
		r.publish(ctx, "reservation.completed", reservationEvent{
			Event:         "reservation.completed",
			ReservationID: res.ID,
			TableID:       res.TableID,
		})

		// Re-check with current data. The table stays occupied when a later
		// reservation is already active or still upcoming.
		busy, err := r.Store.HasActiveOrUpcoming(ctx, res.TableID, now)
		if err != nil {
			r.Logger.Error("table occupancy check failed",
				zap.Int64("tableId", res.TableID), zap.Error(err))
			continue
		}
		if busy {
			continue
		}

		changed, err := r.Store.FreeTable(ctx, res.TableID)
		if err != nil {
			r.Logger.Error("table release failed",
				zap.Int64("tableId", res.TableID), zap.Error(err))
			continue
		}
		if changed {
			freed++
			r.publish(ctx, "table.freed", reservationEvent{
				Event:   "table.freed",
				TableID: res.TableID,
			})
		}
	}

	if completed > 0 || freed > 0 {
		r.Logger.Info("reservation sweep finished",
			zap.Int("completed", completed), zap.Int("freed", freed))
	}
	return completed, freed
}

func (r *Reconciler) publish(ctx context.Context, routingKey string, payload reservationEvent) {
	if r.Publisher == nil {
		return
	}
	if err := r.Publisher.PublishJSON(ctx, r.Exchange, routingKey, payload); err != nil {
		r.Logger.Warn("sweep event publish failed", zap.String("event", routingKey), zap.Error(err))
	}
}
