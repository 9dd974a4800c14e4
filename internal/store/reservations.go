package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant-order-service/internal/timewindow"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Reservation struct {
	ID        int64             `json:"id"`
	TableID   int64             `json:"tableId"`
	UserID    string            `json:"userId"`
	StartsAt  time.Time         `json:"reservationDate"`
	EndsAt    time.Time         `json:"reservationEnd"`
	Guests    int32             `json:"numberOfGuests"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

type CreateReservationParams struct {
	TableID  int64
	UserID   string
	StartsAt time.Time
	Guests   int32
	Status   ReservationStatus
}

type ReservationStore struct {
	DB              *pgxpool.Pool
	ServiceDuration time.Duration
	Now             func() time.Time
}

func NewReservationStore(db *pgxpool.Pool, serviceDuration time.Duration) *ReservationStore {
	return &ReservationStore{DB: db, ServiceDuration: serviceDuration, Now: time.Now}
}

// Create inserts a reservation after checking the requested window against
// every pending or confirmed reservation on the same table. The table row is
// locked for the duration of the transaction so two concurrent requests for
// overlapping windows cannot both pass the check.
func (s *ReservationStore) Create(ctx context.Context, p CreateReservationParams) (*Reservation, error) {
	if p.TableID <= 0 || p.Guests < 1 || p.StartsAt.IsZero() {
		return nil, fmt.Errorf("%w: table, reservation time and guest count are required", ErrInvalidItem)
	}
	now := s.Now()
	if !p.StartsAt.After(now) {
		return nil, ErrPastReservation
	}

	status := p.Status
	if status == "" {
		status = ReservationPending
	}
	endsAt := timewindow.DeriveEnd(p.StartsAt, s.ServiceDuration)

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Serializes conflict check + insert per table and doubles as the
	// existence check.
	var tableID int64
	if err := tx.QueryRow(ctx, `select id from tables where id = $1 for update`, p.TableID).Scan(&tableID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var conflictID int64
	err = tx.QueryRow(ctx, `
		select id from reservations
		where table_id = $1
		  and status in ('pending', 'confirmed')
		  and starts_at < $3 and ends_at > $2
		limit 1
	`, p.TableID, p.StartsAt, endsAt).Scan(&conflictID)
	if err == nil {
		return nil, ErrTableBooked
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	res := &Reservation{
		TableID:  p.TableID,
		UserID:   p.UserID,
		StartsAt: p.StartsAt,
		EndsAt:   endsAt,
		Guests:   p.Guests,
		Status:   status,
	}
	if err := tx.QueryRow(ctx, `
		insert into reservations (table_id, user_id, starts_at, ends_at, guests, status)
		values ($1, $2, $3, $4, $5, $6)
		returning id, created_at
	`, p.TableID, p.UserID, p.StartsAt, endsAt, p.Guests, status).Scan(&res.ID, &res.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateStatus applies an interactive (admin) status change. It returns
// overridden=true when the change is a jump straight to completed that the
// transition table does not allow; callers log those instead of rejecting.
func (s *ReservationStore) UpdateStatus(ctx context.Context, id int64, next ReservationStatus) (res *Reservation, overridden bool, err error) {
	var current ReservationStatus
	if err := s.DB.QueryRow(ctx, `select status from reservations where id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}

	if !current.CanTransitionTo(next) {
		if next != ReservationCompleted {
			return nil, false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, next)
		}
		overridden = true
	}

	res = &Reservation{}
	err = s.DB.QueryRow(ctx, `
		update reservations set status = $2
		where id = $1
		returning id, table_id, user_id, starts_at, ends_at, guests, status, created_at
	`, id, next).Scan(&res.ID, &res.TableID, &res.UserID, &res.StartsAt, &res.EndsAt, &res.Guests, &res.Status, &res.CreatedAt)
	if err != nil {
		return nil, false, err
	}
	return res, overridden, nil
}

func (s *ReservationStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `delete from reservations where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReservationFilter narrows List to one calendar day, month or year, and
// optionally to a single owner. Fields are evaluated in that precedence.
type ReservationFilter struct {
	Date   string // YYYY-MM-DD
	Month  string // YYYY-MM
	Year   string // YYYY
	UserID string
}

// Range converts the calendar filter into a half-open [from, to) window.
func (f ReservationFilter) Range() (from, to time.Time, ok bool, err error) {
	switch {
	case f.Date != "":
		from, err = time.Parse("2006-01-02", f.Date)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid date filter %q", f.Date)
		}
		return from, from.AddDate(0, 0, 1), true, nil
	case f.Month != "":
		from, err = time.Parse("2006-01", f.Month)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid month filter %q", f.Month)
		}
		return from, from.AddDate(0, 1, 0), true, nil
	case f.Year != "":
		from, err = time.Parse("2006", f.Year)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid year filter %q", f.Year)
		}
		return from, from.AddDate(1, 0, 0), true, nil
	}
	return time.Time{}, time.Time{}, false, nil
}

func (s *ReservationStore) List(ctx context.Context, filter ReservationFilter) ([]Reservation, error) {
	query := `
		select id, table_id, user_id, starts_at, ends_at, guests, status, created_at
		from reservations
	`
	args := []any{}
	where := []string{}

	from, to, ranged, err := filter.Range()
	if err != nil {
		return nil, err
	}
	if ranged {
		where = append(where, fmt.Sprintf("starts_at >= $%d and starts_at < $%d", len(args)+1, len(args)+2))
		args = append(args, from, to)
	}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	for i, clause := range where {
		if i == 0 {
			query += " where " + clause
		} else {
			query += " and " + clause
		}
	}
	query += " order by starts_at desc"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reservation, 0)
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.TableID, &res.UserID, &res.StartsAt, &res.EndsAt, &res.Guests, &res.Status, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ExpiredReservation is what the reconciler sweeps over.
type ExpiredReservation struct {
	ID      int64
	TableID int64
}

func (s *ReservationStore) Expired(ctx context.Context, now time.Time) ([]ExpiredReservation, error) {
	rows, err := s.DB.Query(ctx, `
		select id, table_id from reservations
		where status in ('pending', 'confirmed') and ends_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ExpiredReservation, 0)
	for rows.Next() {
		var res ExpiredReservation
		if err := rows.Scan(&res.ID, &res.TableID); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Complete marks one expired reservation completed. The status predicate makes
// the update a no-op when an interactive request changed the status between
// the sweep's read and this write.
func (s *ReservationStore) Complete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
		update reservations set status = 'completed'
		where id = $1 and status in ('pending', 'confirmed')
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// HasActiveOrUpcoming reports whether the table still has a pending or
// confirmed reservation that is active now or starts later.
func (s *ReservationStore) HasActiveOrUpcoming(ctx context.Context, tableID int64, now time.Time) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
		select exists(
			select 1 from reservations
			where table_id = $1 and status in ('pending', 'confirmed') and ends_at > $2
		)
	`, tableID, now).Scan(&exists)
	return exists, err
}
