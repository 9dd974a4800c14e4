package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Table struct {
	ID          int64       `json:"id"`
	TableNumber int32       `json:"tableNumber"`
	Capacity    int32       `json:"capacity"`
	Location    string      `json:"location"`
	Status      TableStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type TableStore struct {
	DB *pgxpool.Pool
}

func NewTableStore(db *pgxpool.Pool) *TableStore {
	return &TableStore{DB: db}
}

func (s *TableStore) List(ctx context.Context) ([]Table, error) {
	rows, err := s.DB.Query(ctx, `
		select id, table_number, capacity, location, status, created_at
		from tables
		order by table_number asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTables(rows)
}

// ListAvailable returns tables with no pending or confirmed reservation
// overlapping the requested [from, to) window.
func (s *TableStore) ListAvailable(ctx context.Context, from, to time.Time) ([]Table, error) {
	rows, err := s.DB.Query(ctx, `
		select t.id, t.table_number, t.capacity, t.location, t.status, t.created_at
		from tables t
		where not exists (
			select 1 from reservations r
			where r.table_id = t.id
			  and r.status in ('pending', 'confirmed')
			  and r.starts_at < $2 and r.ends_at > $1
		)
		order by t.table_number asc
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTables(rows)
}

func scanTables(rows pgx.Rows) ([]Table, error) {
	out := make([]Table, 0)
	for rows.Next() {
		var t Table
		var location pgtype.Text
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.Capacity, &location, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		if location.Valid {
			t.Location = location.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TableStore) Create(ctx context.Context, tableNumber, capacity int32, location string, status TableStatus) (*Table, error) {
	if status == "" {
		status = TableFree
	}
	t := &Table{TableNumber: tableNumber, Capacity: capacity, Location: location, Status: status}
	err := s.DB.QueryRow(ctx, `
		insert into tables (table_number, capacity, location, status)
		values ($1, $2, $3, $4)
		returning id, created_at
	`, tableNumber, capacity, location, status).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type UpdateTableParams struct {
	TableNumber *int32
	Capacity    *int32
	Location    *string
	Status      *TableStatus
}

func (s *TableStore) Update(ctx context.Context, id int64, p UpdateTableParams) (*Table, error) {
	t := &Table{}
	var location pgtype.Text
	err := s.DB.QueryRow(ctx, `
		update tables set
			table_number = coalesce($2, table_number),
			capacity     = coalesce($3, capacity),
			location     = coalesce($4, location),
			status       = coalesce($5, status)
		where id = $1
		returning id, table_number, capacity, location, status, created_at
	`, id, p.TableNumber, p.Capacity, p.Location, p.Status).Scan(
		&t.ID, &t.TableNumber, &t.Capacity, &location, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if location.Valid {
		t.Location = location.String
	}
	return t, nil
}

func (s *TableStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `delete from tables where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Free resets the cached table status once the reconciler finds no active or
// upcoming reservation. Returns false when the table was already free.
func (s *TableStore) Free(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `update tables set status = 'free' where id = $1 and status <> 'free'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
