package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Category     string    `json:"category"`
	ImageURLs    []string  `json:"imageUrls"`
	Stock        int32     `json:"stock"`
	Sold         int32     `json:"sold"`
	Availability bool      `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Remaining stock is always derived, never stored.
func (m MenuItem) Remaining() int32 {
	return m.Stock - m.Sold
}

// Available computes the sellable flag from stock counters. An item is held
// back once remaining stock drops to 10% of initial stock or below; the last
// tenth is kept as a buffer rather than sold.
func Available(stock, sold int32) bool {
	remaining := stock - sold
	return remaining > 0 && remaining*10 > stock
}

type MenuStore struct {
	DB *pgxpool.Pool
}

func NewMenuStore(db *pgxpool.Pool) *MenuStore {
	return &MenuStore{DB: db}
}

type CreateMenuItemParams struct {
	Name        string
	Description string
	Price       int64
	Category    string
	ImageURLs   []string
	Stock       int32
	Sold        int32
}

func (s *MenuStore) Create(ctx context.Context, p CreateMenuItemParams) (*MenuItem, error) {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Category) == "" || p.Price < 0 {
		return nil, errors.New("name, category and a non-negative price are required")
	}

	item := &MenuItem{
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Category:     p.Category,
		ImageURLs:    p.ImageURLs,
		Stock:        p.Stock,
		Sold:         p.Sold,
		Availability: Available(p.Stock, p.Sold),
	}
	err := s.DB.QueryRow(ctx, `
		insert into menu_items (name, description, price, category, image_urls, stock, sold, availability)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning id, created_at
	`, p.Name, p.Description, p.Price, p.Category, p.ImageURLs, p.Stock, p.Sold, item.Availability).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuStore) List(ctx context.Context) ([]MenuItem, error) {
	rows, err := s.DB.Query(ctx, `
		select id, name, description, price, category, image_urls, stock, sold, availability, created_at
		from menu_items
		order by category asc, name asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMenuItems(rows)
}

func (s *MenuStore) Get(ctx context.Context, id int64) (*MenuItem, error) {
	row := s.DB.QueryRow(ctx, `
		select id, name, description, price, category, image_urls, stock, sold, availability, created_at
		from menu_items
		where id = $1
	`, id)
	item, err := scanMenuItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

type UpdateMenuItemParams struct {
	Name        *string
	Description *string
	Price       *int64
	Category    *string
	ImageURLs   []string
	Stock       *int32
	Sold        *int32
}

// Update rewrites the supplied fields and recomputes availability from the
// resulting stock counters in the same statement.
func (s *MenuStore) Update(ctx context.Context, id int64, p UpdateMenuItemParams) (*MenuItem, error) {
	row := s.DB.QueryRow(ctx, `
		update menu_items set
			name        = coalesce($2, name),
			description = coalesce($3, description),
			price       = coalesce($4, price),
			category    = coalesce($5, category),
			image_urls  = coalesce($6, image_urls),
			stock       = coalesce($7, stock),
			sold        = coalesce($8, sold),
			availability = (
				(coalesce($7, stock) - coalesce($8, sold)) > 0
				and (coalesce($7, stock) - coalesce($8, sold)) * 10 > coalesce($7, stock)
			)
		where id = $1
		returning id, name, description, price, category, image_urls, stock, sold, availability, created_at
	`, id, p.Name, p.Description, p.Price, p.Category, p.ImageURLs, p.Stock, p.Sold)
	item, err := scanMenuItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *MenuStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `delete from menu_items where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type menuRow interface {
	Scan(dest ...any) error
}

func scanMenuItem(row menuRow) (*MenuItem, error) {
	var item MenuItem
	var description pgtype.Text
	if err := row.Scan(&item.ID, &item.Name, &description, &item.Price, &item.Category,
		&item.ImageURLs, &item.Stock, &item.Sold, &item.Availability, &item.CreatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		item.Description = description.String
	}
	return &item, nil
}

func scanMenuItems(rows pgx.Rows) ([]MenuItem, error) {
	out := make([]MenuItem, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}
