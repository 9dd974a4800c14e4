package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderItem struct {
	MenuItemID int64 `json:"menuItem"`
	Quantity   int32 `json:"quantity"`
	UnitPrice  int64 `json:"price"`
}

type Order struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"orderNumber"`
	UserID        string      `json:"userId"`
	Items         []OrderItem `json:"orderItems"`
	TotalPrice    int64       `json:"totalPrice"`
	PaymentMethod string      `json:"paymentMethod"`
	IsPaid        bool        `json:"isPaid"`
	PaidAt        *time.Time  `json:"paidAt,omitempty"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type OrderStore struct {
	DB *pgxpool.Pool
}

func NewOrderStore(db *pgxpool.Pool) *OrderStore {
	return &OrderStore{DB: db}
}

type CreateOrderParams struct {
	UserID        string
	Items         []OrderItem
	TotalPrice    int64
	PaymentMethod string
	Status        OrderStatus
	IsPaid        bool
	PaidAt        *time.Time
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Create persists the order and its items. It never touches stock counters;
// crediting sold quantities is the payment flow's responsibility.
func (s *OrderStore) Create(ctx context.Context, p CreateOrderParams) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range p.Items {
		if item.MenuItemID <= 0 || item.Quantity < 1 || item.UnitPrice < 0 {
			return nil, ErrInvalidItem
		}
	}
	status := p.Status
	if status == "" {
		status = OrderPending
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order := &Order{
		OrderNumber:   newOrderNumber(),
		UserID:        p.UserID,
		Items:         p.Items,
		TotalPrice:    p.TotalPrice,
		PaymentMethod: p.PaymentMethod,
		IsPaid:        p.IsPaid,
		PaidAt:        p.PaidAt,
		Status:        status,
	}
	if err := tx.QueryRow(ctx, `
		insert into orders (order_number, user_id, total_price, payment_method, is_paid, paid_at, status)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id, created_at
	`, order.OrderNumber, p.UserID, p.TotalPrice, p.PaymentMethod, p.IsPaid, p.PaidAt, status).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, err
	}

	for _, item := range p.Items {
		if _, err := tx.Exec(ctx, `
			insert into order_items (order_id, menu_item_id, quantity, unit_price)
			values ($1, $2, $3, $4)
		`, order.ID, item.MenuItemID, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

// ConfirmPaid is the exactly-once primitive of the payment state machine.
// The conditional update and the sold-counter credits run in one transaction,
// and the credits only run when the update matched, so a webhook and a client
// confirm call racing for the same order can never double-credit stock.
// Orders whose stock was already credited at creation (cash) are marked paid
// without touching the counters again; stock_credited is the guard.
func (s *OrderStore) ConfirmPaid(ctx context.Context, orderID int64, paidAt time.Time) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// stock_credited is not in the set list, so returning yields its value
	// from before this confirmation.
	var stockCredited bool
	err = tx.QueryRow(ctx, `
		update orders set is_paid = true, paid_at = $2, status = 'confirmed'
		where id = $1 and is_paid = false
		returning stock_credited
	`, orderID, paidAt).Scan(&stockCredited)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `select exists(select 1 from orders where id = $1)`, orderID).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		// Already confirmed by the other delivery path.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !stockCredited {
		if err := creditSold(ctx, tx, orderID); err != nil {
			return false, err
		}
		if _, err := tx.Exec(ctx, `update orders set stock_credited = true where id = $1`, orderID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func creditSold(ctx context.Context, tx pgx.Tx, orderID int64) error {
	rows, err := tx.Query(ctx, `select menu_item_id, quantity from order_items where order_id = $1`, orderID)
	if err != nil {
		return err
	}

	type credit struct {
		menuItemID int64
		quantity   int32
	}
	credits := make([]credit, 0)
	for rows.Next() {
		var c credit
		if err := rows.Scan(&c.menuItemID, &c.quantity); err != nil {
			rows.Close()
			return err
		}
		credits = append(credits, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range credits {
		if _, err := tx.Exec(ctx, `
			update menu_items
			set sold = sold + $1,
			    availability = (
			        (stock - (sold + $1)) > 0
			        and (stock - (sold + $1)) * 10 > stock
			    )
			where id = $2
		`, c.quantity, c.menuItemID); err != nil {
			return err
		}
	}
	return nil
}

// IncrementSold credits sold counters for payment methods that account stock
// at order creation (cash). It flips stock_credited in the same transaction
// so a later ConfirmPaid marks the order paid without crediting again.
func (s *OrderStore) IncrementSold(ctx context.Context, orderID int64) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := creditSold(ctx, tx, orderID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `update orders set stock_credited = true where id = $1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateStatus applies any status from the taxonomy without transition
// checks. Payment flows never call this; it exists for admin corrections.
func (s *OrderStore) UpdateStatus(ctx context.Context, id int64, status OrderStatus) (*Order, error) {
	row := s.DB.QueryRow(ctx, `
		update orders set status = $2
		where id = $1
		returning id, order_number, user_id, total_price, payment_method, is_paid, paid_at, status, created_at
	`, id, status)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) Get(ctx context.Context, id int64) (*Order, error) {
	row := s.DB.QueryRow(ctx, `
		select id, order_number, user_id, total_price, payment_method, is_paid, paid_at, status, created_at
		from orders
		where id = $1
	`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
	Total  int     `json:"total"`
}

func (s *OrderStore) ListForUser(ctx context.Context, userID string, page, limit int) (*OrderPage, error) {
	return s.list(ctx, userID, page, limit)
}

func (s *OrderStore) ListAll(ctx context.Context, page, limit int) (*OrderPage, error) {
	return s.list(ctx, "", page, limit)
}

func (s *OrderStore) list(ctx context.Context, userID string, page, limit int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := `
		select id, order_number, user_id, total_price, payment_method, is_paid, paid_at, status, created_at
		from orders
	`
	countQuery := `select count(*) from orders`
	args := []any{}
	if userID != "" {
		query += ` where user_id = $1`
		countQuery += ` where user_id = $1`
		args = append(args, userID)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query += ` order by created_at desc limit ` + strconv.Itoa(limit) + ` offset ` + strconv.Itoa(offset)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	pages := (total + limit - 1) / limit
	return &OrderPage{Orders: orders, Page: page, Pages: pages, Total: total}, nil
}

func (s *OrderStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `delete from orders where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *OrderStore) loadItems(ctx context.Context, order *Order) error {
	rows, err := s.DB.Query(ctx, `
		select menu_item_id, quantity, unit_price
		from order_items
		where order_id = $1
		order by id asc
	`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.MenuItemID, &item.Quantity, &item.UnitPrice); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

type orderRow interface {
	Scan(dest ...any) error
}

func scanOrder(row orderRow) (*Order, error) {
	var order Order
	var paidAt pgtype.Timestamptz
	if err := row.Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.TotalPrice,
		&order.PaymentMethod, &order.IsPaid, &paidAt, &order.Status, &order.CreatedAt); err != nil {
		return nil, err
	}
	if paidAt.Valid {
		value := paidAt.Time
		order.PaidAt = &value
	}
	return &order, nil
}

// PaymentRecord is the audit row written for every reconciled outcome.
type PaymentRecord struct {
	OrderID       int64
	Amount        int64
	Provider      string
	Status        string
	TransactionID string
	ResponseCode  string
	BankCode      string
}

func (s *OrderStore) RecordPayment(ctx context.Context, rec PaymentRecord) error {
	_, err := s.DB.Exec(ctx, `
		insert into payments (order_id, user_id, amount, provider, status, transaction_id, response_code, bank_code)
		select o.id, o.user_id, $2, $3, $4, nullif($5, ''), nullif($6, ''), nullif($7, '')
		from orders o
		where o.id = $1
	`, rec.OrderID, rec.Amount, rec.Provider, rec.Status, rec.TransactionID, rec.ResponseCode, rec.BankCode)
	return err
}
