package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange      = "restaurant.events"
	NotificationsQueue  = "restaurant.notifications"
	NotificationsDLQ    = "restaurant.notifications.dlq"
	notificationsDeadRK = "dead"
)

// EnsureEventTopology declares the topic exchange, the notification queue
// with its dead-letter queue, and the bindings for every event family the
// service publishes.
func EnsureEventTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchange(EventsExchange); err != nil {
		return err
	}

	if _, err := qc.EnsureQueue(NotificationsDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(NotificationsDLQ, EventsExchange, notificationsDeadRK); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(NotificationsQueue, amqp.Table{
		"x-dead-letter-exchange":    EventsExchange,
		"x-dead-letter-routing-key": notificationsDeadRK,
	})
	if err != nil {
		return err
	}

	for _, pattern := range []string{"order.#", "reservation.#", "table.#"} {
		if err := qc.BindQueue(NotificationsQueue, EventsExchange, pattern); err != nil {
			return err
		}
	}
	return nil
}

type eventEnvelope struct {
	Event         string `json:"event"`
	OrderID       int64  `json:"orderId"`
	ReservationID int64  `json:"reservationId"`
	TableID       int64  `json:"tableId"`
	Provider      string `json:"provider"`
	Amount        int64  `json:"amount"`
}

// ProcessEvent turns a consumed event into a notification row. Unknown event
// types are acked and dropped; transient database failures surface so the
// worker can retry.
func ProcessEvent(ctx context.Context, db *pgxpool.Pool, body []byte) error {
	if db == nil {
		return nil
	}

	var evt eventEnvelope
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Event) == "" {
		return nil
	}

	var userID *string
	var title, message string

	switch evt.Event {
	case "order.paid":
		uid, err := orderUserID(ctx, db, evt.OrderID)
		if err != nil {
			return err
		}
		userID = uid
		title = "Payment received"
		message = fmt.Sprintf("Payment of %d for order #%d was received via %s.", evt.Amount, evt.OrderID, evt.Provider)
	case "order.payment_failed":
		uid, err := orderUserID(ctx, db, evt.OrderID)
		if err != nil {
			return err
		}
		userID = uid
		title = "Payment failed"
		message = fmt.Sprintf("Payment for order #%d via %s did not complete.", evt.OrderID, evt.Provider)
	case "reservation.completed":
		uid, err := reservationUserID(ctx, db, evt.ReservationID)
		if err != nil {
			return err
		}
		userID = uid
		title = "Reservation completed"
		message = fmt.Sprintf("Reservation #%d has ended. Thank you for visiting.", evt.ReservationID)
	case "table.freed":
		// Staff-facing only, no customer to notify.
		title = "Table available"
		message = fmt.Sprintf("Table #%d is free again.", evt.TableID)
	default:
		return nil
	}

	_, err := db.Exec(ctx, `
		insert into notifications (user_id, event, title, message, payload)
		values ($1, $2, $3, $4, $5)
	`, userID, evt.Event, title, message, body)
	return err
}

func orderUserID(ctx context.Context, db *pgxpool.Pool, orderID int64) (*string, error) {
	if orderID == 0 {
		return nil, nil
	}
	var uid string
	err := db.QueryRow(ctx, `select user_id from orders where id = $1`, orderID).Scan(&uid)
	if err != nil {
		return nil, err
	}
	return &uid, nil
}

func reservationUserID(ctx context.Context, db *pgxpool.Pool, reservationID int64) (*string, error) {
	if reservationID == 0 {
		return nil, nil
	}
	var uid string
	err := db.QueryRow(ctx, `select user_id from reservations where id = $1`, reservationID).Scan(&uid)
	if err != nil {
		return nil, err
	}
	return &uid, nil
}
