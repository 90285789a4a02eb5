package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

const (
	OrderPlaced    = "placed"
	OrderInTransit = "in_transit"
	OrderDelivered = "delivered"

	deliveryDays = 3
)

type Order struct {
	ID                string    `json:"id"`
	Platform          string    `json:"platform"`
	Total             float64   `json:"total"`
	Items             int       `json:"items"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

// StatusAt derives the order status from its timeline.
func (o Order) StatusAt(now time.Time) string {
	switch {
	case !now.Before(o.EstimatedDelivery):
		return OrderDelivered
	case now.Sub(o.CreatedAt) >= 24*time.Hour:
		return OrderInTransit
	default:
		return OrderPlaced
	}
}

// AddCartItem assigns an ID when the item has none.
func (s *DB) AddCartItem(ctx context.Context, item CartItem) (CartItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, product_id, name, platform, price, quantity, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ProductID, item.Name, item.Platform, item.Price, item.Quantity, item.AddedAt.Unix())
	if err != nil {
		return CartItem{}, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

// CartItems lists the cart, optionally restricted to one platform.
func (s *DB) CartItems(ctx context.Context, platform string) ([]CartItem, error) {
	return cartItems(ctx, s.db, platform)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func cartItems(ctx context.Context, q querier, platform string) ([]CartItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, product_id, name, platform, price, quantity, added_at FROM cart_items
		WHERE ? = '' OR platform = ?
		ORDER BY added_at, id`, platform, platform)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var (
			it    CartItem
			added int64
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Platform, &it.Price, &it.Quantity, &added); err != nil {
			return nil, err
		}
		it.AddedAt = time.Unix(added, 0).UTC()
		items = append(items, it)
	}
	return items, rows.Err()
}

// PlaceOrder turns the platform's cart into an order and empties it.
func (s *DB) PlaceOrder(ctx context.Context, platform string, now time.Time) (Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback()

	items, err := cartItems(ctx, tx, platform)
	if err != nil {
		return Order{}, err
	}
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	o := Order{
		ID:                uuid.NewString(),
		Platform:          platform,
		Status:            OrderPlaced,
		CreatedAt:         now.UTC().Truncate(time.Second),
		EstimatedDelivery: now.UTC().Truncate(time.Second).AddDate(0, 0, deliveryDays),
	}
	for _, it := range items {
		o.Total += it.Price * float64(it.Quantity)
		o.Items += it.Quantity
	}
	if o.Platform == "" {
		o.Platform = items[0].Platform
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, platform, total, items, status, created_at, estimated_delivery)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Platform, o.Total, o.Items, o.Status, o.CreatedAt.Unix(), o.EstimatedDelivery.Unix())
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE ? = '' OR platform = ?`, platform, platform); err != nil {
		return Order{}, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *DB) Order(ctx context.Context, id string) (Order, error) {
	var (
		o                Order
		created, arrival int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, platform, total, items, status, created_at, estimated_delivery FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.Platform, &o.Total, &o.Items, &o.Status, &created, &arrival)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	o.CreatedAt = time.Unix(created, 0).UTC()
	o.EstimatedDelivery = time.Unix(arrival, 0).UTC()
	return o, nil
}
