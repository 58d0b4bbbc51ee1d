package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/growthfarm/farm-market-orders.git/internal/market"
)

const uniqueViolation = "23505"

// Store implements market.Store on Postgres.
type Store struct{ DB *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) GetProducts(ctx context.Context, ids []string) (map[string]market.Product, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, category, price, unit, quantity, status, seller_id, created_at, updated_at
		FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]market.Product, len(ids))
	for rows.Next() {
		var p market.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Unit,
			&p.Quantity, &p.Status, &p.SellerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (s *Store) ListAvailableProducts(ctx context.Context) ([]market.Product, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, category, price, unit, quantity, status, seller_id, created_at, updated_at
		FROM products WHERE status = 'available' ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Product
	for rows.Next() {
		var p market.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Unit,
			&p.Quantity, &p.Status, &p.SellerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id string) (*market.Order, error) {
	var o market.Order
	err := s.DB.QueryRow(ctx, `
		SELECT id, order_number, buyer_id, total_amount, status, payment_status,
		       COALESCE(shipping_address, ''), COALESCE(notes, ''), created_at
		FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.TotalAmount, &o.Status,
			&o.PaymentStatus, &o.ShippingAddress, &o.Notes, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it market.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity,
			&it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

// CreateOrder runs the whole commit in one transaction: products are locked
// in id order (no lock-order deadlocks), stock is re-checked under the lock,
// decremented, and the order header + items inserted. Any abort rolls the
// decrements back with the rest.
func (s *Store) CreateOrder(ctx context.Context, o *market.Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &market.PersistenceError{Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range market.DemandByProduct(o.Items) {
		var available int
		err := tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1 FOR UPDATE`, d.ProductID).
			Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return &market.ProductNotFoundError{ProductID: d.ProductID}
		}
		if err != nil {
			return &market.PersistenceError{Err: fmt.Errorf("lock product %s: %w", d.ProductID, err)}
		}
		if available < d.Quantity {
			return &market.StockChangedError{ProductID: d.ProductID, Requested: d.Quantity, Available: available}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1`, d.ProductID, d.Quantity); err != nil {
			return &market.PersistenceError{Err: fmt.Errorf("decrement product %s: %w", d.ProductID, err)}
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, buyer_id, total_amount, status, payment_status,
		                   shipping_address, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		o.ID, o.OrderNumber, o.BuyerID, o.TotalAmount, o.Status, o.PaymentStatus,
		o.ShippingAddress, o.Notes, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return market.ErrOrderNumberCollision
		}
		return &market.PersistenceError{Err: fmt.Errorf("insert order: %w", err)}
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal); err != nil {
			return &market.PersistenceError{Err: fmt.Errorf("insert order item: %w", err)}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &market.PersistenceError{Err: err}
	}
	return nil
}
