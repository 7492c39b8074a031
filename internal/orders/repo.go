package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const numberAttempts = 5

const orderColumns = `o.id, o.order_number, o.user_id, o.guest_email, o.guest_phone, o.shipping_address,
	o.billing_address, o.subtotal, o.shipping_cost, o.discount, o.tax, o.total, o.coupon_code,
	o.payment_method, o.payment_status, o.delivery_type, o.status, o.gift, o.notes, o.created_at, o.updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repo struct{ DB *pgxpool.Pool }

var (
	errNumberTaken = errors.New("order number taken")
	errReplayed    = errors.New("idempotency key already used")
)

// Create prices and persists an order and reserves its stock in one transaction.
// Product rows are locked before the availability check so concurrent checkouts
// cannot oversell. An order-number collision retries with a fresh number.
// When in.IdempotencyKey already belongs to an order, that order is returned
// with replayed=true and nothing is written.
func (r *Repo) Create(ctx context.Context, in PlaceInput, gen NumberGenerator) (*Order, bool, error) {
	for attempt := 1; ; attempt++ {
		o, err := r.createOnce(ctx, in, gen)
		switch {
		case errors.Is(err, errReplayed):
			o, err := getOne(ctx, r.DB, `o.idempotency_key=$1`, in.IdempotencyKey, false)
			if err != nil {
				return nil, false, err
			}
			return o, true, nil
		case errors.Is(err, errNumberTaken) && attempt < numberAttempts:
			continue
		case errors.Is(err, errNumberTaken):
			return nil, false, fmt.Errorf("create order: no free order number after %d attempts", attempt)
		case err != nil:
			return nil, false, err
		}
		return o, false, nil
	}
}

func (r *Repo) createOnce(ctx context.Context, in PlaceInput, gen NumberGenerator) (*Order, error) {
	var o *Order
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		products, err := lockProducts(ctx, tx, in.Items)
		if err != nil {
			return err
		}
		// a same-key request that held these locks before us has committed by now
		if in.IdempotencyKey != "" {
			var id string
			err := tx.QueryRow(ctx, `SELECT id FROM orders WHERE idempotency_key=$1`, in.IdempotencyKey).Scan(&id)
			if err == nil {
				return errReplayed
			}
			if !postgres.IsNoRows(err) {
				return fmt.Errorf("check idempotency key: %w", err)
			}
		}
		o, err = Build(in, products)
		if err != nil {
			return err
		}
		o.ID = uuid.NewString()
		gen.Assign(o)
		if o.PaymentMethod == PaymentWallet {
			o.PaymentStatus = PaymentPaid
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders(id, order_number, user_id, guest_email, guest_phone, shipping_address,
				billing_address, subtotal, shipping_cost, discount, tax, total, coupon_code,
				payment_method, payment_status, delivery_type, status, gift, notes, idempotency_key)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,NULLIF($20,''))
			RETURNING created_at, updated_at`,
			o.ID, o.Number, o.UserID, o.GuestEmail, o.GuestPhone, o.ShippingAddress,
			o.BillingAddress, o.Subtotal, o.ShippingCost, o.Discount, o.Tax, o.Total, o.CouponCode,
			o.PaymentMethod, o.PaymentStatus, o.DeliveryType, o.Status, o.Gift, o.Notes, in.IdempotencyKey,
		).Scan(&o.CreatedAt, &o.UpdatedAt)
		if c, ok := postgres.UniqueViolation(err); ok {
			switch c {
			case "orders_order_number_key":
				return errNumberTaken
			case "orders_idempotency_key":
				return errReplayed
			}
		}
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if o.PaymentMethod == PaymentWallet {
			if err := moveWallet(ctx, tx, in.UserID, o.Total.Neg(), "دفع الطلب "+o.Number, in.UserID); err != nil {
				return err
			}
		}

		for _, it := range o.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items(order_id, product_id, name, image, price, quantity,
					selected_size, selected_color, addons, gift_wrap, subtotal)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
				o.ID, it.ProductID, it.Name, it.Image, it.Price, it.Quantity,
				it.SelectedSize, it.SelectedColor, it.Addons, it.GiftWrap, it.Subtotal,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			if err := adjustStock(ctx, tx, it.ProductID, -it.Quantity); err != nil {
				return err
			}
		}

		entry, err := appendHistory(ctx, tx, o.ID, StatusPending, "", "")
		if err != nil {
			return err
		}
		o.StatusHistory = []StatusEntry{entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func lockProducts(ctx context.Context, tx pgx.Tx, items []ItemInput) (map[string]catalog.Product, error) {
	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	// ordered locking keeps concurrent checkouts from deadlocking each other
	rows, err := tx.Query(ctx, `SELECT `+catalog.ProductColumns+`
		FROM products p WHERE p.id = ANY($1) ORDER BY p.id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	out := make(map[string]catalog.Product, len(ids))
	for rows.Next() {
		p, err := catalog.ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// adjustStock moves stock by delta and sales_count by -delta.
func adjustStock(ctx context.Context, q querier, productID string, delta int) error {
	ct, err := q.Exec(ctx, `
		UPDATE products SET stock = stock + $2, sales_count = GREATEST(sales_count - $2, 0), updated_at = now()
		WHERE id=$1`, productID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock %s: %w", productID, err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("adjust stock %s: product missing", productID)
	}
	return nil
}

// moveWallet shifts a user's balance by amount under a row lock and appends
// the ledger entry. A debit past zero is rejected.
func moveWallet(ctx context.Context, q querier, userID string, amount decimal.Decimal, reason, by string) error {
	var balance decimal.Decimal
	err := q.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&balance)
	if postgres.IsNoRows(err) {
		return apperr.NotFound(apperr.MsgUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock wallet: %w", err)
	}
	after := balance.Add(amount)
	if after.IsNegative() {
		return apperr.Business(apperr.MsgInsufficientFunds)
	}
	if _, err := q.Exec(ctx, `UPDATE users SET wallet_balance=$2, updated_at=now() WHERE id=$1`, userID, after); err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if _, err := q.Exec(ctx, `
		INSERT INTO wallet_transactions(id, user_id, amount, reason, balance_after, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), userID, amount, reason, after, by); err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

func appendHistory(ctx context.Context, q querier, orderID string, s Status, note, by string) (StatusEntry, error) {
	e := StatusEntry{Status: s, Note: note, UpdatedBy: by}
	err := q.QueryRow(ctx, `
		INSERT INTO order_status_history(order_id, status, note, updated_by)
		VALUES ($1,$2,$3,$4) RETURNING created_at`, orderID, s, note, by).Scan(&e.Date)
	if err != nil {
		return e, fmt.Errorf("append status history: %w", err)
	}
	return e, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.GuestEmail, &o.GuestPhone, &o.ShippingAddress,
		&o.BillingAddress, &o.Subtotal, &o.ShippingCost, &o.Discount, &o.Tax, &o.Total, &o.CouponCode,
		&o.PaymentMethod, &o.PaymentStatus, &o.DeliveryType, &o.Status, &o.Gift, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	return getOne(ctx, r.DB, `o.id=$1`, id, false)
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return getOne(ctx, r.DB, `o.order_number=$1`, number, false)
}

func getOne(ctx context.Context, q querier, cond, arg string, lock bool) (*Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders o WHERE ` + cond
	if lock {
		sql += ` FOR UPDATE`
	}
	o, err := scanOrder(q.QueryRow(ctx, sql, arg))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	list := []Order{o}
	if err := loadDetails(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// loadDetails fills items and status history for a page of orders.
func loadDetails(ctx context.Context, q querier, list []Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	idx := make(map[string]int, len(list))
	for i := range list {
		ids[i] = list[i].ID
		idx[list[i].ID] = i
		list[i].Items = []Item{}
		list[i].StatusHistory = []StatusEntry{}
	}

	rows, err := q.Query(ctx, `
		SELECT order_id, product_id, name, image, price, quantity, selected_size, selected_color,
			addons, gift_wrap, subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	for rows.Next() {
		var orderID string
		var it Item
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Image, &it.Price, &it.Quantity,
			&it.SelectedSize, &it.SelectedColor, &it.Addons, &it.GiftWrap, &it.Subtotal); err != nil {
			rows.Close()
			return err
		}
		i := idx[orderID]
		list[i].Items = append(list[i].Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
		SELECT order_id, status, note, updated_by, created_at
		FROM order_status_history WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("load status history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var e StatusEntry
		if err := rows.Scan(&orderID, &e.Status, &e.Note, &e.UpdatedBy, &e.Date); err != nil {
			return err
		}
		i := idx[orderID]
		list[i].StatusHistory = append(list[i].StatusHistory, e)
	}
	return rows.Err()
}

func (r *Repo) List(ctx context.Context, f ListFilter, p paging.Params) ([]Order, int, error) {
	var conds []string
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(o.order_number ILIKE '%%' || $%[1]d || '%%' OR o.guest_email ILIKE '%%' || $%[1]d || '%%'"+
			" OR o.shipping_address->>'fullName' ILIKE '%%' || $%[1]d || '%%')", n))
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders o WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	n := len(args)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM orders o WHERE %s
		ORDER BY o.created_at DESC, o.id LIMIT $%d OFFSET $%d`, orderColumns, where, n+1, n+2),
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := loadDetails(ctx, r.DB, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Cancel moves a pending or confirmed order to cancelled and returns its stock.
// authorize runs against the locked order before anything changes.
func (r *Repo) Cancel(ctx context.Context, id, note, by string, authorize func(*Order) error) (*Order, error) {
	var out *Order
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		o, err := getOne(ctx, tx, `o.id=$1`, id, true)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(o); err != nil {
				return err
			}
		}
		if err := cancelLocked(ctx, tx, o, note, by); err != nil {
			return err
		}
		out = o
		return nil
	})
	return out, err
}

func cancelLocked(ctx context.Context, tx pgx.Tx, o *Order, note, by string) error {
	if !CanCancel(o.Status) {
		return apperr.Business(apperr.MsgOrderNotCancelable)
	}
	payment := o.PaymentStatus
	if payment == PaymentPaid {
		payment = PaymentRefunded
	}
	if err := setStatus(ctx, tx, o, StatusCancelled, payment, note, by); err != nil {
		return err
	}
	for _, it := range o.Items {
		if err := adjustStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	// products before the wallet row, the same lock order as Create
	if o.PaymentMethod == PaymentWallet && payment == PaymentRefunded && o.UserID != nil {
		if err := moveWallet(ctx, tx, *o.UserID, o.Total, "استرداد الطلب "+o.Number, by); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus applies an admin status change. A move to cancelled takes the
// cancellation path so stock is restored.
func (r *Repo) UpdateStatus(ctx context.Context, id string, to Status, note, by string) (*Order, error) {
	var out *Order
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		o, err := getOne(ctx, tx, `o.id=$1`, id, true)
		if err != nil {
			return err
		}
		if o.Status == to {
			return apperr.Business(apperr.MsgOrderSameStatus)
		}
		if to == StatusCancelled {
			if err := cancelLocked(ctx, tx, o, note, by); err != nil {
				return err
			}
			out = o
			return nil
		}
		if !CanTransition(o.Status, to) {
			return apperr.Business(apperr.MsgOrderNotCancelable)
		}
		payment := o.PaymentStatus
		if to == StatusDelivered && o.PaymentMethod == PaymentCashOnDelivery {
			payment = PaymentPaid
		}
		if err := setStatus(ctx, tx, o, to, payment, note, by); err != nil {
			return err
		}
		out = o
		return nil
	})
	return out, err
}

func setStatus(ctx context.Context, tx pgx.Tx, o *Order, to Status, payment PaymentStatus, note, by string) error {
	err := tx.QueryRow(ctx, `
		UPDATE orders SET status=$2, payment_status=$3, updated_at=now()
		WHERE id=$1 RETURNING updated_at`, o.ID, to, payment).Scan(&o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	entry, err := appendHistory(ctx, tx, o.ID, to, note, by)
	if err != nil {
		return err
	}
	o.Status = to
	o.PaymentStatus = payment
	o.StatusHistory = append(o.StatusHistory, entry)
	return nil
}
