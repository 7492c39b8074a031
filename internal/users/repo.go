package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const userColumns = `id, name, email, phone, password_hash, role, addresses, wishlist, wallet_balance,
	is_active, created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Addresses,
		&u.Wishlist, &u.WalletBalance, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *Repo) one(ctx context.Context, where string, arg any) (*User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, `id=$1`, id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, `lower(email)=lower($1)`, email)
}

func (r *Repo) Create(ctx context.Context, u *User) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(id, name, email, phone, password_hash, role, addresses, wishlist, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING wallet_balance, created_at, updated_at`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Addresses, u.Wishlist, u.IsActive,
	).Scan(&u.WalletBalance, &u.CreatedAt, &u.UpdatedAt)
	if c, ok := postgres.UniqueViolation(err); ok && c == "users_email_key" {
		return apperr.Business(apperr.MsgEmailTaken).Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repo) UpdateProfile(ctx context.Context, u *User) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE users SET name=$2, phone=$3, addresses=$4, updated_at=now()
		WHERE id=$1 RETURNING updated_at`, u.ID, u.Name, u.Phone, u.Addresses).Scan(&u.UpdatedAt)
	if postgres.IsNoRows(err) {
		return apperr.NotFound(apperr.MsgUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *Repo) exec(ctx context.Context, op, sql string, args ...any) error {
	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound(apperr.MsgUserNotFound)
	}
	return nil
}

func (r *Repo) SetPassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, "set password", `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`, id, hash)
}

func (r *Repo) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, "set active", `UPDATE users SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
}

func (r *Repo) SetRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, "set role", `UPDATE users SET role=$2, updated_at=now() WHERE id=$1`, id, role)
}

func (r *Repo) wishlist(ctx context.Context, sql, id, productID string) ([]string, error) {
	var out []string
	err := r.DB.QueryRow(ctx, sql, id, productID).Scan(&out)
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("wishlist: %w", err)
	}
	return out, nil
}

func (r *Repo) AddWishlist(ctx context.Context, id, productID string) ([]string, error) {
	return r.wishlist(ctx, `
		UPDATE users SET wishlist = CASE WHEN $2 = ANY(wishlist) THEN wishlist ELSE array_append(wishlist, $2) END,
			updated_at=now()
		WHERE id=$1 RETURNING wishlist`, id, productID)
}

func (r *Repo) RemoveWishlist(ctx context.Context, id, productID string) ([]string, error) {
	return r.wishlist(ctx, `
		UPDATE users SET wishlist = array_remove(wishlist, $2), updated_at=now()
		WHERE id=$1 RETURNING wishlist`, id, productID)
}

func (r *Repo) List(ctx context.Context, f ListFilter, p paging.Params) ([]User, int, error) {
	var conds []string
	var args []any
	if f.Search != "" {
		args = append(args, f.Search)
		conds = append(conds, fmt.Sprintf("(name ILIKE '%%' || $%[1]d || '%%' OR email ILIKE '%%' || $%[1]d || '%%' OR phone ILIKE '%%' || $%[1]d || '%%')", len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	n := len(args)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		userColumns, where, n+1, n+2), append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// AdjustWallet moves the balance by amount and records the ledger entry atomically.
func (r *Repo) AdjustWallet(ctx context.Context, userID string, amount decimal.Decimal, reason, by string) (*WalletTransaction, error) {
	wt := &WalletTransaction{ID: uuid.NewString(), UserID: userID, Amount: amount, Reason: reason, CreatedBy: by}
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&balance)
		if postgres.IsNoRows(err) {
			return apperr.NotFound(apperr.MsgUserNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}
		wt.BalanceAfter = balance.Add(amount)
		if wt.BalanceAfter.IsNegative() {
			return apperr.Business(apperr.MsgInsufficientFunds)
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET wallet_balance=$2, updated_at=now() WHERE id=$1`, userID, wt.BalanceAfter); err != nil {
			return fmt.Errorf("update wallet: %w", err)
		}
		return tx.QueryRow(ctx, `
			INSERT INTO wallet_transactions(id, user_id, amount, reason, balance_after, created_by)
			VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
			wt.ID, userID, amount, reason, wt.BalanceAfter, by).Scan(&wt.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return wt, nil
}

func (r *Repo) WalletHistory(ctx context.Context, userID string, p paging.Params) ([]WalletTransaction, int, error) {
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallet transactions: %w", err)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, amount, reason, balance_after, created_by, created_at
		FROM wallet_transactions WHERE user_id=$1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("wallet history: %w", err)
	}
	defer rows.Close()
	out := []WalletTransaction{}
	for rows.Next() {
		var wt WalletTransaction
		if err := rows.Scan(&wt.ID, &wt.UserID, &wt.Amount, &wt.Reason, &wt.BalanceAfter, &wt.CreatedBy, &wt.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, wt)
	}
	return out, total, rows.Err()
}
