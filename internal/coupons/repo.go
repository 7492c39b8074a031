package coupons

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const couponColumns = `id, code, description, discount_type, value, min_purchase, max_discount, starts_at,
	ends_at, usage_limit, per_user_limit, used_count, categories, products, excluded_products, is_active,
	created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.Value, &c.MinPurchase, &c.MaxDiscount,
		&c.StartsAt, &c.EndsAt, &c.UsageLimit, &c.PerUserLimit, &c.UsedCount, &c.Categories, &c.Products,
		&c.ExcludedProducts, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repo) List(ctx context.Context, p paging.Params) ([]Coupon, int, error) {
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}
	rows, err := r.DB.Query(ctx, `SELECT `+couponColumns+` FROM coupons
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()
	out := []Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Coupon, error) {
	c, err := scanCoupon(r.DB.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id=$1 OR code=upper($1)`, id))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgCouponNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}

func translate(err error, op string) error {
	if c, ok := postgres.UniqueViolation(err); ok && c == "coupons_code_key" {
		return apperr.Business(apperr.MsgCouponTaken).Wrap(err)
	}
	if postgres.IsNoRows(err) {
		return apperr.NotFound(apperr.MsgCouponNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, c *Coupon) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO coupons(id, code, description, discount_type, value, min_purchase, max_discount,
			starts_at, ends_at, usage_limit, per_user_limit, categories, products, excluded_products, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		c.ID, c.Code, c.Description, c.DiscountType, c.Value, c.MinPurchase, c.MaxDiscount, c.StartsAt, c.EndsAt,
		c.UsageLimit, c.PerUserLimit, c.Categories, c.Products, c.ExcludedProducts, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate(err, "create coupon")
}

func (r *Repo) Update(ctx context.Context, c *Coupon) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE coupons SET code=$2, description=$3, discount_type=$4, value=$5, min_purchase=$6,
			max_discount=$7, starts_at=$8, ends_at=$9, usage_limit=$10, per_user_limit=$11, categories=$12,
			products=$13, excluded_products=$14, is_active=$15, updated_at=now()
		WHERE id=$1 RETURNING updated_at`,
		c.ID, c.Code, c.Description, c.DiscountType, c.Value, c.MinPurchase, c.MaxDiscount, c.StartsAt, c.EndsAt,
		c.UsageLimit, c.PerUserLimit, c.Categories, c.Products, c.ExcludedProducts, c.IsActive,
	).Scan(&c.UpdatedAt)
	return translate(err, "update coupon")
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM coupons WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound(apperr.MsgCouponNotFound)
	}
	return nil
}
