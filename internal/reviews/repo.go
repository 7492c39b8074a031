package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reviewColumns = `r.id, r.product_id, r.user_id, COALESCE(u.name, ''), r.rating, r.title, r.comment,
	r.is_verified_purchase, r.is_approved, r.helpful_count, r.reply, r.replied_at, r.created_at, r.updated_at`

const reviewFrom = ` FROM reviews r LEFT JOIN users u ON u.id = r.user_id`

type Repo struct{ DB *pgxpool.Pool }

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.ProductID, &r.UserID, &r.UserName, &r.Rating, &r.Title, &r.Comment,
		&r.IsVerifiedPurchase, &r.IsApproved, &r.HelpfulCount, &r.Reply, &r.RepliedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// lockProduct serializes rating recomputation per product.
func lockProduct(ctx context.Context, tx pgx.Tx, productID string, activeOnly bool) error {
	q := `SELECT id FROM products WHERE id=$1`
	if activeOnly {
		q += ` AND is_active`
	}
	var id string
	err := tx.QueryRow(ctx, q+` FOR UPDATE`, productID).Scan(&id)
	if postgres.IsNoRows(err) {
		return apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}

// recompute rewrites the product's rating from its approved reviews.
func recompute(ctx context.Context, tx pgx.Tx, productID string) (catalog.Rating, error) {
	rows, err := tx.Query(ctx, `SELECT rating FROM reviews WHERE product_id=$1 AND is_approved`, productID)
	if err != nil {
		return catalog.Rating{}, fmt.Errorf("load ratings: %w", err)
	}
	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return catalog.Rating{}, fmt.Errorf("load ratings: %w", err)
	}
	sum := Summarize(ratings)
	if _, err := tx.Exec(ctx, `UPDATE products SET rating_average=$2, rating_count=$3 WHERE id=$1`,
		productID, sum.Average, sum.Count); err != nil {
		return catalog.Rating{}, fmt.Errorf("update product rating: %w", err)
	}
	return sum, nil
}

func (r *Repo) Create(ctx context.Context, rv *Review) error {
	return postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, rv.ProductID, true); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM orders o JOIN order_items i ON i.order_id = o.id
				WHERE o.user_id=$1 AND i.product_id=$2 AND o.status='delivered')`,
			rv.UserID, rv.ProductID).Scan(&rv.IsVerifiedPurchase)
		if err != nil {
			return fmt.Errorf("verified purchase: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO reviews(id, product_id, user_id, rating, title, comment, is_verified_purchase, is_approved)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING created_at, updated_at`,
			rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment, rv.IsVerifiedPurchase, rv.IsApproved,
		).Scan(&rv.CreatedAt, &rv.UpdatedAt)
		if c, ok := postgres.UniqueViolation(err); ok && c == "reviews_product_user_key" {
			return apperr.Business(apperr.MsgReviewDuplicate).Wrap(err)
		}
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		_, err = recompute(ctx, tx, rv.ProductID)
		return err
	})
}

func (r *Repo) Get(ctx context.Context, id string) (*Review, error) {
	rv, err := scanReview(r.DB.QueryRow(ctx, `SELECT `+reviewColumns+reviewFrom+` WHERE r.id=$1`, id))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgReviewNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

// Update saves rating, title and comment.
func (r *Repo) Update(ctx context.Context, rv *Review) error {
	return postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, rv.ProductID, false); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			UPDATE reviews SET rating=$2, title=$3, comment=$4, updated_at=now()
			WHERE id=$1 RETURNING updated_at`, rv.ID, rv.Rating, rv.Title, rv.Comment).Scan(&rv.UpdatedAt)
		if postgres.IsNoRows(err) {
			return apperr.NotFound(apperr.MsgReviewNotFound)
		}
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		_, err = recompute(ctx, tx, rv.ProductID)
		return err
	})
}

func (r *Repo) Delete(ctx context.Context, id, productID string) error {
	return postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, productID, false); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperr.NotFound(apperr.MsgReviewNotFound)
		}
		_, err = recompute(ctx, tx, productID)
		return err
	})
}

func (r *Repo) SetApproved(ctx context.Context, id, productID string, approved bool) error {
	return postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, productID, false); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `UPDATE reviews SET is_approved=$2, updated_at=now() WHERE id=$1`, id, approved)
		if err != nil {
			return fmt.Errorf("approve review: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperr.NotFound(apperr.MsgReviewNotFound)
		}
		_, err = recompute(ctx, tx, productID)
		return err
	})
}

func (r *Repo) Reply(ctx context.Context, id, reply string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE reviews SET reply=$2, replied_at=CASE WHEN $2 = '' THEN NULL ELSE now() END, updated_at=now()
		WHERE id=$1`, id, reply)
	if err != nil {
		return fmt.Errorf("reply review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound(apperr.MsgReviewNotFound)
	}
	return nil
}

// ToggleHelpful adds the user's vote, or removes it when already present, and
// returns the resulting count.
func (r *Repo) ToggleHelpful(ctx context.Context, id, userID string) (count int, voted bool, err error) {
	err = postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reviews WHERE id=$1 AND is_approved)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("helpful vote: %w", err)
		}
		if !exists {
			return apperr.NotFound(apperr.MsgReviewNotFound)
		}
		ct, err := tx.Exec(ctx, `DELETE FROM review_helpful_votes WHERE review_id=$1 AND user_id=$2`, id, userID)
		if err != nil {
			return fmt.Errorf("helpful vote: %w", err)
		}
		if ct.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `INSERT INTO review_helpful_votes(review_id, user_id) VALUES ($1,$2)`, id, userID); err != nil {
				return fmt.Errorf("helpful vote: %w", err)
			}
			voted = true
		}
		return tx.QueryRow(ctx, `
			UPDATE reviews SET helpful_count = (SELECT COUNT(*) FROM review_helpful_votes WHERE review_id=$1)
			WHERE id=$1 RETURNING helpful_count`, id).Scan(&count)
	})
	return count, voted, err
}

func (r *Repo) ListByProduct(ctx context.Context, productID string, sort Sort, p paging.Params) ([]Review, int, error) {
	return r.list(ctx, []string{"r.product_id = $1", "r.is_approved"}, []any{productID}, sort, p)
}

func (r *Repo) AdminList(ctx context.Context, f AdminFilter, p paging.Params) ([]Review, int, error) {
	var conds []string
	var args []any
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		conds = append(conds, fmt.Sprintf("r.product_id = $%d", len(args)))
	}
	if f.Approved != nil {
		args = append(args, *f.Approved)
		conds = append(conds, fmt.Sprintf("r.is_approved = $%d", len(args)))
	}
	return r.list(ctx, conds, args, SortNewest, p)
}

func (r *Repo) list(ctx context.Context, conds []string, args []any, sort Sort, p paging.Params) ([]Review, int, error) {
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reviews r WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	n := len(args)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`SELECT %s%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		reviewColumns, reviewFrom, where, sort.orderBy(), n+1, n+2), append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()
	out := []Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

func (r *Repo) Distribution(ctx context.Context, productID string) (Distribution, error) {
	var d Distribution
	rows, err := r.DB.Query(ctx, `
		SELECT rating, COUNT(*) FROM reviews WHERE product_id=$1 AND is_approved GROUP BY rating`, productID)
	if err != nil {
		return d, fmt.Errorf("rating distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var star, n int
		if err := rows.Scan(&star, &n); err != nil {
			return d, err
		}
		if star >= 1 && star <= 5 {
			d[star] = n
		}
	}
	return d, rows.Err()
}

// Recompute rewrites a product's rating outside any review write.
func (r *Repo) Recompute(ctx context.Context, productID string) (catalog.Rating, error) {
	var out catalog.Rating
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, productID, false); err != nil {
			return err
		}
		var err error
		out, err = recompute(ctx, tx, productID)
		return err
	})
	return out, err
}
