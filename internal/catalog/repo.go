package catalog

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductColumns selects a full product from the products table aliased p.
const ProductColumns = `p.id, p.name, p.slug, p.description, p.price, p.old_price, p.stock, p.category_id,
	p.images, p.tags, p.occasions, p.recipients, p.sizes, p.colors, p.addons,
	p.is_featured, p.is_active, p.rating_average, p.rating_count, p.sales_count, p.view_count,
	p.created_at, p.updated_at`

const categoryColumns = `id, name, slug, description, image, parent_id, display_order, is_active,
	product_count, created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

// ScanProduct reads a row selected with ProductColumns.
func ScanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OldPrice, &p.Stock, &p.CategoryID,
		&p.Images, &p.Tags, &p.Occasions, &p.Recipients, &p.Sizes, &p.Colors, &p.Addons,
		&p.IsFeatured, &p.IsActive, &p.Rating.Average, &p.Rating.Count, &p.SalesCount, &p.ViewCount,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.ParentID, &c.DisplayOrder,
		&c.IsActive, &c.ProductCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repo) ListProducts(ctx context.Context, f ListFilter) ([]Product, int, error) {
	where, args := f.where()

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	n := len(args)
	q := fmt.Sprintf(`SELECT %s FROM products p WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		ProductColumns, where, f.orderBy(), n+1, n+2)
	rows, err := r.DB.Query(ctx, q, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := ScanProduct(r.DB.QueryRow(ctx, `SELECT `+ProductColumns+` FROM products p WHERE p.id=$1`, id))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetProductBySlug returns an active product and counts the view.
func (r *Repo) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	p, err := ScanProduct(r.DB.QueryRow(ctx, `
		UPDATE products p SET view_count = view_count + 1
		WHERE p.slug=$1 AND p.is_active
		RETURNING `+ProductColumns, slug))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return &p, nil
}

func (r *Repo) ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	out := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+ProductColumns+` FROM products p WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("products by ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, slug, description, price, old_price, stock, category_id,
			images, tags, occasions, recipients, sizes, colors, addons, is_featured, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OldPrice, p.Stock, p.CategoryID,
		p.Images, p.Tags, p.Occasions, p.Recipients, p.Sizes, p.Colors, p.Addons, p.IsFeatured, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return translateWriteErr(err, "create product", "categoryId")
}

func (r *Repo) UpdateProduct(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET name=$2, slug=$3, description=$4, price=$5, old_price=$6, stock=$7,
			category_id=$8, images=$9, tags=$10, occasions=$11, recipients=$12, sizes=$13, colors=$14,
			addons=$15, is_featured=$16, is_active=$17, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OldPrice, p.Stock, p.CategoryID,
		p.Images, p.Tags, p.Occasions, p.Recipients, p.Sizes, p.Colors, p.Addons, p.IsFeatured, p.IsActive,
	).Scan(&p.UpdatedAt)
	if postgres.IsNoRows(err) {
		return apperr.NotFound(apperr.MsgProductNotFound)
	}
	return translateWriteErr(err, "update product", "categoryId")
}

// DeleteProduct removes a product, or deactivates it when orders still reference it.
// It reports whether the row was actually deleted.
func (r *Repo) DeleteProduct(ctx context.Context, id string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err == nil {
		if ct.RowsAffected() == 0 {
			return false, apperr.NotFound(apperr.MsgProductNotFound)
		}
		return true, nil
	}
	if !postgres.ForeignKeyViolation(err) {
		return false, fmt.Errorf("delete product: %w", err)
	}
	if _, err := r.DB.Exec(ctx, `UPDATE products SET is_active=false, updated_at=now() WHERE id=$1`, id); err != nil {
		return false, fmt.Errorf("deactivate product: %w", err)
	}
	return false, nil
}

func (r *Repo) ListCategories(ctx context.Context, includeInactive bool) ([]Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM categories`
	if !includeInactive {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY display_order, name`
	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory looks a category up by id or slug.
func (r *Repo) GetCategory(ctx context.Context, idOrSlug string) (*Category, error) {
	c, err := scanCategory(r.DB.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id=$1 OR slug=$1 LIMIT 1`, idOrSlug))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound(apperr.MsgCategoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO categories(id, name, slug, description, image, parent_id, display_order, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.DisplayOrder, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translateWriteErr(err, "create category", "parentId")
}

func (r *Repo) UpdateCategory(ctx context.Context, c *Category) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE categories SET name=$2, slug=$3, description=$4, image=$5, parent_id=$6,
			display_order=$7, is_active=$8, updated_at=now()
		WHERE id=$1
		RETURNING product_count, created_at, updated_at`,
		c.ID, c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.DisplayOrder, c.IsActive,
	).Scan(&c.ProductCount, &c.CreatedAt, &c.UpdatedAt)
	if postgres.IsNoRows(err) {
		return apperr.NotFound(apperr.MsgCategoryNotFound)
	}
	return translateWriteErr(err, "update category", "parentId")
}

// DeleteCategory refuses while products or child categories still point at it.
func (r *Repo) DeleteCategory(ctx context.Context, id string) error {
	return postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		var inUse bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM products WHERE category_id=$1)
			    OR EXISTS (SELECT 1 FROM categories WHERE parent_id=$1)`, id).Scan(&inUse)
		if err != nil {
			return fmt.Errorf("category usage: %w", err)
		}
		if inUse {
			return apperr.Business(apperr.MsgCategoryInUse)
		}
		ct, err := tx.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperr.NotFound(apperr.MsgCategoryNotFound)
		}
		return nil
	})
}

// RecountCategories refreshes the denormalized active product count.
// With no ids every category is recounted.
func (r *Repo) RecountCategories(ctx context.Context, ids ...string) error {
	q := `UPDATE categories c SET product_count =
		(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.is_active)`
	var args []any
	if len(ids) > 0 {
		q += ` WHERE c.id = ANY($1)`
		args = append(args, ids)
	}
	if _, err := r.DB.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("recount categories: %w", err)
	}
	return nil
}

func translateWriteErr(err error, op, refField string) error {
	if err == nil {
		return nil
	}
	if _, ok := postgres.UniqueViolation(err); ok {
		return apperr.Business(apperr.MsgSlugTaken).Wrap(err)
	}
	if postgres.ForeignKeyViolation(err) {
		return apperr.Validation(apperr.MsgInvalidInput, map[string]string{refField: apperr.MsgCategoryNotFound}).Wrap(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
