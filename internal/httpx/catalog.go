package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/go-chi/chi/v5"
)

const shelfLimit = 8

func (h *handlers) productRoutes(r chi.Router) {
	r.Get("/", h.listProducts)
	r.Get("/featured", h.shelf(Catalog.Featured))
	r.Get("/bestsellers", h.shelf(Catalog.Bestsellers))
	r.Get("/new", h.shelf(Catalog.NewArrivals))
	r.Get("/slug/{slug}", h.productBySlug)
	r.Get("/by-occasion/{occasion}", h.byOccasion)
	r.Get("/by-recipient/{recipient}", h.byRecipient)
	r.Get("/{id}", h.product)
	r.Get("/{id}/related", h.related)
}

func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	f, errs := catalog.ParseListFilter(r.URL.Query())
	if errs != nil {
		writeError(w, r, apperr.Validation(apperr.MsgInvalidInput, errs))
		return
	}
	items, meta, err := h.Catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

// shelf serves one of the fixed-size product lists. fn is a method expression on Catalog.
func (h *handlers) shelf(fn func(Catalog, context.Context, int) ([]catalog.Product, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fn(h.Catalog, r.Context(), intParam(r, "limit", shelfLimit))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, items)
	}
}

func (h *handlers) productBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.ProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, p)
}

func (h *handlers) product(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, p)
}

func (h *handlers) related(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.Related(r.Context(), chi.URLParam(r, "id"), intParam(r, "limit", shelfLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, items)
}

func (h *handlers) byOccasion(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.Catalog.ByOccasion(r.Context(), chi.URLParam(r, "occasion"),
		paging.Parse(r.URL.Query(), paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) byRecipient(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.Catalog.ByRecipient(r.Context(), chi.URLParam(r, "recipient"),
		paging.Parse(r.URL.Query(), paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) categoryRoutes(r chi.Router) {
	r.Get("/", h.categories)
	r.Get("/tree", h.categoryTree)
	r.Get("/{idOrSlug}", h.category)
	r.With(RequireAdmin).Post("/", h.createCategory)
}

func (h *handlers) categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, items)
}

func (h *handlers) categoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.Catalog.CategoryTree(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, tree)
}

func (h *handlers) category(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.Category(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, c)
}
