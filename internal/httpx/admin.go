package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/coupons"
	"github.com/ariefcatur/go-giftshop/internal/orders"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/reviews"
	"github.com/ariefcatur/go-giftshop/internal/users"
	"github.com/go-chi/chi/v5"
)

type statusRequest struct {
	Status orders.Status `json:"status" validate:"required"`
	Note   string        `json:"note" validate:"max=500"`
}

type activeRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type approveRequest struct {
	Approved *bool `json:"isApproved" validate:"required"`
}

type replyRequest struct {
	Reply string `json:"reply" validate:"max=2000"`
}

func (h *handlers) adminRoutes(r chi.Router) {
	r.Get("/stats", h.stats)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.adminProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.adminProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.adminCategories)
		r.Post("/", h.createCategory)
		r.Put("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.adminOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/status", h.updateOrderStatus)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.adminUsers)
		r.Get("/{id}", h.adminUser)
		r.Put("/{id}/active", h.setUserActive)
		r.Put("/{id}/role", h.setUserRole)
		r.Post("/{id}/wallet", h.adjustWallet)
	})
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.adminReviews)
		r.Put("/{id}/approve", h.approveReview)
		r.Put("/{id}/reply", h.replyReview)
		r.Delete("/{id}", h.deleteReview)
	})
	r.Route("/coupons", func(r chi.Router) {
		r.Get("/", h.adminCoupons)
		r.Post("/", h.createCoupon)
		r.Get("/{id}", h.adminCoupon)
		r.Put("/{id}", h.updateCoupon)
		r.Delete("/{id}", h.deleteCoupon)
	})
}

func boolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{name: "قيمة غير صالحة"})
	}
	return &b, nil
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Dashboard.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, st)
}

// Products

func (h *handlers) adminProducts(w http.ResponseWriter, r *http.Request) {
	f, errs := catalog.ParseListFilter(r.URL.Query())
	if errs != nil {
		writeError(w, r, apperr.Validation(apperr.MsgInvalidInput, errs))
		return
	}
	f.IncludeInactive = true
	items, meta, err := h.Catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) adminProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.AdminProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, p)
}

func (h *handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, p, msgCreated)
}

func (h *handlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: p, Message: msgUpdated})
}

func (h *handlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	message(w, msgDeleted)
}

// Categories

func (h *handlers) adminCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.AdminCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, items)
}

func (h *handlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, c, msgCreated)
}

func (h *handlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: c, Message: msgUpdated})
}

func (h *handlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	message(w, msgDeleted)
}

// Orders

func (h *handlers) adminOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := orders.ListFilter{
		Status: q.Get("status"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	items, meta, err := h.Orders.AdminList(r.Context(), f, paging.Parse(q, paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in.Status, in.Note, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: o, Message: msgOrderUpdated})
}

// Users

func (h *handlers) adminUsers(w http.ResponseWriter, r *http.Request) {
	active, err := boolParam(r, "isActive")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := users.ListFilter{Search: strings.TrimSpace(q.Get("search")), Role: q.Get("role"), Active: active}
	items, meta, err := h.Accounts.List(r.Context(), f, paging.Parse(q, paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) adminUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Accounts.AdminGet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, u)
}

func (h *handlers) setUserActive(w http.ResponseWriter, r *http.Request) {
	var in activeRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Accounts.SetActive(r.Context(), chi.URLParam(r, "id"), *in.IsActive, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: u, Message: msgUpdated})
}

func (h *handlers) setUserRole(w http.ResponseWriter, r *http.Request) {
	var in roleRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Accounts.SetRole(r.Context(), chi.URLParam(r, "id"), in.Role, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: u, Message: msgUpdated})
}

func (h *handlers) adjustWallet(w http.ResponseWriter, r *http.Request) {
	var in users.WalletAdjustInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.Accounts.AdjustWallet(r.Context(), chi.URLParam(r, "id"), in, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, tx, msgUpdated)
}

// Reviews

func (h *handlers) adminReviews(w http.ResponseWriter, r *http.Request) {
	approved, err := boolParam(r, "isApproved")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := reviews.AdminFilter{ProductID: q.Get("productId"), Approved: approved}
	items, meta, err := h.Reviews.AdminList(r.Context(), f, paging.Parse(q, paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) approveReview(w http.ResponseWriter, r *http.Request) {
	var in approveRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.Reviews.SetApproved(r.Context(), chi.URLParam(r, "id"), *in.Approved)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rv, Message: msgUpdated})
}

func (h *handlers) replyReview(w http.ResponseWriter, r *http.Request) {
	var in replyRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.Reviews.Reply(r.Context(), chi.URLParam(r, "id"), in.Reply)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rv, Message: msgUpdated})
}

// Coupons

func (h *handlers) adminCoupons(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.Coupons.List(r.Context(), paging.Parse(r.URL.Query(), paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) adminCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.Coupons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, c)
}

func (h *handlers) createCoupon(w http.ResponseWriter, r *http.Request) {
	var in coupons.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Coupons.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, c, msgCreated)
}

func (h *handlers) updateCoupon(w http.ResponseWriter, r *http.Request) {
	var in coupons.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Coupons.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: c, Message: msgUpdated})
}

func (h *handlers) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.Coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	message(w, msgDeleted)
}
