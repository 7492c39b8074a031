package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/reviews"
	"github.com/go-chi/chi/v5"
)

const (
	msgReviewAdded   = "تم إضافة التقييم بنجاح"
	msgReviewUpdated = "تم تحديث التقييم بنجاح"
	msgReviewDeleted = "تم حذف التقييم بنجاح"
)

type helpfulResponse struct {
	HelpfulCount int  `json:"helpfulCount"`
	Voted        bool `json:"voted"`
}

func (h *handlers) reviewRoutes(r chi.Router) {
	r.Get("/product/{productId}", h.productReviews)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Post("/product/{productId}", h.createReview)
		r.Put("/{id}", h.updateReview)
		r.Delete("/{id}", h.deleteReview)
		r.Post("/{id}/helpful", h.toggleHelpful)
	})
}

func (h *handlers) productReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, meta, err := h.Reviews.ForProduct(r.Context(), chi.URLParam(r, "productId"),
		reviews.Sort(q.Get("sort")), paging.Parse(q, paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, res, meta)
}

func (h *handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var in reviews.CreateInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.Reviews.Create(r.Context(), chi.URLParam(r, "productId"), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created(w, rv, msgReviewAdded)
}

func (h *handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	var in reviews.UpdateInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.Reviews.Update(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rv, Message: msgReviewUpdated})
}

func (h *handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.Reviews.Delete(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	message(w, msgReviewDeleted)
}

func (h *handlers) toggleHelpful(w http.ResponseWriter, r *http.Request) {
	n, voted, err := h.Reviews.ToggleHelpful(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, helpfulResponse{HelpfulCount: n, Voted: voted})
}
