package httpx

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/orders"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/go-chi/chi/v5"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 128

	msgOrderPlaced    = "تم إنشاء الطلب بنجاح"
	msgOrderCancelled = "تم إلغاء الطلب بنجاح"
	msgOrderUpdated   = "تم تحديث حالة الطلب بنجاح"
)

// placedOrder is the order plus whether the request replayed an earlier one.
type placedOrder struct {
	*orders.Order
	Idempotent bool `json:"idempotent"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *handlers) orderRoutes(r chi.Router) {
	r.Post("/", h.placeOrder)
	r.Get("/track/{orderNumber}", h.trackOrder)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Get("/", h.myOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/cancel", h.cancelOrder)
	})
}

func idempotencyKey(r *http.Request) (string, error) {
	k := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if len(k) > maxIdempotencyKey {
		return "", apperr.Validation(apperr.MsgInvalidInput, map[string]string{idempotencyHeader: "المفتاح طويل جداً"})
	}
	return k, nil
}

func (h *handlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	key, err := idempotencyKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in orders.PlaceInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.UserID = callerID(r)
	h.place(w, r, in, key)
}

func (h *handlers) place(w http.ResponseWriter, r *http.Request, in orders.PlaceInput, key string) {
	o, replayed, err := h.Orders.Place(r.Context(), in, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePlaced(w, o, replayed)
}

func writePlaced(w http.ResponseWriter, o *orders.Order, replayed bool) {
	body := placedOrder{Order: o, Idempotent: replayed}
	if replayed {
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: body, Message: msgOrderPlaced})
		return
	}
	created(w, body, msgOrderPlaced)
}

func (h *handlers) trackOrder(w http.ResponseWriter, r *http.Request) {
	t, err := h.Orders.Track(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, t)
}

func (h *handlers) myOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, meta, err := h.Orders.ListMine(r.Context(), callerID(r), q.Get("status"), paging.Parse(q, paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, items, meta)
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, o)
}

func (h *handlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var in cancelRequest
	if err := decodeOptional(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.Cancel(r.Context(), chi.URLParam(r, "id"), in.Reason, auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: o, Message: msgOrderCancelled})
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return check(dst)
	}
	err := decode(w, r, dst)
	if errors.Is(err, io.EOF) {
		return check(dst)
	}
	return err
}
