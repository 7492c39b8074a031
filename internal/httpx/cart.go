package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/cart"
	"github.com/ariefcatur/go-giftshop/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	cartSessionHeader = "X-Cart-Session"
	msgCartCleared    = "تم إفراغ سلة التسوق"
)

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=100"`
}

func (h *handlers) cartRoutes(r chi.Router) {
	r.Get("/", h.withCart(h.viewCart))
	r.Delete("/", h.clearCart)
	r.Post("/items", h.withCart(h.addCartItem))
	r.Put("/items/{lineId}", h.withCart(h.setCartQuantity))
	r.Delete("/items/{lineId}", h.withCart(h.removeCartItem))
	r.Post("/checkout", h.checkout)
}

func cartOwner(r *http.Request) (string, error) {
	return cart.Owner(callerID(r), r.Header.Get(cartSessionHeader))
}

// withCart resolves the cart owner and writes the resulting view.
type cartHandler func(w http.ResponseWriter, r *http.Request, owner string) (*cart.View, error)

func (h *handlers) withCart(fn cartHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		v, err := fn(w, r, owner)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, v)
	}
}

func (h *handlers) viewCart(_ http.ResponseWriter, r *http.Request, owner string) (*cart.View, error) {
	return h.Carts.Get(r.Context(), owner)
}

func (h *handlers) addCartItem(w http.ResponseWriter, r *http.Request, owner string) (*cart.View, error) {
	var in cart.AddInput
	if err := decode(w, r, &in); err != nil {
		return nil, err
	}
	return h.Carts.Add(r.Context(), owner, in)
}

func (h *handlers) setCartQuantity(w http.ResponseWriter, r *http.Request, owner string) (*cart.View, error) {
	var in quantityRequest
	if err := decode(w, r, &in); err != nil {
		return nil, err
	}
	return h.Carts.SetQuantity(r.Context(), owner, chi.URLParam(r, "lineId"), in.Quantity)
}

func (h *handlers) removeCartItem(_ http.ResponseWriter, r *http.Request, owner string) (*cart.View, error) {
	return h.Carts.Remove(r.Context(), owner, chi.URLParam(r, "lineId"))
}

func (h *handlers) clearCart(w http.ResponseWriter, r *http.Request) {
	owner, err := cartOwner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Carts.Clear(r.Context(), owner); err != nil {
		writeError(w, r, err)
		return
	}
	message(w, msgCartCleared)
}

// checkout places an order from the cart contents. The body carries everything but the items.
func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	owner, err := cartOwner(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	key, err := idempotencyKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in orders.PlaceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Carts.Items(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(items) == 0 {
		writeError(w, r, apperr.Business(apperr.MsgEmptyOrder))
		return
	}
	in.Items = items
	in.UserID = callerID(r)
	if err := check(&in); err != nil {
		writeError(w, r, err)
		return
	}

	o, replayed, err := h.Orders.Place(r.Context(), in, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Carts.Clear(r.Context(), owner); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("order_id", o.ID).Msg("cart clear after checkout failed")
	}
	writePlaced(w, o, replayed)
}
