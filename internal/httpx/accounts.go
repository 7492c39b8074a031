package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/cart"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	msgRegistered      = "تم إنشاء الحساب بنجاح"
	msgLoggedIn        = "تم تسجيل الدخول بنجاح"
	msgProfileUpdated  = "تم تحديث الملف الشخصي بنجاح"
	msgPasswordChanged = "تم تغيير كلمة المرور بنجاح"
	msgWishlistAdded   = "تمت إضافة المنتج إلى المفضلة"
	msgWishlistRemoved = "تمت إزالة المنتج من المفضلة"
	msgCreated         = "تم الإنشاء بنجاح"
	msgUpdated         = "تم التحديث بنجاح"
	msgDeleted         = "تم الحذف بنجاح"
)

// callerID is only meaningful behind RequireAuth.
func callerID(r *http.Request) string {
	if c := auth.FromContext(r.Context()); c != nil {
		return c.UserID
	}
	return ""
}

func intParam(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 && v <= paging.MaxLimit {
		return v
	}
	return def
}

func (h *handlers) authRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Get("/me", h.me)
		r.Put("/update-profile", h.updateProfile)
		r.Put("/change-password", h.changePassword)
		r.Get("/wishlist", h.wishlist)
		r.Post("/wishlist/{productId}", h.addWishlist)
		r.Delete("/wishlist/{productId}", h.removeWishlist)
		r.Get("/wallet", h.wallet)
	})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.adoptGuestCart(r, s.User.ID)
	created(w, s, msgRegistered)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var in users.LoginInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.adoptGuestCart(r, s.User.ID)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: s, Message: msgLoggedIn})
}

// adoptGuestCart moves the session cart named by X-Cart-Session into the user's cart.
func (h *handlers) adoptGuestCart(r *http.Request, userID string) {
	session := strings.TrimSpace(r.Header.Get(cartSessionHeader))
	if h.Carts == nil || session == "" {
		return
	}
	from, _ := cart.Owner("", session)
	to, _ := cart.Owner(userID, "")
	if _, err := h.Carts.Merge(r.Context(), from, to); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("guest cart merge failed")
	}
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Accounts.Me(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, u)
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in users.ProfileInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Accounts.UpdateProfile(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: u, Message: msgProfileUpdated})
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var in users.PasswordInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Accounts.ChangePassword(r.Context(), callerID(r), in); err != nil {
		writeError(w, r, err)
		return
	}
	message(w, msgPasswordChanged)
}

func (h *handlers) wishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.Accounts.Wishlist(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, items)
}

func (h *handlers) addWishlist(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Accounts.AddToWishlist(r.Context(), callerID(r), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: ids, Message: msgWishlistAdded})
}

func (h *handlers) removeWishlist(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Accounts.RemoveFromWishlist(r.Context(), callerID(r), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: ids, Message: msgWishlistRemoved})
}

func (h *handlers) wallet(w http.ResponseWriter, r *http.Request) {
	wl, meta, err := h.Accounts.Wallet(r.Context(), callerID(r), paging.Parse(r.URL.Query(), paging.DefaultLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page(w, wl, meta)
}
