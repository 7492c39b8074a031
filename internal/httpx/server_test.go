package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/admin"
	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/orders"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// Fakes embed the interface so that only the methods a test touches need bodies.

type fakeAccounts struct {
	Accounts
	roles map[string]string
}

func (f *fakeAccounts) Principal(_ context.Context, id string) (string, error) {
	role, found := f.roles[id]
	if !found {
		return "", apperr.Unauthorized(apperr.MsgInvalidToken)
	}
	return role, nil
}

type fakeDashboard struct{}

func (fakeDashboard) Dashboard(context.Context) (*admin.Stats, error) {
	return &admin.Stats{Users: 2, Revenue: decimal.NewFromInt(240)}, nil
}

type fakeOrders struct {
	Orders
	placed []orders.PlaceInput
	keys   []string
}

func (f *fakeOrders) Place(_ context.Context, in orders.PlaceInput, key string) (*orders.Order, bool, error) {
	f.placed = append(f.placed, in)
	f.keys = append(f.keys, key)
	return &orders.Order{ID: "o-1", Number: "HD24101234", Status: orders.StatusPending}, key == "seen", nil
}

type fakeCarts struct {
	Carts
	items   []orders.ItemInput
	cleared []string
}

func (f *fakeCarts) Items(context.Context, string) ([]orders.ItemInput, error) { return f.items, nil }

func (f *fakeCarts) Clear(_ context.Context, owner string) error {
	f.cleared = append(f.cleared, owner)
	return nil
}

type response struct {
	Success    bool              `json:"success"`
	Data       json.RawMessage   `json:"data"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors"`
	Pagination *paging.Meta      `json:"pagination"`
}

type harness struct {
	router *chi.Mux
	tokens *auth.Maker
}

func newHarness(t *testing.T, d Deps) *harness {
	t.Helper()
	d.Log = zerolog.Nop()
	d.Tokens = auth.NewMaker(testSecret, time.Hour)
	if d.Accounts == nil {
		d.Accounts = &fakeAccounts{roles: map[string]string{"u-1": auth.RoleUser, "a-1": auth.RoleAdmin}}
	}
	if d.Dashboard == nil {
		d.Dashboard = fakeDashboard{}
	}
	return &harness{router: NewRouter(d), tokens: d.Tokens}
}

func (h *harness) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := h.tokens.Issue(userID, role)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path string, body any, headers map[string]string) (int, response, http.Header) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var res response
	if rec.Header().Get("Content-Type") != "" && rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec.Code, res, rec.Header()
}

func bearerHeader(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestHealthAndUnknownRoute(t *testing.T) {
	h := newHarness(t, Deps{})

	code, _, _ := h.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, code)

	code, res, _ := h.do(t, http.MethodGet, "/api/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, code)
	require.False(t, res.Success)
	require.Equal(t, apperr.MsgRouteNotFound, res.Message)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newHarness(t, Deps{})

	code, res, _ := h.do(t, http.MethodGet, "/api/admin/stats", nil, nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, apperr.MsgUnauthenticated, res.Message)

	code, res, _ = h.do(t, http.MethodGet, "/api/admin/stats", nil, bearerHeader(h.token(t, "u-1", auth.RoleUser)))
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, apperr.MsgForbidden, res.Message)

	code, res, _ = h.do(t, http.MethodGet, "/api/admin/stats", nil, bearerHeader(h.token(t, "a-1", auth.RoleAdmin)))
	require.Equal(t, http.StatusOK, code)
	require.True(t, res.Success)
	var st admin.Stats
	require.NoError(t, json.Unmarshal(res.Data, &st))
	require.Equal(t, 2, st.Users)
}

func TestRoleIsReadFromStoreNotToken(t *testing.T) {
	h := newHarness(t, Deps{})
	// the token still claims admin but the account was demoted
	tok := h.token(t, "u-1", auth.RoleAdmin)

	code, _, _ := h.do(t, http.MethodGet, "/api/admin/stats", nil, bearerHeader(tok))
	require.Equal(t, http.StatusForbidden, code)
}

func TestInvalidOrUnknownToken(t *testing.T) {
	h := newHarness(t, Deps{})

	code, res, _ := h.do(t, http.MethodGet, "/api/auth/me", nil, bearerHeader("garbage"))
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, apperr.MsgInvalidToken, res.Message)

	code, _, _ = h.do(t, http.MethodGet, "/api/auth/me", nil, bearerHeader(h.token(t, "ghost", auth.RoleUser)))
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestRateLimit(t *testing.T) {
	lim := ratelimit.NewMemory(ratelimit.Config{Scope: "api", Max: 2, Window: time.Hour})
	h := newHarness(t, Deps{Limiter: lim})

	for i := 0; i < 2; i++ {
		code, _, _ := h.do(t, http.MethodGet, "/api/nope", nil, nil)
		require.Equal(t, http.StatusNotFound, code)
	}
	code, res, hdr := h.do(t, http.MethodGet, "/api/nope", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, code)
	require.Equal(t, apperr.MsgTooManyRequests, res.Message)
	require.NotEmpty(t, hdr.Get("Retry-After"))

	// health checks sit outside /api
	code, _, _ = h.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, code)
}

func validPlaceBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{{"productId": "p-1", "quantity": 2}},
		"shippingAddress": map[string]any{
			"fullName": "سارة", "phone": "0500000000", "city": "الرياض", "street": "شارع الملك فهد",
		},
		"paymentMethod": "cash_on_delivery",
		"guestEmail":    "guest@example.com",
	}
}

func TestPlaceOrder(t *testing.T) {
	fo := &fakeOrders{}
	h := newHarness(t, Deps{Orders: fo})

	code, res, _ := h.do(t, http.MethodPost, "/api/orders", validPlaceBody(),
		map[string]string{idempotencyHeader: "k-1"})
	require.Equal(t, http.StatusCreated, code)
	require.True(t, res.Success)
	require.Equal(t, "k-1", fo.keys[0])
	require.Empty(t, fo.placed[0].UserID)

	tok := h.token(t, "u-1", auth.RoleUser)
	headers := bearerHeader(tok)
	headers[idempotencyHeader] = "seen"
	code, res, _ = h.do(t, http.MethodPost, "/api/orders", validPlaceBody(), headers)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "u-1", fo.placed[1].UserID)

	var body struct {
		ID         string `json:"id"`
		Number     string `json:"orderNumber"`
		Idempotent bool   `json:"idempotent"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &body))
	require.Equal(t, "o-1", body.ID)
	require.True(t, body.Idempotent)
}

func TestPlaceOrderIgnoresBodyUserID(t *testing.T) {
	fo := &fakeOrders{}
	h := newHarness(t, Deps{Orders: fo})
	body := validPlaceBody()
	body["UserID"] = "someone-else"

	code, _, _ := h.do(t, http.MethodPost, "/api/orders", body, nil)
	require.Equal(t, http.StatusCreated, code)
	require.Empty(t, fo.placed[0].UserID)
}

func TestPlaceOrderValidation(t *testing.T) {
	fo := &fakeOrders{}
	h := newHarness(t, Deps{Orders: fo})

	code, res, _ := h.do(t, http.MethodPost, "/api/orders", map[string]any{}, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, apperr.MsgInvalidInput, res.Message)
	require.Contains(t, res.Errors, "items")
	require.Contains(t, res.Errors, "paymentMethod")
	require.Empty(t, fo.placed)

	body := validPlaceBody()
	body["items"] = []map[string]any{{"productId": "p-1", "quantity": 0}}
	code, res, _ = h.do(t, http.MethodPost, "/api/orders", body, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, res.Errors, "items[0].quantity")
}

func TestMalformedJSON(t *testing.T) {
	h := newHarness(t, Deps{Orders: &fakeOrders{}})
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var res response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, apperr.MsgInvalidJSON, res.Message)
}

func TestCheckoutUsesCartAndClearsIt(t *testing.T) {
	fo := &fakeOrders{}
	fc := &fakeCarts{items: []orders.ItemInput{{ProductID: "p-1", Quantity: 3}}}
	h := newHarness(t, Deps{Orders: fo, Carts: fc})

	body := validPlaceBody()
	delete(body, "items")
	code, _, _ := h.do(t, http.MethodPost, "/api/cart/checkout", body, map[string]string{cartSessionHeader: "abc"})
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, fo.placed, 1)
	require.Equal(t, 3, fo.placed[0].Items[0].Quantity)
	require.Equal(t, []string{"session:abc"}, fc.cleared)
}

func TestCheckoutEmptyCart(t *testing.T) {
	fo := &fakeOrders{}
	h := newHarness(t, Deps{Orders: fo, Carts: &fakeCarts{}})

	code, res, _ := h.do(t, http.MethodPost, "/api/cart/checkout", validPlaceBody(), map[string]string{cartSessionHeader: "abc"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, apperr.MsgEmptyOrder, res.Message)
	require.Empty(t, fo.placed)
}

func TestCartNeedsOwner(t *testing.T) {
	h := newHarness(t, Deps{Carts: &fakeCarts{}})
	code, res, _ := h.do(t, http.MethodGet, "/api/cart", nil, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, apperr.MsgCartSession, res.Message)
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.Validation(apperr.MsgInvalidInput, map[string]string{"name": "x"}), http.StatusBadRequest, apperr.MsgInvalidInput},
		{apperr.Business(apperr.MsgReviewDuplicate), http.StatusBadRequest, apperr.MsgReviewDuplicate},
		{apperr.Unauthorized(apperr.MsgInvalidCredential), http.StatusUnauthorized, apperr.MsgInvalidCredential},
		{apperr.Forbidden(apperr.MsgForbidden), http.StatusForbidden, apperr.MsgForbidden},
		{apperr.NotFound(apperr.MsgOrderNotFound), http.StatusNotFound, apperr.MsgOrderNotFound},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, apperr.MsgInternal},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		require.Equal(t, tc.code, rec.Code)

		var res response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.False(t, res.Success)
		require.Equal(t, tc.msg, res.Message)
		require.NotContains(t, rec.Body.String(), "connection refused")
	}
}

func TestRecovererHidesPanic(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("secret detail")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), apperr.MsgInternal)
	require.NotContains(t, rec.Body.String(), "secret detail")
}
