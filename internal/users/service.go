package users

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Store interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateProfile(ctx context.Context, u *User) error
	SetPassword(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id, role string) error
	AddWishlist(ctx context.Context, id, productID string) ([]string, error)
	RemoveWishlist(ctx context.Context, id, productID string) ([]string, error)
	List(ctx context.Context, f ListFilter, p paging.Params) ([]User, int, error)
	AdjustWallet(ctx context.Context, userID string, amount decimal.Decimal, reason, by string) (*WalletTransaction, error)
	WalletHistory(ctx context.Context, userID string, p paging.Params) ([]WalletTransaction, int, error)
}

// Products resolves wishlist entries; *catalog.Service satisfies it.
type Products interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type Service struct {
	store    Store
	tokens   *auth.Maker
	products Products
}

func NewService(store Store, tokens *auth.Maker, products Products) *Service {
	return &Service{store: store, tokens: tokens, products: products}
}

// Session is returned by register and login.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         auth.RoleUser,
		Addresses:    []Address{},
		Wishlist:     []string{},
		IsActive:     true,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", u.ID).Msg("user registered")
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.store.GetByEmail(ctx, normalizeEmail(in.Email))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized(apperr.MsgInvalidCredential)
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, apperr.Unauthorized(apperr.MsgInvalidCredential)
	}
	if !u.IsActive {
		return nil, apperr.Forbidden(apperr.MsgAccountDisabled)
	}
	return s.session(u)
}

func (s *Service) session(u *User) (*Session, error) {
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: tok}, nil
}

// Principal resolves the current role of an authenticated caller so role
// changes and deactivation take effect before the token expires.
func (s *Service) Principal(ctx context.Context, id string) (string, error) {
	u, err := s.store.Get(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", apperr.Unauthorized(apperr.MsgInvalidToken)
	}
	if err != nil {
		return "", err
	}
	if !u.IsActive {
		return "", apperr.Forbidden(apperr.MsgAccountDisabled)
	}
	return u.Role, nil
}

func (s *Service) Me(ctx context.Context, id string) (*User, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Addresses != nil {
		u.Addresses = normalizeAddresses(*in.Addresses, uuid.NewString)
	}
	if err := s.store.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id string, in PasswordInput) error {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		return apperr.Validation(apperr.MsgWrongPassword, map[string]string{"currentPassword": apperr.MsgWrongPassword})
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.store.SetPassword(ctx, id, hash)
}

// Wishlist returns the saved products in the order they were added, skipping
// products that were removed or deactivated since.
func (s *Service) Wishlist(ctx context.Context, id string) ([]catalog.Product, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	found, err := s.products.ProductsByIDs(ctx, u.Wishlist)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(u.Wishlist))
	for _, pid := range u.Wishlist {
		if p, ok := found[pid]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) AddToWishlist(ctx context.Context, id, productID string) ([]string, error) {
	found, err := s.products.ProductsByIDs(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	if p, ok := found[productID]; !ok || !p.IsActive {
		return nil, apperr.NotFound(apperr.MsgProductNotFound)
	}
	return s.store.AddWishlist(ctx, id, productID)
}

func (s *Service) RemoveFromWishlist(ctx context.Context, id, productID string) ([]string, error) {
	return s.store.RemoveWishlist(ctx, id, productID)
}

type Wallet struct {
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
}

func (s *Service) Wallet(ctx context.Context, id string, p paging.Params) (*Wallet, paging.Meta, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	txs, total, err := s.store.WalletHistory(ctx, id, p)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return &Wallet{Balance: u.WalletBalance, Transactions: txs}, p.Meta(total), nil
}

// Admin

func (s *Service) List(ctx context.Context, f ListFilter, p paging.Params) ([]User, paging.Meta, error) {
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return items, p.Meta(total), nil
}

func (s *Service) AdminGet(ctx context.Context, id string) (*User, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool, by string) (*User, error) {
	if id == by && !active {
		return nil, apperr.Business(apperr.MsgSelfDeactivate)
	}
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", id).Bool("active", active).Str("by", by).Msg("user activation changed")
	return s.store.Get(ctx, id)
}

func (s *Service) SetRole(ctx context.Context, id, role, by string) (*User, error) {
	if role != auth.RoleUser && role != auth.RoleAdmin {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"role": "دور غير معروف"})
	}
	if id == by && role != auth.RoleAdmin {
		return nil, apperr.Business(apperr.MsgSelfDemote)
	}
	if err := s.store.SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", id).Str("role", role).Str("by", by).Msg("user role changed")
	return s.store.Get(ctx, id)
}

func (s *Service) AdjustWallet(ctx context.Context, id string, in WalletAdjustInput, by string) (*WalletTransaction, error) {
	if in.Amount.IsZero() {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"amount": "المبلغ يجب ألا يساوي صفراً"})
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"amount": "المبلغ يقبل خانتين عشريتين فقط"})
	}
	wt, err := s.store.AdjustWallet(ctx, id, in.Amount, strings.TrimSpace(in.Reason), by)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", id).Str("amount", in.Amount.String()).Str("by", by).Msg("wallet adjusted")
	return wt, nil
}
