package users

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/postgres/pgtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RepoSuite struct {
	suite.Suite
	repo *Repo
	ctx  context.Context
}

func TestRepoSuite(t *testing.T) {
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) SetupTest() {
	s.repo = &Repo{DB: pgtest.Open(s.T())}
	s.ctx = context.Background()
}

func (s *RepoSuite) newUser(id, email string) *User {
	u := &User{ID: id, Name: "N " + id, Email: email, PasswordHash: "h", Role: "user",
		Addresses: []Address{}, Wishlist: []string{}, IsActive: true}
	s.Require().NoError(s.repo.Create(s.ctx, u))
	return u
}

func (s *RepoSuite) TestEmailUniqueIgnoresCase() {
	s.newUser("u-1", "a@example.com")
	err := s.repo.Create(s.ctx, &User{ID: "u-2", Name: "x", Email: "A@Example.com", PasswordHash: "h", Role: "user",
		Addresses: []Address{}, Wishlist: []string{}, IsActive: true})
	s.Equal(apperr.KindBusiness, apperr.KindOf(err))

	got, err := s.repo.GetByEmail(s.ctx, "A@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Equal("u-1", got.ID)
}

func (s *RepoSuite) TestProfileRoundTrip() {
	u := s.newUser("u-1", "a@example.com")
	u.Addresses = []Address{{ID: "a1", FullName: "Noor", Phone: "1", City: "جدة", Street: "s", IsDefault: true}}
	u.Phone = "0500"
	s.Require().NoError(s.repo.UpdateProfile(s.ctx, u))

	got, err := s.repo.Get(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal("0500", got.Phone)
	s.Equal(u.Addresses, got.Addresses)
}

func (s *RepoSuite) TestWishlistIsASet() {
	s.newUser("u-1", "a@example.com")
	_, err := s.repo.AddWishlist(s.ctx, "u-1", "p-1")
	s.Require().NoError(err)
	ids, err := s.repo.AddWishlist(s.ctx, "u-1", "p-1")
	s.Require().NoError(err)
	s.Equal([]string{"p-1"}, ids)

	ids, err = s.repo.RemoveWishlist(s.ctx, "u-1", "p-1")
	s.Require().NoError(err)
	s.Empty(ids)

	_, err = s.repo.AddWishlist(s.ctx, "ghost", "p-1")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))
}

func (s *RepoSuite) TestWalletLedger() {
	s.newUser("u-1", "a@example.com")
	_, err := s.repo.AdjustWallet(s.ctx, "u-1", decimal.NewFromInt(100), "gift card", "admin")
	s.Require().NoError(err)
	wt, err := s.repo.AdjustWallet(s.ctx, "u-1", decimal.RequireFromString("-40.50"), "refund reversal", "admin")
	s.Require().NoError(err)
	s.Equal("59.50", wt.BalanceAfter.StringFixed(2))

	_, err = s.repo.AdjustWallet(s.ctx, "u-1", decimal.NewFromInt(-100), "too much", "admin")
	s.Equal(apperr.KindBusiness, apperr.KindOf(err))

	txs, total, err := s.repo.WalletHistory(s.ctx, "u-1", paging.Params{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(txs, 2)

	u, err := s.repo.Get(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal("59.50", u.WalletBalance.StringFixed(2))
}

func (s *RepoSuite) TestListFilters() {
	s.newUser("u-1", "noor@example.com")
	s.newUser("u-2", "sara@example.com")
	s.Require().NoError(s.repo.SetActive(s.ctx, "u-2", false))
	s.Require().NoError(s.repo.SetRole(s.ctx, "u-1", "admin"))

	no := false
	items, total, err := s.repo.List(s.ctx, ListFilter{Active: &no}, paging.Params{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("u-2", items[0].ID)

	_, total, err = s.repo.List(s.ctx, ListFilter{Search: "NOOR"}, paging.Params{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)

	_, total, err = s.repo.List(s.ctx, ListFilter{Role: "admin"}, paging.Params{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)

	s.Equal(apperr.KindNotFound, apperr.KindOf(s.repo.SetActive(s.ctx, "ghost", true)))
}
