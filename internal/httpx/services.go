package httpx

import (
	"context"

	"github.com/ariefcatur/go-giftshop/internal/admin"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/cart"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/coupons"
	"github.com/ariefcatur/go-giftshop/internal/orders"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/ariefcatur/go-giftshop/internal/reviews"
	"github.com/ariefcatur/go-giftshop/internal/users"
)

// The interfaces below are implemented by the domain services; handlers only see these.

type Accounts interface {
	Principals
	Register(ctx context.Context, in users.RegisterInput) (*users.Session, error)
	Login(ctx context.Context, in users.LoginInput) (*users.Session, error)
	Me(ctx context.Context, id string) (*users.User, error)
	UpdateProfile(ctx context.Context, id string, in users.ProfileInput) (*users.User, error)
	ChangePassword(ctx context.Context, id string, in users.PasswordInput) error
	Wishlist(ctx context.Context, id string) ([]catalog.Product, error)
	AddToWishlist(ctx context.Context, id, productID string) ([]string, error)
	RemoveFromWishlist(ctx context.Context, id, productID string) ([]string, error)
	Wallet(ctx context.Context, id string, p paging.Params) (*users.Wallet, paging.Meta, error)

	List(ctx context.Context, f users.ListFilter, p paging.Params) ([]users.User, paging.Meta, error)
	AdminGet(ctx context.Context, id string) (*users.User, error)
	SetActive(ctx context.Context, id string, active bool, by string) (*users.User, error)
	SetRole(ctx context.Context, id, role, by string) (*users.User, error)
	AdjustWallet(ctx context.Context, id string, in users.WalletAdjustInput, by string) (*users.WalletTransaction, error)
}

type Catalog interface {
	ListProducts(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, paging.Meta, error)
	Featured(ctx context.Context, limit int) ([]catalog.Product, error)
	Bestsellers(ctx context.Context, limit int) ([]catalog.Product, error)
	NewArrivals(ctx context.Context, limit int) ([]catalog.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
	Product(ctx context.Context, id string) (*catalog.Product, error)
	Related(ctx context.Context, id string, limit int) ([]catalog.Product, error)
	ByOccasion(ctx context.Context, occasion string, p paging.Params) ([]catalog.Product, paging.Meta, error)
	ByRecipient(ctx context.Context, recipient string, p paging.Params) ([]catalog.Product, paging.Meta, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	CategoryTree(ctx context.Context) ([]*catalog.CategoryNode, error)
	Category(ctx context.Context, idOrSlug string) (*catalog.Category, error)

	AdminProduct(ctx context.Context, id string) (*catalog.Product, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, in catalog.ProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AdminCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (*catalog.Category, error)
	UpdateCategory(ctx context.Context, id string, in catalog.CategoryInput) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type Orders interface {
	Place(ctx context.Context, in orders.PlaceInput, idemKey string) (*orders.Order, bool, error)
	Get(ctx context.Context, id string, caller *auth.Claims) (*orders.Order, error)
	Track(ctx context.Context, number string) (*orders.Tracking, error)
	ListMine(ctx context.Context, userID, status string, p paging.Params) ([]orders.Order, paging.Meta, error)
	Cancel(ctx context.Context, id, reason string, caller *auth.Claims) (*orders.Order, error)

	AdminList(ctx context.Context, f orders.ListFilter, p paging.Params) ([]orders.Order, paging.Meta, error)
	UpdateStatus(ctx context.Context, id string, to orders.Status, note, by string) (*orders.Order, error)
}

type Reviews interface {
	ForProduct(ctx context.Context, productID string, sort reviews.Sort, p paging.Params) (*reviews.ProductReviews, paging.Meta, error)
	Create(ctx context.Context, productID, userID string, in reviews.CreateInput) (*reviews.Review, error)
	Update(ctx context.Context, id string, caller *auth.Claims, in reviews.UpdateInput) (*reviews.Review, error)
	Delete(ctx context.Context, id string, caller *auth.Claims) error
	ToggleHelpful(ctx context.Context, id, userID string) (int, bool, error)

	AdminList(ctx context.Context, f reviews.AdminFilter, p paging.Params) ([]reviews.Review, paging.Meta, error)
	SetApproved(ctx context.Context, id string, approved bool) (*reviews.Review, error)
	Reply(ctx context.Context, id, reply string) (*reviews.Review, error)
}

type Carts interface {
	Get(ctx context.Context, owner string) (*cart.View, error)
	Add(ctx context.Context, owner string, in cart.AddInput) (*cart.View, error)
	SetQuantity(ctx context.Context, owner, lineID string, qty int) (*cart.View, error)
	Remove(ctx context.Context, owner, lineID string) (*cart.View, error)
	Clear(ctx context.Context, owner string) error
	Merge(ctx context.Context, from, to string) (*cart.View, error)
	Items(ctx context.Context, owner string) ([]orders.ItemInput, error)
}

type Coupons interface {
	List(ctx context.Context, p paging.Params) ([]coupons.View, paging.Meta, error)
	Get(ctx context.Context, idOrCode string) (*coupons.View, error)
	Create(ctx context.Context, in coupons.Input) (*coupons.View, error)
	Update(ctx context.Context, id string, in coupons.Input) (*coupons.View, error)
	Delete(ctx context.Context, id string) error
}

type Dashboard interface {
	Dashboard(ctx context.Context) (*admin.Stats, error)
}
