package reviews

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/events"
	"github.com/ariefcatur/go-giftshop/internal/paging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	Create(ctx context.Context, rv *Review) error
	Get(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, rv *Review) error
	Delete(ctx context.Context, id, productID string) error
	SetApproved(ctx context.Context, id, productID string, approved bool) error
	Reply(ctx context.Context, id, reply string) error
	ToggleHelpful(ctx context.Context, id, userID string) (int, bool, error)
	ListByProduct(ctx context.Context, productID string, sort Sort, p paging.Params) ([]Review, int, error)
	AdminList(ctx context.Context, f AdminFilter, p paging.Params) ([]Review, int, error)
	Distribution(ctx context.Context, productID string) (Distribution, error)
}

const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionApproved = "approved"
	ActionHidden   = "hidden"
)

type Service struct {
	store       Store
	events      *events.Emitter
	autoApprove bool
}

func NewService(store Store, em *events.Emitter, autoApprove bool) *Service {
	return &Service{store: store, events: em, autoApprove: autoApprove}
}

func (s *Service) Create(ctx context.Context, productID, userID string, in CreateInput) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"rating": "التقييم يجب أن يكون بين 1 و 5"})
	}
	rv := &Review{
		ID:         uuid.NewString(),
		ProductID:  productID,
		UserID:     userID,
		Rating:     in.Rating,
		Title:      strings.TrimSpace(in.Title),
		Comment:    strings.TrimSpace(in.Comment),
		IsApproved: s.autoApprove,
	}
	if err := s.store.Create(ctx, rv); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("review_id", rv.ID).Str("product_id", productID).Int("rating", rv.Rating).Msg("review created")
	s.emit(ctx, rv, ActionCreated)
	return rv, nil
}

// Update lets the author change their own review.
func (s *Service) Update(ctx context.Context, id string, caller *auth.Claims, in UpdateInput) (*Review, error) {
	rv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller == nil || rv.UserID != caller.UserID {
		return nil, apperr.Forbidden(apperr.MsgForbidden)
	}
	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return nil, apperr.Validation(apperr.MsgInvalidInput, map[string]string{"rating": "التقييم يجب أن يكون بين 1 و 5"})
		}
		rv.Rating = *in.Rating
	}
	if in.Title != nil {
		rv.Title = strings.TrimSpace(*in.Title)
	}
	if in.Comment != nil {
		rv.Comment = strings.TrimSpace(*in.Comment)
	}
	if err := s.store.Update(ctx, rv); err != nil {
		return nil, err
	}
	s.emit(ctx, rv, ActionUpdated)
	return rv, nil
}

// Delete removes a review on behalf of its author or an admin.
func (s *Service) Delete(ctx context.Context, id string, caller *auth.Claims) error {
	rv, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() && (caller == nil || rv.UserID != caller.UserID) {
		return apperr.Forbidden(apperr.MsgForbidden)
	}
	if err := s.store.Delete(ctx, id, rv.ProductID); err != nil {
		return err
	}
	s.emit(ctx, rv, ActionDeleted)
	return nil
}

func (s *Service) ToggleHelpful(ctx context.Context, id, userID string) (int, bool, error) {
	return s.store.ToggleHelpful(ctx, id, userID)
}

type ProductReviews struct {
	Items        []Review     `json:"reviews"`
	Distribution Distribution `json:"distribution"`
}

func (s *Service) ForProduct(ctx context.Context, productID string, sort Sort, p paging.Params) (*ProductReviews, paging.Meta, error) {
	items, total, err := s.store.ListByProduct(ctx, productID, sort, p)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	dist, err := s.store.Distribution(ctx, productID)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return &ProductReviews{Items: items, Distribution: dist}, p.Meta(total), nil
}

func (s *Service) AdminList(ctx context.Context, f AdminFilter, p paging.Params) ([]Review, paging.Meta, error) {
	items, total, err := s.store.AdminList(ctx, f, p)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return items, p.Meta(total), nil
}

func (s *Service) SetApproved(ctx context.Context, id string, approved bool) (*Review, error) {
	rv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetApproved(ctx, id, rv.ProductID, approved); err != nil {
		return nil, err
	}
	rv.IsApproved = approved
	action := ActionApproved
	if !approved {
		action = ActionHidden
	}
	s.emit(ctx, rv, action)
	return rv, nil
}

func (s *Service) Reply(ctx context.Context, id, reply string) (*Review, error) {
	if err := s.store.Reply(ctx, id, strings.TrimSpace(reply)); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) emit(ctx context.Context, rv *Review, action string) {
	s.events.Emit(ctx, events.EventReviewChanged, rv.ProductID, events.ReviewPayload{
		ReviewID: rv.ID, ProductID: rv.ProductID, Action: action,
	})
}
