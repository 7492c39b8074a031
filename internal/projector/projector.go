// Package projector consumes domain events and keeps derived state in step:
// category product counts, product rating aggregates and the order tracking cache.
package projector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/events"
	kafkax "github.com/ariefcatur/go-giftshop/internal/kafka"
	"github.com/ariefcatur/go-giftshop/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type Categories interface {
	RecountCategories(ctx context.Context, ids ...string) error
}

type Ratings interface {
	Recompute(ctx context.Context, productID string) (catalog.Rating, error)
}

type Cache interface {
	Del(ctx context.Context, keys ...string) error
}

// Marks remembers processed event ids.
type Marks interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type Projector struct {
	Categories Categories
	Ratings    Ratings
	Cache      Cache
	Marks      Marks
	Name       string
}

// Handle is a kafka.Handler. Unknown event types are acknowledged and skipped.
func (p *Projector) Handle(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, skip it
		zerolog.Ctx(ctx).Error().Err(err).Str("topic", m.Topic).Int64("offset", m.Offset).Msg("undecodable event")
		return nil
	}
	log := zerolog.Ctx(ctx).With().Str("event_id", env.EventID).Str("event_type", env.EventType).Logger()

	dkey := fmt.Sprintf(redisx.KeyDedup, p.Name, env.EventID)
	if seen, err := p.Marks.Seen(ctx, dkey); err != nil {
		log.Warn().Err(err).Msg("dedup lookup failed")
	} else if seen {
		return nil
	}

	if err := p.apply(ctx, env); err != nil {
		return fmt.Errorf("%s %s: %w", env.EventType, env.EventID, err)
	}

	if err := p.Marks.Mark(ctx, dkey); err != nil {
		log.Warn().Err(err).Msg("dedup mark failed")
	}
	log.Debug().Msg("event projected")
	return nil
}

func (p *Projector) apply(ctx context.Context, env events.Envelope) error {
	switch env.EventType {
	case events.EventProductCreated, events.EventProductUpdated, events.EventProductDeleted:
		pl, err := kafkax.UnwrapPayload[events.ProductPayload](env.Payload)
		if err != nil {
			return err
		}
		if len(pl.CategoryIDs) == 0 {
			return nil
		}
		return p.Categories.RecountCategories(ctx, pl.CategoryIDs...)

	case events.EventCategoryChanged:
		pl, err := kafkax.UnwrapPayload[events.CategoryPayload](env.Payload)
		if err != nil {
			return err
		}
		return p.Categories.RecountCategories(ctx, pl.CategoryID)

	case events.EventOrderStatusChanged, events.EventOrderCancelled:
		pl, err := kafkax.UnwrapPayload[events.OrderPayload](env.Payload)
		if err != nil {
			return err
		}
		if pl.OrderNumber == "" {
			return nil
		}
		return p.Cache.Del(ctx, fmt.Sprintf(redisx.KeyOrderTrack, pl.OrderNumber))

	case events.EventReviewChanged:
		pl, err := kafkax.UnwrapPayload[events.ReviewPayload](env.Payload)
		if err != nil {
			return err
		}
		_, err = p.Ratings.Recompute(ctx, pl.ProductID)
		return err
	}
	return nil
}

// RedisMarks stores dedup markers with redisx.TTLDedup.
type RedisMarks struct{ RDB redis.Cmdable }

func (r RedisMarks) Seen(ctx context.Context, key string) (bool, error) {
	return redisx.Exists(ctx, r.RDB, key)
}

func (r RedisMarks) Mark(ctx context.Context, key string) error {
	return r.RDB.Set(ctx, key, "1", redisx.TTLDedup).Err()
}
