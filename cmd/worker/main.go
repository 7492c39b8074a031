package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/config"
	"github.com/ariefcatur/go-giftshop/internal/events"
	kafkax "github.com/ariefcatur/go-giftshop/internal/kafka"
	"github.com/ariefcatur/go-giftshop/internal/logging"
	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/ariefcatur/go-giftshop/internal/projector"
	"github.com/ariefcatur/go-giftshop/internal/redisx"
	"github.com/ariefcatur/go-giftshop/internal/reviews"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty, cfg.ServiceName+"-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = log.WithContext(ctx)

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword)
	defer rdb.Close()

	proj := &projector.Projector{
		Categories: &catalog.Repo{DB: db},
		Ratings:    &reviews.Repo{DB: db},
		Cache:      redisx.NewJSONCache(rdb),
		Marks:      projector.RedisMarks{RDB: rdb},
		Name:       "projector",
	}

	topics := []string{events.TopicCatalog, events.TopicOrders, events.TopicReviews}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, topics, cfg.WorkerConcurrency, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("group", cfg.WorkerGroup).Strs("topics", topics).
			Int("workers", cfg.WorkerConcurrency).Msg("consumer started")
		return cons.Start(gctx, proj.Handle)
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			log.Info().Msg("shutting down consumer")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("consumer exit")
		os.Exit(1)
	}
}
