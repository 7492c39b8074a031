package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/admin"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/cart"
	"github.com/ariefcatur/go-giftshop/internal/catalog"
	"github.com/ariefcatur/go-giftshop/internal/config"
	"github.com/ariefcatur/go-giftshop/internal/coupons"
	"github.com/ariefcatur/go-giftshop/internal/events"
	"github.com/ariefcatur/go-giftshop/internal/httpx"
	kafkax "github.com/ariefcatur/go-giftshop/internal/kafka"
	"github.com/ariefcatur/go-giftshop/internal/logging"
	"github.com/ariefcatur/go-giftshop/internal/orders"
	"github.com/ariefcatur/go-giftshop/internal/postgres"
	"github.com/ariefcatur/go-giftshop/internal/ratelimit"
	"github.com/ariefcatur/go-giftshop/internal/redisx"
	"github.com/ariefcatur/go-giftshop/internal/reviews"
	"github.com/ariefcatur/go-giftshop/internal/users"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty, cfg.ServiceName)
	if err := cfg.CheckJWTSecret(); err != nil {
		log.Fatal().Err(err).Msg("refusing to start")
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = log.WithContext(ctx)

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword)
	defer rdb.Close()
	cache := redisx.NewJSONCache(rdb)

	// Kafka producers, one per topic
	producers := map[string]*kafkax.Producer{}
	for _, topic := range []string{events.TopicOrders, events.TopicCatalog, events.TopicReviews} {
		p := kafkax.NewProducer(cfg.KafkaBrokers, topic, 1024, log)
		p.Start(ctx)
		producers[topic] = p
	}
	emitter := func(topic string) *events.Emitter {
		return events.NewEmitter(producers[topic], cfg.ServiceName)
	}

	// Services
	tokens := auth.NewMaker(cfg.JWTSecret, cfg.JWTExpiry)
	catalogSvc := catalog.NewService(&catalog.Repo{DB: db}, emitter(events.TopicCatalog))
	ordersSvc := orders.NewService(&orders.Repo{DB: db}, cache, emitter(events.TopicOrders))

	router := httpx.NewRouter(httpx.Deps{
		Log:       log,
		Tokens:    tokens,
		Accounts:  users.NewService(&users.Repo{DB: db}, tokens, catalogSvc),
		Catalog:   catalogSvc,
		Orders:    ordersSvc,
		Reviews:   reviews.NewService(&reviews.Repo{DB: db}, emitter(events.TopicReviews), cfg.ReviewsAutoApprove),
		Carts:     cart.NewService(cart.NewRedisStore(rdb), catalogSvc),
		Coupons:   coupons.NewService(&coupons.Repo{DB: db}),
		Dashboard: admin.NewService(&admin.Repo{DB: db}),
		Limiter: ratelimit.NewRedis(rdb, ratelimit.Config{
			Scope: "api", Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow,
		}),
		AdminLimiter: ratelimit.NewRedis(rdb, ratelimit.Config{
			Scope: "admin", Max: cfg.AdminRateLimitMax, Window: cfg.RateLimitWindow,
		}),
		UploadDir: cfg.UploadDir,
	})

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	for _, p := range producers {
		p.Close() // flush pending events
	}
	cancel()
	for _, p := range producers {
		p.WaitClosed()
	}
}
