package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/clinicbook/libs/config"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
	"github.com/md-rashed-zaman/clinicbook/libs/runtime"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/cache"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/conversation"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/storage"
)

//go:embed assets/booking.v1.yaml
var openAPISpec embed.FS

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env failed", "err", err)
		os.Exit(1)
	}

	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	}

	var rdb *redis.Client
	if redisURL := config.String("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			panic(err)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	outboxRepo := outbox.NewRepository()
	repo := storage.NewRepository(pool, outboxRepo, logger)

	var serviceTypes availability.ServiceTypeSource = repo
	if rdb != nil {
		serviceTypes = cache.NewServiceTypes(rdb, repo, config.Duration("SERVICE_TYPE_CACHE_TTL", 5*time.Minute), logger)
	}
	durations := availability.NewDurationResolver(serviceTypes)

	offsets, err := reminders.ParseOffsets(config.String("REMINDER_OFFSETS_MINUTES", "1440,180"))
	if err != nil {
		logger.Warn("invalid reminder offsets; using defaults", "err", err)
		offsets = nil
	}
	scheduler := reminders.NewScheduler(offsets)
	logger.Info("reminder offsets", "offsets", scheduler.Offsets())

	defaultClinic := config.String("DEFAULT_CLINIC_ID", "")
	defaultLocale := config.String("DEFAULT_LOCALE", i18n.Default)
	availabilitySvc := availability.NewService(repo, durations, m, availability.Config{
		DefaultClinicID: defaultClinic,
		DefaultLocale:   defaultLocale,
		MaxSlots:        config.Int("AVAILABILITY_MAX_SLOTS", 20),
		MaxSuggestions:  config.Int("AVAILABILITY_MAX_SUGGESTIONS", 3),
	})
	bookingSvc := booking.NewService(repo, durations, scheduler,
		conversation.NewResolver(pool, outboxRepo), m, logger,
		booking.Config{
			DefaultClinicID:    defaultClinic,
			DefaultCountryCode: config.String("DEFAULT_COUNTRY_CODE", ""),
			DefaultLocale:      defaultLocale,
		},
	)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	availabilityHandler := handlers.NewAvailabilityHandler(availabilitySvc, logger, defaultLocale)
	bookingHandler := handlers.NewBookingHandler(bookingSvc, logger, defaultLocale)

	mux := runtime.NewBaseMuxWithReady(registry, readyChecks...)
	mux.HandleFunc("/api/v1/availability", availabilityHandler.Get)
	mux.HandleFunc("/api/v1/appointments", bookingHandler.Create)
	mux.HandleFunc("GET /openapi", func(w http.ResponseWriter, _ *http.Request) {
		data, err := openAPISpec.ReadFile("assets/booking.v1.yaml")
		if err != nil {
			http.Error(w, "openapi not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})

	var rateLimit httpx.Middleware
	if limit := config.Int("RATE_LIMIT_PER_MINUTE", 120); limit > 0 {
		if rdb != nil {
			rateLimit = httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "").
				Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		} else {
			rateLimit = httpx.NewRateLimiter(limit, time.Minute).Middleware()
		}
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods: httpx.DefaultCORSMethods,
			AllowedHeaders: httpx.DefaultCORSHeaders,
			MaxAge:         10 * time.Minute,
		}),
		rateLimit,
		httpx.WithBodyLimit(int64(config.Int("HTTP_MAX_BODY_BYTES", 64<<10))),
		httpx.WithTimeout(config.Duration("HTTP_REQUEST_TIMEOUT", 10*time.Second)),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
