package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/shopfront/internal/cart"
	"github.com/noah-isme/shopfront/internal/catalog"
	"github.com/noah-isme/shopfront/internal/config"
	"github.com/noah-isme/shopfront/internal/health"
	"github.com/noah-isme/shopfront/internal/obs"
	"github.com/noah-isme/shopfront/internal/payments"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "shopfront")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "shopfront-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	store := catalog.NewDefaultStore()
	catalogHandler := &catalog.Handler{Store: store}

	validate := validator.New()
	cartHandler := &cart.Handler{
		Cart:     cart.New(),
		Store:    store,
		Validate: validate,
	}

	transport := payments.SimulatedSheet{
		MerchantID: cfg.MSPayMerchantID,
		PayerID:    envOrDefault("MSPAY_SIMULATED_PAYER_ID", "simulated-payer"),
	}
	paymentsSvc := &payments.Service{
		Transport: transport,
		Cfg: payments.Config{
			MerchantID:        cfg.MSPayMerchantID,
			SupportedNetworks: cfg.SupportedNetworks,
			SupportedTypes:    cfg.SupportedCardTypes,
			TestMode:          cfg.PaymentTestMode,
		},
		Logger: logger.With().Str("component", "payments").Logger(),
	}
	paymentsHandler := &payments.Handler{
		Svc:      paymentsSvc,
		Currency: cfg.CurrencyCode,
		Timeout:  cfg.CheckoutTimeout,
		Snapshot: cartHandler.Snapshot,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:         readinessChecker{store: store, transport: transport, methodIDs: paymentsSvc.MethodIDs()},
		CatalogTimeout:  envDurationMillis("HEALTH_READY_CATALOG_TIMEOUT_MS", 500),
		PaymentsTimeout: envDurationMillis("HEALTH_READY_PAYMENTS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.List)
		v.Get("/products/{slug}", catalogHandler.Get)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Delete("/", cartHandler.Clear)
			c.Post("/items", cartHandler.AddItem)
			c.Put("/items/{slug}", cartHandler.SetQuantity)
			c.Delete("/items/{slug}", cartHandler.RemoveItem)
			c.Post("/remove-zero-quantity", cartHandler.RemoveZeroQuantity)
			c.Put("/shipping-address", cartHandler.SetShippingAddress)
			c.Put("/shipping-option", cartHandler.SetShippingOption)
			c.Get("/shipping-options", cartHandler.ShippingOptions)
		})

		v.Route("/payments", func(p chi.Router) {
			p.Get("/methods", paymentsHandler.Methods)
			p.Post("/checkout", paymentsHandler.Checkout)
			p.Post("/decode", paymentsHandler.Decode)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	store     *catalog.Store
	transport payments.Transport
	methodIDs []string
}

func (c readinessChecker) PingCatalog(_ context.Context, _ time.Duration) error {
	if c.store == nil || c.store.Len() == 0 {
		return errors.New("catalog empty")
	}
	return nil
}

func (c readinessChecker) PingPayments(ctx context.Context, timeout time.Duration) error {
	if c.transport == nil {
		return errors.New("payment transport not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	supported, err := c.transport.HasAnySupportedMethod(ctx, c.methodIDs)
	if err != nil {
		return err
	}
	if !supported {
		return errors.New("no supported payment method")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
