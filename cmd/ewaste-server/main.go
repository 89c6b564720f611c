package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ewaste/internal/auth"
	"ewaste/internal/config"
	"ewaste/internal/httpapi"
	"ewaste/internal/notify"
	"ewaste/internal/otp"
	"ewaste/internal/realtime"
	"ewaste/internal/storage"
	"ewaste/internal/store/postgres"
	"ewaste/internal/store/rediscache"
	"ewaste/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	shutdownTelemetry := telemetry.Setup("ewaste-server")

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("auth setup: %v", err)
	}

	uploader, err := storage.NewUploader(storage.Options{
		Bucket:   cfg.S3Bucket,
		Region:   cfg.S3Region,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		log.Fatalf("storage setup: %v", err)
	}

	st := rediscache.New(postgres.NewStore(pool), rdb, cfg.SummaryCacheTTL)
	hub := realtime.New()
	handler := httpapi.NewHandler(httpapi.Options{
		Store:  st,
		Tokens: tokens,
		OTP: otp.NewStore(rdb, otp.Options{
			TTL:         cfg.OTPTTL,
			MaxAttempts: cfg.OTPMaxAttempts,
		}),
		Notifier:  notify.New(notify.NewProvider(cfg.NotifyProvider)),
		Uploader:  uploader,
		Publisher: hub,
	})

	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:    cfg.RateLimitPerMin,
		IPBurst:        cfg.RateLimitBurst,
		TokenPerMinute: cfg.RateLimitPerMin,
		TokenBurst:     cfg.RateLimitBurst,
	})
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		claims, err := tokens.Parse(tokenFromRequest(session.Request()))
		if err != nil {
			_ = session.Close(4001, "invalid token")
			return
		}

		client := &realtime.Client{
			ID:     uuid.NewString(),
			UserID: claims.UserID,
			Role:   claims.Role,
			Send:   make(chan []byte, 16),
		}
		hub.Register(client)
		defer hub.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			if _, err := session.Recv(); err != nil {
				return
			}
		}
	})

	root := http.NewServeMux()
	root.Handle("/metrics", expvar.Handler())
	root.Handle("/realtime/", sockjsHandler)
	root.Handle("/", handler.Routes())

	routes := httpapi.LoggingMiddleware(limiter.Middleware(root))
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(corsMiddleware.Handler(routes), "ewaste-server"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("ewaste-server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := shutdownTelemetry(ctx); err != nil {
		log.Printf("telemetry shutdown error: %v", err)
	}
}

// tokenFromRequest accepts the JWT from the Authorization header or, for
// browser SockJS clients that cannot set headers, a token query parameter.
func tokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if parts := strings.Fields(r.Header.Get("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
