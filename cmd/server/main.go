package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	_ "github.com/tazhibayda/profile-service/docs"
	"github.com/tazhibayda/profile-service/internal/auth"
	"github.com/tazhibayda/profile-service/internal/config"
	"github.com/tazhibayda/profile-service/internal/firebase"
	api "github.com/tazhibayda/profile-service/internal/http"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/oauth"
	"github.com/tazhibayda/profile-service/internal/profile"
	"github.com/tazhibayda/profile-service/internal/queue"
	"github.com/tazhibayda/profile-service/internal/repo"
	"github.com/tazhibayda/profile-service/internal/validate"
)

// storage is what the server needs from either store implementation.
type storage interface {
	profile.Repository
	auth.ProfileStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// @title Profile API
// @version 1.0
// @description Profile sections, local accounts and identity provider sign-in.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := applog.Init(cfg.Prod())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.TraceEnabled {
		tracer.Start(tracer.WithService(cfg.Service), tracer.WithEnv(cfg.Env))
		defer tracer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer store.Close(context.Background())
	health := map[string]api.Pinger{"mongo": store}

	var (
		cache   auth.IdentityCache
		limiter api.Limiter
	)
	if cfg.RedisAddr != "" {
		rdb := repo.NewRedis(cfg.RedisAddr)
		defer rdb.Close()
		cache = rdb
		limiter = api.SharedLimiter{
			Counter:  rdb,
			Limit:    cfg.RateLimitPerMin,
			Window:   time.Minute,
			Fallback: api.NewRateLimiter(cfg.RateLimitPerMin, time.Minute),
			Log:      logger,
		}
		health["redis"] = rdb
	} else {
		limiter = api.LocalLimiter{RL: api.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)}
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		if pub, err = queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange); err != nil {
			logger.Fatal("rabbit init failed", zap.Error(err))
		}
	}
	defer pub.Close()
	events := queue.NewEmitter(pub, cfg.RabbitExchange, logger)

	var idp auth.IdentityProvider
	if cfg.FirebaseEnabled() {
		sa, err := oauth.NewServiceAccount(ctx, cfg.FirebaseCredentials, 10*time.Second)
		if err != nil {
			logger.Fatal("firebase credentials", zap.Error(err))
		}
		fb, err := firebase.New(firebase.Config{
			ProjectID: cfg.FirebaseProjectID,
			APIKey:    cfg.FirebaseAPIKey,
			Admin:     sa.Client,
		})
		if err != nil {
			logger.Fatal("firebase init failed", zap.Error(err))
		}
		idp = fb
	} else {
		logger.Warn("FIREBASE_PROJECT_ID not set; provider tokens and email sign-in disabled")
	}

	bridge := auth.NewBridge(store, auth.Options{
		JWTSecret: cfg.JWTSecret,
		AccessTTL: time.Duration(cfg.AccessTTLMin) * time.Minute,
		IDP:       idp,
		Cache:     cache,
		CacheTTL:  time.Duration(cfg.IdentityCacheSec) * time.Second,
		Events:    events,
		Log:       logger,
	})
	profiles := profile.NewService(store, validate.New(time.Now), events, logger)

	h := api.NewHandler(profiles, bridge, health, logger)
	opts := api.RouterOptions{
		CORSOrigins:  cfg.CORSOrigins,
		RequireOwner: cfg.RequireOwner,
		AuthLimiter:  limiter,
	}
	if cfg.TraceEnabled {
		opts.TraceService = cfg.Service
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	logger.Info("profile-service listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.MongoURI == config.MemoryURI {
		return repo.NewMemory(), nil
	}
	s, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	return s, nil
}
