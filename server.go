package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/user/gatehouse-go/auth"
	"github.com/user/gatehouse-go/config"
	"github.com/user/gatehouse-go/db"
	_ "github.com/user/gatehouse-go/docs" // registers the Swagger spec
	"github.com/user/gatehouse-go/password"
	"github.com/user/gatehouse-go/session"
	"github.com/user/gatehouse-go/store"
	"github.com/user/gatehouse-go/throttle"
	"github.com/user/gatehouse-go/users"
)

// openedStores is the set of stores a command works with, plus everything seeding must wipe.
type openedStores struct {
	store.Stores
	Wipers []store.Wiper
}

// openStores opens the backends selected by cfg. Users always live in the primary store
// (Postgres or memory); REDIS_URL moves attempt counters and sessions to Redis.
func openStores(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*openedStores, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	out := &openedStores{}
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg.Store.Pool)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		pg := store.NewPostgres(pool)
		out.Stores = pg.Stores()
		out.Wipers = append(out.Wipers, pg)
	default:
		logger.Warn("using the in-memory store; all data is lost on exit")
		mem := store.NewMemory()
		out.Stores = mem.Stores()
		out.Wipers = append(out.Wipers, mem)
	}

	if cfg.Store.RedisURL != "" {
		client, err := store.NewRedisClient(ctx, cfg.Store.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		rs := store.NewRedis(client)
		out.Attempts = rs
		out.Sessions = rs
		out.Wipers = append(out.Wipers, rs)
	}

	return out, closeAll, nil
}

// newRouter wires services and handlers over stores and returns the HTTP handler.
func newRouter(cfg *config.AppConfig, stores store.Stores, hasher password.Hasher, logger *zap.Logger) (http.Handler, error) {
	sessions := session.NewManager(stores.Sessions, stores.Users)
	negotiator, err := auth.NewNegotiator(*cfg.Auth, sessions)
	if err != nil {
		return nil, err
	}
	guard := throttle.NewGuard(stores.Attempts)

	authService := auth.NewAuthService(stores.Users, guard, hasher, negotiator)
	authHandlers := auth.NewHandlers(authService, logger)

	userService := users.NewUserService(stores.Users, hasher)
	userHandlers := users.NewUserHandlers(userService, logger)

	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: zap.NewStdLog(logger), NoColor: true}))
	r.Use(auth.Recoverer(logger))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Forwarded-For"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/signup", authHandlers.HandleSignup())
		r.Post("/logout", authHandlers.HandleLogout())
		r.Post("/delete", userHandlers.HandleDeleteAccount())

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(negotiator, logger))
			r.Get("/me", userHandlers.HandleGetMe())
		})
	})

	return r, nil
}
