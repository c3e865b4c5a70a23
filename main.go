package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/ledgerview/backend/src/config"
	"github.com/username/ledgerview/backend/src/database"
	"github.com/username/ledgerview/backend/src/handlers"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/parsers"
	"github.com/username/ledgerview/backend/src/parsers/revolut"
	"github.com/username/ledgerview/backend/src/processors"
	"github.com/username/ledgerview/backend/src/security"
	"github.com/username/ledgerview/backend/src/services"
	"github.com/username/ledgerview/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("LedgerView backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	db, err := database.InitDB(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(db); err != nil {
		logger.L.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	txStore := store.NewSQLiteStore(db)

	parsers.Register("revolut", revolut.NewParser(parsers.NewUUIDGenerator()))

	rentRule := processors.NewRentAdjustmentRule(
		config.Cfg.RentTargetDescription,
		config.Cfg.RentTargetAmount,
		config.Cfg.RentAdjustedAmount,
	)

	mappingResolver := services.NewMappingResolver(txStore)
	importService := services.NewImportService(txStore, rentRule, mappingResolver, reportCache)
	categorizationService := services.NewCategorizationService(txStore, mappingResolver, reportCache)

	importHandler := handlers.NewImportHandler(importService)
	txHandler := handlers.NewTransactionHandler(txStore, categorizationService, reportCache)
	categoryHandler := handlers.NewCategoryHandler(txStore)
	mappingHandler := handlers.NewMappingHandler(txStore)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "LedgerView Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			status := "ok"
			code := http.StatusOK
			if err := db.PingContext(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{"status": status})
		})

		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(authService))

			r.Post("/upload", importHandler.HandleUpload)
			r.Get("/transactions", txHandler.HandleListTransactions)
			r.Post("/transactions/{id}/categorize", txHandler.HandleCategorize)
			r.Put("/transactions/{id}/category", txHandler.HandleRecategorize)
			r.Delete("/transactions/all", txHandler.HandleDeleteAllTransactions)
			r.Get("/categories", categoryHandler.HandleListCategories)
			r.Post("/categories", categoryHandler.HandleCreateCategory)
			r.Get("/mappings", mappingHandler.HandleListMappings)
			r.Delete("/mappings/{id}", mappingHandler.HandleDeleteMapping)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
