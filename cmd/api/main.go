package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hdgstudio-market-api/internal/client"
	"hdgstudio-market-api/internal/config"
	"hdgstudio-market-api/internal/handler"
	"hdgstudio-market-api/internal/middleware"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/internal/reservation"
	"hdgstudio-market-api/internal/router"
	"hdgstudio-market-api/internal/saga"
	"hdgstudio-market-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting hdgstudio market API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// MySQL carries posts, withdrawals and cash-flow records, and is the
	// default account backend.
	mysqlDB, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open MySQL: %v", err)
	}
	mysqlDB.SetMaxOpenConns(10)
	mysqlDB.SetMaxIdleConns(5)
	mysqlDB.SetConnMaxLifetime(5 * time.Minute)
	if err := mysqlDB.Ping(); err != nil {
		log.Fatalf("MySQL ping failed: %v", err)
	}
	defer mysqlDB.Close()
	log.Println("MySQL connection initialized")

	// Initialize account repository based on config
	var accountRepo repository.AccountRepository
	switch cfg.AccountDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresAccountRepository(cfg.AccountDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		accountRepo = pgRepo
		log.Println("PostgreSQL account repository initialized")
	case "sqlite":
		sqliteRepo, err := repository.NewSQLiteAccountRepository(cfg.AccountDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		accountRepo = sqliteRepo
		log.Println("SQLite account repository initialized")
	default: // mysql
		mysqlRepo, err := repository.NewMySQLAccountRepository(mysqlDB)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL account repository: %v", err)
		}
		accountRepo = mysqlRepo
		log.Println("MySQL account repository initialized")
	}
	defer accountRepo.Close()

	postRepo, err := repository.NewMySQLPostRepository(mysqlDB)
	if err != nil {
		log.Fatalf("Failed to initialize post repository: %v", err)
	}
	withdrawalRepo, err := repository.NewMySQLWithdrawalRepository(mysqlDB)
	if err != nil {
		log.Fatalf("Failed to initialize withdrawal repository: %v", err)
	}
	financeRepo, err := repository.NewMySQLFinanceRepository(mysqlDB)
	if err != nil {
		log.Fatalf("Failed to initialize finance repository: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisErr := redisClient.Ping(ctx).Err()
	cancel()

	// The reservation store is the saga's serialization point. Redis is
	// required whenever more than one process runs; the memory store
	// only covers single-process development.
	var reservationStore reservation.Store
	if redisErr != nil {
		if !cfg.App.IsDevelopment() {
			log.Fatalf("Redis connection failed: %v", redisErr)
		}
		log.Printf("Warning: Redis unavailable (%v), using in-memory reservation store", redisErr)
		reservationStore = reservation.NewMemoryStore()
		redisClient = nil
	} else {
		reservationStore = reservation.NewRedisStore(redisClient, cfg.Redis.ReservationPrefix)
		log.Println("Redis reservation store initialized")
	}

	// Collaborator clients
	fundClient := client.NewHTTPFundClient(cfg.Collaborator.FundBaseURL, cfg.Collaborator.Timeout)
	identityClient := client.NewHTTPIdentityClient(cfg.Collaborator.IdentityBaseURL, cfg.Collaborator.Timeout)

	// Purchase orchestrator
	orchestrator := saga.NewOrchestrator(reservationStore, accountRepo, fundClient, identityClient, saga.Config{
		CommitRetries: cfg.Saga.CommitRetries,
		CommitBackoff: cfg.Saga.CommitBackoff,
		FeeRate:       cfg.Saga.FeeRate,
	})

	// Initialize services
	listingService := service.NewListingService(accountRepo, reservationStore, identityClient)
	postService := service.NewPostService(postRepo)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, financeRepo, fundClient)

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Reservation reconciler heals the store after Redis restarts.
	reconciler := service.NewReconciler(accountRepo, reservationStore, service.ReconcileConfig{
		Interval: cfg.Redis.ReconcileInterval,
	})
	reconciler.Start()
	defer reconciler.Stop()

	// Initialize handlers
	healthHandler := handler.New()
	accountHandler := handler.NewAccountHandler(listingService, orchestrator)
	postHandler := handler.NewPostHandler(postService)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)
	adminHandler := handler.NewAdminHandler(accountRepo, financeRepo, cfg.AccountDB.Type, cfg.App.LoginKey)

	var authHandler *handler.AuthHandler
	if tokenService != nil {
		authHandler = handler.NewAuthHandler(tokenService, identityClient)
	}

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
		LoginKey:     cfg.App.LoginKey,
	})

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		AccountHandler:    accountHandler,
		PostHandler:       postHandler,
		WithdrawalHandler: withdrawalHandler,
		AdminHandler:      adminHandler,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
