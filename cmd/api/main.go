package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/medtrack/rx-backend/internal/modules/audit"
	"github.com/medtrack/rx-backend/internal/modules/auth"
	"github.com/medtrack/rx-backend/internal/modules/dispense"
	"github.com/medtrack/rx-backend/internal/modules/notification"
	"github.com/medtrack/rx-backend/internal/modules/product"
	"github.com/medtrack/rx-backend/internal/modules/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)

	authService := auth.NewService(userRepo, jwtSecret)
	authMW := auth.NewMiddleware(jwtSecret)
	auth.NewHandler(authService).RegisterRoutes(router)
	user.NewHandler(userService).RegisterRoutes(router, authMW.RequireAdmin)

	// ── Notification pipeline ───────────────────────────────
	notifRepo := notification.NewPostgresRepository(db)
	reconciler := notification.NewReconciler(notifRepo)
	publisher := notification.NewPublisher(rdb)
	registry := notification.NewRegistry()
	notification.NewHandler(notifRepo, registry).RegisterRoutes(router, authMW.RequireUser)

	broadcaster := notification.NewBroadcaster(rdb, registry)
	go broadcaster.Run(ctx)

	// ── Inventory & audit ───────────────────────────────────
	auditRepo := audit.NewPostgresRepository(db)
	auditService := audit.NewService(auditRepo)
	audit.NewHandler(auditService).RegisterRoutes(router, authMW.RequireUser)

	productRepo := product.NewPostgresRepository(db, auditRepo, reconciler)
	productService := product.NewService(productRepo, publisher)
	product.NewHandler(productService).RegisterRoutes(router, authMW)

	// ── Dispensing ──────────────────────────────────────────
	dispenseRepo := dispense.NewPostgresRepository(db, reconciler)
	dispenseService := dispense.NewService(dispenseRepo, publisher)
	dispense.NewHandler(dispenseService).RegisterRoutes(router, authMW)

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		fmt.Printf("rx-backend API server starting on :%s\n", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
