package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/savorly/restaurant-recommender/internal/auth"
	"github.com/savorly/restaurant-recommender/internal/config"
	"github.com/savorly/restaurant-recommender/internal/database"
	"github.com/savorly/restaurant-recommender/internal/dto"
	"github.com/savorly/restaurant-recommender/internal/handler"
	"github.com/savorly/restaurant-recommender/internal/llm"
	middlewarepkg "github.com/savorly/restaurant-recommender/internal/middleware"
	"github.com/savorly/restaurant-recommender/internal/repository"
	"github.com/savorly/restaurant-recommender/internal/router"
	"github.com/savorly/restaurant-recommender/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	restaurantsRepo := repository.NewPGXRestaurantsRepository(pool)

	var completer service.Completer
	llmClient, err := llm.New(cfg.LLM)
	if err != nil {
		log.Printf("llm client disabled, recommendations fall back to offline ranking: %v", err)
	} else {
		completer = llmClient
	}

	authService := service.NewAuthService(usersRepo, jwtManager)
	userService := service.NewUserService(usersRepo)
	catalogService := service.NewCatalogService(restaurantsRepo, cfg.DefaultPhoneRegion)
	recommendService := service.NewRecommendationService(completer)

	seedAdmin(ctx, cfg, userService, usersRepo)
	bootstrapDataset(ctx, cfg, catalogService, restaurantsRepo)

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserAdminHandler(userService),
		Restaurants: handler.NewRestaurantsHandler(catalogService),
		Recommend:   handler.NewRecommendHandler(catalogService, recommendService, cfg.MaxCandidates),
		AdminUpload: handler.NewAdminUploadHandler(catalogService),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// seedAdmin creates the bootstrap admin account when credentials are
// configured and no users exist yet.
func seedAdmin(ctx context.Context, cfg *config.Config, users *service.UserService, repo repository.UsersRepository) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}

	count, err := repo.Count(ctx)
	if err != nil {
		log.Printf("admin seed skipped, counting users failed: %v", err)
		return
	}
	if count > 0 {
		return
	}

	if _, err := users.CreateUser(ctx, dto.CreateUserRequest{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     "admin",
	}); err != nil {
		log.Printf("admin seed failed: %v", err)
		return
	}
	log.Printf("seeded admin user %s", cfg.AdminEmail)
}

// bootstrapDataset imports the configured CSV on first start so the catalogue
// is usable before any manual upload.
func bootstrapDataset(ctx context.Context, cfg *config.Config, catalog *service.CatalogService, repo repository.RestaurantsRepository) {
	if cfg.DatasetPath == "" {
		return
	}

	count, err := repo.Count(ctx)
	if err != nil {
		log.Printf("dataset bootstrap skipped, counting restaurants failed: %v", err)
		return
	}
	if count > 0 {
		return
	}

	summary, err := catalog.ImportCSVFile(ctx, cfg.DatasetPath)
	if err != nil {
		log.Printf("dataset bootstrap failed: %v", err)
		return
	}
	log.Printf("dataset bootstrap imported %d restaurants (%d inserted, %d updated)", summary.Total, summary.Inserted, summary.Updated)
}
