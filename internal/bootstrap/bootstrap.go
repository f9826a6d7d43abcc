// Package bootstrap wires configuration, the database, repositories,
// services, controllers and the router together.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	appControllers "github.com/SF-ND-NEW/miniapp-backend/internal/app/controllers"
	appMigrations "github.com/SF-ND-NEW/miniapp-backend/internal/app/migrations"
	appRepos "github.com/SF-ND-NEW/miniapp-backend/internal/app/repositories"
	appRoutes "github.com/SF-ND-NEW/miniapp-backend/internal/app/routes"
	appServices "github.com/SF-ND-NEW/miniapp-backend/internal/app/services"
	"github.com/SF-ND-NEW/miniapp-backend/internal/config"
	"github.com/SF-ND-NEW/miniapp-backend/internal/db"
	appMiddleware "github.com/SF-ND-NEW/miniapp-backend/internal/middleware"
	pkgAuth "github.com/SF-ND-NEW/miniapp-backend/internal/pkg/auth"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/helpers"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/musicapi"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/wechat"
	"github.com/SF-ND-NEW/miniapp-backend/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService        appServices.AuthService
	UserService        appServices.UserService
	SongRequestService appServices.SongRequestService
	WechatController   *appControllers.WechatController
	SongController     *appControllers.SongController
	AdminController    *appControllers.AdminController
	PlayerController   *appControllers.PlayerController
	AuthMiddleware     *appMiddleware.AuthMiddleware
	RateLimiter        *appMiddleware.RateLimiter
	Repos              *appRepos.Repositories
	JWTService         *pkgAuth.JWTService
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	logger.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds default data.
func SetupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	logger.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}

	logger.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		logger.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		logger.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	devMode := strings.ToLower(cfg.Server.Mode) != "production"
	if err := seed.CreateDefaultData(context.Background(), dbPool, devMode); err != nil {
		logger.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	wechatClient := wechat.NewClient(wechat.Config{
		AppID:    cfg.WeChat.AppID,
		Secret:   cfg.WeChat.Secret,
		Endpoint: cfg.WeChat.Endpoint,
	})
	musicClient := musicapi.NewClient(musicapi.Config{
		BaseURL:      cfg.Music.BaseURL,
		DefaultLimit: cfg.Music.DefaultLimit,
	})

	deps.AuthService = appServices.NewAuthService(
		wechatClient,
		deps.Repos.RefreshTokenRepository,
		deps.Repos.AdminRepository,
		deps.JWTService,
	)
	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, cfg.IsAdminOpenID)
	deps.SongRequestService = appServices.NewSongRequestService(
		deps.Repos.SongRequestRepository,
		deps.Repos.UserRepository,
		cfg.IsAdminOpenID,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	go expiredTokenJanitor(deps.Repos)

	deps.WechatController = appControllers.NewWechatController(deps.AuthService, deps.UserService, deps.SongRequestService)
	deps.SongController = appControllers.NewSongController(musicClient, cfg.Music.DefaultLimit)
	deps.AdminController = appControllers.NewAdminController(deps.AuthService, deps.SongRequestService)
	deps.PlayerController = appControllers.NewPlayerController(deps.SongRequestService)

	return deps, nil
}

// expiredTokenJanitor periodically removes expired refresh token grants.
func expiredTokenJanitor(repos *appRepos.Repositories) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		deleted, err := repos.RefreshTokenRepository.DeleteExpired(ctx)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to delete expired refresh tokens")
			continue
		}
		if deleted > 0 {
			logger.Debug().Int64("deleted", deleted).Msg("Expired refresh tokens removed")
		}
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.Use(deps.RateLimiter.Handle())

	appRoutes.SetupRouter(router,
		deps.WechatController,
		deps.SongController,
		deps.AdminController,
		deps.PlayerController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
