package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clipcraft/credit-ledger/internal/domain/policy"
	billingUseCase "github.com/clipcraft/credit-ledger/internal/domain/usecase/billing"
	reservationUseCase "github.com/clipcraft/credit-ledger/internal/domain/usecase/reservation"
	userUseCase "github.com/clipcraft/credit-ledger/internal/domain/usecase/user"

	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/api/routes"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/database"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/database/migration"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/logger"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/repository"
	timeProvider "github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/time"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)

	dbConfig := &database.Config{
		Driver:          "postgres",
		Host:            cfg.Database.Host,
		Port:            database.ParsePort(cfg.Database.Port),
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        cfg.Logger.Level,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      int(cfg.Database.RetryDelay / time.Second),
	}

	tp := timeProvider.NewRealTimeProvider()

	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	if cfg.Environment == config.Development {
		if err := migration.SeedDevUsers(context.Background(), dbManager.DB(), tp, appLogger); err != nil {
			appLogger.Error("Failed to seed development users", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}

	// Repositories used outside a unit of work (read paths)
	userRepo := repository.NewUserRepository(dbManager.DB(), tp, appLogger)
	ledgerRepo := repository.NewLedgerRepository(dbManager.DB(), tp, appLogger)

	uow := dbManager.CreateUnitOfWork()

	creditPolicy := policy.New(policy.Config{
		CreditsPerSecond:   cfg.Credits.CreditsPerSecond,
		DefaultPlanCredits: cfg.Credits.DefaultPlanCredits,
		PlanBaseCredits:    cfg.Credits.PlanBaseCredits,
		TopupPackCredits:   cfg.Credits.TopupPackCredits,
	})

	reservationService := reservationUseCase.NewService(uow, creditPolicy, tp, appLogger)
	billingProcessor := billingUseCase.NewProcessor(uow, creditPolicy, tp, appLogger)
	userService := userUseCase.NewUseCase(userRepo, ledgerRepo, appLogger)

	// Background sweeper refunds holds whose jobs never reported back
	var sweeper *reservationUseCase.Sweeper
	if cfg.Sweeper.Enabled {
		reservationRepo := repository.NewReservationRepository(dbManager.DB(), tp, appLogger)
		sweeper = reservationUseCase.NewSweeper(reservationService, reservationRepo, tp, appLogger, reservationUseCase.SweeperConfig{
			Interval:  cfg.Sweeper.Interval,
			MaxAge:    cfg.Sweeper.MaxAge,
			BatchSize: cfg.Sweeper.BatchSize,
		})
		if err := sweeper.Start(); err != nil {
			appLogger.Error("Failed to start reservation sweeper", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}

	reservationHandler := handler.NewReservationHandler(reservationService, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)
	billingHandler := handler.NewBillingHandler(billingProcessor, appLogger)
	healthHandler := handler.NewHealthHandler(func(c *gin.Context) error {
		sqlDB, err := dbManager.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(c.Request.Context())
	}, func(c *gin.Context, userID string) (bool, error) {
		return userService.VerifyBalance(c.Request.Context(), userID)
	}, appLogger)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger)
	routes.SetupRoutes(router, reservationHandler, userHandler, billingHandler, healthHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr": server.Addr,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop()
	}

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	if err := appLogger.Flush(); err != nil {
		log.Printf("Failed to flush logs: %v", err)
	}

	appLogger.Info("Server exited gracefully", nil)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}
	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	if cfg.Database.Host == "" {
		missingConfigs = append(missingConfigs, "database.host (or CL_DB_HOST environment variable)")
	}
	if cfg.Database.Username == "" {
		missingConfigs = append(missingConfigs, "database.username (or CL_DB_USERNAME environment variable)")
	}
	if cfg.Database.Password == "" {
		missingConfigs = append(missingConfigs, "database.password (or CL_DB_PASSWORD environment variable)")
	}
	if cfg.Database.Database == "" {
		missingConfigs = append(missingConfigs, "database.database (or CL_DB_NAME environment variable)")
	}
	if cfg.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	if cfg.Credits.CreditsPerSecond <= 0 {
		missingConfigs = append(missingConfigs, "credits.creditsPerSecond")
	}

	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	if cfg.Environment == config.Production {
		var warnings []string

		sslMode := strings.ToLower(cfg.Database.SSLMode)
		if sslMode != "require" && sslMode != "verify-ca" && sslMode != "verify-full" {
			warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
		}
		if cfg.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}
		if cfg.Server.WriteTimeout < 5*time.Second {
			warnings = append(warnings, "server.writeTimeout is too low for production")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential issues in production configuration: %v", warnings)
		}
	}

	return nil
}
