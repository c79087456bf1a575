package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"trustio-wallet/internal/backup"
	"trustio-wallet/internal/config"
	"trustio-wallet/internal/domain"
	apphttp "trustio-wallet/internal/http"
	"trustio-wallet/internal/market"
	"trustio-wallet/internal/navigation"
	"trustio-wallet/internal/repository/sqlite"
	"trustio-wallet/internal/service"
	"trustio-wallet/internal/storage"
	"trustio-wallet/internal/support"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}
	sendFee, err := decimal.NewFromString(cfg.Ledger.Fee)
	if err != nil || sendFee.IsNegative() {
		logger.Fatalf("invalid ledger fee %q", cfg.Ledger.Fee)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}

	store := sqlite.NewDocumentStore(db, service.AdminSeed(cfg.Auth.BcryptCost))
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warnf("close document store: %v", err)
		}
	}()
	if err := store.Init(ctx); err != nil {
		logger.Fatalf("init document store: %v", err)
	}

	dir, err := service.OpenDirectory(ctx, store, logger)
	if err != nil {
		logger.Fatalf("load accounts: %v", err)
	}

	nav := navigation.NewHistory()
	authService := service.NewAuthService(dir, service.AuthConfig{
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
		OnSessionChange: func(*domain.User) {
			nav.Reset()
		},
	})
	ledgerService := service.NewLedgerService(dir, service.LedgerConfig{Logger: logger})
	profileService := service.NewProfileService(dir, logger)
	giftService := service.NewGiftService(dir)

	simulator := market.NewSimulator(market.SimulatorConfig{Interval: cfg.Market.Interval, Logger: logger})
	simulator.Start(ctx)
	feed := market.NewFeed(market.FeedConfig{Interval: cfg.Invest.Interval, Logger: logger})
	feed.Start(ctx)

	assistant := support.NewAssistant(buildSupportBackend(ctx, cfg, logger), support.AssistantConfig{
		RatePerSecond: cfg.Support.RatePerSecond,
		Logger:        logger,
	})

	var backups backup.Manager
	if cfg.Storage.Bucket != "" {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		backups = backup.NewManager(backup.Config{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
			Interval:  cfg.Backup.Interval,
			Keep:      cfg.Backup.Keep,
			Logger:    logger,
		}, store, storageSvc)
		if err := backups.Start(ctx); err != nil {
			logger.Fatalf("start backups: %v", err)
		}
	} else {
		logger.Info("storage bucket not set, backups disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Deps{
		Auth:       authService,
		Ledger:     ledgerService,
		Profile:    profileService,
		Gifts:      giftService,
		Navigation: nav,
		Market:     simulator,
		Feed:       feed,
		Assistant:  assistant,
		Backups:    backups,
		Tokens:     apphttp.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
		SendFee:    sendFee,
		Logger:     logger,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if backups != nil {
		backups.Shutdown()
	}
	feed.Shutdown()
	simulator.Shutdown()

	logger.Info("bye")
}

func buildSupportBackend(ctx context.Context, cfg config.Config, logger *logrus.Logger) support.Backend {
	if strings.TrimSpace(cfg.Support.APIKey) == "" {
		logger.Info("support api key not set, chat answers with the fallback reply")
		return nil
	}
	backend, err := support.NewGeminiBackend(ctx, cfg.Support.APIKey, cfg.Support.Model)
	if err != nil {
		logger.Warnf("setup support backend: %v", err)
		return nil
	}
	logger.Infof("support chat using model %s", cfg.Support.Model)
	return backend
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
