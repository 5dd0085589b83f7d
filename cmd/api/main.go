package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/joho/godotenv"

	"github.com/perfsage/perfsage/internal/analysis"
	"github.com/perfsage/perfsage/internal/analytics"
	"github.com/perfsage/perfsage/internal/config"
	"github.com/perfsage/perfsage/internal/credentials"
	"github.com/perfsage/perfsage/internal/identity"
	"github.com/perfsage/perfsage/internal/llm"
	"github.com/perfsage/perfsage/internal/logger"
	"github.com/perfsage/perfsage/internal/notify"
	"github.com/perfsage/perfsage/internal/quota"
	"github.com/perfsage/perfsage/internal/secrets"
	"github.com/perfsage/perfsage/internal/server"
	"github.com/perfsage/perfsage/internal/settings"
	"github.com/perfsage/perfsage/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stsClient := sts.NewFromConfig(aws.Config{
		Region: cfg.AWS.Region,
		Credentials: awscreds.NewStaticCredentialsProvider(
			cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
	})
	broker := credentials.NewBroker(stsClient, cfg.AWS)

	if cfg.Env == config.EnvProduction {
		if err := resolveSecrets(ctx, broker, &cfg); err != nil {
			log.Fatalf("resolve secrets: %v", err)
		}
	}

	storeCtx := store.NewContext(broker, cfg.AWS)
	tracker := quota.NewTracker(storeCtx, cfg.Quota.UploadCeiling)
	settingsService := settings.NewService(storeCtx)

	analysisService := analysis.NewService(
		tracker,
		llm.NewClient(cfg.OpenAI),
		notify.NewNotifier(),
		settingsService,
		logg,
		cfg.Quota.MaxFileBytes,
	)

	analyticsService := analytics.NewService(storeCtx, logg)
	if err := analyticsService.Start(ctx, cfg.Analytics.CronSpec); err != nil {
		log.Fatalf("start analytics: %v", err)
	}
	defer analyticsService.Stop()

	identityService := identity.NewService(cfg.Auth, logg)

	router := server.NewRouter(server.Dependencies{
		Config:          cfg,
		Store:           storeCtx,
		Identity:        identityService,
		Quotas:          tracker,
		AnalysisService: analysisService,
		SettingsService: settingsService,
		Analytics:       analyticsService,
		Logger:          logg,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("PerfSage API listening", "address", cfg.Server.Address())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", "error", err)
	}
}

// resolveSecrets pulls production-only configuration from Secrets Manager
// using a delegated credential. Development reads the same values from
// the environment directly.
func resolveSecrets(ctx context.Context, broker *credentials.Broker, cfg *config.Config) error {
	cred, err := broker.Active(ctx)
	if err != nil {
		return fmt.Errorf("obtain delegated credential: %w", err)
	}

	client := secrets.NewClient(cfg.AWS.Region, cred)
	prefix := cfg.AWS.SecretsNamePrefix

	for name, target := range map[string]*string{
		"OPENAI_API_KEY":             &cfg.OpenAI.APIKey,
		"GITHUB_OAUTH_CLIENT_ID":     &cfg.Auth.GitHubClientID,
		"GITHUB_OAUTH_CLIENT_SECRET": &cfg.Auth.GitHubClientSecret,
	} {
		value, err := client.GetSecret(ctx, prefix+name)
		if err != nil {
			return err
		}
		*target = value
	}
	return nil
}
