package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"endflow/internal/attribution"
	"endflow/internal/cache"
	"endflow/internal/cms"
	"endflow/internal/config"
	"endflow/internal/consent"
	"endflow/internal/database"
	"endflow/internal/handlers"
	"endflow/internal/imaging"
	"endflow/internal/middleware"
	"endflow/internal/router"
	"endflow/internal/store"
	"endflow/internal/tracking"
	"endflow/internal/visitor"
)

// Event ingestion limits per client IP.
const (
	eventRateLimit  = 120
	eventRateWindow = time.Minute
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server until SIGINT or SIGTERM.

Connects to PostgreSQL (applying pending migrations), Valkey and the
headless content store, then serves the content, consent and event APIs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts.Config)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Connect to Valkey (content cache + visitor state).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer valkeyClient.Close()

	cmsClient, err := newCMSClient(cfg)
	if err != nil {
		return err
	}
	slog.Info("content store configured", "endpoint", cmsClient.Endpoint())

	// Content layer: query builder -> cached fetch -> normalizer.
	contentCache := cache.NewContentCache(valkeyClient, cfg.ContentCacheTTL)
	images := imaging.NewBuilder(cfg.SanityProjectID, cfg.SanityDataset, "")
	contentStore := store.NewContentStore(cmsClient, contentCache, images)

	// Visitor state, consent and attribution.
	kv := visitor.NewStore(valkeyClient)
	consentManager := consent.NewManager(kv)
	capturer := attribution.New(kv)

	// Tracking destinations and the dispatcher. The dispatcher releases
	// events held for undecided visitors as soon as they decide.
	registry := tracking.NewRegistry(destinationConfigs(cfg))
	slog.Info("tracking destinations initialized", "available", registry.Available())
	dispatcher := tracking.NewDispatcher(registry, consentManager, capturer, tracking.WithDeduper(kv))
	consentManager.Subscribe(dispatcher.OnConsent)

	limiter := middleware.NewRateLimiter(eventRateLimit, eventRateWindow)
	defer limiter.Stop()

	// Create handler groups with their dependencies.
	h := router.Handlers{
		Content: handlers.NewContent(contentStore, cfg.SiteURL),
		Consent: handlers.NewConsent(consentManager, store.NewConsentLogStore(db, cfg.IPHashKey)),
		Events:  handlers.NewEvents(dispatcher, capturer),
		Hooks:   handlers.NewHooks(contentCache, store.NewCacheLogStore(db), cfg.ContentWebhookSecret),
	}
	if cfg.ContentWebhookSecret == "" {
		slog.Warn("CONTENT_WEBHOOK_SECRET not set, content webhook disabled")
	}

	r := router.New(h, router.Options{
		SecureCookies: !cfg.IsDev(),
		Attribution:   capturer,
		EventLimiter:  limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		dispatcher.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Let in-flight destination relays finish.
	dispatcher.Close()
	slog.Info("server stopped gracefully")
	return nil
}

func newCMSClient(cfg *config.Config) (*cms.Client, error) {
	client, err := cms.New(cms.Config{
		ProjectID:  cfg.SanityProjectID,
		Dataset:    cfg.SanityDataset,
		APIVersion: cfg.SanityAPIVersion,
		Token:      cfg.SanityToken,
		UseCDN:     cfg.SanityUseCDN,
		BaseURL:    cfg.SanityBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("content store client: %w", err)
	}
	return client, nil
}

// destinationConfigs maps the environment configuration onto the
// tracking registry's per-destination settings.
func destinationConfigs(cfg *config.Config) map[string]tracking.DestinationConfig {
	return map[string]tracking.DestinationConfig{
		tracking.GA4:         {ID: cfg.GAMeasurementID, Secret: cfg.GAAPISecret},
		tracking.HubSpot:     {ID: cfg.HubSpotPortalID, Secret: cfg.HubSpotAccessToken},
		tracking.Meta:        {ID: cfg.FacebookPixelID, Secret: cfg.FacebookAccessToken},
		tracking.LinkedIn:    {ID: cfg.LinkedInPartnerID, Secret: cfg.LinkedInAccessToken},
		tracking.Twitter:     {ID: cfg.TwitterPixelID, Secret: cfg.TwitterAccessToken},
		tracking.Reddit:      {ID: cfg.RedditPixelID, Secret: cfg.RedditAccessToken},
		tracking.ProductHunt: {ID: cfg.ProductHuntPixelID, Endpoint: cfg.ProductHuntEndpoint},
		tracking.RB2B:        {ID: cfg.RB2BPixelID, Endpoint: cfg.RB2BEndpoint},
	}
}
