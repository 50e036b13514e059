// Command flagkit serves the feature flag API.
//
// The store, cache and change notifier are picked from the environment;
// see appConfig for the variables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/httpserver"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/requestid"
	"github.com/dmitrymomot/flagkit/pkg/webhook"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
	"github.com/dmitrymomot/flagkit/svc/featureflag/httpapi"
)

func main() {
	if err := run(); err != nil {
		slog.Error("flagkit stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor),
	)
	logger.SetAsDefault(log)

	var closers closeStack
	defer closers.closeAll(log)

	store, storeCheck, err := openStore(ctx, cfg, log, &closers)
	if err != nil {
		return err
	}
	cache, cacheCheck, err := openCache(ctx, cfg, &closers)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	svc := featureflag.NewService(store,
		featureflag.WithCache(cache),
		featureflag.WithNotifier(notifier),
		featureflag.WithCacheTTL(cfg.CacheTTL),
		featureflag.WithLogger(log),
	)

	apiOpts := []httpapi.Option{httpapi.WithLogger(log)}
	if storeCheck != nil {
		apiOpts = append(apiOpts, httpapi.WithReadinessCheck("store", storeCheck))
	}
	if cacheCheck != nil {
		apiOpts = append(apiOpts, httpapi.WithReadinessCheck("cache", cacheCheck))
	}

	log.InfoContext(ctx, "starting flagkit",
		slog.String("store", cfg.Store),
		slog.String("cache", cfg.Cache),
		slog.Bool("webhook", cfg.WebhookURL != ""),
	)
	return httpserver.New(cfg.HTTP, log).Run(ctx, httpapi.New(svc, apiOpts...).Routes())
}

func newNotifier(cfg appConfig) (featureflag.Notifier, error) {
	if cfg.WebhookURL == "" {
		return featureflag.NoOpNotifier{}, nil
	}

	excluded := make([]featureflag.ChangeKind, 0, len(cfg.WebhookExclude))
	for _, s := range cfg.WebhookExclude {
		kind, err := featureflag.ParseChangeKind(s)
		if err != nil {
			return nil, fmt.Errorf("FLAG_WEBHOOK_EXCLUDE: %w", err)
		}
		excluded = append(excluded, kind)
	}

	senderOpts := []webhook.Option{
		webhook.WithTimeout(cfg.WebhookTimeout),
		webhook.WithMaxRetries(cfg.WebhookRetries),
		webhook.WithUserAgent(cfg.Name),
		webhook.WithCircuitBreaker(webhook.NewCircuitBreaker(5, 2, time.Minute)),
	}
	if cfg.WebhookSecret != "" {
		senderOpts = append(senderOpts, webhook.WithSecret(cfg.WebhookSecret))
	}
	if len(cfg.WebhookHeaders) > 0 {
		senderOpts = append(senderOpts, webhook.WithHeaders(cfg.WebhookHeaders))
	}

	return featureflag.NewWebhookNotifier(cfg.WebhookURL,
		featureflag.WithSender(webhook.NewSender(senderOpts...)),
		featureflag.WithExcludedChanges(excluded...),
	), nil
}

// closeStack releases resources in reverse order of acquisition.
type closeStack []func() error

func (s *closeStack) push(fn func() error) { *s = append(*s, fn) }

func (s closeStack) closeAll(log *slog.Logger) {
	for i := len(s) - 1; i >= 0; i-- {
		if err := s[i](); err != nil {
			log.Error("failed to release resource", logger.Error(err))
		}
	}
}
