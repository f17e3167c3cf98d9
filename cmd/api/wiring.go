package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"partner-edge/internal/application"
	"partner-edge/internal/application/webhook_handlers"
	"partner-edge/internal/config"
	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/api"
	"partner-edge/internal/infrastructure/auth"
	"partner-edge/internal/infrastructure/cache"
	"partner-edge/internal/infrastructure/encryption"
	"partner-edge/internal/infrastructure/notification"
	"partner-edge/internal/infrastructure/observability"
	"partner-edge/internal/infrastructure/partner"
	"partner-edge/internal/infrastructure/repository"
	"partner-edge/internal/infrastructure/tablestorage"
	"partner-edge/internal/ports"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type stores struct {
	connections ports.ConnectionRepository
	webhookLog  ports.WebhookLog
	migrate     func(ctx context.Context) error
	close       func(ctx context.Context) error
}

// openStores selects the connection repository and webhook log backend from CONNECTION_STORE.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.ConnectionStore {
	case config.ConnectionStoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		conns := repository.NewMongoConnectionRepository(db)
		hooks := repository.NewMongoWebhookLog(db)
		return &stores{
			connections: conns,
			webhookLog:  hooks,
			migrate: func(ctx context.Context) error {
				if err := conns.EnsureIndexes(ctx); err != nil {
					return err
				}
				return hooks.EnsureIndexes(ctx)
			},
			close: client.Disconnect,
		}, nil
	default:
		db, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			connections: repository.NewSQLConnectionRepository(db),
			webhookLog:  repository.NewSQLWebhookLog(db),
			migrate:     func(ctx context.Context) error { return repository.MigrateSQLite(ctx, db) },
			close:       func(context.Context) error { return db.Close() },
		}, nil
	}
}

func newOrderStore(cfg *config.Config) (*tablestorage.OrderStore, error) {
	if cfg.TableServiceURL == "" {
		return nil, domain.NewServerConfigError(errors.New("TABLE_SERVICE_URL is required"))
	}
	return tablestorage.NewOrderStore(cfg.TableServiceURL, cfg.OrdersTable, &http.Client{Timeout: cfg.HTTPClientTimeout})
}

type app struct {
	handler http.Handler
	closers []func(ctx context.Context) error
}

func (a *app) Close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to release resource")
		}
	}
}

// storeOpener opens the connection store backend selected by cfg.
type storeOpener func(ctx context.Context, cfg *config.Config) (*stores, error)

// buildApp constructs every component from cfg and returns the routed HTTP handler.
// The store schema and indexes are ensured before any request is served.
func buildApp(ctx context.Context, cfg *config.Config, open storeOpener) (*app, error) {
	a := &app{}
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	metrics := observability.NewMetrics()

	encSvc, err := encryption.NewService(cfg.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption service: %w", err)
	}

	st, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)
	if err := st.migrate(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to prepare connection store: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

	orders, err := newOrderStore(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	devices := cache.NewRedisDeviceRegistry(rdb)

	var notifier ports.Notifier
	if cfg.FCMProjectID != "" && cfg.FCMServiceAccountJSON != "" {
		sender, err := notification.NewFCMSender(ctx, cfg.FCMProjectID, cfg.FCMServiceAccountJSON, httpClient)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		notifier = notification.NewDispatcher(devices, sender, metrics, logger)
	} else {
		logger.Warn().Msg("FCM not configured, push notifications disabled")
	}

	oauth := partner.NewOAuth(partner.OAuthConfig{
		ClientID:     cfg.PartnerClientID,
		ClientSecret: cfg.PartnerClientSecret,
		RedirectURI:  cfg.PartnerRedirectURI,
		Scope:        cfg.PartnerScope,
		AuthURL:      cfg.PartnerAuthURL,
		TokenURL:     cfg.PartnerTokenURL,
	}, httpClient, metrics)
	partnerAPI := partner.NewClient(cfg.PartnerAPIURL, httpClient, metrics, logger)
	tokens := partner.NewTokenManager(encSvc, oauth, st.connections, logger)

	verifier := encryption.NewSignatureVerifier(cfg.PartnerWebhookSecret)
	if !verifier.Enabled() {
		logger.Warn().Msg("PARTNER_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	dispatcher := application.NewWebhookDispatcher(logger)
	dispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(orders, notifier, logger))

	integration := application.NewIntegrationService(st.connections, oauth, partnerAPI, tokens, logger, cfg.AppURL, cfg.APIEndpoint)
	partnerSvc := application.NewPartnerService(
		st.connections,
		partnerAPI,
		tokens,
		cache.NewRedisMenuStore(rdb),
		orders,
		verifier,
		dispatcher,
		st.webhookLog,
		logger,
	)

	gate := auth.NewGate(
		auth.NewTokenVerifier(cfg.PublicKeyPEM, cfg.TokenIssuer, cfg.TokenAudience),
		auth.NewTurnstileClient(cfg.TurnstileURL, cfg.TurnstileSecret, httpClient),
		cfg.IsProduction(),
		metrics,
		logger,
	)

	handlers := api.NewHandlers(integration, partnerSvc, devices, metrics, logger)
	corsPolicy := api.CORSPolicy{AllowedOrigins: cfg.CORSAllowedOrigins, DefaultOrigin: cfg.CORSDefaultOrigin}
	a.handler = api.NewRouter(handlers.Routes(metrics.Handler()), gate, corsPolicy, logger)
	return a, nil
}
