// Package app wires configuration into the repositories, authorizer,
// notification broker and services shared by the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/config"
	"github.com/dangerclosesec/orgtodo/internal/database"
	"github.com/dangerclosesec/orgtodo/internal/email"
	"github.com/dangerclosesec/orgtodo/internal/lock"
	"github.com/dangerclosesec/orgtodo/internal/notify"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type App struct {
	DB     *gorm.DB
	Tokens *auth.TokenManager
	Authz  auth.Authorizer
	Broker notify.Broker
	Locker lock.Locker
	Cache  *service.CacheService

	OrgRepo    *repository.OrganizationRepository
	MemberRepo *repository.MemberRepository
	TodoRepo   *repository.TodoRepository
	JobRepo    *repository.DeletionJobRepository

	AuditLogs     *service.AuthzAuditLogService
	EntitySync    *service.EntitySyncService
	Deletion      *service.DeletionService
	Organizations *service.OrganizationService
	Members       *service.MemberService
	Todos         *service.TodoService
	Feed          *service.TodoFeed
	Reconciler    *service.DeletionReconciler

	closers []func() error
}

// New connects every backend selected by cfg. The returned App must be
// closed; on error everything opened so far is released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Tokens: auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)}
	if err := a.init(ctx, cfg, logger); err != nil {
		return nil, multierr.Append(err, a.Close())
	}
	return a, nil
}

func (a *App) init(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var err error
	a.DB, err = database.Open(cfg)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}
	a.closers = append(a.closers, func() error {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	a.OrgRepo = repository.NewOrganizationRepository(a.DB)
	a.MemberRepo = repository.NewMemberRepository(a.DB)
	a.TodoRepo = repository.NewTodoRepository(a.DB)
	a.JobRepo = repository.NewDeletionJobRepository(a.DB)
	a.AuditLogs = service.NewAuthzAuditLogService(repository.NewAuthzAuditLogRepository(a.DB))

	if a.Authz, err = a.authorizer(cfg); err != nil {
		return err
	}
	logger.Info("authorization configured", "mode", cfg.Authz.Mode)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.Locker = lock.NewRedisLocker(redisClient, 30*time.Second)
	} else {
		a.Locker = lock.NewMemoryLocker()
	}

	if a.Broker, err = a.broker(ctx, cfg, redisClient, logger); err != nil {
		return err
	}
	logger.Info("notifications configured", "backend", cfg.Notify.Backend)

	emailService, err := email.NewEmailService(cfg, email.ProviderFromConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("initializing email service: %w", err)
	}

	a.Cache = organizationCache(cfg, redisClient)
	if a.Cache != nil {
		a.closers = append(a.closers, func() error {
			a.Cache.Close()
			return nil
		})
	}

	a.EntitySync = service.NewEntitySyncService(a.Authz, a.MemberRepo, logger)
	a.Deletion = service.NewDeletionService(service.DeletionConfig{
		Jobs:       a.JobRepo,
		Orgs:       a.OrgRepo,
		Members:    a.MemberRepo,
		Todos:      a.TodoRepo,
		Locker:     a.Locker,
		Broker:     a.Broker,
		Cache:      a.Cache,
		EntitySync: a.EntitySync,
		Audit:      a.AuditLogs,
		Logger:     logger,
	})
	a.Organizations = service.NewOrganizationService(
		a.OrgRepo,
		a.MemberRepo,
		a.Authz,
		a.Deletion,
		a.Cache,
		a.EntitySync,
		a.AuditLogs,
		logger,
	)
	a.Members = service.NewMemberService(service.MemberConfig{
		Repo:       a.MemberRepo,
		OrgRepo:    a.OrgRepo,
		Authz:      a.Authz,
		Locker:     a.Locker,
		Emailer:    emailService,
		EntitySync: a.EntitySync,
		Audit:      a.AuditLogs,
		Logger:     logger,
		BaseURL:    cfg.BaseURL,
	})
	a.Members.SetDeletionGuard(a.Deletion)
	a.Todos = service.NewTodoService(a.TodoRepo, a.OrgRepo, a.Authz, a.Broker, a.AuditLogs, logger)
	a.Todos.SetDeletionGuard(a.Deletion)
	a.Feed = service.NewTodoFeed(a.Todos, a.Broker, logger)
	a.Reconciler = service.NewDeletionReconciler(
		a.JobRepo,
		a.OrgRepo,
		a.Deletion,
		a.EntitySync,
		cfg.Reconcile.Interval,
		logger,
	)

	return nil
}

func (a *App) authorizer(cfg *config.Config) (auth.Authorizer, error) {
	switch cfg.Authz.Mode {
	case config.AuthzModePermify:
		permify, err := auth.NewPermifyService(
			cfg.Permify.Endpoint,
			auth.WithTenant(cfg.Permify.Tenant),
			auth.WithSchemaVersion(cfg.Permify.SchemaVersion),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing permify client: %w", err)
		}
		return auth.NewPermifyAuthorizer(permify, a.AuditLogs), nil
	case config.AuthzModeGroup, config.AuthzModeTenant, "":
		enforcer, err := auth.NewEnforcer(a.DB)
		if err != nil {
			return nil, fmt.Errorf("initializing casbin enforcer: %w", err)
		}
		group := auth.NewGroupAuthorizer(enforcer, a.AuditLogs)
		if cfg.Authz.Mode == config.AuthzModeTenant {
			return auth.NewTenantAuthorizer(group, a.MemberRepo, a.AuditLogs), nil
		}
		return group, nil
	default:
		return nil, fmt.Errorf("unsupported authorization mode %q", cfg.Authz.Mode)
	}
}

func (a *App) broker(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) (notify.Broker, error) {
	var (
		b   notify.Broker
		err error
	)
	switch cfg.Notify.Backend {
	case config.NotifyPostgres:
		if cfg.Database.Driver == "sqlite" {
			return nil, fmt.Errorf("notify backend %q requires the postgres database driver", cfg.Notify.Backend)
		}
		b, err = notify.NewPostgresBroker(ctx, cfg.URL(), logger)
	case config.NotifyRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("notify backend %q requires REDIS_ADDR", cfg.Notify.Backend)
		}
		b, err = notify.NewRedisBroker(ctx, redisClient)
	case config.NotifyMemory, "":
		b = notify.NewMemoryBroker()
	default:
		return nil, fmt.Errorf("unsupported notify backend %q", cfg.Notify.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s notifications: %w", cfg.Notify.Backend, err)
	}
	// Registered after the redis client, so it is closed before it.
	a.closers = append(a.closers, b.Close)
	return b, nil
}

// organizationCache shares entries through Redis when it is configured. A
// process-local cache is only safe with the in-memory broker, which implies a
// single instance; otherwise organizations are read from the database.
func organizationCache(cfg *config.Config, redisClient *redis.Client) *service.CacheService {
	switch {
	case redisClient != nil:
		return service.NewRedisCacheService(redisClient, 5*time.Minute)
	case cfg.Notify.Backend == config.NotifyMemory || cfg.Notify.Backend == "":
		return service.NewCacheService(service.CacheConfig{
			TTL:         5 * time.Minute,
			CleanupFreq: 1 * time.Minute,
		})
	default:
		return nil
	}
}

// Close releases every backend in reverse order of creation.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
