// Package main - точка входа для REST API приложения Axiom Hub.
//
// Философия: "Хакатон выигрывает команда, а не стек" - API превращает
// холодный список участников в живое сообщество, где каждый находит
// команду по совместимости, а не по знакомству.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Sagas)
// - Infrastructure: реализация репозиториев, внешние API
// - Interface: HTTP handlers
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/axiom-hq/axiom-hub/config"

	// Application layer
	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/internal/application/query"
	"github.com/axiom-hq/axiom-hub/internal/application/saga"

	// Infrastructure layer
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/auth"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/external/github"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/messaging"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/postgres"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/redis"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/axiom-hq/axiom-hub/internal/interface/http"
	"github.com/axiom-hq/axiom-hub/internal/interface/http/handlers"

	// Packages
	"github.com/axiom-hq/axiom-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Axiom Hub API",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", "error", err)
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed", "applied", appliedCount, "total", len(status))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS
	// Сессии и присутствие живут в Redis, поэтому для API он обязателен.
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	redisCache, err := connectRedis(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection...")
		_ = redisCache.Close()
	}()
	log.Info("Redis connection established")

	onlineTracker := redis.NewOnlineTracker(redisCache)
	leaderboardCache := redis.NewLeaderboardCache(redisCache)
	poolCache := redis.NewPoolCache(redisCache)
	sessionStore := redis.NewSessionStoreWithTTL(redisCache, cfg.HTTP.SessionTTL)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	ratingRepo := postgres.NewRatingRepository(dbConn)
	teamRepo := postgres.NewTeamRepository(dbConn)
	conversationRepo := postgres.NewConversationRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)
	hackathonRepo := postgres.NewHackathonRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// Redis pub/sub: события из API обрабатывает worker-процесс.
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log

	eventBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         service.NewPubSubAdapter(redisCache),
		InstanceID:     instanceID("api"),
		LocalBusConfig: localBusConfig,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	githubClient := github.NewClient(buildGitHubConfig(cfg, log))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	ratingCaches := service.NewRatingCaches(leaderboardCache, poolCache)
	presence := service.NewPresenceAdapter(onlineTracker)
	notifier := service.NewNotificationWriter(notificationRepo)
	conversations := service.NewConversationService(conversationRepo)

	authService := auth.NewService(userRepo, sessionStore, auth.NewBcryptHasher(0))

	updateProfileCmd := command.NewUpdateProfileHandler(userRepo, ratingCaches)
	syncGitHubCmd := command.NewSyncGitHubActivityHandler(
		userRepo, ratingRepo, githubClient, eventBus,
		command.SyncGitHubActivityHandlerConfig{MinSyncInterval: cfg.GitHub.MinSyncInterval},
	)
	sendTeamUpCmd := command.NewSendTeamUpRequestHandler(userRepo, teamRepo, eventBus)
	respondTeamUpCmd := command.NewRespondTeamUpRequestHandler(teamRepo, conversations, eventBus)
	sendMessageCmd := command.NewSendMessageHandler(conversationRepo, eventBus)
	recordHackathonCmd := command.NewRecordHackathonResultHandler(userRepo, hackathonRepo, ratingRepo, eventBus)

	getProfileQuery := query.NewGetProfileHandler(userRepo, ratingRepo)
	findTeammatesQuery := query.NewFindTeammatesHandler(userRepo, presence)
	getLeaderboardQuery := query.NewGetLeaderboardHandler(ratingRepo)
	getOnlineNowQuery := query.NewGetOnlineNowHandler(userRepo, presence)

	onboardingSaga := saga.NewOnboardingSaga(
		userRepo, ratingRepo, githubClient, notifier, eventBus,
		service.NewUUIDGenerator(), saga.DefaultOnboardingConfig(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewPingCheck(dbConn))
	healthChecker.AddCheck("cache", handlers.NewPingCheck(redisCache))
	healthChecker.AddCheck("github", handlers.NewGitHubCheck(githubClient))

	// ─────────────────────────────────────────────────────────────────────────
	// 11. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpConfig.APIKeys = cfg.HTTP.APIKeys
	httpConfig.GitHubWebhookSecret = cfg.GitHub.WebhookSecret

	httpDeps := httpserver.Dependencies{
		Auth:       authService,
		Onboarding: onboardingSaga,

		UpdateProfileHandler:   updateProfileCmd,
		SyncGitHubHandler:      syncGitHubCmd,
		SendTeamUpHandler:      sendTeamUpCmd,
		RespondTeamUpHandler:   respondTeamUpCmd,
		SendMessageHandler:     sendMessageCmd,
		RecordHackathonHandler: recordHackathonCmd,

		GetProfileHandler:     getProfileQuery,
		FindTeammatesHandler:  findTeammatesQuery,
		GetLeaderboardHandler: getLeaderboardQuery,
		GetOnlineNowHandler:   getOnlineNowQuery,

		UserRepo:         userRepo,
		TeamRepo:         teamRepo,
		ConversationRepo: conversationRepo,
		NotificationRepo: notificationRepo,

		Presence: onlineTracker,

		Logger:        logger.Wrap(log.With("component", "http")),
		HealthChecker: healthChecker,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		log.Info("starting HTTP server", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Axiom Hub API is running", "http_address", httpServer.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// parseLogLevel конвертирует строковый уровень в slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectRedis подключается к Redis по URL или по отдельным настройкам.
func connectRedis(cfg *config.Config) (*redis.Cache, error) {
	if cfg.Redis.Disabled {
		return nil, errors.New("redis is required for sessions and presence, REDIS_DISABLED must be false")
	}
	if cfg.Redis.URL != "" {
		return redis.NewCacheFromURL(cfg.Redis.URL)
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		redisCfg.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.MinIdleConns > 0 {
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	}
	if cfg.Redis.DialTimeout > 0 {
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout > 0 {
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	}
	if cfg.Redis.WriteTimeout > 0 {
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	}
	return redis.NewCache(redisCfg)
}

// buildGitHubConfig собирает конфигурацию GitHub клиента.
func buildGitHubConfig(cfg *config.Config, log *slog.Logger) github.ClientConfig {
	clientCfg := github.DefaultClientConfig(cfg.GitHub.BaseURL)
	clientCfg.Token = cfg.GitHub.Token
	clientCfg.UserAgent = cfg.GitHub.UserAgent
	clientCfg.Timeout = cfg.GitHub.RequestTimeout
	clientCfg.MaxRetries = cfg.GitHub.MaxRetries
	clientCfg.RetryBaseDelay = cfg.GitHub.RetryBaseDelay
	clientCfg.RetryMaxDelay = cfg.GitHub.RetryMaxDelay
	clientCfg.BreakerThreshold = cfg.GitHub.CircuitBreakerThreshold
	clientCfg.BreakerTimeout = cfg.GitHub.CircuitBreakerTimeout
	clientCfg.BreakerHalfOpenMax = cfg.GitHub.CircuitBreakerHalfOpenMax
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug
	return clientCfg
}

// instanceID идентифицирует экземпляр для шины событий, чтобы он не
// обрабатывал повторно собственные сообщения из Redis.
func instanceID(role string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s-%d", role, host, os.Getpid())
}
