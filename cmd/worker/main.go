// Package main - точка входа для фоновых процессов (Worker) Axiom Hub.
//
// Worker отвечает за периодические задачи:
// - Синхронизация активности участников с GitHub API
// - Пересчёт рейтингов и перестройка лидерборда
// - Истечение просроченных team-up приглашений
// - Доставка уведомлений и ежедневных дайджестов
//
// Философия: "Хакатон выигрывает команда, а не стек" - Worker держит
// рейтинги и уведомления актуальными, чтобы участники находили
// совместимых тиммейтов, пока те ещё свободны.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axiom-hq/axiom-hub/config"

	// Application layer
	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/internal/application/eventhandler"
	"github.com/axiom-hq/axiom-hub/internal/application/query"

	// Domain layer
	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"

	// Infrastructure layer
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/external/github"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/mailer"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/messaging"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/postgres"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/persistence/redis"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/scheduler"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/scheduler/jobs"
	"github.com/axiom-hq/axiom-hub/internal/infrastructure/service"
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
	log.Info("starting Axiom Hub Worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to run (set SCHEDULER_ENABLED=true)")
	}

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
	// 4. ЗАПУСК МИГРАЦИЙ (Worker также должен иметь актуальную схему)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS
	// Лидерборд, пул кандидатов и шина событий живут в Redis.
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

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	ratingRepo := postgres.NewRatingRepository(dbConn)
	teamRepo := postgres.NewTeamRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ДИСПЕТЧЕРА СОБЫТИЙ
	// Worker подписан на события, опубликованные API-процессом.
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log

	eventBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         service.NewPubSubAdapter(redisCache),
		InstanceID:     instanceID("worker"),
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

	notifier := service.NewNotificationWriter(notificationRepo)
	ratingCaches := service.NewRatingCaches(leaderboardCache, poolCache)

	dispatcherConfig := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherConfig.Logger = log
	eventDispatcher := messaging.NewDispatcher(dispatcherConfig)
	eventDispatcher.Use(messaging.RecoveryMiddleware(log))

	if err := registerEventHandlers(eventDispatcher, userRepo, notifier, ratingCaches, log); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}
	if err := eventDispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping event dispatcher...")
		_ = eventDispatcher.Stop()
	}()
	log.Info("event handlers registered")

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ И ДОСТАВКИ УВЕДОМЛЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	githubClient := github.NewClient(buildGitHubConfig(cfg, log))

	// Канальный роутер: in-app уведомления пишутся сразу, email уходит
	// через SMTP, если он настроен.
	senderRouter := mailer.NewRouter()
	senderRouter.Register(notification.ChannelInApp, mailer.NewInAppSender())
	if !cfg.SMTP.Disabled && cfg.SMTP.Host != "" {
		senderRouter.Register(notification.ChannelEmail, mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, userRepo))
		log.Info("SMTP delivery enabled", "host", cfg.SMTP.Host)
	} else {
		log.Info("SMTP delivery disabled, email notifications stay in-app only")
	}

	mailDispatcher := mailer.NewDispatcher(notificationRepo, userRepo, senderRouter, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. РЕГИСТРАЦИЯ ПЕРИОДИЧЕСКИХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")

	syncHandler := command.NewSyncGitHubActivityHandler(
		userRepo, ratingRepo, githubClient, eventBus,
		command.SyncGitHubActivityHandlerConfig{MinSyncInterval: cfg.GitHub.MinSyncInterval},
	)
	findTeammates := query.NewFindTeammatesHandler(userRepo, service.NewPresenceAdapter(onlineTracker))

	syncConfig := jobs.DefaultSyncGitHubAllConfig()
	syncConfig.MinSyncInterval = cfg.GitHub.MinSyncInterval
	syncConfig.Timeout = cfg.Scheduler.JobTimeout

	recomputeConfig := jobs.DefaultRecomputeRatingsConfig()
	recomputeConfig.Timeout = cfg.Scheduler.JobTimeout

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	registrations := []struct {
		job      scheduler.Job
		schedule scheduler.Schedule
	}{
		{
			jobs.NewSyncGitHubAllJob(userRepo, syncHandler, eventBus, log, syncConfig),
			scheduler.NewIntervalSchedule(cfg.Scheduler.GitHubSyncInterval),
		},
		{
			jobs.NewRecomputeRatingsJob(userRepo, ratingRepo, leaderboardCache, poolCache, eventBus, log, recomputeConfig),
			scheduler.NewIntervalSchedule(cfg.Scheduler.RecomputeInterval),
		},
		{
			jobs.NewExpireTeamUpRequestsJob(teamRepo, notificationRepo, eventBus, log, jobs.DefaultExpireTeamUpRequestsConfig()),
			scheduler.NewIntervalSchedule(cfg.Scheduler.ExpireTeamUpsInterval),
		},
		{
			jobs.NewDispatchNotificationsJob(mailDispatcher, log, jobs.DefaultDispatchNotificationsConfig()),
			scheduler.NewIntervalSchedule(cfg.Scheduler.DispatchInterval),
		},
		{
			jobs.NewCleanupPresenceJob(onlineTracker, log, time.Minute),
			scheduler.NewIntervalSchedule(cfg.Scheduler.CleanupInterval),
		},
	}

	for _, r := range registrations {
		if err := sched.Register(r.job, r.schedule); err != nil {
			return fmt.Errorf("failed to register job %s: %w", r.job.Name(), err)
		}
	}

	// Дайджест уходит раз в день в настроенное время.
	digestCron, err := scheduler.ParseCronExpression(
		fmt.Sprintf("%d %d * * *", cfg.Scheduler.DailyDigestMinute, cfg.Scheduler.DailyDigestHour),
	)
	if err != nil {
		return fmt.Errorf("invalid daily digest schedule: %w", err)
	}
	digestJob := jobs.NewDailyDigestJob(userRepo, findTeammates, notificationRepo, log, jobs.DefaultDailyDigestConfig())
	if err := sched.Register(digestJob, digestCron); err != nil {
		return fmt.Errorf("failed to register job %s: %w", digestJob.Name(), err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		log.Info("stopping scheduler...")
		_ = sched.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Axiom Hub Worker is running",
		"jobs", 6,
		"digest_at", fmt.Sprintf("%02d:%02d", cfg.Scheduler.DailyDigestHour, cfg.Scheduler.DailyDigestMinute),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// registerEventHandlers подписывает обработчики доменных событий.
func registerEventHandlers(
	d *messaging.Dispatcher,
	users user.Repository,
	notifier eventhandler.Notifier,
	caches eventhandler.CacheInvalidator,
	log *slog.Logger,
) error {
	tierChanged := eventhandler.NewOnTierChangedHandler(notifier, caches, log)
	teamUpRequested := eventhandler.NewOnTeamUpRequestedHandler(users, notifier, log)
	teamUpResponded := eventhandler.NewOnTeamUpRespondedHandler(users, notifier, log)
	hackathonResult := eventhandler.NewOnHackathonResultHandler(notifier, caches, log)

	registrations := []struct {
		eventType shared.EventType
		name      string
		handler   shared.EventHandler
	}{
		{shared.EventTierChanged, "notify_tier_change", tierChanged.Handle},
		{shared.EventTeamUpRequested, "notify_teamup_requested", teamUpRequested.Handle},
		{shared.EventTeamUpAccepted, "notify_teamup_accepted", teamUpResponded.Handle},
		{shared.EventTeamUpDeclined, "notify_teamup_declined", teamUpResponded.Handle},
		{shared.EventHackathonResult, "notify_hackathon_result", hackathonResult.Handle},
	}

	for _, r := range registrations {
		if err := d.Register(r.eventType, r.name, r.handler); err != nil {
			return fmt.Errorf("register %s: %w", r.name, err)
		}
	}
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
		return nil, fmt.Errorf("redis is required for the worker, REDIS_DISABLED must be false")
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
