package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/cache"
	"content-scheduler/infrastructure/clients/tiktok"
	youtubeclient "content-scheduler/infrastructure/clients/youtube"
	"content-scheduler/infrastructure/configuration"
	"content-scheduler/infrastructure/logger"
	"content-scheduler/infrastructure/persistence"
	"content-scheduler/infrastructure/pubsub"
	"content-scheduler/infrastructure/realtime"
	"content-scheduler/infrastructure/servicebus"
	"content-scheduler/infrastructure/trigger"
	httpHandler "content-scheduler/interfaces/http"
	"content-scheduler/server"
	"content-scheduler/usecase"

	gpubsub "cloud.google.com/go/pubsub"
	"golang.org/x/sync/errgroup"
)

const (
	tickJob         = "tick"
	tokenRefreshJob = "token-refresh"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	app := configuration.C.App
	settings := configuration.SchedulerSettings()

	db, vendor, err := InitiateDatabase(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Database initialization failed")
	}
	defer db.Close()

	repos, err := persistence.NewRepositories(db, vendor)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Failed ensuring scheduler schema")
	}
	logger.GetLogger().WithField("vendor", vendor).Info("Database connected.")

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing with in-memory tick reports")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing with in-memory tick reports")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}
	tickReports := persistence.NewTickReportRepository(mongoDb)

	var tickLock repository.ITickLock
	redisClient, err := cache.NewCache(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - ticks run without a distributed lock")
	} else {
		defer redisClient.Close()
		tickLock = cache.NewTickLock(redisClient)
		logger.GetLogger().Info("Redis client initialized successfully.")
	}

	hub := realtime.NewPublishHub()
	notifiers := usecase.Notifiers{hub}

	if projectID := configuration.C.Pubsub.ProjectID; projectID != "" {
		pubSubClient, err := gpubsub.NewClient(ctx, projectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
		} else {
			defer pubSubClient.Close()
			events, err := pubsub.NewPublishEvents(ctx, pubSubClient, configuration.C.Pubsub.TopicID)
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Pub/Sub topic not available - continuing without Pub/Sub events")
			} else {
				notifiers = append(notifiers, events)
			}
		}
	}

	if namespace := configuration.C.ServiceBus.Namespace; namespace != "" {
		sbClient, err := servicebus.NewClient(namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
		} else {
			events, err := servicebus.NewPublishEvents(sbClient, configuration.C.ServiceBus.QueueName)
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Azure Service Bus sender failed - continuing without Service Bus events")
			} else {
				defer events.Close(context.Background())
				notifiers = append(notifiers, events)
			}
		}
	}

	var clients []repository.IPublisher
	if configuration.C.TikTok.Enabled() {
		clients = append(clients, tiktok.NewClient(tiktok.ConfigFromSettings(configuration.C.TikTok, settings)))
	} else {
		logger.GetLogger().Warn("TikTok credentials not configured - TikTok accounts cannot publish")
	}
	if configuration.C.YouTube.Enabled() {
		clients = append(clients, youtubeclient.NewYouTubeClient(youtubeclient.ConfigFromSettings(configuration.C.YouTube)))
	} else {
		logger.GetLogger().Info("YouTube credentials not configured - YouTube publishing disabled")
	}
	publishers := usecase.NewPublishers(clients...)

	clock := usecase.NewSystemClock()
	guard := usecase.NewTokenGuard(repos.Accounts, publishers, clock, settings.RefreshSkew(), settings.RequestTimeout())
	executor := usecase.NewPublishExecutor(guard, publishers, repos.Videos, repos.Accounts, repos.PublishLogs, clock, usecase.ExecutorOptions{
		RequestTimeout: settings.RequestTimeout(),
		MaxErrorCount:  settings.MaxErrorCount,
		Notifier:       notifiers,
	})
	runGuard := usecase.NewRunGuard()
	schedulerUsecase := usecase.NewSchedulerUsecase(
		repos.Schedules,
		repos.Videos,
		usecase.NewRateLimiter(repos.PublishLogs),
		usecase.NewCandidateSelector(repos.Videos),
		usecase.NewAccountSelector(repos.Accounts, publishers, nil),
		executor,
		clock,
		usecase.SchedulerOptions{
			FallbackBatchSize: settings.FallbackBatchSize,
			LockTTL:           settings.LockTTL(),
			TickLock:          tickLock,
			Reports:           tickReports,
			RunGuard:          runGuard,
		},
	)
	tokenRefreshUsecase := usecase.NewTokenRefreshUsecase(repos.Accounts, guard, publishers, clock, settings.RefreshLookahead(), settings.MaxErrorCount, runGuard)
	accountConnectUsecase := usecase.NewAccountConnectUsecase(repos.Accounts, publishers, clock, app.SecretKey)

	cronTrigger, err := InitiateTrigger(settings, schedulerUsecase, tokenRefreshUsecase)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Scheduler trigger initialization failed")
	}
	if settings.Enabled {
		cronTrigger.Start(ctx)
		logger.GetLogger().
			WithField("tick", settings.TickSpec).
			WithField("next", cronTrigger.Next(tickJob)).
			Info("Scheduler started")
	} else {
		logger.GetLogger().Warn("Scheduler disabled - ticks only run on demand")
	}
	configuration.WatchScheduler(func(next configuration.Scheduler) {
		if err := cronTrigger.Reschedule(tickJob, next.TickSpec); err != nil {
			logger.GetLogger().WithField("error", err).Error("Keeping previous tick schedule")
		}
		if err := cronTrigger.Reschedule(tokenRefreshJob, next.TokenRefreshSpec); err != nil {
			logger.GetLogger().WithField("error", err).Error("Keeping previous token refresh schedule")
		}
	})

	router := server.InitiateRouter(
		server.RouterConfig{SecretKey: app.SecretKey, AllowedOrigins: app.AllowedOrigins},
		httpHandler.NewHealthHandler(db),
		httpHandler.NewSchedulerHandler(schedulerUsecase),
		httpHandler.NewAccountHandler(tokenRefreshUsecase, accountConnectUsecase),
		hub.Serve,
	)

	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	select {
	case <-cronTrigger.Stop().Done():
	case <-shutdownCtx.Done():
		logger.GetLogger().Warn("Scheduler jobs still running at shutdown")
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens MSSQL in production (or when DB_VENDOR=mssql) and PostgreSQL otherwise.
func InitiateDatabase(ctx context.Context) (*sql.DB, string, error) {
	env := os.Getenv("ENV")
	if strings.EqualFold(os.Getenv("DB_VENDOR"), persistence.VendorMSSQL) || env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB(ctx)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, "", err
		}
		return mssql, persistence.VendorMSSQL, nil
	}
	postgres, err := persistence.NewPostgreSQLDB(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, "", err
	}
	return postgres, "postgres", nil
}

// InitiateTrigger registers the tick and token refresh jobs without starting them.
func InitiateTrigger(settings configuration.Scheduler, scheduler usecase.ISchedulerUsecase, refresh usecase.ITokenRefreshUsecase) (*trigger.Trigger, error) {
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		logger.GetLogger().WithField("timezone", settings.Timezone).Warn("Unknown scheduler timezone - using UTC")
		loc = time.UTC
	}
	t := trigger.New(loc)
	if err := t.Add(trigger.Job{
		Name:    tickJob,
		Spec:    settings.TickSpec,
		Timeout: settings.TickTimeout(),
		Run: func(ctx context.Context) error {
			report, err := scheduler.RunTick(ctx)
			if err != nil {
				return err
			}
			if report.Skipped {
				logger.ForComponent("scheduler").Info("Tick skipped - another instance holds the lock")
			}
			return nil
		},
	}); err != nil {
		return nil, err
	}
	if err := t.Add(trigger.Job{
		Name:    tokenRefreshJob,
		Spec:    settings.TokenRefreshSpec,
		Timeout: settings.TickTimeout(),
		Run: func(ctx context.Context) error {
			summary, err := refresh.RefreshExpiring(ctx)
			logger.ForComponent("token-refresh").
				WithField("checked", summary.Checked).
				WithField("refreshed", summary.Refreshed).
				WithField("failed", summary.Failed).
				Info("Token refresh finished")
			return err
		},
	}); err != nil {
		return nil, err
	}
	return t, nil
}
