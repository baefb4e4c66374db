package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/nyumbahq/nyumba-backend/api/routes"
	"github.com/nyumbahq/nyumba-backend/internal/audit"
	"github.com/nyumbahq/nyumba-backend/internal/auth"
	"github.com/nyumbahq/nyumba-backend/internal/maintenance"
	"github.com/nyumbahq/nyumba-backend/internal/notifications"
	"github.com/nyumbahq/nyumba-backend/internal/payments"
	"github.com/nyumbahq/nyumba-backend/internal/properties"
	"github.com/nyumbahq/nyumba-backend/internal/reports"
	"github.com/nyumbahq/nyumba-backend/internal/tenancy"
	"github.com/nyumbahq/nyumba-backend/internal/units"
	"github.com/nyumbahq/nyumba-backend/internal/unittypes"
	"github.com/nyumbahq/nyumba-backend/internal/users"
	"github.com/nyumbahq/nyumba-backend/pkg/auth/session"
	"github.com/nyumbahq/nyumba-backend/pkg/config"
	"github.com/nyumbahq/nyumba-backend/pkg/db"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/migrate"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/pubsub"
	"github.com/nyumbahq/nyumba-backend/pkg/redis"
	"github.com/nyumbahq/nyumba-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	audits := audit.NewRepository(gormDB)
	imageBucket := gcsClient.BucketHandle(gcsClient.DefaultBucket())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo, dbClient, outboxSvc, audits)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	propertiesService, err := properties.NewService(properties.NewRepository(gormDB), dbClient, outboxSvc, imageBucket, audits)
	if err != nil {
		logg.Error(context.Background(), "failed to create properties service", err)
		os.Exit(1)
	}

	unitTypesRepo := unittypes.NewRepository(gormDB)
	unitTypesService, err := unittypes.NewService(unitTypesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create unit types service", err)
		os.Exit(1)
	}

	unitsService, err := units.NewService(units.NewRepository(gormDB), unitTypesRepo, dbClient, outboxSvc, imageBucket)
	if err != nil {
		logg.Error(context.Background(), "failed to create units service", err)
		os.Exit(1)
	}

	tenancyService, err := tenancy.NewService(tenancy.NewRepository(gormDB), usersRepo, dbClient, outboxSvc, audits)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenancy service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.NewRepository(gormDB), audits)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	maintenanceService, err := maintenance.NewService(maintenance.NewRepository(gormDB), dbClient, outboxSvc, audits)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		gcsClient,
		pubsubClient,
		sessionManager,
		routes.Services{
			Auth:          authService,
			Register:      registerService,
			Users:         usersService,
			Properties:    propertiesService,
			UnitTypes:     unitTypesService,
			Units:         unitsService,
			Tenancy:       tenancyService,
			Payments:      paymentsService,
			Reports:       reportsService,
			Maintenance:   maintenanceService,
			Notifications: notificationsService,
		},
	)

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
