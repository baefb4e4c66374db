package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyumbahq/nyumba-backend/api/controllers"
	"github.com/nyumbahq/nyumba-backend/api/middleware"
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
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/redis"
	"github.com/nyumbahq/nyumba-backend/pkg/storage/gcs"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	Users         users.Service
	Properties    properties.Service
	UnitTypes     unittypes.Service
	Units         units.Service
	Tenancy       tenancy.Service
	Payments      payments.Service
	Reports       reports.Service
	Maintenance   maintenance.Service
	Notifications notifications.Service
}

type pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	pubsubClient pinger,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient, pubsubClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		adminOnly := middleware.RequireRole(logg, enums.UserRoleSuperAdmin)
		staff := middleware.RequireRole(logg, enums.UserRoleSuperAdmin, enums.UserRolePropertyManager)

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", controllers.ListProperties(svcs.Properties, logg))
			r.With(adminOnly).Post("/", controllers.CreateProperty(svcs.Properties, logg))

			r.Route("/{propertyID}", func(r chi.Router) {
				r.Get("/", controllers.GetProperty(svcs.Properties, logg))
				r.With(adminOnly).Put("/", controllers.UpdateProperty(svcs.Properties, logg))
				r.With(adminOnly).Delete("/", controllers.DeleteProperty(svcs.Properties, logg))
				r.With(adminOnly).Post("/image", controllers.UploadPropertyImage(svcs.Properties, logg))
				r.With(adminOnly).Post("/managers", controllers.AssignPropertyManager(svcs.Properties, logg))
				r.With(adminOnly).Delete("/managers/{managerID}", controllers.UnassignPropertyManager(svcs.Properties, logg))

				r.Route("/units", func(r chi.Router) {
					r.Get("/", controllers.ListUnits(svcs.Units, logg))
					r.With(adminOnly).Post("/", controllers.CreateUnit(svcs.Units, logg))
					r.With(adminOnly).Post("/bulk-generate", controllers.BulkGenerateUnits(svcs.Units, logg))
				})

				r.Route("/unit-types", func(r chi.Router) {
					r.Get("/", controllers.ListUnitTypes(svcs.UnitTypes, logg))
					r.With(adminOnly).Post("/", controllers.CreateUnitType(svcs.UnitTypes, logg))
				})

				r.With(staff).Get("/payments", controllers.ListPropertyPayments(svcs.Payments, logg))
			})
		})

		r.Route("/unit-types/{unitTypeID}", func(r chi.Router) {
			r.With(adminOnly).Put("/", controllers.UpdateUnitType(svcs.UnitTypes, logg))
			r.With(adminOnly).Delete("/", controllers.DeleteUnitType(svcs.UnitTypes, logg))
		})

		r.Route("/units/{unitID}", func(r chi.Router) {
			r.Get("/", controllers.GetUnit(svcs.Units, logg))
			// Managers may edit units; the service refuses price and
			// unit-number changes for non-admin actors.
			r.With(staff).Put("/", controllers.UpdateUnit(svcs.Units, logg))
			r.With(adminOnly).Delete("/", controllers.DeleteUnit(svcs.Units, logg))
			r.With(adminOnly).Post("/image", controllers.UploadUnitImage(svcs.Units, logg))

			r.With(staff).Post("/assign-tenant", controllers.AssignTenant(svcs.Tenancy, logg))
			r.With(staff).Post("/vacate", controllers.VacateUnit(svcs.Tenancy, logg))

			r.With(staff).Get("/payments", controllers.ListUnitPayments(svcs.Payments, logg))
			r.With(staff).Get("/bills", controllers.ListUnitBills(svcs.Payments, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.With(staff).Get("/", controllers.ListUsers(svcs.Users, logg))
			r.Get("/{userID}", controllers.GetUser(svcs.Users, logg))
			r.Put("/{userID}", controllers.UpdateUser(svcs.Users, logg))
			r.With(adminOnly).Post("/{userID}/role", controllers.AssignUserRole(svcs.Users, logg))
			r.With(adminOnly).Post("/{userID}/suspend", controllers.SuspendUser(svcs.Users, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(staff)
			r.Put("/", controllers.UpsertPayment(svcs.Payments, logg))
			r.Delete("/{paymentID}", controllers.DeletePayment(svcs.Payments, logg))
			r.Put("/bills", controllers.UpsertBill(svcs.Payments, logg))
			r.Delete("/bills/{billID}", controllers.DeleteBill(svcs.Payments, logg))
		})

		r.With(staff).Get("/reports/rent", controllers.RentReport(svcs.Reports, logg))

		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/", controllers.CreateMaintenanceRequest(svcs.Maintenance, logg))
			r.Get("/", controllers.ListMaintenanceRequests(svcs.Maintenance, logg))
			r.Route("/{requestID}", func(r chi.Router) {
				r.Get("/", controllers.GetMaintenanceRequest(svcs.Maintenance, logg))
				r.With(staff).Put("/", controllers.UpdateMaintenanceRequest(svcs.Maintenance, logg))
				r.With(staff).Post("/status", controllers.UpdateMaintenanceStatus(svcs.Maintenance, logg))
				r.With(staff).Delete("/", controllers.DeleteMaintenanceRequest(svcs.Maintenance, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
