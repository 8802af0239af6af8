package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(JWTService jwt.Service, leaveHandler LeaveHandler, attendanceHandler AttendanceHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/leave", func(r chi.Router) {
				r.Route("/requests", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).Post("/", leaveHandler.CreateRequest)
					r.With(middleware.RequirePermission(user.PermissionLeaveViewTeam)).Get("/", leaveHandler.ListRequests)
					r.With(middleware.RequirePermission(user.PermissionLeaveViewOwn)).Get("/my", leaveHandler.GetMyRequests)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", leaveHandler.GetRequest)
						r.Post("/cancel", leaveHandler.CancelRequest)

						// Approvers
						r.Group(func(r chi.Router) {
							r.Use(middleware.RequirePermission(user.PermissionLeaveApprove))
							r.Post("/approve", leaveHandler.ApproveRequest)
							r.Post("/reject", leaveHandler.RejectRequest)
							r.Post("/hold", leaveHandler.HoldRequest)
							r.Post("/resume", leaveHandler.ResumeRequest)
						})

						r.With(middleware.RequirePermission(user.PermissionLeaveReverse)).Post("/reverse", leaveHandler.ReverseRequest)
					})
				})

				r.Route("/balances", func(r chi.Router) {
					r.Get("/", leaveHandler.GetBalance)
					r.With(middleware.RequirePermission(user.PermissionLeaveProvision)).Put("/", leaveHandler.ProvisionBalance)
				})

				r.With(middleware.RequirePermission(user.PermissionLeaveStats)).Get("/stats", leaveHandler.GetStats)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceCreate))
					r.Post("/check-in", attendanceHandler.CheckIn)
					r.Post("/check-out", attendanceHandler.CheckOut)
					r.Post("/breaks/start", attendanceHandler.StartBreak)
					r.Post("/breaks/end", attendanceHandler.EndBreak)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
					r.Get("/today", attendanceHandler.Today)
					r.Get("/my", attendanceHandler.GetMyAttendance)
				})

				r.Get("/summary", attendanceHandler.MonthlySummary)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePrivileged)
					r.With(middleware.RequirePermission(user.PermissionAttendanceBackfill)).Post("/records", attendanceHandler.Backfill)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
