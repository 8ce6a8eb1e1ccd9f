package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries the settings the router needs beyond its handlers.
type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
	WebhookSecret  string
	LogLevel       slog.Level
}

type Handlers struct {
	Auth         AuthHandler
	Chat         ChatHandler
	Attendance   AttendanceHandler
	Payroll      PayrollHandler
	Leave        LeaveHandler
	Salary       SalaryHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, jwtService jwt.Service, users user.UserRepository, chatLimiter *middleware.UserRateLimiter, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-chatbot"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.WebhookSecretHeader},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)

		// Chat transport webhook
		r.With(middleware.WebhookSecret(cfg.WebhookSecret)).Post("/chat/turn", h.Chat.Turn)

		// EventSource authenticates with a query token
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService))
			r.Use(middleware.ActiveEmployee(users))
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Post("/auth/logout", h.Auth.Logout)
			r.With(chatLimiter.Handler).Post("/chat/messages", h.Chat.Message)
			r.Post("/notifications/token", h.Notification.GetSSEToken)

			r.Route("/employees", func(r chi.Router) {
				r.Use(middleware.RequireCapability(user.CapEmployeeViewAll))
				r.Post("/", h.Auth.RegisterEmployee)
				r.With(middleware.RequireCapability(user.CapSalaryManage)).Put("/{userID}/salary", h.Salary.SetSalary)
				r.With(middleware.RequireCapability(user.CapSalaryManage)).Put("/{userID}/deductions", h.Salary.SetDeductionProfile)
				r.With(middleware.RequireCapability(user.CapAttendanceViewAll)).Get("/{userID}/attendance/{year}/{month}", h.Attendance.GetUserSummary)
				r.With(middleware.RequireCapability(user.CapPayrollViewAll)).Get("/{userID}/payroll/{year}/{month}", h.Payroll.GetUserPayslip)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Use(middleware.RequireCapability(user.CapSelfAttendance))
				r.Post("/clock", h.Attendance.Clock)
				r.Get("/{year}/{month}", h.Attendance.GetMySummary)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.With(middleware.RequireCapability(user.CapSelfPayroll)).Get("/history", h.Payroll.ListMyHistory)
				r.With(middleware.RequireCapability(user.CapSelfPayroll)).Get("/{year}/{month}", h.Payroll.GetMyPayslip)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(user.CapPayrollViewAll))
					r.Get("/stats/{year}/{month}", h.Payroll.GetStats)
					r.Post("/close/{year}/{month}", h.Payroll.CloseMonth)
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Get("/types", h.Leave.ListTypes)

				r.Route("/applications", func(r chi.Router) {
					r.With(middleware.RequireCapability(user.CapLeaveApply)).Post("/", h.Leave.Submit)
					r.Get("/", h.Leave.ListMine)
					r.With(middleware.RequireCapability(user.CapLeaveApprove)).Get("/pending", h.Leave.ListPending)
					r.Get("/{id}", h.Leave.Get)
					r.With(middleware.RequireCapability(user.CapLeaveApprove)).Post("/{id}/decision", h.Leave.Decide)
					r.Post("/{id}/cancel", h.Leave.Cancel)
				})
			})
		})
	})
	return r
}
