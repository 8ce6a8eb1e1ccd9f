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
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/config"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/session"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-chatbot-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/hris-chatbot-go/internal/service/auth"
	conversationService "github.com/cmlabs-hris/hris-chatbot-go/internal/service/conversation"
	leaveService "github.com/cmlabs-hris/hris-chatbot-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-chatbot-go/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-chatbot-go/internal/service/payroll"
	salaryService "github.com/cmlabs-hris/hris-chatbot-go/internal/service/salary"
	"github.com/redis/go-redis/v9"
)

const (
	version         = "v1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolConfig{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Repositories
	txManager := postgresql.NewTxManager(db)
	userRepo := postgresql.NewUserRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	salaryRepo := postgresql.NewSalaryRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	applicationRepo := postgresql.NewApplicationRepository(db)

	// Services
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()
	notifSvc := notificationService.NewNotificationService(hub, notificationService.Config{
		WorkerCount: cfg.Chat.NotifyWorkers,
		QueueSize:   cfg.Chat.NotifyQueueLen,
	})

	policy, err := workPolicy(cfg, loc)
	if err != nil {
		return err
	}
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, policy)
	salarySvc := salaryService.NewSalaryService(salaryRepo, userRepo, loc)
	payrollSvc := payrollService.NewPayrollService(txManager, payrollRepo, userRepo, salarySvc, attendanceSvc, notifSvc, payrollService.Config{
		Rates:    payroll.DefaultRates(),
		Location: loc,
		Workers:  cfg.Payroll.Workers,
	})
	leaveSvc := leaveService.NewLeaveService(txManager, leaveTypeRepo, applicationRepo, userRepo, notifSvc)
	authSvc := serviceAuth.NewAuthService(userRepo, jwtService)
	conversationSvc := conversationService.NewConversationService(store, userRepo, attendanceSvc, payrollSvc, leaveSvc, salarySvc, loc)

	// Background jobs
	chatLimiter := middleware.NewUserRateLimiter(cfg.Chat.RatePerMinute, cfg.Chat.RateBurst)
	scheduler := cron.NewScheduler()
	cron.NewSessionJobs(store, chatLimiter, cfg.Session.SweepInterval).RegisterJobs(scheduler)
	cron.NewPayrollJobs(payrollSvc, cfg.Payroll.CloseDay, loc).RegisterJobs(scheduler)
	scheduler.Start(ctx)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			Version:        version,
			AllowedOrigins: cfg.App.AllowedOrigins,
			WebhookSecret:  cfg.Chat.WebhookSecret,
			LogLevel:       cfg.SlogLevel(),
		},
		jwtService,
		userRepo,
		chatLimiter,
		appHTTP.Handlers{
			Auth:         appHTTP.NewAuthHandler(authSvc),
			Chat:         appHTTP.NewChatHandler(conversationSvc, chatLimiter),
			Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
			Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
			Leave:        appHTTP.NewLeaveHandler(leaveSvc),
			Salary:       appHTTP.NewSalaryHandler(salarySvc),
			Notification: appHTTP.NewNotificationHandler(notifSvc, jwtService),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.App.Port, "env", cfg.App.Env, "session_backend", cfg.Session.Backend)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown incomplete", "error", err)
	}
	scheduler.Stop()
	notifSvc.Stop()

	slog.Info("server stopped")
	return nil
}

// newSessionStore picks the conversation store. Redis is required when more
// than one instance serves the same chat channel.
func newSessionStore(ctx context.Context, cfg *config.Config) (conversation.SessionStore, func(), error) {
	storeCfg := session.Config{TTL: cfg.Session.TTL, LockTimeout: cfg.Session.LockTimeout}

	if cfg.Session.Backend != "redis" {
		return session.NewMemoryStore(storeCfg), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	return session.NewRedisStore(client, storeCfg), closeFn, nil
}

func workPolicy(cfg *config.Config, loc *time.Location) (attendance.Policy, error) {
	start, err := clockOffset(cfg.Work.Start)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("invalid WORK_START: %w", err)
	}
	end, err := clockOffset(cfg.Work.End)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("invalid WORK_END: %w", err)
	}

	policy := attendance.DefaultPolicy(loc)
	policy.WorkStart = start
	policy.WorkEnd = end
	policy.LateGrace = cfg.Work.LateGrace
	policy.StandardHours = cfg.Work.StandardDailyHours
	return policy, nil
}

// clockOffset turns "HH:MM" into an offset from midnight.
func clockOffset(hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
