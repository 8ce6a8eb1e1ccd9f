package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
)

const payrollCloseCheckInterval = time.Hour

// Pruner is anything holding per-user state that goes stale.
type Pruner interface {
	Prune() int
}

// SessionJobs evicts expired conversation sessions and idle per-user rate
// limit buckets.
type SessionJobs struct {
	store    conversation.SessionStore
	limiter  Pruner
	interval time.Duration
}

func NewSessionJobs(store conversation.SessionStore, limiter Pruner, interval time.Duration) *SessionJobs {
	return &SessionJobs{store: store, limiter: limiter, interval: interval}
}

func (j *SessionJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("sweep_expired_sessions", j.interval, j.SweepSessions)
}

func (j *SessionJobs) SweepSessions(ctx context.Context) error {
	evicted, err := j.store.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep sessions: %w", err)
	}
	pruned := 0
	if j.limiter != nil {
		pruned = j.limiter.Prune()
	}
	if evicted > 0 || pruned > 0 {
		slog.Info("Cron: sessions swept", "evicted", evicted, "rate_buckets_pruned", pruned)
	}
	return nil
}

// PayrollJobs recomputes the previous month for every active employee once
// the configured close day is reached.
type PayrollJobs struct {
	payrollService payroll.PayrollService
	closeDay       int
	loc            *time.Location
	now            func() time.Time

	mu         sync.Mutex
	lastClosed string
}

func NewPayrollJobs(payrollService payroll.PayrollService, closeDay int, loc *time.Location) *PayrollJobs {
	return &PayrollJobs{
		payrollService: payrollService,
		closeDay:       closeDay,
		loc:            loc,
		now:            time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	if j.closeDay <= 0 {
		slog.Info("Cron: monthly payroll close disabled")
		return
	}
	scheduler.AddJob("close_previous_payroll_month", payrollCloseCheckInterval, j.ClosePreviousMonth)
}

// ClosePreviousMonth is a no-op except on the close day, and runs at most
// once per period per process. A run with failures is retried on the next
// tick of the same day.
func (j *PayrollJobs) ClosePreviousMonth(ctx context.Context) error {
	now := j.now().In(j.loc)
	if now.Day() != j.closeDay {
		return nil
	}

	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, j.loc).AddDate(0, -1, 0)
	period := prev.Format("2006-01")

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastClosed == period {
		return nil
	}

	slog.Info("Cron: closing payroll month", "period", period)
	result, err := j.payrollService.CloseMonth(ctx, prev.Year(), int(prev.Month()))
	if err != nil {
		return fmt.Errorf("failed to close payroll %s: %w", period, err)
	}

	slog.Info("Cron: payroll month closed", "period", period, "processed", result.Processed, "failed", len(result.Failed))
	if len(result.Failed) > 0 {
		return fmt.Errorf("payroll close %s failed for %d employees", period, len(result.Failed))
	}
	j.lastClosed = period
	return nil
}
