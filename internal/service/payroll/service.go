package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultHistoryLimit = 6
	maxHistoryLimit     = 24
)

type Config struct {
	Rates    payroll.Rates
	Location *time.Location
	Workers  int // concurrent users during a monthly close
}

type PayrollServiceImpl struct {
	tx            database.Transactor
	payrollRepo   payroll.PayrollRepository
	userRepo      user.UserRepository
	salaryService salary.SalaryService
	attendance    attendance.AttendanceService
	notifier      notification.Service
	config        Config

	group singleflight.Group
	now   func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	userRepo user.UserRepository,
	salaryService salary.SalaryService,
	attendanceService attendance.AttendanceService,
	notifier notification.Service,
	cfg Config,
) payroll.PayrollService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &PayrollServiceImpl{
		tx:            tx,
		payrollRepo:   payrollRepo,
		userRepo:      userRepo,
		salaryService: salaryService,
		attendance:    attendanceService,
		notifier:      notifier,
		config:        cfg,
		now:           time.Now,
	}
}

// GetMonthlyPayroll implements payroll.PayrollService. Concurrent calls for
// the same key share one computation in this process; the advisory lock taken
// inside the transaction serializes writers across processes. The shared
// computation is detached from the caller that started it, so a cancelled
// caller returns early without failing the others waiting on the same key.
func (s *PayrollServiceImpl) GetMonthlyPayroll(ctx context.Context, req payroll.PeriodRequest) (payroll.Payslip, error) {
	if err := req.Validate(); err != nil {
		return payroll.Payslip{}, err
	}

	key := fmt.Sprintf("%s:%04d-%02d", req.UserID, req.Year, req.Month)
	ch := s.group.DoChan(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		slip, err := s.recompute(ctx, req)
		if err != nil && isConflict(err) {
			slog.Warn("payroll write conflict, retrying", "key", key, "error", err)
			slip, err = s.recompute(ctx, req)
			if err != nil && isConflict(err) {
				return payroll.Payslip{}, fmt.Errorf("%w: %v", payroll.ErrPayrollBusy, err)
			}
		}
		return slip, err
	})

	select {
	case <-ctx.Done():
		return payroll.Payslip{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return payroll.Payslip{}, res.Err
		}
		if res.Shared {
			slog.Debug("payroll computation shared", "key", key)
		}
		return res.Val.(payroll.Payslip), nil
	}
}

func (s *PayrollServiceImpl) gatherInputs(ctx context.Context, req payroll.PeriodRequest) (Inputs, error) {
	period := attendance.MonthPeriod(req.Year, req.Month, s.config.Location)
	target := period.LastDay()

	structure, err := s.salaryService.ResolveSalary(ctx, req.UserID, target)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to resolve salary structure: %w", err)
	}
	profile, err := s.salaryService.ResolveDeduction(ctx, req.UserID, target)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to resolve deduction profile: %w", err)
	}
	hours, err := s.attendance.Summarize(ctx, req.UserID, req.Year, req.Month)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to aggregate work hours: %w", err)
	}

	return Inputs{
		UserID:    req.UserID,
		Year:      req.Year,
		Month:     req.Month,
		Structure: structure,
		Profile:   profile,
		Hours:     hours.Summary,
	}, nil
}

func (s *PayrollServiceImpl) recompute(ctx context.Context, req payroll.PeriodRequest) (payroll.Payslip, error) {
	var slip payroll.Payslip

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.payrollRepo.LockPeriod(ctx, req.UserID, req.Year, req.Month); err != nil {
			return err
		}

		existing, err := s.payrollRepo.GetByPeriod(ctx, req.UserID, req.Year, req.Month)
		found := err == nil
		if err != nil && !errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			return fmt.Errorf("failed to load payroll record: %w", err)
		}

		var existingLines []payroll.PayrollDetailLine
		if found {
			existingLines, err = s.payrollRepo.ListDetails(ctx, existing.ID)
			if err != nil {
				return fmt.Errorf("failed to load payroll details: %w", err)
			}
			if existing.Status == payroll.PayrollStatusPaid {
				slog.Debug("payroll already paid, returning stored record", "user_id", req.UserID, "year", req.Year, "month", req.Month)
				slip = payroll.Payslip{Record: existing, Lines: existingLines}
				return nil
			}
		}

		in, err := s.gatherInputs(ctx, req)
		if err != nil {
			return err
		}
		record, lines := Assemble(in, s.config.Rates)

		if found && existing.SameFigures(record) && payroll.SameLines(existingLines, lines) {
			slip = payroll.Payslip{Record: existing, Lines: existingLines}
			return nil
		}

		if found {
			record.ID = existing.ID
			record.Status = existing.Status
		} else {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate payroll id: %w", err)
			}
			record.ID = id.String()
		}
		record.CalculatedAt = s.now()

		saved, err := s.payrollRepo.Upsert(ctx, record)
		if err != nil {
			return err
		}
		bound := bindLines(saved.ID, lines)
		if err := s.payrollRepo.ReplaceDetails(ctx, saved.ID, bound); err != nil {
			return err
		}

		slog.Info("payroll recalculated",
			"user_id", saved.UserID,
			"year", saved.PeriodYear,
			"month", saved.PeriodMonth,
			"gross", saved.GrossSalary.String(),
			"net", saved.NetSalary().String(),
		)
		slip = payroll.Payslip{Record: saved, Lines: bound}
		return nil
	})
	if err != nil {
		return payroll.Payslip{}, err
	}
	return slip, nil
}

// isConflict reports serialization failures, deadlocks and lock timeouts.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

// ListHistory implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListHistory(ctx context.Context, userID string, limit int) ([]payroll.PayrollRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.payrollRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll history: %w", err)
	}
	return records, nil
}

// MonthlyStats implements payroll.PayrollService.
func (s *PayrollServiceImpl) MonthlyStats(ctx context.Context, year, month int) (payroll.Stats, error) {
	if month < 1 || month > 12 {
		return payroll.Stats{}, payroll.ErrInvalidPeriod
	}

	records, err := s.payrollRepo.ListByPeriod(ctx, year, month)
	if err != nil {
		return payroll.Stats{}, fmt.Errorf("failed to list payroll records: %w", err)
	}

	stats := payroll.Stats{
		PeriodYear:      year,
		PeriodMonth:     month,
		Headcount:       len(records),
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, r := range records {
		stats.TotalGross = stats.TotalGross.Add(r.GrossSalary)
		stats.TotalDeductions = stats.TotalDeductions.Add(r.TotalDeductions)
		stats.TotalNet = stats.TotalNet.Add(r.NetSalary())
	}
	return stats, nil
}

// CloseMonth implements payroll.PayrollService. Every active employee is
// recomputed; one failure does not stop the others.
func (s *PayrollServiceImpl) CloseMonth(ctx context.Context, year, month int) (payroll.CloseResult, error) {
	if month < 1 || month > 12 {
		return payroll.CloseResult{}, payroll.ErrInvalidPeriod
	}

	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return payroll.CloseResult{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	result := payroll.CloseResult{PeriodYear: year, PeriodMonth: month}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, u := range users {
		u := u
		g.Go(func() error {
			slip, err := s.GetMonthlyPayroll(gctx, payroll.PeriodRequest{UserID: u.ID, Year: year, Month: month})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("monthly close failed for employee", "user_id", u.ID, "error", err)
				result.Failed = append(result.Failed, u.ID)
				return nil
			}
			result.Processed++
			s.notifyCalculated(gctx, slip.Record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	slog.Info("monthly payroll close finished",
		"year", year,
		"month", month,
		"processed", result.Processed,
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *PayrollServiceImpl) notifyCalculated(ctx context.Context, r payroll.PayrollRecord) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: r.UserID,
		Type:        notification.TypePayrollCalculated,
		Title:       "薪資單已產生",
		Message:     fmt.Sprintf("%d年%d月 實發薪資 %s 元", r.PeriodYear, r.PeriodMonth, r.NetSalary().StringFixed(0)),
		Data: map[string]any{
			"period_year":  r.PeriodYear,
			"period_month": r.PeriodMonth,
		},
	})
	if err != nil {
		slog.Warn("failed to queue payroll notification", "user_id", r.UserID, "error", err)
	}
}
