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

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	appHTTP "github.com/cmlabs-hris/hris-timekeeping/internal/handler/http"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-timekeeping/internal/service/access"
	attendanceService "github.com/cmlabs-hris/hris-timekeeping/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-timekeeping/internal/service/leave"
	"github.com/go-chi/httplog/v3"
	"github.com/shopspring/decimal"
)

type repositories struct {
	transactor   database.Transactor
	employee     employee.EmployeeRepository
	leaveRequest leave.LeaveRequestRepository
	leaveBalance leave.LeaveBalanceRepository
	attendance   attendance.AttendanceRepository
	breaks       attendance.BreakRepository
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-timekeeping"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("Error opening storage", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	location, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		slog.Error("Error loading attendance timezone", "error", err)
		os.Exit(1)
	}
	policy := attendance.Policy{Location: location}
	if cfg.Attendance.LateCutoff != "" {
		cutoff, err := attendance.ParseClock(cfg.Attendance.LateCutoff)
		if err != nil {
			slog.Error("Error parsing late cutoff", "error", err)
			os.Exit(1)
		}
		policy.LateCutoff = &cutoff
	}

	allocations, err := leaveAllocations(cfg.Leave.DefaultAllocations)
	if err != nil {
		slog.Error("Error parsing leave allocations", "error", err)
		os.Exit(1)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	gate := access.NewGate(repos.employee)

	ledger := leaveService.NewLedger(repos.transactor, repos.leaveBalance, repos.employee, leaveService.LedgerPolicy{
		DefaultAllocations: allocations,
		MaxCarryForward:    cfg.Leave.MaxCarryForward,
	})
	requestService := leaveService.NewRequestService(repos.transactor, repos.leaveRequest, ledger)
	leaveSvc := leaveService.NewLeaveService(gate, repos.employee, repos.leaveRequest, ledger, requestService, location)
	attendanceSvc := attendanceService.NewAttendanceService(
		repos.transactor,
		gate,
		repos.employee,
		repos.attendance,
		repos.breaks,
		repos.leaveRequest,
		policy,
	)

	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)

	router := appHTTP.NewRouter(JWTService, leaveHandler, attendanceHandler, appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.App.CORSOrigins,
	})

	scheduler := cron.NewScheduler()
	if cfg.Cron.Enabled {
		cron.NewAttendanceJobs(attendanceSvc, policy, cfg.Cron.AbsentHour).RegisterJobs(scheduler, cfg.Cron.Interval)
		cron.NewLeaveJobs(ledger, location).RegisterJobs(scheduler, cfg.Cron.Interval)
		scheduler.Start(ctx)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop()
}

func openRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return repositories{
			transactor:   memory.NewTransactor(store),
			employee:     memory.NewEmployeeRepository(store),
			leaveRequest: memory.NewLeaveRequestRepository(store),
			leaveBalance: memory.NewLeaveBalanceRepository(store),
			attendance:   memory.NewAttendanceRepository(store),
			breaks:       memory.NewAttendanceBreakRepository(store),
			close:        func() {},
		}, nil

	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return repositories{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				db.Close()
				return repositories{}, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return repositories{
			transactor:   postgresql.NewTransactor(db),
			employee:     postgresql.NewEmployeeRepository(db),
			leaveRequest: postgresql.NewLeaveRequestRepository(db),
			leaveBalance: postgresql.NewLeaveBalanceRepository(db),
			attendance:   postgresql.NewAttendanceRepository(db),
			breaks:       postgresql.NewAttendanceBreakRepository(db),
			close:        db.Close,
		}, nil
	}
	return repositories{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

func leaveAllocations(raw map[string]decimal.Decimal) (map[leave.Type]decimal.Decimal, error) {
	allocations := make(map[leave.Type]decimal.Decimal, len(raw))
	for name, days := range raw {
		leaveType, err := leave.ParseType(name)
		if err != nil {
			return nil, err
		}
		allocations[leaveType] = days
	}
	return allocations, nil
}
