package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stage-portal/internal/dashboard"
	"github.com/noah-isme/stage-portal/internal/gateway"
	"github.com/noah-isme/stage-portal/internal/guard"
	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/internal/session"
	"github.com/noah-isme/stage-portal/internal/stage"
	"github.com/noah-isme/stage-portal/pkg/apierr"
	"github.com/noah-isme/stage-portal/pkg/config"
	"github.com/noah-isme/stage-portal/pkg/logger"
)

const usage = `stage portal client

usage: portal <command> [flags]

commands:
  login     -email -password          authenticate and persist the session
  logout                              clear the session
  whoami                              show the active session
  register  -name -email -password    create a student account
  stages    [-status] [-search] [-page]  list stages for the active role
  submit    -company -subject -start -end  declare a stage (student)
  validate  -id                       approve a pending stage (admin)
  reject    -id                       refuse a pending stage (admin)
  stats                               show aggregate counters (admin)
  export    [-format csv|pdf]         export the filtered list (admin)
  health                              probe the server
`

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *session.Store
	client *gateway.Client
	stages *stage.Service
	guard  *guard.Guard
}

// consoleNavigator surfaces the guard's routing decisions on stderr; a
// browser would navigate, a terminal explains.
type consoleNavigator struct{}

func (consoleNavigator) RedirectToLogin() {
	fmt.Fprintln(os.Stderr, "not authenticated: run `portal login` first")
}

func (consoleNavigator) AccessDenied() {
	fmt.Fprintln(os.Stderr, "access denied: this command needs another role")
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var backend session.Backend
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		client, err := session.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		backend = session.NewRedisBackend(client, cfg.Session.RedisKey)
	default:
		backend, err = session.NewFileBackend(cfg.Session.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open session file: %w", err)
		}
	}

	store := session.NewStore(session.Params{Backend: backend, Logger: logr})
	store.Subscribe(func(event session.Event) {
		logr.Info("session event", zap.String("event", string(event)))
	})

	metrics := gateway.NewMetrics()
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logr.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	client := gateway.New(gateway.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Tokens:  store,
		Logger:  logr,
		Metrics: metrics,
	})
	store.Use(client)
	store.Restore(ctx)

	return &app{
		cfg:    cfg,
		logger: logr,
		store:  store,
		client: client,
		stages: stage.NewService(client, validator.New(), logr),
		guard:  guard.New(store, consoleNavigator{}, logr),
	}, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		log.Fatalf("portal: %v", err)
	}
	defer a.logger.Sync() //nolint:errcheck

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if a.store.HandleAuthFailure(ctx, err) {
			fmt.Fprintln(os.Stderr, "session no longer valid: run `portal login` again")
		}
		fmt.Fprintf(os.Stderr, "portal: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.store.Logout(ctx)
		fmt.Println("logged out")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "register":
		return a.cmdRegister(ctx, args)
	case "stages":
		return a.cmdStages(ctx, args)
	case "submit":
		return a.cmdSubmit(ctx, args)
	case "validate":
		return a.cmdResolve(ctx, args, true)
	case "reject":
		return a.cmdResolve(ctx, args, false)
	case "stats":
		return a.cmdStats(ctx)
	case "export":
		return a.cmdExport(ctx, args)
	case "health":
		return a.cmdHealth(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	sess, err := a.store.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", sess.DisplayName, sess.Role)
	return nil
}

func (a *app) cmdWhoami() error {
	sess := a.store.Current()
	if sess == nil {
		fmt.Println("not authenticated")
		return nil
	}
	fmt.Printf("%s (%s), user id %d\n", sess.DisplayName, sess.Role, sess.UserID)
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	if !models.ValidateEmail(*email) {
		return fmt.Errorf("invalid email format")
	}
	if violations := models.ValidatePassword(*password); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v)
		}
		return fmt.Errorf("password rejected")
	}

	id, err := a.client.RegisterStudent(ctx, models.Registration{Name: *name, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("account created, user id %d\n", id)
	return nil
}

func parseFilter(status, search string) (dashboard.Filter, error) {
	f := dashboard.Filter{Search: search}
	if status != "" {
		st := models.StageStatus(status)
		if !st.Valid() {
			return f, fmt.Errorf("unknown status %q (pending|approved|rejected)", status)
		}
		f.Status = &st
	}
	return f, nil
}

func (a *app) cmdStages(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stages", flag.ExitOnError)
	status := fs.String("status", "", "filter by status")
	search := fs.String("search", "", "search company, subject, student")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	filter, err := parseFilter(*status, *search)
	if err != nil {
		return err
	}

	sess := a.store.Current()
	if sess == nil {
		return a.guard.Protect(ctx, models.RoleStudent, func(context.Context) error { return nil })
	}

	switch sess.Role {
	case models.RoleAdmin:
		vm := a.adminViewModel()
		return a.guard.Protect(ctx, models.RoleAdmin, func(ctx context.Context) error {
			if err := vm.Load(ctx); err != nil {
				return err
			}
			vm.ApplyFilter(filter)
			vm.SetPage(*page)
			printStages(vm.PageSlice(), vm.Page(), vm.TotalPages())
			return nil
		})
	default:
		vm := a.studentViewModel(sess.UserID)
		return a.guard.Protect(ctx, models.RoleStudent, func(ctx context.Context) error {
			if err := vm.Load(ctx); err != nil {
				return err
			}
			vm.ApplyFilter(filter)
			vm.SetPage(*page)
			printStages(vm.PageSlice(), vm.Page(), vm.TotalPages())
			return nil
		})
	}
}

func (a *app) cmdSubmit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	company := fs.String("company", "", "company name")
	subject := fs.String("subject", "", "internship subject")
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	_ = fs.Parse(args)

	return a.guard.Protect(ctx, models.RoleStudent, func(ctx context.Context) error {
		sess := a.store.Current()
		created, err := a.stages.Submit(ctx, models.StageDraft{
			StudentID: sess.UserID,
			Company:   *company,
			Subject:   *subject,
			StartDate: *start,
			EndDate:   *end,
		})
		if err != nil {
			return err
		}
		fmt.Printf("stage %d declared, status %s\n", created.ID, created.Status)
		return nil
	})
}

func (a *app) cmdResolve(ctx context.Context, args []string, approve bool) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	id := fs.Int("id", 0, "stage id")
	_ = fs.Parse(args)

	vm := a.adminViewModel()
	return a.guard.Protect(ctx, models.RoleAdmin, func(ctx context.Context) error {
		vm.Start(ctx)
		defer vm.Stop()

		if err := vm.Load(ctx); err != nil {
			return err
		}

		var (
			updated *models.Stage
			err     error
		)
		if approve {
			updated, err = a.stages.Validate(ctx, *id)
		} else {
			updated, err = a.stages.Reject(ctx, *id)
		}
		if err != nil {
			if apierr.Is(err, apierr.KindConflict) {
				// Another actor resolved the stage first; show the
				// authoritative state instead of the stale cache.
				if fresh, rerr := vm.ReloadStage(ctx, *id); rerr != nil {
					a.logger.Warn("stage reconciliation failed", zap.Error(rerr))
				} else {
					fmt.Printf("stage %d was already %s\n", fresh.ID, fresh.Status)
				}
			}
			return err
		}

		vm.ApplyStatusPatch(updated.ID, updated.Status)
		vm.QueueStatsRefresh()
		counts := vm.Counts()
		fmt.Printf("stage %d is now %s (pending %d, approved %d, rejected %d)\n",
			updated.ID, updated.Status, counts.Pending, counts.Approved, counts.Rejected)

		// Stop drains the queued refresh, so the panel below is current.
		vm.Stop()
		if recent := vm.Recent(); len(recent) > 0 {
			fmt.Println("recent declarations:")
			printStages(recent, 1, 1)
		}
		return nil
	})
}

func (a *app) cmdStats(ctx context.Context) error {
	return a.guard.Protect(ctx, models.RoleAdmin, func(ctx context.Context) error {
		report, err := a.client.GetStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pending %d, approved %d, rejected %d, total %d\n",
			report.Stats.Pending, report.Stats.Approved, report.Stats.Rejected, report.Stats.Total)
		if len(report.Recent) > 0 {
			fmt.Println("recent declarations:")
			printStages(report.Recent, 1, 1)
		}
		return nil
	})
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "csv", "csv or pdf")
	status := fs.String("status", "", "filter by status")
	search := fs.String("search", "", "search company, subject, student")
	_ = fs.Parse(args)

	filter, err := parseFilter(*status, *search)
	if err != nil {
		return err
	}

	vm := a.adminViewModel()
	return a.guard.Protect(ctx, models.RoleAdmin, func(ctx context.Context) error {
		if err := vm.Load(ctx); err != nil {
			return err
		}
		vm.ApplyFilter(filter)

		exporter, err := dashboard.NewExporter(a.cfg.Exports.Dir)
		if err != nil {
			return err
		}
		var path string
		switch *format {
		case "pdf":
			path, err = exporter.ExportPDF(vm.Filtered())
		case "csv":
			path, err = exporter.ExportCSV(vm.Filtered())
		default:
			return fmt.Errorf("unknown format %q (csv|pdf)", *format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", path)
		return nil
	})
}

func (a *app) cmdHealth(ctx context.Context) error {
	status, err := a.client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("server status: %s\n", status)
	return nil
}

func (a *app) adminViewModel() *dashboard.AdminViewModel {
	return dashboard.NewAdminViewModel(dashboard.AdminParams{
		Gateway:      a.client,
		Logger:       a.logger,
		PageSize:     a.cfg.Dashboard.PageSize,
		StatsRetries: a.cfg.Stats.RefreshRetries,
		StatsDelay:   a.cfg.Stats.RefreshDelay,
	})
}

func (a *app) studentViewModel(studentID int) *dashboard.StudentViewModel {
	return dashboard.NewStudentViewModel(dashboard.StudentParams{
		Gateway:   a.client,
		StudentID: studentID,
		Logger:    a.logger,
		PageSize:  a.cfg.Dashboard.PageSize,
	})
}

func printStages(stages []models.Stage, page, totalPages int) {
	if len(stages) == 0 {
		fmt.Println("no stages")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tCOMPANY\tSUBJECT\tSTART\tEND\tSTATUS")
	for _, s := range stages {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.StudentName, s.Company, s.Subject,
			s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.Status)
	}
	w.Flush() //nolint:errcheck
	fmt.Printf("page %d of %d\n", page, totalPages)
}
