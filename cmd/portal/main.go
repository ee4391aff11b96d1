package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dentavia/portal/internal/api"
	appconfig "github.com/dentavia/portal/internal/config"
	"github.com/dentavia/portal/internal/observability/metrics"
	"github.com/dentavia/portal/internal/session"
	"github.com/dentavia/portal/internal/tenant"
	"github.com/dentavia/portal/internal/token"
	"github.com/dentavia/portal/pkg/logging"
)

const usage = `usage: portal <command> [flags]

commands:
  login        sign in and persist the session
  logout       clear the persisted session
  whoami       show the signed-in user
  tenant       show the resolved tenant and backend URL
  health       probe backend reachability
  appointments list appointments
  low-stock    list supplies at or below minimum stock
  monitor      watch the session and sign out before token expiry
`

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewText(cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *appconfig.Config
	logger   *logging.Logger
	resolver *tenant.Resolver
	client   *api.Client
	manager  *session.Manager
}

// newApp wires the portal components. The token store backend follows
// configuration: redis when an address is set, a session file when a path is
// set, in-memory otherwise.
func newApp(cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	resolver := tenant.NewResolver()

	var store token.Store
	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		store = token.NewRedisStore(client, resolver.TenantID())
	case cfg.SessionFile != "":
		store = token.NewFileStore(cfg.SessionFile)
	default:
		store = token.NewMemoryStore()
	}

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(metrics.NewClientMetrics(prometheus.DefaultRegisterer)),
		api.WithDebug(cfg.Debug),
		api.WithSessionExpiredHook(func() {
			fmt.Fprintln(os.Stderr, "session expired, please sign in again")
		}),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(float64(cfg.RateLimit), cfg.RateLimit))
	}
	client := api.NewClient(resolver, store, cfg.RequestTimeout, opts...)

	return &app{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		client:   client,
		manager:  session.NewManager(client, store, session.WithLogger(logger)),
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.manager.Logout()
		fmt.Println("signed out")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "tenant":
		return a.tenantInfo()
	case "health":
		return a.health(ctx)
	case "appointments":
		return a.appointments(ctx, args)
	case "low-stock":
		return a.lowStock(ctx)
	case "monitor":
		return a.monitor(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or PORTAL_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("PORTAL_PASSWORD")
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	user, err := a.manager.Login(ctx, *email, *password)
	if err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("invalid credentials")
		}
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", user.FullName(), user.Role)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.manager.Initialize(ctx); err != nil {
		return err
	}
	user := a.manager.CurrentUser()
	if user == nil {
		fmt.Println("not signed in")
		return nil
	}
	out, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) tenantInfo() error {
	info := a.resolver.Info()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "tenant\t%s\n", info.TenantID)
	fmt.Fprintf(w, "subdomain\t%s\n", orDash(info.Subdomain))
	fmt.Fprintf(w, "hostname\t%s\n", orDash(info.Hostname))
	fmt.Fprintf(w, "backend\t%s\n", info.APIBaseURL)
	fmt.Fprintf(w, "public schema\t%v\n", a.resolver.IsPublicSchema())
	return w.Flush()
}

func (a *app) health(ctx context.Context) error {
	if err := a.client.Health(ctx); err != nil {
		if api.IsNetworkError(err) {
			return fmt.Errorf("backend unreachable: %w", err)
		}
		return err
	}
	fmt.Println("backend ok")
	return nil
}

func (a *app) appointments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("appointments", flag.ExitOnError)
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	status := fs.String("status", "", "filter by status")
	patient := fs.Int64("patient", 0, "filter by patient id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.manager.Initialize(ctx); err != nil {
		return err
	}
	appointments, err := a.client.ListAppointments(ctx, api.AppointmentFilters{
		From:      *from,
		To:        *to,
		Status:    *status,
		PatientID: *patient,
	})
	if err != nil {
		return err
	}
	if len(appointments) == 0 {
		fmt.Println("no appointments")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tPATIENT\tREASON\tSTATUS")
	for _, appt := range appointments {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			appt.ID, appt.StartsAt, orDash(appt.PatientName), appt.Reason, appt.Status)
	}
	return w.Flush()
}

func (a *app) lowStock(ctx context.Context) error {
	if err := a.manager.Initialize(ctx); err != nil {
		return err
	}
	supplies, err := a.client.ListLowStock(ctx)
	if err != nil {
		return err
	}
	if len(supplies) == 0 {
		fmt.Println("no supplies below minimum stock")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUPPLY\tSTOCK\tMINIMUM")
	for _, supply := range supplies {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", supply.ID, supply.Name, supply.Stock, supply.MinStock)
	}
	return w.Flush()
}

// monitor keeps the process alive watching the access token, signing out
// shortly before it expires. Ctrl-C stops it.
func (a *app) monitor(ctx context.Context) error {
	if err := a.manager.Initialize(ctx); err != nil {
		return err
	}
	if !a.manager.IsAuthenticated() {
		return fmt.Errorf("not signed in")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("watching session", "interval", a.cfg.MonitorInterval.String())
	a.manager.RunExpiryMonitor(ctx, a.cfg.MonitorInterval)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
