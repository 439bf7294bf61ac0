package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/complaint-console/internal/api"
	"github.com/campusdesk/complaint-console/internal/dto"
	"github.com/campusdesk/complaint-console/internal/models"
	"github.com/campusdesk/complaint-console/internal/ops"
	"github.com/campusdesk/complaint-console/internal/service"
	"github.com/campusdesk/complaint-console/internal/session"
	"github.com/campusdesk/complaint-console/pkg/cache"
	"github.com/campusdesk/complaint-console/pkg/config"
	"github.com/campusdesk/complaint-console/pkg/logger"
	"github.com/campusdesk/complaint-console/pkg/storage"
)

const usage = `complaint console

Usage:
  console <command> [flags]

Commands:
  login-student   authenticate as a student
  login-admin     authenticate as an administrator
  logout          clear the stored session
  submit          submit a new complaint (student)
  mine            list your own complaints (student)
  feed            show the recent public feed
  all             list every complaint (admin)
  set-status      change a complaint's status (admin)
  report          generate the aggregate report (admin)
  export          export the complaint list as csv or pdf (admin)
  watch           live dashboard with periodic refresh
`

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions *session.Store
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	a := &app{cfg: cfg, logger: logr, sessions: session.NewStore(cfg.Session.File)}

	command := os.Args[1]
	args := os.Args[2:]

	if err := a.run(command, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "login-student":
		return a.loginStudent(ctx, args)
	case "login-admin":
		return a.loginAdmin(ctx, args)
	case "logout":
		return a.logout()
	case "submit":
		return a.submit(ctx, args)
	case "mine":
		return a.mine(ctx)
	case "feed":
		return a.feed(ctx, args)
	case "all":
		return a.listAll(ctx)
	case "set-status":
		return a.setStatus(ctx, args)
	case "report":
		return a.report(ctx, args)
	case "export":
		return a.export(ctx, args)
	case "watch":
		return a.watch(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) client(sess *session.Session) *api.Client {
	token := ""
	if sess != nil {
		token = sess.Token
	}
	return api.New(api.Config{
		BaseURL: a.cfg.API.BaseURL,
		Timeout: a.cfg.API.Timeout,
		Token:   api.StaticToken(token),
		Logger:  a.logger,
	})
}

// requireSession loads the stored session and checks the expected role. A
// JWT-shaped token additionally gets an expiry warning.
func (a *app) requireSession(role models.AccountRole) (*session.Session, error) {
	sess, err := a.sessions.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("not logged in, run `console login-%s` first", role)
	}
	if sess.Role != role {
		return nil, fmt.Errorf("this command requires a %s session, current session is %s", role, sess.Role)
	}
	if info, ok := session.PeekClaims(sess.Token); ok && info.Expired(time.Now()) {
		fmt.Fprintln(os.Stderr, "warning: the stored token looks expired, log in again if requests fail")
	}
	return sess, nil
}

func (a *app) loginStudent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login-student", flag.ExitOnError)
	id := fs.String("id", "", "student identifier")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pass, err := resolvePassword(*password)
	if err != nil {
		return err
	}

	resp, err := a.client(nil).LoginStudent(ctx, dto.StudentLoginRequest{StudentID: *id, Password: pass})
	if err != nil {
		return err
	}
	sess := &session.Session{
		Token:     resp.Token,
		Role:      models.RoleStudent,
		Name:      firstNonEmpty(resp.Name, *id),
		StudentID: firstNonEmpty(resp.ID, *id),
	}
	if err := a.sessions.Save(sess); err != nil {
		return err
	}
	fmt.Printf("logged in as student %s\n", sess.Name)
	return nil
}

func (a *app) loginAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login-admin", flag.ExitOnError)
	username := fs.String("username", "", "administrator username")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pass, err := resolvePassword(*password)
	if err != nil {
		return err
	}

	resp, err := a.client(nil).LoginAdmin(ctx, dto.AdminLoginRequest{Username: *username, Password: pass})
	if err != nil {
		return err
	}
	sess := &session.Session{
		Token: resp.Token,
		Role:  models.RoleAdmin,
		Name:  firstNonEmpty(resp.Name, *username),
	}
	if err := a.sessions.Save(sess); err != nil {
		return err
	}
	fmt.Printf("logged in as admin %s\n", sess.Name)
	return nil
}

func (a *app) logout() error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("session cleared")
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	heading := fs.String("heading", "", "complaint heading")
	description := fs.String("description", "", "complaint description")
	anonymous := fs.Bool("anonymous", false, "hide your identity from other viewers")
	public := fs.Bool("public", false, "show this complaint on the public feed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.requireSession(models.RoleStudent)
	if err != nil {
		return err
	}
	record, err := a.client(sess).SubmitComplaint(ctx, dto.SubmitComplaintRequest{
		Heading:     *heading,
		Description: *description,
		IsAnonymous: *anonymous,
		IsPublic:    *public,
		StudentID:   sess.StudentID,
	})
	if err != nil {
		return err
	}
	fmt.Printf("complaint submitted (id %s, status %s)\n", record.ID, record.Status)
	return nil
}

func (a *app) mine(ctx context.Context) error {
	sess, err := a.requireSession(models.RoleStudent)
	if err != nil {
		return err
	}
	records, err := a.client(sess).ListStudentComplaints(ctx, sess.StudentID)
	if err != nil {
		return err
	}
	projections := service.ProjectAll(records, models.ViewerStudentSelf)
	renderTable(projections)
	renderStats(service.Aggregate(records))
	return nil
}

func (a *app) feed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	limit := fs.Int("limit", a.cfg.Sync.FeedLimit, "maximum records")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.sessions.Load()
	if err != nil {
		return err
	}
	records, err := a.client(sess).ListPublicComplaints(ctx, *limit)
	if err != nil {
		return err
	}
	recent := service.RecentPublic(records, *limit)
	renderTable(service.ProjectAll(recent, models.ViewerStudentPeer))
	return nil
}

func (a *app) listAll(ctx context.Context) error {
	sess, err := a.requireSession(models.RoleAdmin)
	if err != nil {
		return err
	}
	records, err := a.client(sess).ListAllComplaints(ctx)
	if err != nil {
		return err
	}
	renderTable(service.ProjectAll(records, models.ViewerAdmin))
	renderStats(service.Aggregate(records))
	return nil
}

func (a *app) setStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	id := fs.String("id", "", "complaint id")
	status := fs.String("status", "", "target status: "+statusChoices())
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.requireSession(models.RoleAdmin)
	if err != nil {
		return err
	}
	client := a.client(sess)

	store := service.NewStore(service.StoreParams{Logger: a.logger})
	store.Register(ctx, service.AdminComplaintsKey(), models.ViewerAdmin, client.ListAllComplaints)
	if err := store.Refresh(ctx, service.AdminComplaintsKey()); err != nil {
		return err
	}

	controller := service.NewController(service.ControllerParams{
		API:    client,
		Store:  store,
		Logger: a.logger,
	})
	if err := controller.RequestStatusChange(ctx, *id, models.Status(*status)); err != nil {
		return err
	}

	if snap, ok := store.Snapshot(service.AdminComplaintsKey()); ok {
		for _, p := range snap.Complaints {
			if p.ID == *id {
				fmt.Printf("complaint %s is now %s\n", p.ID, p.Status)
				return nil
			}
		}
	}
	fmt.Printf("status change for %s accepted\n", *id)
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	out := fs.String("out", "", "write the report to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.requireSession(models.RoleAdmin)
	if err != nil {
		return err
	}
	reports := service.NewReportService(service.ReportServiceParams{API: a.client(sess), Logger: a.logger})
	text, err := reports.Generate(ctx)
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("report written to %s\n", *out)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "csv", "export format: csv | pdf")
	out := fs.String("out", "", "output file (defaults into the export dir)")
	prune := fs.Duration("prune", 0, "also delete exports older than this age, e.g. 720h")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.requireSession(models.RoleAdmin)
	if err != nil {
		return err
	}
	client := a.client(sess)
	records, err := client.ListAllComplaints(ctx)
	if err != nil {
		return err
	}

	reports := service.NewReportService(service.ReportServiceParams{API: client, Logger: a.logger})
	payload, err := reports.ExportDataset(
		service.ProjectAll(records, models.ViewerAdmin),
		service.ReportFormat(*format),
	)
	if err != nil {
		return err
	}

	exports, err := storage.NewExportStore(a.cfg.Export.Dir)
	if err != nil {
		return err
	}
	name := *out
	if name == "" {
		name = fmt.Sprintf("complaints-%s.%s", time.Now().Format("20060102-150405"), *format)
	}
	path, err := exports.Save(name, payload)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d complaints to %s\n", len(records), path)

	if *prune > 0 {
		deleted, err := exports.CleanupOlderThan(*prune)
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			fmt.Printf("pruned %d old exports\n", len(deleted))
		}
	}
	return nil
}

func (a *app) watch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.sessions.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("not logged in")
	}
	client := a.client(sess)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	snapshotCache := service.NewSnapshotCache(nil, a.cfg.Cache.TTL, a.logger, false)
	if a.cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(a.cfg.Cache)
		if err != nil {
			a.logger.Warn("shared cache unavailable, continuing without it", zap.Error(err))
		} else {
			defer redisClient.Close()
			snapshotCache = service.NewSnapshotCache(redisClient, a.cfg.Cache.TTL, a.logger, true)
		}
	}

	store := service.NewStore(service.StoreParams{
		Cache:   snapshotCache,
		Metrics: metrics,
		Logger:  a.logger,
	})
	defer store.Close()

	feedFetcher := func(ctx context.Context) ([]models.Complaint, error) {
		return client.ListPublicComplaints(ctx, a.cfg.Sync.FeedLimit)
	}

	var keys []service.ResourceKey
	switch sess.Role {
	case models.RoleAdmin:
		store.Register(ctx, service.AdminComplaintsKey(), models.ViewerAdmin, client.ListAllComplaints)
		keys = append(keys, service.AdminComplaintsKey())
	case models.RoleStudent:
		own := service.StudentComplaintsKey(sess.StudentID)
		store.Register(ctx, own, models.ViewerStudentSelf, func(ctx context.Context) ([]models.Complaint, error) {
			return client.ListStudentComplaints(ctx, sess.StudentID)
		})
		keys = append(keys, own)
	}
	store.Register(ctx, service.PublicFeedKey(), models.ViewerStudentPeer, feedFetcher)
	keys = append(keys, service.PublicFeedKey())

	scheduler := service.NewScheduler(service.SchedulerParams{
		Store:    store,
		Keys:     keys,
		Interval: a.cfg.Sync.Interval,
		Metrics:  metrics,
		Logger:   a.logger,
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if a.cfg.Ops.Enabled {
		ops.New(a.cfg, a.logger, metrics).Start(ctx)
	}

	updates, unsubscribe := store.Subscribe(keys[0])
	defer unsubscribe()
	feedUpdates, unsubscribeFeed := store.Subscribe(service.PublicFeedKey())
	defer unsubscribeFeed()

	fmt.Printf("watching as %s %s, refresh every %s (ctrl-c to quit)\n", sess.Role, sess.Name, a.cfg.Sync.Interval)
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nstopping")
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			fmt.Printf("\n== %s (refreshed %s) ==\n", snap.Key, snap.FetchedAt.Format("15:04:05"))
			renderTable(snap.Complaints)
			renderStats(snap.Stats)
		case snap, ok := <-feedUpdates:
			if !ok {
				return nil
			}
			recent := make([]models.Complaint, 0, len(snap.Complaints))
			for _, p := range snap.Complaints {
				recent = append(recent, p.Complaint)
			}
			fmt.Printf("\n== recent public ==\n")
			renderTable(service.ProjectAll(
				service.RecentPublic(recent, a.cfg.Sync.FeedLimit),
				models.ViewerStudentPeer,
			))
		}
	}
}

func renderTable(projections []service.Projection) {
	if len(projections) == 0 {
		fmt.Println("no complaints")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHEADING\tSTATUS\tSUBMITTER\tCREATED\tUPDATED")
	for _, p := range projections {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			truncate(p.Heading, 40),
			p.Status,
			p.SubmitterLabel,
			shortTime(p.CreatedAt),
			shortTime(p.UpdatedAt),
		)
	}
	w.Flush()
}

func renderStats(stats models.Stats) {
	fmt.Printf("total %d | pending %d | in progress %d | resolved %d\n",
		stats.Total, stats.Pending, stats.InProgress, stats.Resolved)
}

func resolvePassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func statusChoices() string {
	values := make([]string, 0, 3)
	for _, s := range models.Statuses() {
		values = append(values, string(s))
	}
	return strings.Join(values, " | ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func shortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
