// Command salonctl is the operator tool for unlock codes and ledger checks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/dsbeauty/salon-backend/internal/clock"
	"github.com/dsbeauty/salon-backend/internal/config"
	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/notify"
	"github.com/dsbeauty/salon-backend/internal/services"
)

const usage = `salonctl - operator tool for the salon backend

Usage:
  salonctl [global flags] <command> [flags]

Commands:
  pending                         list outstanding unlock codes
  activate <code>                 delete an unlock code, unlocking its owner
  release --user N [--salon N]    unlock an account, or a membership of a salon
  ledger-check --master N         compare a master's balance with their history
  revoke-sessions --user N        sign a user out of every device
  errors [--limit N]              show recent client error reports
  cleanup                         purge old refresh tokens and error reports

Global flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "salonctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var databaseURL, logLevel string
	flagSet := pflag.NewFlagSet("salonctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level")
	flagSet.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return errors.New("missing command")
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(logLevel); err == nil {
		logger.SetLevel(level)
	}

	if databaseURL != "" {
		os.Setenv("DATABASE_URL", databaseURL)
	}
	cfg, err := config.LoadTooling()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                cfg.Database.URL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// Publishing over redis wakes long polls held by running servers
	var notifier services.ActivationNotifier
	if cfg.Redis.Enabled() {
		rdb, err := notify.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		notifier = notify.NewRedisNotifier(rdb, cfg.Redis.Channel, logger)
	}

	return newApp(db, notifier, logger, out).dispatch(ctx, flagSet.Args())
}

type app struct {
	activation *services.ActivationService
	auth       *services.AuthService
	masters    *services.MasterService
	reports    *services.ReportService
	errorLogs  *services.ErrorLogService
	cron       *services.CronService
	out        io.Writer
}

func newApp(db database.DB, notifier services.ActivationNotifier, logger *logrus.Logger, out io.Writer) *app {
	activation := services.NewActivationService(db, notifier, clock.Real(), logger)
	errorLogs := services.NewErrorLogService(db, logger)
	auth := services.NewAuthService(db, activation, nil, 0, logger)
	return &app{
		activation: activation,
		auth:       auth,
		masters:    services.NewMasterService(db, services.NewCommissionService(db), logger),
		reports:    services.NewReportService(db),
		errorLogs:  errorLogs,
		cron:       services.NewCronService(auth, errorLogs, logger),
		out:        out,
	}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	command, rest := args[0], args[1:]
	switch command {
	case "pending":
		return a.pending(ctx)
	case "activate":
		return a.activate(ctx, rest)
	case "release":
		return a.release(ctx, rest)
	case "ledger-check":
		return a.ledgerCheck(ctx, rest)
	case "revoke-sessions":
		return a.revokeSessions(ctx, rest)
	case "errors":
		return a.recentErrors(ctx, rest)
	case "cleanup":
		return a.cleanup(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) pending(ctx context.Context) error {
	codes, err := a.activation.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		fmt.Fprintln(a.out, "no pending unlock codes")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tBLOCK\tSALON\tCODE")
	for _, code := range codes {
		salon := "-"
		if code.SalonID != nil {
			salon = strconv.FormatInt(*code.SalonID, 10)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", code.ID, code.UserID, code.BlockType, salon, code.Code)
	}
	return w.Flush()
}

func (a *app) activate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: salonctl activate <code>")
	}
	code, err := a.activation.Activate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "activated %s lock of user %d\n", code.BlockType, code.UserID)
	return nil
}

func (a *app) release(ctx context.Context, args []string) error {
	var userID, salonID int64
	flagSet := pflag.NewFlagSet("release", pflag.ContinueOnError)
	flagSet.Int64Var(&userID, "user", 0, "user whose lock is released")
	flagSet.Int64Var(&salonID, "salon", 0, "salon of a membership lock (omit for the account lock)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if userID <= 0 {
		return errors.New("--user is required")
	}

	key := models.ActivationKey{UserID: userID, BlockType: models.BlockTypeAuth}
	if salonID > 0 {
		key.BlockType = models.BlockTypeSalon
		key.SalonID = &salonID
	}
	if err := a.activation.Release(ctx, key); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "released %s lock of user %d\n", key.BlockType, userID)
	return nil
}

func (a *app) ledgerCheck(ctx context.Context, args []string) error {
	var masterID int64
	flagSet := pflag.NewFlagSet("ledger-check", pflag.ContinueOnError)
	flagSet.Int64Var(&masterID, "master", 0, "master to check")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if masterID <= 0 {
		return errors.New("--master is required")
	}

	master, err := a.masters.GetMaster(ctx, masterID)
	if err != nil {
		return err
	}
	check, err := a.reports.CheckLedger(ctx, master.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "master %d (%s): balance %s, history net %s\n",
		master.ID, master.Name, check.Balance.StringFixed(2), check.Net.StringFixed(2))
	if !check.Consistent {
		return fmt.Errorf("ledger mismatch for master %d", master.ID)
	}
	fmt.Fprintln(a.out, "ledger consistent")
	return nil
}

func (a *app) revokeSessions(ctx context.Context, args []string) error {
	var userID int64
	flagSet := pflag.NewFlagSet("revoke-sessions", pflag.ContinueOnError)
	flagSet.Int64Var(&userID, "user", 0, "user to sign out")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if userID <= 0 {
		return errors.New("--user is required")
	}

	if err := a.auth.RevokeSessions(ctx, userID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "revoked sessions of user %d\n", userID)
	return nil
}

func (a *app) recentErrors(ctx context.Context, args []string) error {
	var limit int
	flagSet := pflag.NewFlagSet("errors", pflag.ContinueOnError)
	flagSet.IntVarP(&limit, "limit", "n", 20, "number of reports to show")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	logs, err := a.errorLogs.Recent(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPLATFORM\tVERSION\tMESSAGE")
	for _, entry := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Platform, entry.AppVersion, entry.Message)
	}
	return w.Flush()
}

func (a *app) cleanup(ctx context.Context) error {
	tokens, err := a.cron.CleanupTokens(ctx)
	if err != nil {
		return err
	}
	logs, err := a.cron.PruneErrorLogs(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "removed %d refresh tokens and %d error reports\n", tokens, logs)
	return nil
}
