package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/campops/campops/internal/audit"
	"github.com/campops/campops/internal/config"
	"github.com/campops/campops/internal/db"
	"github.com/campops/campops/internal/events"
	"github.com/campops/campops/internal/hiring"
	"github.com/campops/campops/internal/housing"
	"github.com/campops/campops/internal/mailer"
	"github.com/campops/campops/internal/maintenance"
	"github.com/campops/campops/internal/meals"
	"github.com/campops/campops/internal/medical"
	"github.com/campops/campops/internal/personnel"
	"github.com/campops/campops/internal/server"
	"github.com/campops/campops/internal/sla"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the campops API server",
	Long:  `Starts the campops REST API server with the background SLA check scheduler and the live run feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		// Open database.
		dbPath := filepath.Join(cfg.DataDir, "campops.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		// Create server.
		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: cfg.AllowAllOrigins,
		}, database)

		sender := buildSender(cfg, database)
		scheduler := registerAllRoutes(srv, database, cfg, sender)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scheduler.Start(ctx)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "campops server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Mail mode: %s\n", cfg.Mail.Mode)

		return srv.Start()
	},
}

// buildSender constructs the notification sender for the configured mail
// mode, wrapped so every attempt lands in the outbox.
func buildSender(cfg *config.Config, database *db.DB) mailer.Sender {
	var inner mailer.Sender
	switch cfg.Mail.Mode {
	case config.MailSMTP:
		inner = mailer.NewSMTPSender(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUser, cfg.Mail.SMTPPass, cfg.Mail.From)
	case config.MailWebhook:
		inner = mailer.NewWebhookSender(cfg.Mail.WebhookURL)
	default:
		inner = mailer.NopSender{}
	}
	return mailer.NewRecordingSender(inner, mailer.NewOutboxStore(database))
}

// registerAllRoutes wires up all feature routes and returns the SLA
// scheduler ready to start.
func registerAllRoutes(srv *server.Server, database *db.DB, cfg *config.Config, sender mailer.Sender) *sla.Scheduler {
	r := srv.Router()

	// Audit trail
	auditStore := audit.NewStore(database)
	audit.RegisterRoutes(r, auditStore)

	// Personnel
	personnelStore := personnel.NewStore(database)
	personnel.RegisterRoutes(r, personnelStore, auditStore)

	// Housing: camps, rooms, assignments, transfers
	housingStore := housing.NewStore(database)
	housing.RegisterRoutes(r, housingStore, auditStore)

	// Maintenance: assets and work orders
	maintenanceStore := maintenance.NewStore(database)
	maintenance.RegisterRoutes(r, maintenanceStore, auditStore)

	// Hiring approvals
	hiringStore := hiring.NewStore(database)
	hiring.RegisterRoutes(r, hiringStore, auditStore)

	// Meals
	mealStore := meals.NewStore(database)
	meals.RegisterRoutes(r, mealStore)

	// Events
	eventStore := events.NewStore(database)
	events.RegisterRoutes(r, eventStore)

	// Medical records
	medicalStore := medical.NewStore(database)
	medical.RegisterRoutes(r, medicalStore, auditStore)

	// SLA engine
	policyStore := sla.NewPolicyStore(database)
	logStore := sla.NewLogStore(database)
	sources := sla.DefaultSources(housingStore, maintenanceStore, hiringStore)
	runner := sla.NewRunner(policyStore, logStore, sources, sender)
	runner.SetSendTimeout(time.Duration(cfg.SLA.SendTimeoutSeconds) * time.Second)

	feed := sla.NewFeed()
	runner.OnRunComplete(feed.Publish)

	sla.RegisterRoutes(r, policyStore, logStore, runner, feed, auditStore)

	return sla.NewScheduler(runner, time.Duration(cfg.SLA.CheckIntervalMinutes)*time.Minute)
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serverCmd)
}
