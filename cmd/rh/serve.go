package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/zulandar/roundhouse/internal/config"
	"github.com/zulandar/roundhouse/internal/notify"
	"github.com/zulandar/roundhouse/internal/proposer"
	"github.com/zulandar/roundhouse/internal/server"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Roundhouse API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	gormDB, err := openDB(cfg)
	if err != nil {
		return err
	}

	prop, err := buildProposer(cfg)
	if err != nil {
		fmt.Fprintf(out, "Warning: %v — proposal generation disabled\n", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Sync.Schedule != "" {
		scheduler, err := startSyncCron(gormDB, cfg)
		if err != nil {
			return err
		}
		defer scheduler.Stop()
		fmt.Fprintf(out, "Roster re-sync scheduled: %s\n", cfg.Sync.Schedule)
	}

	return server.Start(ctx, server.StartOpts{
		DB:       gormDB,
		Port:     port,
		Proposer: prop,
		Workers:  cfg.Proposer.Workers,
		Notify:   notify.NewHub(cfg.Notify),
		Out:      out,
	})
}

// buildProposer constructs the configured proposal generator.
func buildProposer(cfg *config.Config) (proposer.Proposer, error) {
	switch cfg.Proposer.Kind {
	case "balance":
		return proposer.Balance{}, nil
	case "openai":
		apiKey := os.Getenv(cfg.Proposer.APIKeyEnv)
		timeout := time.Duration(cfg.Proposer.TimeoutSeconds) * time.Second
		p, err := proposer.NewOpenAI(apiKey, cfg.Proposer.Model, timeout)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown proposer kind %q", cfg.Proposer.Kind)
	}
}

// startSyncCron schedules periodic roster re-sync from the configured CSVs.
func startSyncCron(gormDB *gorm.DB, cfg *config.Config) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Sync.Schedule, func() {
		if cfg.Roster.DevelopersCSV != "" {
			if n, err := syncDevelopers(gormDB, cfg.Roster.DevelopersCSV); err != nil {
				log.Printf("sync: developers: %v", err)
			} else {
				log.Printf("sync: refreshed %d developers", n)
			}
		}
		if cfg.Roster.TicketsCSV != "" {
			if n, err := syncTickets(gormDB, cfg.Roster.TicketsCSV); err != nil {
				log.Printf("sync: tickets: %v", err)
			} else {
				log.Printf("sync: refreshed %d tickets", n)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sync schedule %q: %w", cfg.Sync.Schedule, err)
	}
	scheduler.Start()
	return scheduler, nil
}
