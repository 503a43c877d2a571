package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/roundhouse/internal/config"
	"github.com/zulandar/roundhouse/internal/db"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBResetCmd() *cobra.Command {
	var configPath string
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate all tables",
		Long:  "Drops every Roundhouse table, including assignments and their history, then re-runs migrations. All data is lost.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !yes {
				fmt.Fprint(out, "Drop ALL tables and data? [y/N] ")
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			gormDB, err := openDB(cfg)
			if err != nil {
				return err
			}

			if err := gormDB.Migrator().DropTable(db.AllModels()...); err != nil {
				return fmt.Errorf("drop tables: %w", err)
			}
			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			fmt.Fprintln(out, "Database reset.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Roundhouse database",
		Long:  "Connects to the configured backend, migrates all tables, and seeds the roster from the configured CSV files when present.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded config from %s (backend: %s)\n", configPath, cfg.Database.Backend)

	gormDB, err := openDB(cfg)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if cfg.Roster.DevelopersCSV != "" {
		if _, statErr := os.Stat(cfg.Roster.DevelopersCSV); statErr == nil {
			n, err := syncDevelopers(gormDB, cfg.Roster.DevelopersCSV)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Seeded %d developers from %s\n", n, cfg.Roster.DevelopersCSV)
		}
	}
	if cfg.Roster.TicketsCSV != "" {
		if _, statErr := os.Stat(cfg.Roster.TicketsCSV); statErr == nil {
			n, err := syncTickets(gormDB, cfg.Roster.TicketsCSV)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Seeded %d tickets from %s\n", n, cfg.Roster.TicketsCSV)
		}
	}

	fmt.Fprintln(out, "Roundhouse database initialized successfully.")
	return nil
}

// loadConfig reads the config file, falling back to defaults when the
// default file is absent.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "roundhouse.yaml" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openDB connects to the configured backend, prompting for the MySQL
// password when it is required but not configured.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Backend == config.BackendMySQL && cfg.Database.Password == "" {
		pw, err := promptPassword(fmt.Sprintf("Password for %s@%s: ", cfg.Database.User, cfg.Database.Host))
		if err != nil {
			return nil, err
		}
		cfg.Database.Password = pw
	}
	return db.Connect(cfg.Database)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
