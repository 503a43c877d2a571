package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/roundhouse/internal/roster"
	"gorm.io/gorm"
)

func newRosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage developers and tickets",
	}

	cmd.AddCommand(newRosterSyncCmd())
	cmd.AddCommand(newRosterImportGitHubCmd())
	cmd.AddCommand(newRosterShowCmd())
	return cmd
}

func newRosterSyncCmd() *cobra.Command {
	var configPath, developersCSV, ticketsCSV string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync developers and tickets from CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if developersCSV == "" {
				developersCSV = cfg.Roster.DevelopersCSV
			}
			if ticketsCSV == "" {
				ticketsCSV = cfg.Roster.TicketsCSV
			}
			if developersCSV == "" && ticketsCSV == "" {
				return fmt.Errorf("nothing to sync: set roster.developers_csv/roster.tickets_csv or pass --developers/--tickets")
			}

			gormDB, err := openDB(cfg)
			if err != nil {
				return err
			}

			if developersCSV != "" {
				n, err := syncDevelopers(gormDB, developersCSV)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Synced %d developers from %s\n", n, developersCSV)
			}
			if ticketsCSV != "" {
				n, err := syncTickets(gormDB, ticketsCSV)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Synced %d tickets from %s\n", n, ticketsCSV)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().StringVar(&developersCSV, "developers", "", "developers CSV path (overrides config)")
	cmd.Flags().StringVar(&ticketsCSV, "tickets", "", "tickets CSV path (overrides config)")
	return cmd
}

func newRosterImportGitHubCmd() *cobra.Command {
	var configPath, repo string

	cmd := &cobra.Command{
		Use:   "import-github",
		Short: "Import open GitHub issues as tickets",
		Long:  "Imports open issues from the configured repository as tickets. Story points come from points/N labels, required skill from skill/X labels, priority from High/Medium/Low labels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if repo == "" {
				repo = cfg.GitHub.Repo
			}
			if repo == "" {
				return fmt.Errorf("no repository: set github.repo in config or pass --repo owner/name")
			}

			gormDB, err := openDB(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := roster.NewGitHubClient(ctx, os.Getenv(cfg.GitHub.TokenEnv))
			n, err := roster.ImportGitHubIssues(ctx, gormDB, client, repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d tickets from %s\n", n, repo)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().StringVar(&repo, "repo", "", "GitHub repository in owner/name form (overrides config)")
	return cmd
}

func newRosterShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the roster with computed workload and capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			gormDB, err := openDB(cfg)
			if err != nil {
				return err
			}

			devs, err := roster.Developers(gormDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-20s %-26s %6s %9s %9s  %s\n", "NAME", "TITLE", "AVAIL", "WORKLOAD", "CAPACITY", "SKILLS")
			for _, d := range devs {
				fmt.Fprintf(out, "%-20s %-26s %5.0f%% %9d %9.2f  %s\n",
					d.Name, truncateText(d.Title, 26), d.Availability*100, d.CurrentWorkload, d.Capacity, d.Skills)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	return cmd
}

func syncDevelopers(gormDB *gorm.DB, path string) (int, error) {
	return roster.SyncDevelopersCSV(gormDB, path)
}

func syncTickets(gormDB *gorm.DB, path string) (int, error) {
	return roster.SyncTicketsCSV(gormDB, path)
}
