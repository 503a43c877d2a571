package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/roundhouse/internal/ledger"
	"github.com/zulandar/roundhouse/internal/proposer"
	"github.com/zulandar/roundhouse/internal/reconciler"
	"github.com/zulandar/roundhouse/internal/roster"
)

func newAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Propose, inspect, and mutate assignments",
	}

	cmd.AddCommand(newAssignRunCmd())
	cmd.AddCommand(newAssignListCmd())
	cmd.AddCommand(newAssignReassignCmd())
	cmd.AddCommand(newAssignRemoveCmd())
	cmd.AddCommand(newAssignResetCmd())
	cmd.AddCommand(newAssignHistoryCmd())
	return cmd
}

func newAssignRunCmd() *cobra.Command {
	var configPath string
	var minPoints, maxPoints, limit int
	var priority string
	var commit bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a proposal round over eligible tickets",
		Long:  "Selects unassigned tickets matching the filters, asks the configured generator for one proposal per ticket, and prints them. With --commit every proposal is approved and written to the ledger.",
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

			tickets, err := reconciler.EligibleTickets(gormDB, reconciler.EligibilityFilter{
				MinPoints: minPoints,
				MaxPoints: maxPoints,
				Priority:  priority,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if len(tickets) == 0 {
				fmt.Fprintln(out, "No eligible tickets.")
				return nil
			}
			fmt.Fprintf(out, "Proposing assignments for %d tickets...\n", len(tickets))

			prop, err := buildProposer(cfg)
			if err != nil {
				return err
			}

			devViews, err := roster.Developers(gormDB)
			if err != nil {
				return err
			}
			snapshot := make([]proposer.Developer, len(devViews))
			for i, d := range devViews {
				snapshot[i] = proposer.Developer{
					Name:            d.Name,
					Title:           d.Title,
					ExperienceYears: d.ExperienceYears,
					Availability:    d.Availability,
					Skills:          d.Skills,
					Workload:        d.CurrentWorkload,
					Capacity:        d.Capacity,
				}
			}

			generated, dropped, err := proposer.Batch(cmd.Context(), prop, tickets, snapshot, cfg.Proposer.Workers)
			if err != nil {
				return err
			}

			for _, p := range generated {
				fmt.Fprintf(out, "  #%-5d → %-20s %s\n", p.TicketID, p.AssignedTo, truncateText(p.Reason, 80))
			}
			for _, d := range dropped {
				fmt.Fprintf(out, "  #%-5d dropped: %s\n", d.TicketID, d.Cause)
			}

			if !commit {
				fmt.Fprintf(out, "%d proposals (dry run — pass --commit to write them)\n", len(generated))
				return nil
			}

			approved := make([]reconciler.Proposal, len(generated))
			for i, p := range generated {
				approved[i] = reconciler.Proposal{TicketID: p.TicketID, AssignedTo: p.AssignedTo, Reason: p.Reason}
			}
			result, err := reconciler.Commit(gormDB, approved, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Committed %d assignments (%d conflicts, %d invalid)\n",
				len(result.Created), len(result.Conflicts), len(result.Invalid))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().IntVar(&minPoints, "min-points", 0, "minimum story points")
	cmd.Flags().IntVar(&maxPoints, "max-points", 0, "maximum story points")
	cmd.Flags().StringVar(&priority, "priority", "", "priority filter (High, Medium, Low)")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap on ticket count, applied after the other filters (0 = no limit)")
	cmd.Flags().BoolVar(&commit, "commit", false, "approve and write every proposal")
	return cmd
}

func newAssignListCmd() *cobra.Command {
	var configPath, developer string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active assignments",
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

			assignments, err := ledger.ListActive(gormDB, ledger.Filters{Developer: developer})
			if err != nil {
				return err
			}
			if len(assignments) == 0 {
				fmt.Fprintln(out, "No active assignments.")
				return nil
			}

			fmt.Fprintf(out, "%-6s %-8s %-20s %-8s %s\n", "ID", "TICKET", "DEVELOPER", "BY", "SINCE")
			for _, a := range assignments {
				fmt.Fprintf(out, "%-6d %-8d %-20s %-8s %s\n",
					a.ID, a.TicketID, a.AssignedTo, a.AssignedBy, a.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().StringVarP(&developer, "developer", "d", "", "filter by developer name")
	return cmd
}

func newAssignReassignCmd() *cobra.Command {
	var configPath, developer, reason string
	var ticketID uint

	cmd := &cobra.Command{
		Use:   "reassign",
		Short: "Move a ticket's active assignment to another developer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			gormDB, err := openDB(cfg)
			if err != nil {
				return err
			}

			a, err := reconciler.Reassign(gormDB, ticketID, developer, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ticket %d reassigned to %s (assignment %d)\n", a.TicketID, a.AssignedTo, a.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().UintVar(&ticketID, "ticket", 0, "ticket id")
	cmd.Flags().StringVarP(&developer, "developer", "d", "", "new developer name")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the change")
	cmd.MarkFlagRequired("ticket")
	cmd.MarkFlagRequired("developer")
	return cmd
}

func newAssignRemoveCmd() *cobra.Command {
	var configPath, reason string
	var ticketID uint

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a ticket's active assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			gormDB, err := openDB(cfg)
			if err != nil {
				return err
			}

			if err := reconciler.Remove(gormDB, ticketID, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assignment for ticket %d removed\n", ticketID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().UintVar(&ticketID, "ticket", 0, "ticket id")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the removal")
	cmd.MarkFlagRequired("ticket")
	return cmd
}

func newAssignResetCmd() *cobra.Command {
	var configPath, reason string
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every active assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !yes {
				fmt.Fprint(out, "Remove ALL active assignments? [y/N] ")
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

			if reason == "" {
				reason = "Reset all assignments"
			}
			count, err := reconciler.ResetAll(gormDB, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Reset %d assignments\n", count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in history")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAssignHistoryCmd() *cobra.Command {
	var configPath string
	var assignmentID uint

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the audit trail for an assignment",
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

			rows, err := ledger.History(gormDB, assignmentID)
			if err != nil {
				return err
			}
			for _, h := range rows {
				prev := "-"
				if h.PreviousDeveloper != nil {
					prev = *h.PreviousDeveloper
				}
				fmt.Fprintf(out, "%s  %-10s %-20s → %-20s %s\n",
					h.ChangedAt.Format("2006-01-02 15:04:05"), h.Action, prev, h.NewDeveloper, truncateText(h.Reason, 60))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "roundhouse.yaml", "path to Roundhouse config file")
	cmd.Flags().UintVar(&assignmentID, "id", 0, "assignment id")
	cmd.MarkFlagRequired("id")
	return cmd
}
