package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"splitit/pkg/audit"
	"splitit/pkg/domain"
	"splitit/services/settlement-svc/internal/reporter"
	"splitit/services/settlement-svc/internal/repository"
	"splitit/services/settlement-svc/internal/service"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved settlements",
		Long: `List, show and delete settlements saved to PostgreSQL.

History is recorded when database.enabled is set (SPLITIT_DATABASE_ENABLED=true).`,
	}

	cmd.AddCommand(newHistoryListCmd(a))
	cmd.AddCommand(newHistoryShowCmd(a))
	cmd.AddCommand(newHistoryDeleteCmd(a))

	return cmd
}

// historyService opens the run store and wraps it in a settlement service.
func (a *app) historyService(cmd *cobra.Command) (*service.SettlementService, func(), error) {
	runs, closeRuns, err := a.runRepository(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewSettlementService(service.OptionsFromConfig(a.cfg), nil)
	if runs != nil {
		svc.WithHistory(runs)
	}
	return svc, closeRuns, nil
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent settlements, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.historyService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			runs, total, err := svc.ListRuns(cmd.Context(), &repository.ListOptions{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPARTICIPANTS\tTOTAL PAID\tSETTLED\tTRANSFERS\tCACHED")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%d\t%v\n",
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					r.Participants,
					r.TotalPaid,
					r.MaxFlow,
					r.Transfers,
					r.CacheHit,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d settlements\n", len(runs), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of settlements to show (at most 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of settlements to skip")

	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the payments and transfers of a saved settlement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.historyService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := svc.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settlement %s (%s)\n\n", run.ID, run.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintln(out, "Payments:")
			for _, p := range run.Payments {
				fmt.Fprintf(out, "  %s paid %.2f\n", domain.DisplayName(p.Name), p.Paid)
			}
			fmt.Fprintf(out, "\nFair share: %.2f\n\n", run.FairShare)
			fmt.Fprint(out, reporter.FormatSummary(service.RunTransfers(run), run.MaxFlow))
			return nil
		},
	}
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved settlement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.historyService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.recordAudit(cmd, audit.NewEntry().Action(audit.ActionDelete).RunID(args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted settlement %s\n", args[0])
			return nil
		},
	}
}
