package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"splitit/pkg/apperror"
	"splitit/pkg/client"
	"splitit/pkg/domain"
	"splitit/pkg/logger"
	"splitit/services/settlement-svc/internal/generator"
	"splitit/services/settlement-svc/internal/service"
)

type settleOptions struct {
	file   string
	format string
	output string
	paths  bool
	server string
	token  string
}

func newSettleCmd(a *app) *cobra.Command {
	opts := &settleOptions{}

	cmd := &cobra.Command{
		Use:   "settle [name=amount ...]",
		Short: "Compute who pays whom",
		Long: `Compute the transfers that settle everybody's balance.

Payments come either from a YAML file (-f, use "-" for stdin) or from
name=amount arguments:

  splitit settle john=40 kate=10 ann=10
  splitit settle -f trip.yaml --format markdown
  splitit settle -f trip.yaml --format excel -o trip.xlsx

With --server the payments are sent to a running "splitit serve" instead
of being settled locally:

  splitit settle --server localhost:8080 --token $TOKEN john=40 kate=10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSettle(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML file with payments (- for stdin)")
	cmd.Flags().StringVar(&opts.format, "format", "", "report format: text, json, csv, markdown, excel, pdf, dot (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.paths, "paths", false, "print the augmenting paths to stderr")
	cmd.Flags().StringVar(&opts.server, "server", "", "settle on a remote splitit server (host:port)")
	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token for --server (default $SPLITIT_TOKEN)")

	return cmd
}

func (a *app) runSettle(cmd *cobra.Command, opts *settleOptions, args []string) error {
	payments, err := readPayments(cmd, opts.file, args)
	if err != nil {
		return err
	}

	if opts.server != "" {
		return a.runRemoteSettle(cmd, opts, payments)
	}

	sc, closeCache, err := a.settlementCache()
	if err != nil {
		return err
	}
	defer closeCache()

	ctx := cmd.Context()

	runs, closeRuns, err := a.runRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRuns()

	svcOpts := service.OptionsFromConfig(a.cfg)
	if opts.paths {
		svcOpts.ReturnPaths = true
	}
	svc := service.NewSettlementService(svcOpts, sc)
	if runs != nil {
		svc.WithHistory(runs)
	}

	result, err := svc.Settle(ctx, &service.SettleRequest{Payments: payments})
	if err != nil {
		return nothingToSettle(cmd, err)
	}

	if opts.paths {
		for _, p := range result.Paths {
			fmt.Fprintln(cmd.ErrOrStderr(), p)
		}
	}

	format := opts.format
	if format == "" {
		format = a.cfg.Settlement.DefaultFormat
	}

	out, f, err := svc.Render(ctx, result, format)
	if err != nil {
		return err
	}

	return writeReport(cmd, opts.output, out, f)
}

// runRemoteSettle sends the payments to a splitit server and prints the
// report it returns.
func (a *app) runRemoteSettle(cmd *cobra.Command, opts *settleOptions, payments []domain.Payment) error {
	if opts.paths {
		return apperror.New(apperror.CodeInvalidArgument, "--paths is only available for local settlement")
	}

	format := opts.format
	if format == "" {
		format = a.cfg.Settlement.DefaultFormat
	}
	f, err := generator.ParseFormat(format)
	if err != nil {
		return err
	}

	token := opts.token
	if token == "" {
		token = os.Getenv("SPLITIT_TOKEN")
	}

	cfg := client.DefaultClientConfig()
	cfg.Address = opts.server
	cfg.Token = token
	if a.cfg.Settlement.Timeout > 0 {
		cfg.Timeout = a.cfg.Settlement.Timeout
	}

	c, err := client.NewSettlementClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.Settle(cmd.Context(), payments, f.String(), true)
	if err != nil {
		return nothingToSettle(cmd, err)
	}

	out := []byte(result.Report)
	if f.IsBinary() {
		out, err = base64.StdEncoding.DecodeString(result.Report)
		if err != nil {
			return fmt.Errorf("decode %s report: %w", f, err)
		}
	}

	logger.Debug("Remote settlement", "server", opts.server, "run_id", result.RunID, "cache_hit", result.CacheHit)
	return writeReport(cmd, opts.output, out, f)
}

// nothingToSettle turns "nobody owes money" into a message on stdout. Any
// other error is returned unchanged.
func nothingToSettle(cmd *cobra.Command, err error) error {
	if !apperror.Is(err, apperror.CodeNoDebtors) && !apperror.Is(err, apperror.CodeNoCreditors) {
		return err
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), capitalize(appErr.Message)+".")
	return nil
}

func writeReport(cmd *cobra.Command, output string, out []byte, f generator.Format) error {
	if output == "" {
		if f.IsBinary() {
			return fmt.Errorf("%s report is binary, use --output to write it to a file", f)
		}
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}

	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	cmd.Printf("Report written to %s\n", output)
	return nil
}

func readPayments(cmd *cobra.Command, file string, args []string) ([]domain.Payment, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, apperror.New(apperror.CodeInvalidArgument, "use either --file or name=amount arguments, not both")
	case file == "-":
		return service.LoadPayments(cmd.InOrStdin())
	case file != "":
		return service.LoadPaymentsFile(file)
	case len(args) > 0:
		return service.ParsePairs(args)
	default:
		return nil, apperror.New(apperror.CodeEmptyInput, "no payments given, pass --file or name=amount arguments")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
