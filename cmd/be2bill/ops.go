package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wakala/be2bill/internal/directlink"
	"github.com/wakala/be2bill/internal/domain"
)

var (
	opOrderID     string
	opDescription string

	exportDate        string
	exportStart       string
	exportEnd         string
	exportTo          string
	exportCompression string
)

var refundCmd = &cobra.Command{
	Use:   "refund <transaction-id> [KEY=VALUE...]",
	Short: "Refund a transaction",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFollowUp(cmd, args, (*directlink.Client).Refund)
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture <transaction-id> [KEY=VALUE...]",
	Short: "Capture an authorization",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFollowUp(cmd, args, (*directlink.Client).Capture)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <transactions|chargebacks|reconciliation|reconciled>",
	Short: "Ask the gateway to export a report",
	Long: `Ask the gateway to export transactions, chargebacks or reconciliation data.

The report is delivered asynchronously: --to takes an URL (sent as
CALLBACKURL) or an e-mail address (sent as MAILTO).`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"transactions", "chargebacks", "reconciliation", "reconciled"},
	RunE:      runExport,
}

func init() {
	for _, c := range []*cobra.Command{refundCmd, captureCmd} {
		c.Flags().StringVar(&opOrderID, "order-id", "", "order id (generated when empty)")
		c.Flags().StringVar(&opDescription, "description", "", "operation description")
	}

	exportCmd.Flags().StringVar(&exportDate, "date", "", "single day (YYYY-MM-DD) or month (YYYY-MM)")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "range start date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "range end date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "callback URL or e-mail address")
	exportCmd.Flags().StringVar(&exportCompression, "compression", directlink.DefaultCompression, "GZIP, BZIP or ZIP")
}

type followUpFunc func(c *directlink.Client, ctx context.Context, transactionID, orderID, description string, opts domain.Params) (domain.Result, error)

func runFollowUp(cmd *cobra.Command, args []string, op followUpFunc) error {
	opts, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}
	res, err := op(client, cmd.Context(), args[0], opOrderID, opDescription, opts)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func runExport(cmd *cobra.Command, args []string) error {
	var period directlink.Period
	switch {
	case exportStart != "" || exportEnd != "":
		if exportStart == "" || exportEnd == "" {
			return fmt.Errorf("--start and --end go together")
		}
		period = directlink.Range(exportStart, exportEnd)
	case exportDate != "":
		period = directlink.Day(exportDate)
	default:
		return fmt.Errorf("one of --date or --start/--end is required")
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var res domain.Result
	switch args[0] {
	case "transactions":
		res, err = client.ExportTransactions(ctx, period, exportTo, exportCompression, nil)
	case "chargebacks":
		res, err = client.ExportChargebacks(ctx, period, exportTo, exportCompression, nil)
	case "reconciliation":
		res, err = client.ExportReconciliation(ctx, period, exportTo, exportCompression, nil)
	case "reconciled":
		if period.IsRange() {
			return fmt.Errorf("reconciled exports take a single --date")
		}
		res, err = client.ExportReconciledTransactions(ctx, exportDate, exportTo, exportCompression, nil)
	default:
		return fmt.Errorf("unknown export %q", args[0])
	}
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func printResult(w io.Writer, res domain.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
