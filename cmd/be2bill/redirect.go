package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wakala/be2bill/internal/currency"
	"github.com/wakala/be2bill/internal/directlink"
	"github.com/wakala/be2bill/internal/domain"
)

var (
	redirectAmount   string
	redirectCurrency string
	redirectTx       directlink.Transaction
)

var redirectCmd = &cobra.Command{
	Use:   "redirect [KEY=VALUE...]",
	Short: "Start a payment on an alternative means of payment",
	Long: `Start a redirect payment and print the decoded REDIRECTHTML markup that
sends the customer to the payment provider. When the gateway answers
without a redirection the full result is printed as JSON instead.`,
	Example: `  be2bill redirect --amount 25 --order-id 42 --client alice --email alice@example.com --ip 192.0.2.1 ALIAS=paypal`,
	RunE:    runRedirect,
}

func init() {
	redirectCmd.Flags().StringVar(&redirectAmount, "amount", "", "amount in major units, e.g. 12.50")
	redirectCmd.Flags().StringVar(&redirectCurrency, "currency", "EUR", "ISO 4217 currency of --amount")
	redirectCmd.Flags().StringVar(&redirectTx.OrderID, "order-id", "", "order id (generated when empty)")
	redirectCmd.Flags().StringVar(&redirectTx.ClientIdent, "client", "", "client identifier (CLIENTIDENT)")
	redirectCmd.Flags().StringVar(&redirectTx.ClientEmail, "email", "", "client e-mail address")
	redirectCmd.Flags().StringVar(&redirectTx.ClientIP, "ip", "", "client IP address")
	redirectCmd.Flags().StringVar(&redirectTx.ClientUserAgent, "user-agent", "", "client browser user agent")
	redirectCmd.Flags().StringVar(&redirectTx.Description, "description", "", "operation description")

	_ = redirectCmd.MarkFlagRequired("amount")
}

func runRedirect(cmd *cobra.Command, args []string) error {
	minor, err := currency.ParseMinor(redirectAmount, redirectCurrency)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	opts, err := parseAssignments(args)
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	res, err := client.RedirectForPayment(cmd.Context(), minor, redirectTx, opts)
	if err != nil {
		return err
	}
	html, err := res.RedirectHTML()
	if errors.Is(err, domain.ErrNoRedirect) {
		return printResult(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), html)
	return nil
}
