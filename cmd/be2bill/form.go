package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wakala/be2bill/internal/currency"
	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/form"
)

var (
	formAmount        string
	formCurrency      string
	formOrderID       string
	formClient        string
	formDescription   string
	formAuthorization bool
	formSubmit        string
)

var formCmd = &cobra.Command{
	Use:   "form [KEY=VALUE...]",
	Short: "Render a hosted payment form button",
	Long: `Render the HTML form that posts a signed payment (or authorization)
to the gateway's hosted payment page. Extra KEY=VALUE arguments are sent as
additional parameters.`,
	Example: `  be2bill form --amount 12.50 --order-id 42 --client alice --description "Order 42"`,
	RunE:    runForm,
}

func init() {
	formCmd.Flags().StringVar(&formAmount, "amount", "", "amount in major units, e.g. 12.50")
	formCmd.Flags().StringVar(&formCurrency, "currency", "EUR", "ISO 4217 currency of --amount")
	formCmd.Flags().StringVar(&formOrderID, "order-id", "", "order id")
	formCmd.Flags().StringVar(&formClient, "client", "", "client identifier (CLIENTIDENT)")
	formCmd.Flags().StringVar(&formDescription, "description", "", "operation description")
	formCmd.Flags().BoolVar(&formAuthorization, "authorization", false, "render an authorization instead of a payment")
	formCmd.Flags().StringVar(&formSubmit, "submit-value", "", "label of the submit button")

	_ = formCmd.MarkFlagRequired("amount")
	_ = formCmd.MarkFlagRequired("order-id")
}

func runForm(cmd *cobra.Command, args []string) error {
	minor, err := currency.ParseMinor(formAmount, formCurrency)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	opts, err := parseAssignments(args)
	if err != nil {
		return err
	}
	client, err := a.formClient()
	if err != nil {
		return err
	}

	html := form.HTMLOptions{SubmitLabel: formSubmit}

	var out string
	if formAuthorization {
		out, err = client.BuildAuthorizationFormButton(minor, formOrderID, formClient, formDescription, html, opts)
	} else {
		out, err = client.BuildPaymentFormButton(domain.Single(minor), formOrderID, formClient, formDescription, html, opts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
