package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wakala/be2bill/internal/domain"
)

var errHashMismatch = errors.New("hash mismatch")

var hashCmd = &cobra.Command{
	Use:   "hash KEY=VALUE...",
	Short: "Print the HASH of a parameter set",
	Example: `  be2bill hash OPERATIONTYPE=payment AMOUNT=1000 ORDERID=42
  be2bill hash AMOUNTS[2024-01-01]=500 AMOUNTS[2024-02-01]=500`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseAssignments(args)
		if err != nil {
			return err
		}
		client, err := a.client()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), client.Hash(params))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify KEY=VALUE... HASH=...",
	Short: "Check the HASH of parameters received from the gateway",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseAssignments(args)
		if err != nil {
			return err
		}
		if !params.Has(domain.KeyHash) {
			return fmt.Errorf("missing %s argument", domain.KeyHash)
		}
		client, err := a.client()
		if err != nil {
			return err
		}
		if !client.CheckHash(params) {
			return errHashMismatch
		}
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}
