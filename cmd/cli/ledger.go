package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/iho/banksaga/internal/adapter/http/dto"
)

var (
	errInconsistent = errors.New("ledger is inconsistent with its balance snapshot")
	errDrift        = errors.New("account balance differs from ledger balance")
)

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	cmd.AddCommand(ledgerEntriesCmd(opts), ledgerBalanceCmd(opts), ledgerVerifyCmd(opts))
	return cmd
}

func ledgerEntriesCmd(opts *options) *cobra.Command {
	var account string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			elems := []string{"api", "v1", "ledger", "entries"}
			if account != "" {
				elems = []string{"api", "v1", "ledger", "accounts", account, "entries"}
			}
			target, err := endpoint(opts.ledgerURL, pageQuery(limit, offset), elems...)
			if err != nil {
				return err
			}

			var page dto.ListEntriesResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, &page); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Only entries of this account")
	addPageFlags(cmd, &limit, &offset)
	return cmd
}

func ledgerBalanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account's balance according to the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := ledgerBalance(cmd, opts, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), balance)
		},
	}
}

func ledgerBalance(cmd *cobra.Command, opts *options, accountID string) (*dto.BalanceResponse, error) {
	target, err := endpoint(opts.ledgerURL, nil, "api", "v1", "ledger", "accounts", accountID, "balance")
	if err != nil {
		return nil, err
	}

	var balance dto.BalanceResponse
	if err := opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func ledgerVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Fold an account's entries and compare with the latest snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := endpoint(opts.ledgerURL, nil, "api", "v1", "ledger", "accounts", args[0], "verify")
			if err != nil {
				return err
			}

			var result dto.VerificationResponse
			err = opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, &result)
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				if err := printRaw(cmd, apiErr.Body); err != nil {
					return err
				}
				return errInconsistent
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func printRaw(cmd *cobra.Command, body []byte) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return err
}

func reconcileCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconciliation operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one stuck-transaction sweep now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := endpoint(opts.transactionURL, nil, "api", "v1", "reconciliation", "run")
			if err != nil {
				return err
			}

			var report dto.ReconciliationResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, target, nil, nil, &report); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	})
	return cmd
}

func driftCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "drift <account-id>",
		Short: "Compare an account's balance with its ledger balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := endpoint(opts.accountURL, nil, "api", "v1", "accounts", args[0])
			if err != nil {
				return err
			}
			var account dto.AccountResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, &account); err != nil {
				return fmt.Errorf("account service: %w", err)
			}

			ledger, err := ledgerBalance(cmd, opts, args[0])
			if err != nil {
				return fmt.Errorf("ledger service: %w", err)
			}

			drift := account.Balance.Sub(ledger.Balance)
			fmt.Fprintf(cmd.OutOrStdout(), "account balance: %s\nledger balance:  %s\ndrift:           %s\n",
				account.Balance.StringFixed(2), ledger.Balance.StringFixed(2), drift.StringFixed(2))
			if !drift.IsZero() {
				return errDrift
			}
			return nil
		},
	}
}
