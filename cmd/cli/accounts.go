package main

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/banksaga/internal/adapter/http/dto"
)

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}
	cmd.AddCommand(createAccountCmd(opts), getAccountCmd(opts), listAccountsCmd(opts))
	return cmd
}

func createAccountCmd(opts *options) *cobra.Command {
	var req dto.CreateAccountRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.AccountType = strings.ToUpper(req.AccountType)
			target, err := endpoint(opts.accountURL, nil, "api", "v1", "accounts")
			if err != nil {
				return err
			}

			var account dto.AccountResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, target, nil, req, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	cmd.Flags().StringVar(&req.HolderName, "holder", "", "Account holder name")
	cmd.Flags().StringVar(&req.AccountType, "type", "CHECKING", "Account type (CHECKING or SAVINGS)")
	_ = cmd.MarkFlagRequired("holder")
	return cmd
}

func getAccountCmd(opts *options) *cobra.Command {
	var byNumber bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			elems := []string{"api", "v1", "accounts", args[0]}
			if byNumber {
				elems = []string{"api", "v1", "accounts", "by-number", args[0]}
			}
			target, err := endpoint(opts.accountURL, nil, elems...)
			if err != nil {
				return err
			}

			var account dto.AccountResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	cmd.Flags().BoolVar(&byNumber, "number", false, "Treat the argument as an account number")
	return cmd
}

func listAccountsCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := endpoint(opts.accountURL, pageQuery(limit, offset), "api", "v1", "accounts")
			if err != nil {
				return err
			}

			var page dto.ListAccountsResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, &page); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}

	addPageFlags(cmd, &limit, &offset)
	return cmd
}

func addPageFlags(cmd *cobra.Command, limit, offset *int) {
	cmd.Flags().IntVar(limit, "limit", 20, "Maximum number of results")
	cmd.Flags().IntVar(offset, "offset", 0, "Number of results to skip")
}
