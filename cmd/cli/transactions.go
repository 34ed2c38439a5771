package main

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/banksaga/internal/adapter/http/dto"
	"github.com/iho/banksaga/internal/domain"
)

func transactionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}
	cmd.AddCommand(
		initiateCmd(opts, "deposit <account-id> <amount>", "Deposit into an account", domain.TransactionTypeDeposit),
		initiateCmd(opts, "withdraw <account-id> <amount>", "Withdraw from an account", domain.TransactionTypeWithdrawal),
		initiateCmd(opts, "transfer <source-id> <target-id> <amount>", "Move money between accounts", domain.TransactionTypeTransfer),
		getTransactionCmd(opts),
		listTransactionsCmd(opts),
	)
	return cmd
}

// initiateRequest maps positional arguments onto a request for txType.
func initiateRequest(txType domain.TransactionType, args []string) (dto.InitiateTransactionRequest, error) {
	req := dto.InitiateTransactionRequest{TransactionType: string(txType)}

	amount, err := decimal.NewFromString(args[len(args)-1])
	if err != nil {
		return req, fmt.Errorf("invalid amount %q: %w", args[len(args)-1], err)
	}
	req.Amount = amount

	switch txType {
	case domain.TransactionTypeDeposit:
		req.TargetAccountID = args[0]
	case domain.TransactionTypeWithdrawal:
		req.SourceAccountID = args[0]
	case domain.TransactionTypeTransfer:
		req.SourceAccountID = args[0]
		req.TargetAccountID = args[1]
	}
	return req, nil
}

func initiateCmd(opts *options, use, short string, txType domain.TransactionType) *cobra.Command {
	var description, idempotencyKey string

	nargs := 2
	if txType == domain.TransactionTypeTransfer {
		nargs = 3
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := initiateRequest(txType, args)
			if err != nil {
				return err
			}
			req.Description = description

			target, err := endpoint(opts.transactionURL, nil, "api", "v1", "transactions")
			if err != nil {
				return err
			}
			header := http.Header{}
			if idempotencyKey != "" {
				header.Set("Idempotency-Key", idempotencyKey)
			}

			var tx dto.TransactionResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, target, header, req, &tx); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Free-text description")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	return cmd
}

func getTransactionCmd(opts *options) *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			elems := []string{"api", "v1", "transactions", args[0]}
			if events {
				elems = append(elems, "events")
			}
			target, err := endpoint(opts.transactionURL, nil, elems...)
			if err != nil {
				return err
			}

			var out any = &dto.TransactionResponse{}
			if events {
				out = &map[string][]*dto.EventResponse{}
			}
			if err := opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&events, "events", false, "Show the transaction's event history instead")
	return cmd
}

func listTransactionsCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List transactions touching an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := endpoint(opts.transactionURL, pageQuery(limit, offset), "api", "v1", "accounts", args[0], "transactions")
			if err != nil {
				return err
			}

			var page dto.ListTransactionsResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, target, nil, nil, &page); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}

	addPageFlags(cmd, &limit, &offset)
	return cmd
}
