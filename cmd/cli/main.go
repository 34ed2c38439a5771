package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	accountURL     string
	transactionURL string
	ledgerURL      string
	timeout        time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "banksaga",
		Short:         "banksaga CLI tool",
		Long:          `A command line interface for the banksaga account, transaction and ledger services.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.accountURL, "account-url", "http://localhost:8081", "Base URL of the account service")
	flags.StringVar(&opts.transactionURL, "transaction-url", "http://localhost:8080", "Base URL of the transaction service")
	flags.StringVar(&opts.ledgerURL, "ledger-url", "http://localhost:8082", "Base URL of the ledger service")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		accountsCmd(opts),
		transactionsCmd(opts),
		ledgerCmd(opts),
		reconcileCmd(opts),
		driftCmd(opts),
	)
	return rootCmd
}
