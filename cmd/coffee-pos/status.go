package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sablepay/coffee-pos/pkg/poller"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [payment id]",
		Short: "Look up the current status of a payment once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			asJson, _ := cmd.Flags().GetBool("json")
			return printStatus(cmd.Context(), cmd.OutOrStdout(), client, args[0], asJson)
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func newClient(ctx context.Context) (sablepay.Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return sablepay.NewClient(sablepay.LoadConfig(ctx, sablepay.WithEnvConfigs()))
}

func printStatus(ctx context.Context, out io.Writer, lookup poller.StatusLookup, paymentId string, asJson bool) error {
	status, err := lookup.GetPaymentStatus(ctx, paymentId)
	if err != nil {
		return err
	}

	if asJson {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	}

	fmt.Fprintf(out, "Payment:  %s\n", status.PaymentId)
	fmt.Fprintf(out, "Status:   %s (%s)\n", status.Status, sablepay.StatusClass(status.Status))
	if status.Amount.Valid {
		fmt.Fprintf(out, "Amount:   %s\n", status.Amount.Decimal.String())
	}
	if len(status.TxHash) > 0 {
		fmt.Fprintf(out, "Tx hash:  %s\n", status.TxHash)
	}
	if status.ExpiresAt != nil {
		fmt.Fprintf(out, "Expires:  %s\n", status.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
