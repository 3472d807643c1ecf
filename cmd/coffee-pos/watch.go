package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sablepay/coffee-pos/pkg/poller"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

var errPaymentFailed = errors.New("payment did not complete")

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [payment id]",
		Short: "Poll a payment until it completes, fails or expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			interval, _ := cmd.Flags().GetDuration("interval")
			return watchPayment(ctx, cmd.OutOrStdout(), client, args[0], interval)
		},
	}

	cmd.Flags().Duration("interval", poller.DefaultInterval, "Delay between status lookups")

	return cmd
}

// watchPayment polls paymentId until the session ends or ctx is done, which
// stops the session. It returns errPaymentFailed for a terminal failure.
func watchPayment(ctx context.Context, out io.Writer, lookup poller.StatusLookup, paymentId string, interval time.Duration) error {
	p := poller.New(lookup, poller.WithStaticConfigs(interval, 0))

	session, err := p.Start(context.Background(), paymentId, poller.WithSessionListener(poller.ListenerFuncs{
		Snapshot: func(s *poller.Session, status *sablepay.PaymentStatus) {
			fmt.Fprintf(out, "[%d] %s %s\n", s.Lookups(), time.Now().Format(time.TimeOnly), status.Status)
		},
	}))
	if err != nil {
		return err
	}

	select {
	case <-session.Done():
	case <-ctx.Done():
		session.Stop()
	}

	status, err := session.Result()
	switch {
	case errors.Is(err, poller.ErrSessionStopped):
		fmt.Fprintln(out, "stopped")
		return nil
	case err != nil:
		return errors.Wrap(err, "status lookup failed")
	}

	fmt.Fprintf(out, "%s after %d lookups\n", session.Outcome(), session.Lookups())
	if status.Outcome() != sablepay.OutcomeSucceeded {
		return errPaymentFailed
	}
	return nil
}
