package main

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/sablepay/coffee-pos/pkg/notify"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key for outcome webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := notify.GenerateSigningKey()
			if err != nil {
				return err
			}

			key, err := notify.ParseSigningKey(seed)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", notify.SigningKeyConfigEnvName, seed)
			fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\n", base58.Encode(key.Public().(ed25519.PublicKey)))
			return nil
		},
	}
}
