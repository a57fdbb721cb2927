// Command keygen prints fresh secrets for AES_SECRET_KEY and JWT_SECRET.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/repairshop/workshop/internal/core/service"
	"github.com/repairshop/workshop/internal/infrastructure/fieldcrypt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		withJWT bool
		asEnv   bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate secrets for the workshop server",
		Long: `Prints a random base64 AES-256 key for field encryption.
With --jwt, also prints a random HS512 signing secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			key, err := fieldcrypt.GenerateKey()
			if err != nil {
				return err
			}
			printSecret(out, "AES_SECRET_KEY", key, asEnv)

			if !withJWT {
				return nil
			}
			secret, err := jwtSecret()
			if err != nil {
				return err
			}
			printSecret(out, "JWT_SECRET", secret, asEnv)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withJWT, "jwt", false, "also generate a JWT signing secret")
	cmd.Flags().BoolVar(&asEnv, "env", false, "print NAME=value lines")
	return cmd
}

func printSecret(w io.Writer, name, value string, asEnv bool) {
	if asEnv {
		fmt.Fprintf(w, "%s=%s\n", name, value)
		return
	}
	fmt.Fprintln(w, value)
}

// jwtSecret returns MinSecretLen random bytes, base64 encoded.
func jwtSecret() (string, error) {
	buf := make([]byte, service.MinSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("keygen: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
