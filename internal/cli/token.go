package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeptools/certmerge/sec"
)

func newTokenCmd(app *App) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		secret  bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the editor API",
		Example: `  certmerge token --subject editor --ttl 720h
  certmerge token --secret   # prints a fresh random secret for config/.core.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret {
				s, err := sec.GenerateOpaqueToken(sec.MinSecretLength)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			}
			core, err := app.openCore(cmd)
			if err != nil {
				return err
			}
			defer core.RootCancel()
			defer core.ResourceCleanUp()

			if core.API.Secret == "" {
				return errors.New("no api secret configured in config/.core.json")
			}
			token, err := sec.GenerateAPIToken([]byte(core.API.Secret), core.API.Issuer, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "editor", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (0 = no expiry)")
	cmd.Flags().BoolVar(&secret, "secret", false, "Print a new random api secret instead")
	return cmd
}
