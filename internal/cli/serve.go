package cli

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeptools/certmerge/sec"
	"github.com/zeptools/certmerge/web/api"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor API: templates and spreadsheet imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := app.openCore(cmd)
			if err != nil {
				return err
			}
			defer core.RootCancel()
			defer core.ResourceCleanUp()

			h := &api.Handler{Templates: core.Templates, TrustProxy: core.TrustProxy}
			if core.RateLimit.Enabled() {
				core.PrepareThrottle(time.Minute, 10*time.Minute)
				h.Limiter = core.Throttle
			}
			if secret := core.API.Secret; secret != "" {
				if len(secret) < sec.MinSecretLength {
					return sec.ErrWeakSecret
				}
				h.Auth = &api.BearerAuth{Secret: []byte(secret), Issuer: core.API.Issuer}
			} else {
				log.Printf("[WARN][WEB] no api secret configured: the API is open to anyone who can reach %s", core.Listen)
			}
			if listen != "" {
				core.Listen = listen
			}
			core.PrepareWebService(core.Listen, h.Router())
			if err = core.StartServices(); err != nil {
				return err
			}
			defer core.StopServices()
			return core.WaitServicesDone()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	return cmd
}
