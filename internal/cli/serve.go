package cli

import (
	"github.com/spf13/cobra"

	"github.com/cmwn/skramble/internal/config"
	"github.com/cmwn/skramble/internal/server"
	"github.com/cmwn/skramble/pkg/pipeline"
)

// serveCommand creates the command that runs the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath, bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			svc, err := c.buildServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.close(cmd.Context())

			runner := pipeline.NewRunner(svc.pipeline, c.Logger)
			srv := server.New(runner, svc.pipeline.Ledger, c.Logger)
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Bind)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file")
	cmd.Flags().StringVarP(&bind, "bind", "b", "", "listen address (overrides config)")

	return cmd
}
