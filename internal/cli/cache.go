package cli

import (
	"github.com/spf13/cobra"

	"github.com/cmwn/skramble/internal/config"
	"github.com/cmwn/skramble/pkg/cache"
)

// cacheCommand creates the command that reports the configured cache and
// history backends.
func (c *CLI) cacheCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show the configured cache backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if cfg.Cache.RedisAddr == "" {
				printKeyValue("metadata", "in-process memory")
			} else {
				printKeyValue("metadata", "redis "+cfg.Cache.RedisAddr)
				store, err := cache.NewRedisStore(cmd.Context(), cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisPrefix)
				if err != nil {
					printError("redis unreachable: %v", err)
					return err
				}
				_ = store.Close()
				printSuccess("redis reachable")
			}
			printKeyValue("images", "in-process memory")

			if cfg.Ledger.MongoURI == "" {
				printKeyValue("ledger", "disabled")
			} else {
				printKeyValue("ledger", "mongodb "+cfg.Ledger.MongoDatabase)
			}
			printDetail("metadata and image entries live for the process lifetime and are never evicted")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file")

	return cmd
}
