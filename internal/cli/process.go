package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cmwn/skramble/internal/config"
	"github.com/cmwn/skramble/pkg/pipeline"
)

// processOpts holds the command-line flags for the process command.
type processOpts struct {
	configPath  string // configuration file path
	skribbleURL string // specification document location
	postbackURL string // status notification target
	preview     bool   // accepted for compatibility; runs render identically
}

// processCommand creates the command that renders a single skribble.
func (c *CLI) processCommand() *cobra.Command {
	var opts processOpts

	cmd := &cobra.Command{
		Use:   "process <skribble_id>",
		Short: "Render one skribble and publish the composite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			svc, err := c.buildServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.close(cmd.Context())

			printInfo("Processing %s", args[0])
			printDetail("spec: %s", opts.skribbleURL)
			if opts.preview {
				printWarning("preview is accepted for compatibility; the composite is published normally")
			}

			runner := pipeline.NewRunner(svc.pipeline, c.Logger)
			p := newProgress(c.Logger)
			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				SkribbleID:  args[0],
				SkribbleURL: opts.skribbleURL,
				PostbackURL: opts.postbackURL,
				Preview:     opts.preview,
				Logger:      c.Logger,
			})
			if err != nil {
				printError("Render failed: %v", err)
				return err
			}
			p.done("Rendered " + result.SkribbleID)

			printSuccess("Published %s", result.ObjectKey)
			printKeyValue("assets", strconv.Itoa(result.Stats.AssetCount))
			printKeyValue("fetch", (result.Stats.SpecTime + result.Stats.MetadataTime + result.Stats.DownloadTime).String())
			printKeyValue("compose", (result.Stats.TransformTime + result.Stats.CollisionTime + result.Stats.MergeTime).String())
			printKeyValue("publish", result.Stats.FinalizeTime.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file")
	cmd.Flags().StringVar(&opts.skribbleURL, "skribble-url", "", "specification document URL (required)")
	cmd.Flags().StringVar(&opts.postbackURL, "post-back", "", "status notification URL (required)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "mark the run as a preview")
	_ = cmd.MarkFlagRequired("skribble-url")
	_ = cmd.MarkFlagRequired("post-back")

	return cmd
}
