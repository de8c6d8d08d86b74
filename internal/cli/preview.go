package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundwork-io/groundwork/internal/config"
	"github.com/groundwork-io/groundwork/internal/engine"
	"github.com/groundwork-io/groundwork/internal/logging"
	"github.com/groundwork-io/groundwork/internal/report"
)

var previewDryRun bool

var previewCmd = &cobra.Command{
	Use:   "preview [prefix [infra-stack [auth-stack]]]",
	Short: "Probe every resource and print what provision would do",
	Long: `Preview probes each descriptor in dependency order and reports whether
provision would create or reuse it. Nothing is created, uploaded, or
published. Descriptors that depend on a resource that does not exist
yet cannot be probed and are listed as pending creates.`,
	Args: cobra.MaximumNArgs(3),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewDryRun, "dry-run", false, "Run against an in-memory environment, making no remote calls")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyOverrides(cfg, args)
	logging.Init(cfg.LogLevel)

	env, _, err := buildEnvironment(ctx, cfg, previewDryRun)
	if err != nil {
		return err
	}

	set, err := buildCatalog(ctx, cfg, env)
	if err != nil {
		return err
	}

	entries, err := engine.Preview(ctx, env, set)
	if err != nil {
		return err
	}

	report.New(cmd.OutOrStdout()).Preview(entries)
	return nil
}
