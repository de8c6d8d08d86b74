package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundwork-io/groundwork/internal/config"
	"github.com/groundwork-io/groundwork/internal/conflicts"
	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/engine"
	"github.com/groundwork-io/groundwork/internal/logging"
	"github.com/groundwork-io/groundwork/internal/packager"
	"github.com/groundwork-io/groundwork/internal/publish"
	"github.com/groundwork-io/groundwork/internal/report"
)

var (
	provisionDryRun          bool
	provisionSkipRepackaging bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision [prefix [infra-stack [auth-stack]]]",
	Short: "Converge all resources and publish their identifiers",
	Long: `Provision reconciles every descriptor toward its described state and
publishes the resolved identifiers to Parameter Store.

Positional arguments override the name prefix and the infra and auth
stack ids from the environment. The run is additive: resources are
created or reused, never modified or deleted.`,
	Args: cobra.MaximumNArgs(3),
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "Run against an in-memory environment, making no remote calls")
	provisionCmd.Flags().BoolVar(&provisionSkipRepackaging, "skip-repackaging", false, "Reuse an existing bundle with the same content digest")
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyOverrides(cfg, args)
	logging.Init(cfg.LogLevel)

	env, store, err := buildEnvironment(ctx, cfg, provisionDryRun)
	if err != nil {
		return err
	}

	set, err := buildCatalog(ctx, cfg, env)
	if err != nil {
		return err
	}

	pkg := &packager.Packager{
		OutDir: bundleDir(),
		Reuse:  provisionSkipRepackaging || cfg.SkipRepackaging,
	}

	rec := engine.New(env, pkg)
	rec.Parallelism = cfg.Parallelism
	rec.Callback = func(ev engine.Event) {
		if ev.Status == "started" {
			logging.Debug("reconciling", "descriptor", ev.DescriptorID)
			return
		}
		logging.Info("reconciled",
			"descriptor", ev.DescriptorID,
			"status", ev.Status,
			"duration", ev.Duration.Round(time.Millisecond),
			"error", ev.Err)
	}

	out := report.New(cmd.OutOrStdout())

	res, recErr := rec.Reconcile(ctx, set)
	if res == nil {
		return recErr
	}
	out.Reconciliation(res)

	// Publish what did resolve even when some descriptors failed; a
	// rerun converges the rest.
	pub := publish.New(store, cfg.ParamPrefix, env.Region())
	outcomes, pubErr := pub.Publish(ctx, set, res.Resolved)
	out.Publication(outcomes)

	out.Conflicts(conflicts.Detect(res.Resolved, descriptor.ConsumerExpectations()))

	if recErr != nil {
		fmt.Fprintf(os.Stderr, "provision failed for: %v\n", res.FailedIDs())
		return recErr
	}
	return pubErr
}
