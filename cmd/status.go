package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mongoctl/internal/config"
	"mongoctl/internal/diagnose"
)

var statusCmdDef = &cobra.Command{
	Use:   "status",
	Short: "One-shot health summary of the MongoDB deployment",
	Long: `Checks that kubectl is installed, reports the current kube context, and
summarizes deployment readiness and service presence for every configured
workload (mongodb and mongo-express by default). Exits non-zero when a
deployment is not ready.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func newStatusCmd() *cobra.Command {
	return statusCmdDef
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	workloads := make([]string, 0, len(cfg.Forwards))
	for _, fw := range cfg.Forwards {
		workloads = append(workloads, fw.Service)
	}

	result, err := diagnose.Status(cmd.Context(), cfg.KubeContext, cfg.Namespace, workloads)
	if err != nil {
		return err
	}

	printChecks(cmd, result)
	if result.Failed() {
		return fmt.Errorf("status checks failed")
	}
	return nil
}
