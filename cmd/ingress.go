package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mongoctl/internal/color"
	"mongoctl/internal/config"
	"mongoctl/internal/diagnose"
)

var ingressHost string

var ingressCmdDef = &cobra.Command{
	Use:   "ingress",
	Short: "Troubleshoot ingress access to mongo-express",
	Long: `Runs the usual ingress checklist against the configured namespace:
ingress resources exist, the ingress controller is running, each ingress has
an address, and its host resolves locally to that address. On Minikube an
unresolved host almost always means a missing /etc/hosts entry; the check
prints the exact line to add.`,
	Args: cobra.NoArgs,
	RunE: runIngress,
}

func newIngressCmd() *cobra.Command {
	ingressCmdDef.Flags().StringVar(&ingressHost, "host", "", "Host to test instead of the hosts found on the ingresses")
	return ingressCmdDef
}

func runIngress(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	result, err := diagnose.Ingress(cmd.Context(), cfg.KubeContext, cfg.Namespace, ingressHost)
	if err != nil {
		return err
	}

	printChecks(cmd, result)
	if result.Failed() {
		return fmt.Errorf("ingress checks failed")
	}
	return nil
}

func printChecks(cmd *cobra.Command, result diagnose.Result) {
	out := cmd.OutOrStdout()
	for _, check := range result {
		var line string
		switch check.State {
		case diagnose.StateOK:
			line = color.OK(check.Name)
		case diagnose.StateWarn:
			line = color.Warning(check.Name)
		default:
			line = color.Failed(check.Name)
		}
		fmt.Fprintln(out, line)
		if check.Detail != "" {
			fmt.Fprintf(out, "  %s\n", check.Detail)
		}
	}
}
