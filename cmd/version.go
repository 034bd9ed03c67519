package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mongoctl/internal/kubectl"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mongoctl",
		Long:  `Prints mongoctl's own version and, when available, the kubectl client version it will drive.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mongoctl version %s\n", rootCmd.Version)
			if kubeVersion, err := kubectl.ClientVersion(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "kubectl client version %s\n", kubeVersion)
			}
		},
	}
}
