package cmd

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mongoctl/internal/color"
	"mongoctl/pkg/logging"
)

var debugMode bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mongoctl",
	Short: "Debug a MongoDB deployment running on Kubernetes",
	Long: `mongoctl bundles the day-to-day debugging chores for a MongoDB plus
mongo-express deployment on Kubernetes (typically Minikube): managed
port-forwards to reach the database and its admin UI, credential lookup
from the cluster Secret, and ingress/deployment health checks.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed port-forwards, missing secrets)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mongoctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

// logLevel maps the --debug flag to a logging level.
func logLevel() logging.Level {
	if debugMode {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		color.Initialize(lipgloss.HasDarkBackground())
	}

	rootCmd.AddCommand(newForwardCmd())
	rootCmd.AddCommand(newSecretCmd())
	rootCmd.AddCommand(newIngressCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
