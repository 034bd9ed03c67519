package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mongoctl/internal/config"
	"mongoctl/internal/forward"
	"mongoctl/internal/kubectl"
	"mongoctl/internal/reporting"
	"mongoctl/internal/tui"
	"mongoctl/pkg/logging"
)

var forwardUseTUI bool

// forwardCmdDef defines the forward command structure
var forwardCmdDef = &cobra.Command{
	Use:   "forward",
	Short: "Port-forward mongodb and mongo-express to localhost",
	Long: `Starts a managed kubectl port-forward for every configured forward
(by default mongodb on localhost:27017 and mongo-express on localhost:8081),
prints the browse URLs once all of them are up, and keeps them alive until
interrupted.

Each forward's kubectl output goes to its own log file. If any forward dies
during startup, the head of its log is replayed, every other forward is torn
down, and the command exits non-zero. Ctrl+C stops all forwards cleanly.

With --tui the command renders an interactive dashboard instead of plain
status lines.`,
	Args: cobra.NoArgs,
	RunE: runForward,
}

func newForwardCmd() *cobra.Command {
	forwardCmdDef.Flags().BoolVar(&forwardUseTUI, "tui", false, "Render an interactive dashboard instead of plain status lines")
	return forwardCmdDef
}

func runForward(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := kubectl.EnsureInstalled(); err != nil {
		return err
	}

	specs := forward.SpecsFromConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if forwardUseTUI {
		return runForwardDashboard(ctx, specs)
	}

	logging.InitForCLI(logLevel(), cmd.ErrOrStderr())
	sup := forward.New(reporting.NewConsoleReporter(), forward.WithOutput(cmd.OutOrStdout()))
	return sup.Run(ctx, specs)
}

// runForwardDashboard drives the supervisor under a bubbletea program. The
// dashboard owns the terminal, so logging switches to channel mode and the
// supervisor's plain-text output is discarded.
func runForwardDashboard(ctx context.Context, specs []forward.Spec) error {
	logs := logging.InitForTUI(logLevel())
	reporter := reporting.NewChannelReporter(len(specs) * 8)
	sup := forward.New(reporter, forward.WithOutput(io.Discard))

	program := tea.NewProgram(tui.New(specs, reporter.Updates(), logs))

	startErr := make(chan error, 1)
	go func() {
		for _, spec := range specs {
			if _, err := sup.Start(spec); err != nil {
				startErr <- err
				program.Quit()
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, runErr := program.Run()
	sup.Shutdown()
	logging.CloseChannel()

	select {
	case err := <-startErr:
		// A start interrupted by the user quitting is a clean exit, not
		// a failure.
		if !errors.Is(err, forward.ErrStartAborted) {
			return err
		}
	default:
	}
	return runErr
}
