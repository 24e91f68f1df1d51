package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/reportlog/internal/gotest"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [-- go test flags and packages]",
		Short: "Run go test and write a report log",
		Long: `Run go test -json with the given arguments and write the session to the
report log. Arguments after -- are passed to go test unchanged; without
any, ./... is tested.

The exit code is the session exit status: 0 all passed, 1 tests failed,
2 interrupted, 3 internal error, 4 usage error, 5 no tests collected.`,
		Example: `  reportlog run --report-log report.jsonl -- -race ./...
  reportlog run --report-log failures.json.gz --srl failed -- ./pkg/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"./..."}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := &gotest.Runner{Args: args, Stderr: cmd.ErrOrStderr(), Logger: a.logger}
			return a.runSession(ctx, cmd, runner)
		},
	}
	addReportFlags(cmd)
	return cmd
}
