package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/reportlog/internal/gotest"
)

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Write a report log from a recorded go test -json stream",
		Long: `Replay a stream captured with go test -json, from a file or stdin, and
write it to the report log as if the tests had just run.`,
		Example: `  go test -json ./... > events.json; reportlog convert --report-log report.jsonl events.json
  go test -json ./... | reportlog convert --report-log report.json --srl skipped`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return &ExitError{Code: gotest.ExitUsageError, Err: fmt.Errorf("opening event stream: %w", err)}
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.runSession(ctx, cmd, gotest.ReaderSource{R: in})
		},
	}
	addReportFlags(cmd)
	return cmd
}
