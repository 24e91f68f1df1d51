package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/gotest"
	"github.com/Iron-Ham/reportlog/internal/plugin"
)

// addReportFlags defines the report log options shared by run and convert.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("report-log", "", "path of the report log file; .gz, .bz2 or .xz compresses it")
	f.String("summary-report-level", "", "write a JSON array of reports at or above this outcome: none, passed, skipped, failed")
	f.Bool("report-log-exclude-logs-on-passed-tests", false, "drop captured log sections from passed tests")
	f.BoolP("verbose", "v", false, "print one line per test")
	f.SetNormalizeFunc(normalizeReportFlag)
}

// normalizeReportFlag accepts --srl for --summary-report-level and
// underscores in place of dashes.
func normalizeReportFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "_", "-")
	if name == "srl" {
		name = "summary-report-level"
	}
	return pflag.NormalizedName(name)
}

// terminalWidth sizes separator lines to the terminal behind w.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return plugin.DefaultWidth
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return plugin.DefaultWidth
}

// runSession hosts one session over src with the report log plugin and
// the progress printer attached, and maps the outcome to an exit status.
func (a *app) runSession(ctx context.Context, cmd *cobra.Command, src gotest.Source) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	rc := cfg.ReportLog

	p, err := plugin.Configure(plugin.Config{
		Path:                rc.Path,
		SummaryLevel:        rc.SummaryLevel,
		ExcludeLogsOnPassed: rc.ExcludeLogsOnPassedTests,
		Version:             rc.Version,
	}, plugin.WithLogger(a.logger), plugin.WithGetenv(a.getenv))
	if err != nil {
		return &ExitError{Code: gotest.ExitUsageError, Err: err}
	}

	bus := event.NewBus()
	if p != nil {
		p.Register(bus)
	}

	out := cmd.OutOrStdout()
	width := terminalWidth(out)
	verbose, _ := cmd.Flags().GetBool("verbose")
	progress := gotest.NewProgress(out, verbose, width)
	progress.Register(bus)

	host := &gotest.Host{Bus: bus, Version: rc.Version, Logger: a.logger}
	res, runErr := host.Run(ctx, src)

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if p != nil {
		p.OnTerminalSummary(plugin.SeparatorWriter{W: out, Width: width})
		if err := p.Unconfigure(); err != nil {
			errs = append(errs, err)
		}
	}
	progress.PrintSummary(res.Summary)

	code := res.ExitStatus
	if len(errs) > 0 && code == gotest.ExitOK {
		code = gotest.ExitInternalError
	}
	if code == gotest.ExitOK {
		return nil
	}
	return &ExitError{Code: code, Err: errors.Join(errs...)}
}
