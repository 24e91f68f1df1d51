// Package cmd implements the reportlog command line.
package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/reportlog/internal/config"
	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/gotest"
	"github.com/Iron-Ham/reportlog/internal/logging"
)

// ExitError carries a session exit status out of a command. Err, when set,
// is printed before exiting.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// app is the state shared by one command tree.
type app struct {
	v       *viper.Viper
	cfgFile string
	getenv  func(string) string

	cfg    *config.Config
	cfgErr error
	logger *logging.Logger
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{v: viper.New(), getenv: os.Getenv}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Close()
	}

	var exitErr *ExitError
	switch {
	case err == nil:
		return gotest.ExitOK
	case errors.As(err, &exitErr):
		if exitErr.Err != nil {
			_, _ = fmt.Fprintln(stderr, "Error:", exitErr.Err)
		}
		return exitErr.Code
	default:
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return gotest.ExitUsageError
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reportlog",
		Short: "Write go test sessions to report log files",
		Long: `reportlog runs go test (or replays a recorded go test -json stream) and
writes every session event to a report log file: one JSON object per line,
or with --summary-report-level a single JSON array holding only the reports
at or above the chosen outcome. Paths ending in .gz, .bz2 or .xz are
compressed.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/reportlog/config.yaml)")
	pf.String("log-level", "", "diagnostic log level: debug, info, warn, error")
	pf.String("log-file", "", "write diagnostic logs to a rotating file instead of stderr")

	root.AddCommand(a.runCmd(), a.convertCmd(), a.configCmd())
	return root
}

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = []struct{ flag, key string }{
	{"log-level", "logging.level"},
	{"log-file", "logging.file"},
	{"report-log", "report_log.path"},
	{"summary-report-level", "report_log.summary_level"},
	{"report-log-exclude-logs-on-passed-tests", "report_log.exclude_logs_on_passed_tests"},
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	config.ApplyDefaults(a.v)

	// Bound per invocation: run and convert define the same report flags.
	for _, fk := range flagKeys {
		if f := cmd.Flags().Lookup(fk.flag); f != nil {
			if err := a.v.BindPFlag(fk.key, f); err != nil {
				return err
			}
		}
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(config.ConfigDir())
	}
	config.BindEnv(a.v)

	var readErr error
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case a.cfgFile != "" && errors.Is(err, fs.ErrNotExist):
			// config init and set create it
			readErr = fmt.Errorf("reading config: %w", err)
		default:
			return fmt.Errorf("reading config: %w", err)
		}
	}

	a.cfg, a.cfgErr = config.LoadFrom(a.v)
	if readErr != nil {
		a.cfgErr = readErr
	}

	logCfg := config.Default().Logging
	if a.cfg != nil {
		logCfg = a.cfg.Logging
	}
	logger, err := logging.NewLogger(logCfg.File, logCfg.Level, logCfg.Rotation())
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	a.logger = logger
	a.logger.Debug("configuration loaded", "config_file", a.v.ConfigFileUsed())
	return nil
}

// config returns the validated configuration.
func (a *app) config() (*config.Config, error) {
	if a.cfgErr != nil {
		return nil, &ExitError{Code: gotest.ExitUsageError, Err: a.cfgErr}
	}
	return a.cfg, nil
}
