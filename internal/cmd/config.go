package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/reportlog/internal/config"
	"github.com/Iron-Ham/reportlog/internal/format"
)

// settableKeys lists the keys `config set` accepts and how to parse them.
var settableKeys = map[string]string{
	"report_log.path":                         "string",
	"report_log.summary_level":                "level",
	"report_log.exclude_logs_on_passed_tests": "bool",
	"report_log.version":                      "string",
	"logging.level":                           "string",
	"logging.file":                            "string",
	"logging.max_size_mb":                     "int",
	"logging.max_backups":                     "int",
	"logging.compress":                        "bool",
}

func (a *app) configCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify reportlog configuration",
		Long: `View or modify reportlog configuration.

Without arguments, displays the current configuration. Every key can also
be set through the environment, e.g. REPORTLOG_REPORT_LOG_PATH.`,
		RunE: a.runConfigShow,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			RunE:  a.runConfigShow,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			RunE:  a.runConfigPath,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create a default config file",
			RunE:  a.runConfigInit,
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value",
			Long: `Set a configuration value in the config file.

Valid keys:
  ` + strings.Join(sortedKeys(settableKeys), "\n  "),
			Args: cobra.ExactArgs(2),
			RunE: a.runConfigSet,
		},
	)
	return configCmd
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (a *app) runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if used := a.v.ConfigFileUsed(); used != "" {
		_, _ = fmt.Fprintf(out, "# config file: %s\n", used)
	} else {
		_, _ = fmt.Fprintln(out, "# config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func (a *app) runConfigPath(cmd *cobra.Command, _ []string) error {
	path := a.v.ConfigFileUsed()
	if path == "" {
		path = config.ConfigFile()
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}

func (a *app) configTarget() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.ConfigFile()
}

func (a *app) runConfigInit(cmd *cobra.Command, _ []string) error {
	configFile := a.configTarget()
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'reportlog config set' to modify values", configFile)
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return err
	}
	content := "# reportlog configuration\n" +
		"# report_log.summary_level: none, passed, skipped or failed\n" +
		"# logging.level: debug, info, warn or error\n" +
		string(data)
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func (a *app) runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	keyType, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'reportlog config set --help' to see valid keys", key)
	}

	var typedValue any
	switch keyType {
	case "level":
		if _, err := format.ParseLevel(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		typedValue = strings.ToLower(value)
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected an integer", key)
		}
		typedValue = n
	default:
		typedValue = value
	}

	a.v.Set(key, typedValue)
	if _, err := config.LoadFrom(a.v); err != nil {
		return err
	}

	configFile := a.configTarget()
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := a.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	_, _ = fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}
