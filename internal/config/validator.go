package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/reportlog/internal/format"
	"github.com/Iron-Ham/reportlog/internal/logging"
)

// ValidationError describes one setting that failed validation.
type ValidationError struct {
	Field   string // dotted key, e.g. "report_log.summary_level"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is returned by LoadFrom when any setting is invalid.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	lines := make([]string, 0, len(e)+1)
	lines = append(lines, fmt.Sprintf("%d invalid settings:", len(e)))
	for _, err := range e {
		lines = append(lines, "  - "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// ValidLogLevels lists the accepted logging.level values in lower case.
func ValidLogLevels() []string {
	levels := logging.ValidLevels()
	for i, l := range levels {
		levels[i] = strings.ToLower(l)
	}
	return levels
}

// maxLogSizeMB caps logging.max_size_mb.
const maxLogSizeMB = 1000

// Validate runs every check and returns the failures, nil when the
// config is valid.
func (c *Config) Validate() []ValidationError {
	var v validation
	c.validateReportLog(&v)
	c.validateLogging(&v)
	return v.errs
}

// validation collects failed checks in order.
type validation struct {
	errs []ValidationError
}

func (v *validation) check(ok bool, field string, value any, message string) {
	if !ok {
		v.errs = append(v.errs, ValidationError{Field: field, Value: value, Message: message})
	}
}

func (c *Config) validateReportLog(v *validation) {
	r := c.ReportLog
	_, err := format.ParseLevel(r.SummaryLevel)
	v.check(err == nil, "report_log.summary_level", r.SummaryLevel,
		"must be one of: "+strings.Join(format.ValidLevels(), ", "))
	v.check(!strings.HasSuffix(r.Path, "/"), "report_log.path", r.Path, "must name a file, not a directory")
}

func (c *Config) validateLogging(v *validation) {
	l := c.Logging
	v.check(l.Level == "" || slices.Contains(ValidLogLevels(), strings.ToLower(l.Level)), "logging.level", l.Level,
		"must be one of: "+strings.Join(ValidLogLevels(), ", "))
	v.check(l.MaxSizeMB > 0, "logging.max_size_mb", l.MaxSizeMB, "must be positive")
	v.check(l.MaxSizeMB <= maxLogSizeMB, "logging.max_size_mb", l.MaxSizeMB, fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB))
	v.check(l.MaxBackups >= 0, "logging.max_backups", l.MaxBackups, "must be non-negative")
}
