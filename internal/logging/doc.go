// Package logging provides the diagnostic logger used by reportlog.
//
// It wraps log/slog. Diagnostics never go to the report log itself: they are
// written either as JSON lines to a separate, size-rotated file or to stderr,
// colourised with tint when stderr is a terminal.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/tmp/reportlog.log", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithSession("").WithPath("report.jsonl.gz").Debug("sink opened", "codec", "gzip")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"sink opened","session_id":"4f1c...","path":"report.jsonl.gz","codec":"gzip"}
//
// # Log Rotation
//
// Rotated files are named reportlog.log.1, reportlog.log.2 and so on, where
// .1 is the most recent backup. With RotationConfig.Compress set, backups
// are written through the report log gzip sink and become reportlog.log.1.gz.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWithWriter] to capture it.
package logging
