// Package logging builds the process logger on log/slog.
//
// # Overview
//
//   - JSON, text and console formats
//   - request ID, client and trace/span IDs taken from the record's context
//   - optional masking of client IP addresses
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithClient(ctx, "203.0.113.7")
//	logger.InfoContext(ctx, "request served", "source", "cache")
//
// With RedactClientIPs the client above is logged as 203.0.113.x.
package logging
