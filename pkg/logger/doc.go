// Package logger builds the structured loggers used across localesync.
//
// Loggers are plain *slog.Logger values. New writes JSON to stdout and
// decorates every record with attributes pulled from the context by
// ContextExtractor functions. NewWithSentry additionally ships warnings and
// errors to Sentry when a DSN is configured.
//
//	log := logger.New(logger.Config{Level: "debug"}, logger.LanguageExtractor())
//	ctx := logger.WithLanguage(ctx, "sl")
//	log.InfoContext(ctx, "bundle refreshed") // {"msg":"bundle refreshed","language":"sl",...}
//
// NewNope returns a logger that discards everything; components use it when
// no logger is configured.
package logger
