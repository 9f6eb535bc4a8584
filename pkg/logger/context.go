package logger

import (
	"context"
	"log/slog"
)

type languageKey struct{}

// WithLanguage stores the language being processed in ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFromContext returns the language stored by WithLanguage.
func LanguageFromContext(ctx context.Context) (string, bool) {
	lang, ok := ctx.Value(languageKey{}).(string)
	return lang, ok && lang != ""
}

// LanguageExtractor adds a "language" attribute when the context carries one.
func LanguageExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		lang, ok := LanguageFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("language", lang), true
	}
}

type requestIDKey struct{}

// WithRequestID stores the request ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestIDExtractor adds a "request_id" attribute when the context carries one.
func RequestIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := RequestIDFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}
