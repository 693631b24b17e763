// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package logging provides structured logging with OpenTelemetry trace context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// bridgeHandler wraps a slog.Handler to add engine identity and trace context.
type bridgeHandler struct {
	handler slog.Handler
	engine  string
	version string
}

// Handle adds engine identity and trace context to the log record.
func (h *bridgeHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("engine", h.engine),
		slog.String("version", h.version),
	)

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, r)
}

// Enabled returns true if the level is enabled.
func (h *bridgeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes.
func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &bridgeHandler{
		handler: h.handler.WithAttrs(attrs),
		engine:  h.engine,
		version: h.version,
	}
}

// WithGroup returns a new handler with the given group.
func (h *bridgeHandler) WithGroup(name string) slog.Handler {
	return &bridgeHandler{
		handler: h.handler.WithGroup(name),
		engine:  h.engine,
		version: h.version,
	}
}

// Setup creates a configured slog.Logger.
// format: "json" or "text" (defaults to "json" if empty)
// If w is nil, writes to os.Stderr.
func Setup(engine, version, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var baseHandler slog.Handler
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	if format == "text" {
		baseHandler = slog.NewTextHandler(w, opts)
	} else {
		baseHandler = slog.NewJSONHandler(w, opts)
	}

	handler := &bridgeHandler{
		handler: baseHandler,
		engine:  engine,
		version: version,
	}

	return slog.New(handler)
}

// SetDefault sets up and configures the default logger.
func SetDefault(engine, version, format string) {
	logger := Setup(engine, version, format, nil)
	slog.SetDefault(logger)
}
