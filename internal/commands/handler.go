package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

const (
	// DefaultTimeout bounds a single command when no WithTimeout is given.
	DefaultTimeout = 30 * time.Second
	// DefaultSlowThreshold marks commands that outlast one panel frame budget.
	DefaultSlowThreshold = 250 * time.Millisecond
)

// HandlerOption configures a Handler.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler runs a command function with message validation, a deadline and
// outcome reporting. It satisfies command.Commander[T].
type Handler[T command.Message] struct {
	exec          command.CommandFunc[T]
	logger        interfaces.Logger
	timeout       time.Duration
	slow          time.Duration
	operation     string
	messageFields func(T) map[string]any
	telemetry     Telemetry[T]
}

// NewHandler wraps fn. It panics when fn is nil.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultTimeout,
		slow:    DefaultSlowThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.telemetry == nil {
		h.telemetry = LogTelemetry[T](h.logger)
	}
	return h
}

// Execute validates msg, then runs the wrapped function under the handler
// deadline. Returned errors carry a go-errors category and text code.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	fields := h.fields(msg)
	logger := logging.WithFields(h.logger, fields)

	if err := command.ValidateMessage(msg); err != nil {
		err = invalidMessage(err)
		h.report(ctx, msg, logger, fields, 0, err, OutcomeRejected)
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		err = contextFailure(err)
		h.report(ctx, msg, logger, fields, 0, err, OutcomeAborted)
		return err
	}

	started := time.Now()
	err := h.exec(ctx, msg)
	outcome := OutcomeApplied
	switch {
	case err != nil:
		err = executionFailure(err)
		outcome = OutcomeFailed
		if TimedOut(err) || ctx.Err() != nil {
			outcome = OutcomeAborted
		}
	case ctx.Err() != nil:
		err = contextFailure(ctx.Err())
		outcome = OutcomeAborted
	}
	h.report(ctx, msg, logger, fields, time.Since(started), err, outcome)
	return err
}

func (h *Handler[T]) fields(msg T) map[string]any {
	fields := map[string]any{"command": command.GetMessageType(msg)}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.messageFields != nil {
		for key, value := range h.messageFields(msg) {
			fields[key] = value
		}
	}
	return fields
}

func (h *Handler[T]) report(ctx context.Context, msg T, logger interfaces.Logger, fields map[string]any, took time.Duration, err error, outcome Outcome) {
	h.telemetry(ctx, msg, TelemetryInfo{
		Command:   command.GetMessageType(msg),
		Operation: h.operation,
		Fields:    fields,
		Duration:  took,
		Slow:      h.slow > 0 && took > h.slow,
		Error:     err,
		Outcome:   outcome,
		Logger:    logger,
	})
}

// WithTimeout overrides DefaultTimeout. Zero or negative disables the deadline.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout < 0 {
			timeout = 0
		}
		h.timeout = timeout
	}
}

// WithSlowThreshold overrides DefaultSlowThreshold. Zero disables slow reports.
func WithSlowThreshold[T command.Message](threshold time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.slow = threshold
	}
}

func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = logging.OrNoOp(logger)
	}
}

// WithOperation names the operation in every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields adds per-message fields to log entries and telemetry.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.messageFields = fn
	}
}

// WithTelemetry replaces LogTelemetry.
func WithTelemetry[T command.Message](fn Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		if fn != nil {
			h.telemetry = fn
		}
	}
}
