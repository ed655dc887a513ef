package commands

import (
	"context"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-microsite/internal/logging"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

const commandModuleRoot = "microsite.commands"

// Outcome classifies a finished command.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
	OutcomeAborted  Outcome = "aborted"
)

// TelemetryInfo is handed to telemetry callbacks after every execution.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	// Slow is set when Duration passed the handler's slow threshold.
	Slow    bool
	Error   error
	Outcome Outcome
	Logger  interfaces.Logger
}

// Telemetry is invoked once per Execute call.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// LogTelemetry reports outcomes on the logger carried in TelemetryInfo,
// falling back to fallback when none is set.
func LogTelemetry[T command.Message](fallback interfaces.Logger) Telemetry[T] {
	fallback = logging.OrNoOp(fallback)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		logger := info.Logger
		if logger == nil {
			logger = logging.WithFields(fallback, info.Fields)
		}
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		switch info.Outcome {
		case OutcomeApplied:
			if info.Slow {
				logger.Warn("command.execute.slow", args...)
				return
			}
			logger.Debug("command.execute.applied", args...)
		case OutcomeRejected:
			logger.Warn("command.execute.rejected", append(args, "error", info.Error)...)
		case OutcomeAborted:
			logger.Warn("command.execute.aborted", append(args, "error", info.Error)...)
		default:
			logger.Error("command.execute.failed", append(args, "error", info.Error)...)
		}
	}
}

// CommandLogger scopes a logger to microsite.commands.<module>.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	return logging.WithFields(logging.ModuleLogger(provider, commandModuleRoot+"."+name), map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
