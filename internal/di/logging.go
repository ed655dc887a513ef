package di

import (
	"strings"

	"github.com/goliatone/go-microsite/internal/logging/console"
	"github.com/goliatone/go-microsite/internal/logging/gologger"
	"github.com/goliatone/go-microsite/internal/runtimeconfig"
	"github.com/goliatone/go-microsite/pkg/interfaces"
)

// LoggerProviderFromConfig builds the console or go-logger provider named by cfg.
func LoggerProviderFromConfig(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	default:
		level := console.ParseLevel(cfg.Level)
		return console.NewProvider(console.Options{
			MinLevel: &level,
			Color:    cfg.Color,
		}), nil
	}
}
