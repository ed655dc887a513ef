package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-microsite/pkg/interfaces"
)

const (
	rootModule      = "microsite"
	siteModule      = "microsite.site"
	renderModule    = "microsite.render"
	editorModule    = "microsite.editor"
	storageModule   = "microsite.storage"
	uploadsModule   = "microsite.uploads"
	httpModule      = "microsite.http"
	markdownModule  = "microsite.markdown"
	generatorModule = "microsite.generator"
)

const (
	fieldPageID      = "page_id"
	fieldSectionID   = "section_id"
	fieldSectionType = "section_type"
)

// ModuleLogger returns a module scoped logger. A no-op logger is used when
// provider is nil or hands back nothing.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return logger.WithFields(map[string]any{
		"module": module,
	})
}

// SiteLogger returns the logger used by content loading and live state.
func SiteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, siteModule)
}

// RenderLogger returns the logger used by the section dispatcher.
func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

// EditorLogger returns the logger used by the draft store.
func EditorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, editorModule)
}

// StorageLogger returns the logger used by content stores.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// UploadsLogger returns the logger used by the media upload pipeline.
func UploadsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, uploadsModule)
}

// HTTPLogger returns the logger used by HTTP handlers.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// MarkdownLogger returns the logger used by markdown import.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// WithSectionContext enriches logger with page and section identifiers.
// Empty values are skipped.
func WithSectionContext(logger interfaces.Logger, pageID, sectionID, sectionType string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(pageID); trimmed != "" {
		fields[fieldPageID] = trimmed
	}
	if trimmed := strings.TrimSpace(sectionID); trimmed != "" {
		fields[fieldSectionID] = trimmed
	}
	if trimmed := strings.TrimSpace(sectionType); trimmed != "" {
		fields[fieldSectionType] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
