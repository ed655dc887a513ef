package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-microsite/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "microsite.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger = logger.WithFields(map[string]any{"foo": "bar"})
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, editorModule)

	if len(provider.requested) != 1 || provider.requested[0] != editorModule {
		t.Fatalf("expected module %s, got %v", editorModule, provider.requested)
	}
	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}
	if got := rec.fields[0]["module"]; got != editorModule {
		t.Fatalf("expected module field %s, got %v", editorModule, got)
	}
	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
	if rec.fields[0]["module"] != rootModule {
		t.Fatalf("expected module field %s, got %v", rootModule, rec.fields[0]["module"])
	}
}

func TestRenderLoggerRequestsRenderModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = RenderLogger(provider)
	if len(provider.requested) == 0 || provider.requested[0] != renderModule {
		t.Fatalf("expected render module request, got %v", provider.requested)
	}
}

func TestWithSectionContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	WithSectionContext(rec, "home", " ", "faq")
	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	got := rec.fields[0]
	if got[fieldPageID] != "home" || got[fieldSectionType] != "faq" {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[fieldSectionID]; ok {
		t.Fatalf("expected blank section id to be skipped")
	}
}

func TestContextWithFieldsMerges(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"a": 1})
	ctx = RequestFields(ctx, "req-1", "/api/content")
	fields := ContextFields(ctx)
	if fields["a"] != 1 || fields["request_id"] != "req-1" || fields["route"] != "/api/content" {
		t.Fatalf("unexpected merged fields %v", fields)
	}
	fields["a"] = 2
	if ContextFields(ctx)["a"] != 1 {
		t.Fatalf("expected ContextFields to return a copy")
	}
}
