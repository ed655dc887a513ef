package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-microsite/pkg/testsupport"
)

type setTitle struct {
	Title string
}

func (setTitle) Type() string { return "microsite.test.set_title" }

func (m setTitle) Validate() error {
	if m.Title == "" {
		return errors.New("title required")
	}
	return nil
}

func TestHandlerAppliesValidMessage(t *testing.T) {
	logger := testsupport.NewRecordingLogger()
	var got string
	h := NewHandler(func(_ context.Context, msg setTitle) error {
		got = msg.Title
		return nil
	}, WithLogger[setTitle](logger), WithOperation[setTitle]("editor.apply"))

	if err := h.Execute(context.Background(), setTitle{Title: "Rifa"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "Rifa" {
		t.Fatalf("expected the command to run, got %q", got)
	}
	entries := logger.Find("command.execute.applied")
	if len(entries) != 1 {
		t.Fatalf("expected one applied entry, got %d", len(entries))
	}
	if entries[0].Fields["operation"] != "editor.apply" || entries[0].Fields["command"] != "microsite.test.set_title" {
		t.Fatalf("unexpected fields %#v", entries[0].Fields)
	}
}

func TestHandlerRejectsInvalidMessage(t *testing.T) {
	logger := testsupport.NewRecordingLogger()
	called := false
	h := NewHandler(func(context.Context, setTitle) error {
		called = true
		return nil
	}, WithLogger[setTitle](logger))

	err := h.Execute(context.Background(), setTitle{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatalf("invalid messages must not run")
	}
	if len(logger.Find("command.execute.rejected")) != 1 {
		t.Fatalf("expected a rejected entry, got %#v", logger.Entries())
	}
}

func TestHandlerCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outcome Outcome
	h := NewHandler(func(context.Context, setTitle) error {
		t.Fatalf("cancelled commands must not run")
		return nil
	}, WithTelemetry(func(_ context.Context, _ setTitle, info TelemetryInfo) {
		outcome = info.Outcome
	}))

	err := h.Execute(ctx, setTitle{Title: "x"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if TimedOut(err) {
		t.Fatalf("cancellation is not a timeout: %v", err)
	}
	if outcome != OutcomeAborted {
		t.Fatalf("expected aborted outcome, got %q", outcome)
	}
}

func TestHandlerTimeout(t *testing.T) {
	h := NewHandler(func(ctx context.Context, _ setTitle) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithTimeout[setTitle](10*time.Millisecond))

	err := h.Execute(context.Background(), setTitle{Title: "x"})
	if !TimedOut(err) {
		t.Fatalf("expected a timeout, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestHandlerWrapsFailures(t *testing.T) {
	boom := errors.New("boom")
	var info TelemetryInfo
	h := NewHandler(func(context.Context, setTitle) error {
		return boom
	}, WithMessageFields(func(msg setTitle) map[string]any {
		return map[string]any{"title": msg.Title}
	}), WithTelemetry(func(_ context.Context, _ setTitle, got TelemetryInfo) {
		info = got
	}))

	err := h.Execute(context.Background(), setTitle{Title: "x"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if info.Outcome != OutcomeFailed || info.Fields["title"] != "x" {
		t.Fatalf("unexpected telemetry %+v", info)
	}
}

func TestHandlerReportsSlowCommands(t *testing.T) {
	logger := testsupport.NewRecordingLogger()
	h := NewHandler(func(context.Context, setTitle) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}, WithLogger[setTitle](logger), WithSlowThreshold[setTitle](time.Millisecond))

	if err := h.Execute(context.Background(), setTitle{Title: "x"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(logger.Find("command.execute.slow")) != 1 {
		t.Fatalf("expected a slow entry, got %#v", logger.Entries())
	}
}

func TestCommandLoggerScopesModule(t *testing.T) {
	logger := testsupport.NewRecordingLogger()
	CommandLogger(logger.Provider(), "").Info("hello")
	entries := logger.Find("hello")
	if len(entries) != 1 || entries[0].Fields["command_module"] != "core" {
		t.Fatalf("unexpected entries %#v", entries)
	}
}
