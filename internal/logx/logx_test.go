package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func TestWithWorkspacePanelAddsFields(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	log := WithWorkspacePanel(ctx, "ws1", "panel1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["workspace"] != "ws1" {
		t.Fatalf("expected workspace field, got %+v", entry)
	}
	if entry["panel"] != "panel1" {
		t.Fatalf("expected panel field, got %+v", entry)
	}
}

func TestContextMarkersSuppressDuplicateFields(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	ctx := ContextWithWorkspaceLogger(context.Background(), logger.With("workspace", "ws1"), "ws1")
	log := WithWorkspace(ctx, "ws1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["workspace"] != "ws1" {
		t.Fatalf("expected single workspace field, got %+v", entry)
	}
}

func TestWithTypeAddsField(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	WithType(logger, "settings").Info("hello")

	entry := capture.firstEntry(t)
	if entry["type"] != "settings" {
		t.Fatalf("expected type field, got %+v", entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
