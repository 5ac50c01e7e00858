package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"pkt.systems/atelier/bootstrap"
)

func TestPrintTypes(t *testing.T) {
	entries := []bootstrap.PanelEntry{
		{Key: "welcome", Title: "Welcome", RenderTarget: "builtin:welcome"},
		{Key: "settings", Title: "Settings", RenderTarget: "builtin:settings", Section: true},
	}
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := printTypes(cmd, entries); err != nil {
		t.Fatalf("print types: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "welcome") || strings.Contains(lines[1], "yes") {
		t.Fatalf("unexpected welcome row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "settings") || !strings.Contains(lines[2], "yes") {
		t.Fatalf("unexpected settings row: %q", lines[2])
	}
}
