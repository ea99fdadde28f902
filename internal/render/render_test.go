package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "invoice.tmpl")
	outputPath := filepath.Join(dir, "invoice.txt")

	tmpl := "Invoice {{.sequence}} for {{.client_name}}: {{.total_amount}}\n"
	if err := os.WriteFile(templatePath, []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := map[string]any{
		"sequence":     7,
		"client_name":  "ACME Corp",
		"total_amount": "880.00",
	}
	if err := RenderFile(templatePath, outputPath, ctx); err != nil {
		t.Fatalf("RenderFile unexpected error: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	expected := "Invoice 7 for ACME Corp: 880.00\n"
	if string(content) != expected {
		t.Errorf("output = %q, expected %q", content, expected)
	}
}

func TestRenderFile_DayRows(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "rows.tmpl")
	outputPath := filepath.Join(dir, "rows.txt")

	tmpl := "{{range .days}}{{.date}} {{.hours}}\n{{end}}"
	if err := os.WriteFile(templatePath, []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := map[string]any{
		"days": []map[string]any{
			{"date": "2023-03-06", "hours": "8.00"},
			{"date": "2023-03-07", "hours": "6.00"},
		},
	}
	if err := RenderFile(templatePath, outputPath, ctx); err != nil {
		t.Fatalf("RenderFile unexpected error: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if string(content) != "2023-03-06 8.00\n2023-03-07 6.00\n" {
		t.Errorf("output = %q", content)
	}
}

func TestRenderFile_MissingTemplate(t *testing.T) {
	err := RenderFile(filepath.Join(t.TempDir(), "missing.tmpl"), filepath.Join(t.TempDir(), "out.txt"), nil)
	if err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestRunBuildCommand_NoCommand(t *testing.T) {
	if err := RunBuildCommand(context.Background(), nil, "/tmp/out.txt"); err != nil {
		t.Errorf("nil argv should be a no-op, got %v", err)
	}
}

func TestRunBuildCommand(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "invoice.txt")
	if err := os.WriteFile(outputPath, []byte("rendered"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The command runs in the output directory with the base name appended,
	// so this touches both marker.txt and invoice.txt relative to dir.
	marker := filepath.Join(dir, "marker.txt")
	err := RunBuildCommand(context.Background(), []string{"touch", "marker.txt"}, outputPath)
	if err != nil {
		t.Fatalf("RunBuildCommand unexpected error: %v", err)
	}
	if _, statErr := os.Stat(marker); statErr != nil {
		t.Error("build command did not run in the output directory")
	}
}

func TestRunBuildCommand_Failure(t *testing.T) {
	err := RunBuildCommand(context.Background(), []string{"false"}, filepath.Join(t.TempDir(), "out.txt"))
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !strings.Contains(err.Error(), "false") {
		t.Errorf("error %q should name the command", err)
	}
}
