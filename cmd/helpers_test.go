package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// execute runs the CLI with the given arguments, capturing output and the
// exit code requested through the injected dependencies. Persistent flag
// values survive between invocations, so tests pass every flag they rely
// on explicitly.
func execute(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	var out, errOut bytes.Buffer
	code := 0
	SetDeps(&Deps{
		Stdout: &out,
		Stderr: &errOut,
		Exit:   func(c int) { code = c },
	})
	defer ResetDeps()

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	// Cobra's internal --version flag sticks across invocations and cannot
	// be passed explicitly by tests that expect default behavior, so reset it.
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	if err := rootCmd.Execute(); err != nil && code == 0 {
		code = 1
	}
	return out.String(), errOut.String(), code
}

// timesheetDir creates a directory holding one timesheet file.
func timesheetDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "march.cli"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// projectDir creates a directory with a timesheet, a configuration file,
// and a text generator template, returning the directory and config path.
func projectDir(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = timesheetDir(t, "2023.03.06\n8h = Development\n2023.03.07\n4h = Review\n")

	configPath = filepath.Join(dir, "clinvoice.toml")
	cfg := `[contract]
hourly_rate = 100.0

[client]
name = "ACME Corp"

[generator.text]
template = "invoice.txt.tmpl"
`
	if err := os.WriteFile(configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	tmpl := "Invoice {{.sequence}} for {{.client_name}}: {{.total_amount}}\n"
	if err := os.WriteFile(filepath.Join(dir, "invoice.txt.tmpl"), []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, configPath
}
