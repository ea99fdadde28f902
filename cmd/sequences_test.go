package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeIndex(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "clinvoice.index"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSequences_List(t *testing.T) {
	dir, configPath := projectDir(t)
	writeIndex(t, dir, "2 2023-02-01 2023-02-28\n1 2023-01-01 2023-01-31\n")

	stdout, stderr, code := execute(t, "sequences", "-d", dir, "-c", configPath)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, expected 2:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "1  2023-01-01..2023-01-31") {
		t.Errorf("line 0 = %q, expected sequence order", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2  2023-02-01..2023-02-28") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestSequences_Lookup(t *testing.T) {
	dir, configPath := projectDir(t)
	writeIndex(t, dir, "7 2023-03-01 2023-03-31\n")

	stdout, stderr, code := execute(t, "sequences", "7", "-d", dir, "-c", configPath)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "7  2023-03-01..2023-03-31") {
		t.Errorf("stdout = %q", stdout)
	}

	_, stderr, code = execute(t, "sequences", "99", "-d", dir, "-c", configPath)
	if code == 0 {
		t.Fatal("expected nonzero exit code for unknown sequence")
	}
	if !strings.Contains(stderr, "not recorded") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSequences_Empty(t *testing.T) {
	dir, configPath := projectDir(t)

	stdout, stderr, code := execute(t, "sequences", "-d", dir, "-c", configPath)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "No sequences allocated") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestSequences_CorruptIndex(t *testing.T) {
	dir, configPath := projectDir(t)
	writeIndex(t, dir, "this is not an index\n")

	_, stderr, code := execute(t, "sequences", "-d", dir, "-c", configPath)
	if code == 0 {
		t.Fatal("expected nonzero exit code for corrupt index")
	}
	if !strings.Contains(stderr, "corrupt") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSequences_InvalidArgument(t *testing.T) {
	dir, configPath := projectDir(t)

	_, stderr, code := execute(t, "sequences", "abc", "-d", dir, "-c", configPath)
	if code == 0 {
		t.Fatal("expected nonzero exit code")
	}
	if !strings.Contains(stderr, "invalid sequence number") {
		t.Errorf("stderr = %q", stderr)
	}
}
