package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

// RenderFile executes the template at templatePath against the context map
// and writes the result to outputPath. The template engine is a black box
// to the core: it receives the flat context and either produces text or
// fails.
func RenderFile(templatePath, outputPath string, ctx map[string]any) error {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", templatePath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return fmt.Errorf("rendering %s: %w", templatePath, err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return nil
}

// RunBuildCommand synchronously invokes the external document build
// command (e.g. pdflatex) in the output file's directory. The rendered
// output path is appended as the final argument. Failure carries the
// command's combined output as the diagnostic.
func RunBuildCommand(ctx context.Context, argv []string, outputPath string) error {
	if len(argv) == 0 {
		return nil
	}

	args := append(append([]string{}, argv[1:]...), filepath.Base(outputPath))
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Dir = filepath.Dir(outputPath)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("build command %s failed: %w\n%s", argv[0], err, out)
	}
	return nil
}
