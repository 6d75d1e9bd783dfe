package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/proctree/pkg/config"
	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/pipeline"
)

// isolate points config and cache lookups at empty temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

// execute runs the root command with args and returns what it wrote to Out.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.Out = &out
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

const forkGraph = `{
  "nodes": [{"id": "init"}, {"id": "sshd"}, {"id": "cron"}],
  "edges": [{"from": "init", "to": "sshd"}, {"from": "init", "to": "cron"}]
}`

// =============================================================================
// Paths
// =============================================================================

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir(nil)
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirConfigured(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	cfg := &config.Config{Cache: config.CacheConfig{Dir: "/srv/proctree"}}
	dir, err := cacheDir(cfg)
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != "/srv/proctree" {
		t.Errorf("cacheDir() = %q, want the configured directory", dir)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, ext string
		want               string
	}{
		{"graphs/ps.json", "", "tree.svg", "graphs/ps.tree.svg"},
		{"graphs/ps.toml", "", "tree.json", "graphs/ps.tree.json"},
		{"report.pdf", "", "txt", "report.txt"},
		{"report.pdf", "out.txt", "txt", "out.txt"},
		{"report.pdf", "-", "json", "-"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.ext); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.input, tt.output, tt.ext, got, tt.want)
		}
	}
}

// =============================================================================
// Commands
// =============================================================================

func TestTreeCommand(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "ps.json")
	writeFile(t, input, forkGraph)

	if _, err := execute(t, "tree", input, "--no-cache"); err != nil {
		t.Fatalf("tree error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "ps.tree.json"))
	if err != nil {
		t.Fatal(err)
	}
	var out pipeline.TreeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	want := map[string]string{"sshd": "init", "cron": "init"}
	if diff := cmp.Diff(want, out.Parents); diff != "" {
		t.Errorf("parents mismatch (-want +got):\n%s", diff)
	}
	if !out.Fitted {
		t.Error("Fitted = false, want true")
	}
}

func TestTreeCommandStdout(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "ps.json")
	writeFile(t, input, forkGraph)

	out, err := execute(t, "tree", input, "-f", "svg", "-o", "-", "--no-cache", "--width", "400", "--height", "300")
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}
	if !strings.Contains(out, "<svg") || !strings.Contains(out, `width="400"`) {
		t.Errorf("svg output = %q", out)
	}
}

func TestTreeCommandConfig(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "ps.json")
	writeFile(t, input, `{"nodes": [{"id": "a"}, {"id": "b"}], "edges": []}`)
	writeFile(t, filepath.Join(dir, "config", "proctree", config.FileName), "[tree]\nroot_policy = \"single\"\n")

	_, err := execute(t, "tree", input, "-o", "-", "--no-cache")
	if !perrors.Is(err, perrors.ErrCodeMultipleRoots) {
		t.Errorf("tree error = %v, want MULTIPLE_ROOTS from the config file", err)
	}

	// Flags override the file.
	if _, err := execute(t, "tree", input, "-o", "-", "--no-cache", "--root-policy", "virtual"); err != nil {
		t.Errorf("tree --root-policy virtual error = %v", err)
	}
}

func TestTreeCommandErrors(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "tree", filepath.Join(dir, "missing.json"))
	if !perrors.Is(err, perrors.ErrCodeFileNotFound) {
		t.Errorf("missing input error = %v, want FILE_NOT_FOUND", err)
	}

	input := filepath.Join(dir, "ps.json")
	writeFile(t, input, forkGraph)
	_, err = execute(t, "tree", input, "-f", "png")
	if !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("bad format error = %v, want INVALID_FORMAT", err)
	}
	_, err = execute(t, "tree", input, "--guard", "full", "--no-cache")
	if !perrors.IsInvalid(err) {
		t.Errorf("bad guard error = %v, want an INVALID_* code", err)
	}
}

func TestFitCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "fit", "0", "0", "100", "100", "--width", "200", "--height", "100")
	if err != nil {
		t.Fatalf("fit error = %v", err)
	}
	if want := "translate(57.5,7.5) scale(0.85)\n"; out != want {
		t.Errorf("fit output = %q, want %q", out, want)
	}

	out, err = execute(t, "fit", "5", "5", "0", "10", "--json")
	if err != nil {
		t.Fatalf("fit error = %v", err)
	}
	var res fitResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Fitted || res.SVG != "translate(0,0) scale(1)" {
		t.Errorf("degenerate fit = %+v, want identity", res)
	}

	if _, err := execute(t, "fit", "0", "0", "wide", "10"); !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("bad box error = %v, want INVALID_INPUT", err)
	}
}

func TestExtractCommandRejectsGarbage(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "notes.pdf")
	writeFile(t, input, "this is not a pdf")

	for _, backend := range []string{"fragments", "rows"} {
		_, err := execute(t, "extract", input, "--backend", backend, "--no-cache")
		if !perrors.Is(err, perrors.ErrCodeDocumentOpen) {
			t.Errorf("%s: extract error = %v, want DOCUMENT_OPEN", backend, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); !os.IsNotExist(err) {
		t.Error("failed extraction wrote an output file")
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error = %v", err)
	}
	if want := filepath.Join(dir, "cache", appName) + "\n"; out != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	writeFile(t, filepath.Join(dir, "config", "proctree", config.FileName), "[cache]\nbackend = \"redis\"\nredis_addr = \"cache:6380\"\n")
	out, err = execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error = %v", err)
	}
	if out != "redis://cache:6380/0\n" {
		t.Errorf("cache path = %q", out)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "ps.json")
	writeFile(t, input, forkGraph)

	if _, err := execute(t, "tree", input, "-o", "-"); err != nil {
		t.Fatalf("tree error = %v", err)
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "cache", appName, "*", "*.json"))
	if len(entries) == 0 {
		t.Fatal("tree run left no cache entries")
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	entries, _ = filepath.Glob(filepath.Join(dir, "cache", appName, "*", "*.json"))
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}
