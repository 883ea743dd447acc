package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/expectree/internal/codec"
	"github.com/solatis/expectree/internal/types"
)

const treeYAML = `version: 1
root:
  type: AND
  left:
    type: EXPECTATION
    id: adult
    spec: {kind: field, path: user.age, op: gte, type: numeric, value: 18}
    metadata: {alias: user.adult}
  right:
    type: EXPECTATION
    id: admin
    spec: {kind: cel, expr: "'admin' in facts.user.roles"}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEvalCommand(t *testing.T) {
	dir := t.TempDir()
	treePath := writeFile(t, dir, "tree.yaml", treeYAML)
	factsPath := writeFile(t, dir, "facts.yaml", "user:\n  age: 30\n  roles: [admin]\n")
	outPath := filepath.Join(dir, "out.json")

	out, err := run(t, "eval", treePath, "--facts", factsPath, "--output", "json", "--write", outPath, "--strict")
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}
	var report Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("bad report %q: %v", out, err)
	}
	if report.Status != types.StatusPassed || report.Summary == nil || report.Summary.Passed != 2 {
		t.Errorf("report = %+v", report)
	}

	doc, err := codec.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if doc.Statuses["adult"] != types.StatusPassed || doc.Statuses["admin"] != types.StatusPassed {
		t.Errorf("written statuses = %v", doc.Statuses)
	}
}

func TestEvalCommand_SetAndStrict(t *testing.T) {
	dir := t.TempDir()
	treePath := writeFile(t, dir, "tree.yaml", treeYAML)

	out, err := run(t, "eval", treePath, "--facts", "", "--write", "", "--output", "text",
		"--set", "user.adult=failed", "--strict")
	if !errors.Is(err, errNotFulfilled) {
		t.Errorf("eval error = %v, want errNotFulfilled", err)
	}
	if !strings.Contains(out, "ROOT [status=FAILED]") || !strings.Contains(out, "admin | kind=cel | status=SKIPPED") {
		t.Errorf("eval output =\n%s", out)
	}

	if _, err := run(t, "eval", treePath, "--output", "text", "--strict=false", "--set", "nobody=passed"); !errors.Is(err, types.ErrUnknownNode) {
		t.Errorf("eval error = %v, want ErrUnknownNode", err)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", treeYAML)
	bad := writeFile(t, dir, "bad.yaml", strings.Replace(treeYAML, "op: gte", "op: like", 1))

	if out, err := run(t, "validate", good); err != nil || !strings.Contains(out, "2 leaves") {
		t.Errorf("validate good = %q, %v", out, err)
	}
	if _, err := run(t, "validate", bad); err == nil {
		t.Error("validate accepted an unknown operator")
	}
}
