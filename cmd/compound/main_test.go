package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunPrintsResult(t *testing.T) {
	out, err := execute(t, "run", "testdata/widget.yaml", "greet", "ada")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := strings.TrimSpace(out); got != "hello ada" {
		t.Fatalf("unexpected stdout: %q", got)
	}
}

func TestRunForwardsAcrossParts(t *testing.T) {
	out, err := execute(t, "run", "testdata/widget.yaml", "shout")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := strings.TrimSpace(out); got != "foo!" {
		t.Fatalf("unexpected stdout: %q", got)
	}
}

func TestRunUnknownOperation(t *testing.T) {
	_, err := execute(t, "run", "testdata/widget.yaml", "secret")
	if err == nil {
		t.Fatalf("expected error for private operation")
	}
	if !strings.Contains(err.Error(), "undefined operation") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRequiresHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lone.yaml")
	if err := os.WriteFile(path, []byte("modules:\n  - name: Lone\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	_, err := execute(t, "run", path, "anything")
	if err == nil || !strings.Contains(err.Error(), "declares no host") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRequiresArgs(t *testing.T) {
	if _, err := execute(t, "run", "testdata/widget.yaml"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestUnknownLogFormat(t *testing.T) {
	_, err := execute(t, "--log-format", "xml", "run", "testdata/widget.yaml", "foo")
	if err == nil || !strings.Contains(err.Error(), "unknown log format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInspectRendersTables(t *testing.T) {
	out, err := execute(t, "inspect", "testdata/widget.yaml")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Ancestors", "Parts", "Resolution", "Widget", "shout", "greet", "Base"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestParseArg(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"42", 42},
		{"3.5", 3.5},
		{"true", true},
		{"nil", nil},
		{`"42"`, "42"},
		{"word", "word"},
	}
	for _, tc := range cases {
		if got := parseArg(tc.in); got != tc.want {
			t.Fatalf("parseArg(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestResolvableNamesSkipPrivate(t *testing.T) {
	set, err := loadSet("testdata/widget.yaml", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	names := resolvableNames(set.Host)
	want := []string{"bar", "foo", "greet", "name", "recall", "remember", "reveal", "shout"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected names %v", names)
	}
}
