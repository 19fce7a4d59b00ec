package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	if code != 0 {
		t.Errorf("run(nil) exit code = %d, want 0", code)
	}
	if stdout.Len() == 0 {
		t.Error("expected help output on stdout")
	}
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"nonexistent"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("run(nonexistent) exit code = %d, want 1", code)
	}
}

func TestRootCommand_BadColor(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--color", "sometimes", "version"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "invalid --color value") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestSubcommandRegistration(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)

	expected := []string{
		"download", "extract", "collate", "clean", "lookups", "glyphs", "split",
		"run", "corpora", "convert", "serve", "browse", "publish", "verify",
		"doctor", "config", "version",
	}
	for _, name := range expected {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not found on root command", name)
		}
	}
}

func TestStageCommandsRejectArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)

	for _, name := range []string{"download", "extract", "split", "run"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("Find(%s): %v", name, err)
		}
		if err := cmd.Args(cmd, []string{"extra"}); err == nil {
			t.Errorf("%s should reject arguments", name)
		}
	}
}

func TestLookupsAlias(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)

	cmd, _, err := root.Find([]string{"signlist"})
	if err != nil {
		t.Fatalf("Find(signlist): %v", err)
	}
	if cmd.Name() != "lookups" {
		t.Errorf("signlist resolved to %q, want lookups", cmd.Name())
	}
}

func TestLookupsDownloadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)

	lookups, _, err := root.Find([]string{"lookups"})
	if err != nil {
		t.Fatal(err)
	}
	if f := lookups.Flags().Lookup("download"); f == nil || f.DefValue != "false" {
		t.Errorf("lookups --download = %+v", f)
	}
	extract, _, err := root.Find([]string{"extract"})
	if err != nil {
		t.Fatal(err)
	}
	if extract.Flags().Lookup("download") != nil {
		t.Error("extract should not take --download")
	}
}

func TestRunCommand_BadStage(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := run([]string{"run", "--from", "bake"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), `unknown stage "bake"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 files"},
		{1, "1 file"},
		{3, "3 files"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, "file"); got != tt.want {
			t.Errorf("plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestWithPrefix(t *testing.T) {
	got := withPrefix([]string{"clean", "collate", "download"}, "c")
	if len(got) != 2 || got[0] != "clean" || got[1] != "collate" {
		t.Errorf("withPrefix = %v", got)
	}
}
