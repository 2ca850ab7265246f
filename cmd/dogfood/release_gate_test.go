// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mangimangi/git-dogfood/pkg/types"
)

func TestReleaseGateCommand_Message(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want string
	}{
		{msg: "feat: add flag", want: "release=true\n"},
		{msg: "chore(dogfood): install git-dogfood v1.0.0", want: "release=false\n"},
		{msg: "\n  chore(dogfood): install git-dogfood v1.0.0", want: "release=false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()

			out, _, code := execute(t, "release-gate", "--message", tt.msg, "--event=", "--github-output=")
			if code != types.ExitSuccess {
				t.Fatalf("exit code = %d", code)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestReleaseGateCommand_Event(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	event := filepath.Join(dir, "event.json")
	payload := `{"ref":"refs/heads/main","head_commit":{"id":"1","message":"chore(dogfood): install git-dogfood v2.0.0"}}`
	if err := os.WriteFile(event, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out")

	out, _, code := execute(t, "release-gate", "--event", event, "--github-output", output)
	if code != types.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if out != "release=false\n" {
		t.Errorf("output = %q", out)
	}
	got, _ := os.ReadFile(output)
	if string(got) != "release=false\n" {
		t.Errorf("step output = %q", got)
	}
}

func TestReleaseGateCommand_NoInput(t *testing.T) {
	t.Parallel()

	_, _, code := execute(t, "release-gate", "--event=", "--github-output=")
	if code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, types.ExitUsage)
	}
}

func TestReleaseGateCommand_BadEvent(t *testing.T) {
	t.Parallel()

	_, _, code := execute(t, "release-gate", "--event", filepath.Join(t.TempDir(), "missing.json"), "--github-output=")
	if code != types.ExitFailure {
		t.Errorf("exit code = %d, want %d", code, types.ExitFailure)
	}
}
