package cqtscope

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertOutputContains runs command with os.Stdout redirected to a
// pipe and asserts the captured output contains expectedSubstring.
// Used by cmd-level tests that exercise the CLI's printed diagnostics
// without spawning a subprocess.
func AssertOutputContains(t *testing.T, command func(), expectedSubstring string) {
	t.Helper()

	oldStdout := os.Stdout
	defer func() { os.Stdout = oldStdout }()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	command()

	require.NoError(t, w.Close())
	os.Stdout = oldStdout

	outputBytes, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Contains(t, string(outputBytes), expectedSubstring)
}
