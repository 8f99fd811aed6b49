package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/babelcloud/rscli/config"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

// runCommand executes the command tree against the mock driver and captures its
// output.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("RSCLI_DRIVER", "mock")
	t.Setenv("RSCLI_FIXTURES", "")
	t.Setenv("RSCLI_SERIAL", "")
	config.Reset()
	t.Cleanup(config.Reset)

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
