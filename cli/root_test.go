package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dorkmail/lib"
)

func TestRootCommand_Flags(t *testing.T) {
	s := newSite(t, false)
	dir := t.TempDir()

	var out bytes.Buffer
	cmd := NewRootCommand(s.runner(&out))
	cmd.SetArgs([]string{
		"--domain", "Example.com",
		"--no-pin",
		"--max-results", "2",
		"--output-folder", filepath.Join(dir, "pages"),
		"--log-file", filepath.Join(dir, "dorkmail.log"),
		"--timeout", "5s",
	})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Found 2 email(s)")
	assert.FileExists(t, filepath.Join(dir, "pages", "page_2.html"))
	assert.NoFileExists(t, filepath.Join(dir, "pages", "page_3.html"))
}

func TestRootCommand_MissingDomain(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand(&Runner{Out: &out})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--no-pin"})

	err := cmd.Execute()
	require.ErrorIs(t, err, lib.ErrMissingDomain)
}

func TestRootCommand_InvalidPin(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand(&Runner{Out: &out})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--domain", "example.com", "--pin", "not-hex"})

	require.Error(t, cmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand(&Runner{Out: &out})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "dorkmail version "+Version)
}
