package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deploycli/internal/helpdata"
)

const script = `
  Commands:

    setup                run remote setup commands
    [ref]                deploy to [ref], the 'ref' setting, or latest tag

EOF
`

func TestGenWritesTable(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "deploy")
	pkgPath := filepath.Join(dir, "package.json")
	outPath := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0644))
	require.NoError(t, os.WriteFile(pkgPath, []byte(`{"name": "pm2-deploy", "version": "1.0.2"}`), 0644))

	cmd := newGenCmd()
	cmd.SetArgs([]string{"--script", scriptPath, "--package", pkgPath, "--out", outPath})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	table, err := helpdata.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "1.0.2", table.Version)
	assert.Equal(t, []helpdata.Command{
		{Name: "setup", Description: "run remote setup commands"},
		{Name: "[ref]", Description: "deploy to [ref], the 'ref' setting, or latest tag"},
	}, table.Commands)
}

func TestGenRejectsScriptWithoutCommands(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "deploy")
	require.NoError(t, os.WriteFile(scriptPath, []byte("usage: deploy <env>\n"), 0644))

	err := generate(scriptPath, filepath.Join(dir, "package.json"), filepath.Join(dir, "out.yaml"))
	assert.ErrorContains(t, err, "no commands section found")
}
