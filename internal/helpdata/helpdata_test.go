package helpdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deployUsage = `
usage() {
  cat <<-EOF

  Usage: deploy [options] <env> [command]

  Options:

    -C, --chdir <path>   change the working directory
    -V, --version        output program version

  Commands:

    setup                run remote setup commands
    revert [n]           revert to [n]th last deployment or 1
    exec|run <cmd>       execute the given <cmd>
    [ref]                deploy to [ref], the 'ref' setting, or latest tag

EOF
}

log() {
  echo "  ○ $@"
}
`

func TestParseUsage(t *testing.T) {
	got := ParseUsage(deployUsage)

	assert.Equal(t, []Command{
		{Name: "setup", Description: "run remote setup commands"},
		{Name: "revert [n]", Description: "revert to [n]th last deployment or 1"},
		{Name: "exec|run <cmd>", Description: "execute the given <cmd>"},
		{Name: "[ref]", Description: "deploy to [ref], the 'ref' setting, or latest tag"},
	}, got)
}

func TestParseUsageWithoutSection(t *testing.T) {
	assert.Empty(t, ParseUsage("Usage: deploy <env>\n"))
}

func TestMarshalRoundTripsThroughLoadFormat(t *testing.T) {
	in := Table{Version: "9.9.9", Commands: []Command{{Name: "[ref]", Description: "deploy"}}}

	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DO NOT EDIT")

	out, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadEmbedded(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, table.Version)
	require.NotEmpty(t, table.Commands)
	assert.Equal(t, "setup", table.Commands[0].Name)
}
