package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testRegistry() *Registry {
	// no node fallback so results do not depend on the machine
	return DefaultRegistry(&ModuleEvaluator{Environ: func() []string { return []string{"DEPLOY_HOST=from-env"} }})
}

func TestRegistryLookup(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		path   string
		format Format
		ok     bool
	}{
		{"/p/.deployrc", FormatRC, true},
		{"/p/.deployrc.js", FormatModule, true},
		{"/p/deploy.toml", FormatTOML, true},
		{"/p/ecosystem.config.js", FormatModule, true},
		{"/p/ecosystem.config.mjs", FormatModule, true},
		{"/p/ecosystem.json", FormatJSON, true},
		{"/p/deploy.yml", FormatYAML, true},
		{"/p/deploy.ini", FormatINI, true},
		{"/p/deploy.txt", "", false},
		{"/p/deployrc", "", false},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			l, ok := r.Lookup(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, l.Format)
		})
	}
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{".deployrc", `{
  // staging box
  "staging": { "host": "h", /* inline */ "user": "deploy", },
}`},
		{"deploy.json", `{"staging": {"host": "h", "user": "deploy"}}`},
		{"deploy.toml", "[staging]\nhost = \"h\"\nuser = \"deploy\"\n"},
		{"deploy.yaml", "staging:\n  host: h\n  user: deploy\n"},
		{"deploy.ini", "user = deploy\n\n[staging]\nhost = h\n"},
		{"rc-ini/.deployrc", "[staging]\nhost = h\nuser = deploy\n"},
		{"rc-ini-defaults/.deployrc", "; shared\nuser = deploy\n\n[staging]\nhost = h\n"},
		{"deploy.js", `module.exports = { staging: { host: "h", user: "deploy" } };`},
		{"deploy.mjs", `export default { staging: { host: "h", user: "deploy" } };`},
	}

	r := testRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.content)

			src, data, err := r.Load(path)
			require.NoError(t, err)
			assert.Equal(t, path, src.Path)

			cfg := toRawConfig(data)
			require.Contains(t, cfg, "staging")
			assert.Equal(t, []string{"h"}, cfg["staging"].Hosts())
			assert.Equal(t, "deploy", cfg["staging"]["user"])
		})
	}
}

func TestLoadModuleSeesProcessEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".deployrc.js", `
var host = process.env.DEPLOY_HOST;
module.exports = function () {
  return { production: { host: host, ref: "origin/main" } };
};`)

	_, data, err := testRegistry().Load(path)
	require.NoError(t, err)

	cfg := toRawConfig(data)
	assert.Equal(t, []string{"from-env"}, cfg["production"].Hosts())
	assert.Equal(t, "origin/main", cfg["production"].Ref())
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{".deployrc", `{"staging": {"host": "h"`},
		{"unbraced/.deployrc", `"staging": {"host": "h"}`},
		{"yaml-ish/.deployrc", `staging: {host: "h"}`},
		{"array/.deployrc", `["staging"]`},
		{"no-section/.deployrc", "; defaults only\nhost = h\n"},
		{"deploy.json", `{"staging": }`},
		{"deploy.toml", "[staging\nhost = h"},
		{"deploy.yaml", "staging: [unclosed"},
		{"deploy.js", `module.exports = { staging: `},
		{"array.js", `module.exports = ["staging"];`},
	}

	r := testRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.content)

			_, _, err := r.Load(path)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, path, pe.Path)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Contains(t, err.Error(), "malformed configuration file")
		})
	}
}

func TestLoadUnsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "deploy.txt", "staging")

	_, _, err := testRegistry().Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRegisterAddsLoaderAfterDefaults(t *testing.T) {
	r := testRegistry()
	r.Register(Loader{
		Format: "custom",
		Match:  hasExt(".txt"),
		Parse: func(string, []byte) (map[string]any, error) {
			return map[string]any{"staging": map[string]any{"host": "h"}}, nil
		},
	})
	path := writeFile(t, t.TempDir(), "deploy.txt", "anything")

	src, data, err := r.Load(path)
	require.NoError(t, err)
	assert.Equal(t, Format("custom"), src.Format)
	assert.Contains(t, data, "staging")
}
