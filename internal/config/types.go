package config

import "sort"

// Format identifies the parser a configuration file is read with
type Format string

const (
	FormatJSON   Format = "json"
	FormatTOML   Format = "toml"
	FormatModule Format = "module"
	FormatRC     Format = "rc"
	FormatYAML   Format = "yaml"
	FormatINI    Format = "ini"
)

// Recognized environment keys. Anything else is handed to pm2 untouched.
const (
	KeyRef        = "ref"
	KeyRepo       = "repo"
	KeyHost       = "host"
	KeyPath       = "path"
	KeyPostDeploy = "post-deploy"
)

// Source is a configuration file that exists and has a loader
type Source struct {
	Path   string
	Format Format
}

// EnvironmentSpec holds the settings of one deployment target.
type EnvironmentSpec map[string]any

// RawConfig maps environment names to their settings.
type RawConfig map[string]EnvironmentSpec

// Located is the result of a config search. The zero value means nothing was found.
type Located struct {
	Source Source
	Data   RawConfig
}

// Found reports whether a configuration file was located.
func (l Located) Found() bool {
	return l.Source.Path != ""
}

func (e EnvironmentSpec) str(key string) string {
	if s, ok := e[key].(string); ok {
		return s
	}
	return ""
}

func (e EnvironmentSpec) Ref() string        { return e.str(KeyRef) }
func (e EnvironmentSpec) Repo() string       { return e.str(KeyRepo) }
func (e EnvironmentSpec) PostDeploy() string { return e.str(KeyPostDeploy) }

// Hosts returns the deployment target hosts; host may be a string or a list.
func (e EnvironmentSpec) Hosts() []string {
	switch v := e[KeyHost].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		var hosts []string
		for _, h := range v {
			if s, ok := h.(string); ok && s != "" {
				hosts = append(hosts, s)
			}
		}
		return hosts
	}
	return nil
}

// Has reports whether key is set to a non-empty value.
func (e EnvironmentSpec) Has(key string) bool {
	v, ok := e[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// Environments returns the sorted environment names.
func (c RawConfig) Environments() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// toRawConfig converts decoded data into a RawConfig, dropping top-level
// entries that are not objects.
func toRawConfig(data map[string]any) RawConfig {
	cfg := make(RawConfig, len(data))
	for name, v := range data {
		if env, ok := asObject(v); ok {
			cfg[name] = EnvironmentSpec(env)
		}
	}
	return cfg
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case EnvironmentSpec:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
