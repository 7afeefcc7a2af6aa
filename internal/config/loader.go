package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Loader turns the contents of one kind of config file into plain data.
type Loader struct {
	Format Format
	Match  func(path string) bool
	Parse  func(path string, data []byte) (map[string]any, error)
}

// Registry holds loaders in registration order; the first match wins.
type Registry struct {
	loaders []Loader
}

func NewRegistry(loaders ...Loader) *Registry {
	return &Registry{loaders: loaders}
}

// DefaultRegistry returns the loaders for every supported format. Modules are
// evaluated with js.
func DefaultRegistry(js *ModuleEvaluator) *Registry {
	return NewRegistry(
		Loader{Format: FormatRC, Match: isRCFile, Parse: parseRC},
		Loader{Format: FormatTOML, Match: hasExt(".toml"), Parse: parseTOML},
		Loader{Format: FormatJSON, Match: hasExt(".json"), Parse: parseJSONC},
		Loader{Format: FormatModule, Match: hasExt(".js", ".mjs", ".cjs"), Parse: js.Evaluate},
		Loader{Format: FormatYAML, Match: hasExt(".yaml", ".yml"), Parse: parseYAML},
		Loader{Format: FormatINI, Match: hasExt(".ini"), Parse: parseINI},
	)
}

// Register appends a loader after the existing ones.
func (r *Registry) Register(l Loader) {
	r.loaders = append(r.loaders, l)
}

// Lookup returns the first loader matching path.
func (r *Registry) Lookup(path string) (Loader, bool) {
	for _, l := range r.loaders {
		if l.Match(path) {
			return l, true
		}
	}
	return Loader{}, false
}

// Load reads and parses path. Parser failures come back as *ParseError.
func (r *Registry) Load(path string) (Source, map[string]any, error) {
	l, ok := r.Lookup(path)
	if !ok {
		return Source{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Source{}, nil, fmt.Errorf("read %s: %w", path, err)
	}
	data, err := l.Parse(path, raw)
	if err != nil {
		if _, isParse := err.(*ParseError); isParse {
			return Source{}, nil, err
		}
		return Source{}, nil, &ParseError{Path: path, Underlying: err}
	}
	if data == nil {
		data = map[string]any{}
	}
	return Source{Path: path, Format: l.Format}, data, nil
}

func hasExt(exts ...string) func(string) bool {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}

// isRCFile matches hidden files ending in "rc" with no further extension, e.g. .deployrc
func isRCFile(path string) bool {
	base := filepath.Base(path)
	return len(base) > 3 &&
		strings.HasPrefix(base, ".") &&
		strings.HasSuffix(base, "rc") &&
		!strings.Contains(base[1:], ".")
}

var (
	iniSectionLine = regexp.MustCompile(`^\[[A-Za-z0-9_.-]+\]$`)
	iniKeyLine     = regexp.MustCompile(`^[A-Za-z0-9_.-]+\s*=`)
)

// parseRC reads INI when the first significant line is a bare [section]
// header or key = value pair, and JSON-with-comments otherwise.
func parseRC(path string, data []byte) (map[string]any, error) {
	if looksLikeINI(data) {
		return parseINI(path, data)
	}
	return parseJSONC(path, data)
}

func looksLikeINI(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		return iniSectionLine.MatchString(line) || iniKeyLine.MatchString(line)
	}
	return false
}

func parseJSONC(path string, data []byte) (map[string]any, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(stripped, &out); err != nil {
		return nil, &ParseError{Path: path, Underlying: err}
	}
	return out, nil
}

func parseTOML(path string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{Path: path, Underlying: err}
	}
	return out, nil
}

func parseYAML(path string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{Path: path, Underlying: err}
	}
	return out, nil
}

// parseINI maps sections to environments. Keys of the unnamed default
// section apply to every environment that does not set them itself.
func parseINI(path string, data []byte) (map[string]any, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, &ParseError{Path: path, Underlying: err}
	}

	defaults := f.Section(ini.DefaultSection).KeysHash()
	if len(f.Sections()) == 1 && len(defaults) > 0 {
		return nil, &ParseError{Path: path, Underlying: errors.New("keys outside of any [environment] section")}
	}
	out := make(map[string]any)
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		env := make(map[string]any, len(defaults))
		for k, v := range defaults {
			env[k] = v
		}
		for _, key := range section.Keys() {
			env[key.Name()] = key.Value()
		}
		out[section.Name()] = env
	}
	return out, nil
}
