package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DeployKey nests the deploy configuration inside process-manager ecosystem files.
const DeployKey = "deploy"

// Unbounded lets the search walk up to the filesystem root.
const Unbounded = -1

// Candidates lists the file names searched for, in precedence order.
var Candidates = []string{
	".deployrc",
	".deployrc.js",
	"deploy.toml",
	"ecosystem.config.js",
	"ecosystem.config.mjs",
	"ecosystem.json",
}

// Locator finds and loads the deployment configuration.
type Locator struct {
	// Dir is where the search starts and relative paths are resolved from.
	Dir string
	// MaxDepth bounds the number of parent directories visited; Unbounded
	// walks to the filesystem root.
	MaxDepth int
	Loaders  *Registry
}

func NewLocator(dir string, maxDepth int, loaders *Registry) *Locator {
	return &Locator{Dir: dir, MaxDepth: maxDepth, Loaders: loaders}
}

// Locate loads explicitPath when given, otherwise searches for the first
// candidate file from Dir upward. Finding nothing is not an error; the
// returned Located is then zero.
func (l *Locator) Locate(explicitPath string) (Located, error) {
	if explicitPath != "" {
		return l.loadExplicit(explicitPath)
	}

	path, ok, err := l.search()
	if err != nil || !ok {
		return Located{}, err
	}
	return l.load(path)
}

func (l *Locator) loadExplicit(path string) (Located, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.Dir, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return Located{}, &NotFoundError{Path: path}
	}
	if err != nil {
		return Located{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if _, ok := l.Loaders.Lookup(path); !ok {
		return Located{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return l.load(path)
}

// search walks from Dir toward the root, checking every candidate in a
// directory before moving to its parent.
func (l *Locator) search() (string, bool, error) {
	dir, err := filepath.Abs(l.Dir)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", l.Dir, err)
	}

	for depth := 0; ; depth++ {
		for _, name := range Candidates {
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				configLogger.Debug("using %s", path)
				return path, true, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("stat %s: %w", path, err)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir || (l.MaxDepth != Unbounded && depth >= l.MaxDepth) {
			return "", false, nil
		}
		dir = parent
	}
}

func (l *Locator) load(path string) (Located, error) {
	src, data, err := l.Loaders.Load(path)
	if err != nil {
		return Located{}, err
	}
	if IsEcosystem(path) {
		nested, _ := asObject(data[DeployKey])
		data = nested
	}
	return Located{Source: src, Data: toRawConfig(data)}, nil
}

// IsEcosystem reports whether path is a process-manager ecosystem file.
func IsEcosystem(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "ecosystem.")
}
