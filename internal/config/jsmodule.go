package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/robertkrimen/otto"

	"deploycli/internal/logger"
)

var (
	configLogger = logger.PackageLogger("config::")

	exportDefault = regexp.MustCompile(`(?m)^\s*export\s+default\s+`)
)

// evaluatorScript prints the default export of a CommonJS or ES module as JSON.
const evaluatorScript = `
const path = require('path');
const { pathToFileURL } = require('url');

async function load(file) {
  let mod;
  if (file.endsWith('.mjs')) {
    mod = await import(pathToFileURL(file).href);
  } else {
    try {
      mod = require(file);
    } catch (err) {
      if (err.code !== 'ERR_REQUIRE_ESM') throw err;
      mod = await import(pathToFileURL(file).href);
    }
  }
  let cfg = mod && mod.default !== undefined ? mod.default : mod;
  if (typeof cfg === 'function') cfg = await cfg();
  return cfg;
}

load(path.resolve(process.argv[2]))
  .then(cfg => process.stdout.write(JSON.stringify(cfg === undefined ? null : cfg)))
  .catch(err => {
    process.stderr.write(String((err && err.stack) || err));
    process.exit(1);
  });
`

// ModuleEvaluator loads executable (.js/.mjs/.cjs) configuration modules.
// Sources are evaluated in-process first; anything the embedded VM cannot run
// is handed to Node.js.
type ModuleEvaluator struct {
	// NodeBinary is the Node.js executable; empty disables the fallback.
	NodeBinary string
	// Environ feeds process.env inside the VM. Defaults to os.Environ.
	Environ func() []string
}

func NewModuleEvaluator(nodeBinary string) *ModuleEvaluator {
	return &ModuleEvaluator{NodeBinary: nodeBinary, Environ: os.Environ}
}

// Evaluate returns the module's default export, which must be an object.
func (m *ModuleEvaluator) Evaluate(path string, source []byte) (map[string]any, error) {
	cfg, vmErr := m.evaluateInVM(string(source))
	if vmErr == nil {
		return cfg, nil
	}
	configLogger.Debug("embedded evaluation of %s failed: %v", path, vmErr)

	if m.NodeBinary == "" {
		return nil, &ParseError{Path: path, Underlying: vmErr}
	}
	if _, err := exec.LookPath(m.NodeBinary); err != nil {
		return nil, &ParseError{Path: path, Underlying: fmt.Errorf("%v (node fallback unavailable: %v)", vmErr, err)}
	}

	cfg, err := m.evaluateWithNode(context.Background(), path)
	if err != nil {
		return nil, &ParseError{Path: path, Underlying: err}
	}
	return cfg, nil
}

func (m *ModuleEvaluator) evaluateInVM(source string) (map[string]any, error) {
	vm := otto.New()

	env := make(map[string]interface{})
	environ := m.Environ
	if environ == nil {
		environ = os.Environ
	}
	for _, kv := range environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	if err := vm.Set("process", map[string]interface{}{"env": env}); err != nil {
		return nil, err
	}
	if _, err := vm.Run(`var module = { exports: {} }; var exports = module.exports;
function require(name) { throw new Error("require('" + name + "') is not available"); }`); err != nil {
		return nil, err
	}

	if _, err := vm.Run(exportDefault.ReplaceAllString(source, "module.exports = ")); err != nil {
		return nil, fmt.Errorf("evaluate module: %w", err)
	}

	value, err := vm.Run(`(function () {
  var cfg = module.exports;
  if (cfg && typeof cfg === 'object' && cfg["default"] !== undefined) cfg = cfg["default"];
  if (typeof cfg === 'function') cfg = cfg();
  return cfg;
})()`)
	if err != nil {
		return nil, fmt.Errorf("resolve export: %w", err)
	}
	if !value.IsObject() {
		return nil, fmt.Errorf("module does not export an object")
	}
	exported, err := value.Export()
	if err != nil {
		return nil, fmt.Errorf("export module value: %w", err)
	}
	cfg, ok := exported.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("module export is %T, not an object", exported)
	}
	return cfg, nil
}

func (m *ModuleEvaluator) evaluateWithNode(ctx context.Context, path string) (map[string]any, error) {
	script, err := os.CreateTemp("", "deploycli-evaluator-*.cjs")
	if err != nil {
		return nil, fmt.Errorf("create evaluator script: %w", err)
	}
	defer os.Remove(script.Name())
	if _, err := script.WriteString(evaluatorScript); err != nil {
		script.Close()
		return nil, fmt.Errorf("write evaluator script: %w", err)
	}
	if err := script.Close(); err != nil {
		return nil, fmt.Errorf("write evaluator script: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.NodeBinary, script.Name(), path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("node evaluation failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	var cfg map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &cfg); err != nil {
		return nil, fmt.Errorf("decode module export: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("module does not export an object")
	}
	return cfg, nil
}
