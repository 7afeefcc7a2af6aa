// Package deployer hands a normalized environment to `pm2 deploy` and relays
// its progress.
package deployer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"deploycli/internal/config"
	"deploycli/internal/logger"
)

const stderrTailLines = 15

// Runner starts the external deploy command and waits for it.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// ExecRunner runs commands as child processes in Dir.
type ExecRunner struct {
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type Invoker struct {
	Binary string
	Runner Runner
	Out    io.Writer
	Log    *logger.Logger
}

func NewInvoker(binary string, runner Runner, out io.Writer) *Invoker {
	if binary == "" {
		binary = "pm2"
	}
	return &Invoker{
		Binary: binary,
		Runner: runner,
		Out:    out,
		Log:    logger.PackageLogger("deploy::"),
	}
}

// Validate applies the checks pm2 performs before it deploys an environment.
func Validate(env string, spec config.EnvironmentSpec) error {
	if len(spec.Hosts()) == 0 {
		return &ValidationError{Env: env, Field: config.KeyHost, Reason: "is required"}
	}
	for _, key := range []string{config.KeyPath, config.KeyRef, config.KeyRepo, config.KeyPostDeploy} {
		v, ok := spec[key]
		if !ok {
			return &ValidationError{Env: env, Field: key, Reason: "is required"}
		}
		if s, isString := v.(string); !isString || s == "" {
			return &ValidationError{Env: env, Field: key, Reason: "must be a non-empty string"}
		}
	}
	return nil
}

// Invoke deploys env from cfg by running `<binary> deploy <file> <env> <args...>`
// against a temporary ecosystem file holding only that environment.
func (i *Invoker) Invoke(ctx context.Context, cfg config.RawConfig, env string, args []string) error {
	spec, ok := cfg[env]
	if !ok {
		return &config.EnvironmentNotFoundError{Env: env, Available: cfg.Environments()}
	}
	if err := Validate(env, spec); err != nil {
		return err
	}

	file, err := writeEcosystem(env, spec)
	if err != nil {
		return &DeployError{Env: env, Underlying: err}
	}
	defer os.Remove(file)

	cmdArgs := append([]string{"deploy", file, env}, args...)
	i.Log.Debug("running %s %s", i.Binary, strings.Join(cmdArgs, " "))

	var stderr bytes.Buffer
	err = Scoped(i.Out, func(progress io.Writer) error {
		return i.Runner.Run(ctx, i.Binary, cmdArgs, progress, &stderr)
	})
	if err != nil {
		return &DeployError{
			Env:        env,
			Stderr:     tail(stderr.String(), stderrTailLines),
			Underlying: errors.Wrapf(err, "%s deploy", i.Binary),
		}
	}
	return nil
}

func writeEcosystem(env string, spec config.EnvironmentSpec) (string, error) {
	data, err := json.MarshalIndent(map[string]any{
		config.DeployKey: map[string]any{env: spec},
	}, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode ecosystem file")
	}

	f, err := os.CreateTemp("", "deploycli-ecosystem-*.json")
	if err != nil {
		return "", errors.Wrap(err, "create ecosystem file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrap(err, "write ecosystem file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errors.Wrap(err, "write ecosystem file")
	}
	return f.Name(), nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
