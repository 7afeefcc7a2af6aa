// Package environment fills in the fields a deployment target may leave out.
package environment

import (
	"fmt"
	"strings"

	"deploycli/internal/config"
	"deploycli/internal/logger"
)

// DefaultPostDeploy installs dependencies, builds and restarts the app.
// Steps are joined with && so a failing step stops the chain.
var DefaultPostDeploy = strings.Join([]string{
	"npm install",
	"npm run build",
	"pm2 startOrRestart ecosystem.config.js",
}, " && ")

// VCS reports the state of the local working tree.
type VCS interface {
	CurrentBranch() (string, error)
	CurrentRemoteURL() (string, error)
}

type Normalizer struct {
	VCS        VCS
	PostDeploy string
	Log        *logger.Logger
}

func NewNormalizer(vcs VCS, postDeploy string, log *logger.Logger) *Normalizer {
	if postDeploy == "" {
		postDeploy = DefaultPostDeploy
	}
	if log == nil {
		log = logger.PackageLogger("env::")
	}
	return &Normalizer{VCS: vcs, PostDeploy: postDeploy, Log: log}
}

// Normalize sets ref, repo and post-deploy on cfg[env] when they are missing
// and returns that spec. Fields already present are left alone and the VCS is
// only asked for fields that are absent.
func (n *Normalizer) Normalize(cfg config.RawConfig, env string) (config.EnvironmentSpec, error) {
	if len(cfg) == 0 {
		return nil, config.ErrConfigNotFound
	}
	spec, ok := cfg[env]
	if !ok || spec == nil {
		return nil, &config.EnvironmentNotFoundError{Env: env, Available: cfg.Environments()}
	}

	if !spec.Has(config.KeyRef) {
		branch, err := n.VCS.CurrentBranch()
		if err != nil {
			return nil, fmt.Errorf("resolve %s for %s: %w", config.KeyRef, env, err)
		}
		spec[config.KeyRef] = branch
		n.Log.Warn("%q not set for %s, using current branch %s", config.KeyRef, env, branch)
	}

	if !spec.Has(config.KeyRepo) {
		url, err := n.VCS.CurrentRemoteURL()
		if err != nil {
			return nil, fmt.Errorf("resolve %s for %s: %w", config.KeyRepo, env, err)
		}
		spec[config.KeyRepo] = url
		n.Log.Warn("%q not set for %s, using current remote %s", config.KeyRepo, env, url)
	}

	if !spec.Has(config.KeyPostDeploy) {
		spec[config.KeyPostDeploy] = n.PostDeploy
	}

	return spec, nil
}
