// Package settings reads the CLI's own preferences from ~/.deploycli.yaml,
// DEPLOYCLI_* environment variables and a project .env file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"deploycli/internal/config"
	"deploycli/internal/environment"
)

const (
	EnvPrefix      = "DEPLOYCLI"
	ConfigName     = ".deploycli"
	DotEnvFileName = ".env"

	KeySearchDepth  = "search_depth"
	KeyDeployBinary = "deploy_binary"
	KeyNodeBinary   = "node_binary"
	KeyPostDeploy   = "post_deploy"
	KeyNoColor      = "no_color"
	KeyVerbose      = "verbose"
)

type Settings struct {
	SearchDepth  int    `mapstructure:"search_depth"`
	DeployBinary string `mapstructure:"deploy_binary"`
	NodeBinary   string `mapstructure:"node_binary"`
	PostDeploy   string `mapstructure:"post_deploy"`
	NoColor      bool   `mapstructure:"no_color"`
	Verbose      bool   `mapstructure:"verbose"`
	// File is the settings file that was read, if any.
	File string `mapstructure:"-"`
}

// Options tell Load where to look. Empty fields fall back to the user's home
// and working directory.
type Options struct {
	HomeDir    string
	ProjectDir string
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeySearchDepth, config.Unbounded)
	v.SetDefault(KeyDeployBinary, "pm2")
	v.SetDefault(KeyNodeBinary, "node")
	v.SetDefault(KeyPostDeploy, environment.DefaultPostDeploy)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads settings into a Settings value. A .env file in the project
// directory is loaded first without overriding variables already set, so it
// can carry DEPLOYCLI_* values and anything configuration modules read.
func Load(v *viper.Viper, opts Options) (*Settings, error) {
	if opts.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		opts.ProjectDir = wd
	}
	if err := loadDotEnv(filepath.Join(opts.ProjectDir, DotEnvFileName)); err != nil {
		return nil, err
	}

	if opts.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = home
		}
	}
	if opts.HomeDir != "" {
		v.AddConfigPath(opts.HomeDir)
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read settings: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.File = v.ConfigFileUsed()
	if s.SearchDepth < config.Unbounded {
		return nil, fmt.Errorf("%s must be %d (unbounded) or >= 0, got %d", KeySearchDepth, config.Unbounded, s.SearchDepth)
	}
	return &s, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
