/*
deploycli - locate a deploy config, fill in the gaps, hand it to pm2 deploy
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"deploycli/internal/config"
	"deploycli/internal/deployer"
	"deploycli/internal/environment"
	"deploycli/internal/failfast"
	"deploycli/internal/git"
	"deploycli/internal/helpdata"
	"deploycli/internal/logger"
	"deploycli/internal/settings"
)

// Version is set at build time with -ldflags "-X deploycli/cmd.Version=..."
var Version = "dev"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()

	cliLog = logger.PackageLogger("deploy::")
)

// Collaborators swapped out by tests.
var (
	workDir      = os.Getwd
	homeDir      = os.UserHomeDir
	newVCS       = func(dir string) environment.VCS { return git.New(dir) }
	newRunner    = func(dir string) deployer.Runner { return deployer.ExecRunner{Dir: dir} }
	loadCommands = helpdata.Load
)

type rootOptions struct {
	configPath  string
	searchDepth int
	dryRun      bool
	verbose     bool
}

var rootCmd = newRootCmd()

// Execute runs the root command and exits non-zero on any error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(failfast.Report(os.Stderr, err))
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	table, err := loadCommands()
	if err != nil {
		cliLog.Warn("command table unavailable: %v", err)
	}

	cmd := &cobra.Command{
		Use:   "deploy <env> [command...] [-- pm2 args...]",
		Short: "Deploy an environment with pm2 using .deployrc, deploy.toml or ecosystem files",
		Long: fmt.Sprintf(`%s

Looks for %s in the current directory and its parents,
fills in %s, %s and %s when an environment leaves them out,
and runs %s with the result.

Arguments after the environment are passed to %s; put %s before any
that start with a dash, e.g. %s`,
			bold("🚀 deploy"),
			cyan(strings.Join(config.Candidates, ", ")),
			yellow("ref"), yellow("repo"), yellow("post-deploy"),
			cyan("pm2 deploy"),
			cyan("pm2 deploy"), bold("--"), cyan("deploy production exec -- ls -la"),
		),
		Version:       versionString(table),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to the deploy configuration file")
	cmd.Flags().IntVar(&opts.searchDepth, "search-depth", config.Unbounded, "Parent directories to search for a config file (-1 = up to the filesystem root)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the normalized environment instead of deploying")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Log debug output")

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(usageTemplate(table))

	return cmd
}

func versionString(t helpdata.Table) string {
	if t.Version == "" {
		return Version
	}
	return fmt.Sprintf("%s (pm2-deploy %s)", Version, t.Version)
}

func usageTemplate(t helpdata.Table) string {
	var b strings.Builder
	b.WriteString(`Usage:
  {{.UseLine}}
{{if .HasAvailableFlags}}
Options:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}`)
	if len(t.Commands) > 0 {
		b.WriteString("\nCommands:\n")
		for _, c := range t.Commands {
			fmt.Fprintf(&b, "  %s %s\n", green(fmt.Sprintf("%-18s", c.Name)), c.Description)
		}
	}
	return b.String()
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: environment name is required (usage: %s)", failfast.ErrMissingArgument, cmd.UseLine())
	}
	env, deployArgs := args[0], args[1:]

	s, dir, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}

	loaders := config.DefaultRegistry(config.NewModuleEvaluator(s.NodeBinary))
	located, err := config.NewLocator(dir, s.SearchDepth, loaders).Locate(opts.configPath)
	if err != nil {
		return err
	}
	if !located.Found() {
		return fmt.Errorf("%w: looked for %s from %s upward", config.ErrConfigNotFound, strings.Join(config.Candidates, ", "), dir)
	}
	if len(located.Data) == 0 {
		return fmt.Errorf("%w: %s defines no environments", config.ErrConfigNotFound, located.Source.Path)
	}
	cliLog.Debug("loaded %s (%s)", located.Source.Path, located.Source.Format)

	vcs := newVCS(dir)
	spec, err := environment.NewNormalizer(vcs, s.PostDeploy, cliLog).Normalize(located.Data, env)
	if err != nil {
		return err
	}
	if d, ok := vcs.(interface{ IsDirty() bool }); ok && d.IsDirty() {
		cliLog.Warn("working tree has uncommitted changes; pm2 deploys %s from %s", spec.Ref(), spec.Repo())
	}

	if opts.dryRun {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(map[string]config.EnvironmentSpec{env: spec}); err != nil {
			return fmt.Errorf("print %s: %w", env, err)
		}
		return enc.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cliLog.Info("deploying %s to %s", spec.Ref(), env)
	invoker := deployer.NewInvoker(s.DeployBinary, newRunner(dir), cmd.OutOrStdout())
	invoker.Log = cliLog
	if err := invoker.Invoke(ctx, located.Data, env, deployArgs); err != nil {
		return err
	}

	cliLog.Success("%s deployed", env)
	return nil
}

// loadSettings merges settings files, environment and flags, then applies
// logging preferences.
func loadSettings(cmd *cobra.Command, opts *rootOptions) (*settings.Settings, string, error) {
	dir, err := workDir()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}
	home, _ := homeDir()

	v := settings.New()
	if err := v.BindPFlag(settings.KeySearchDepth, cmd.Flags().Lookup("search-depth")); err != nil {
		return nil, "", err
	}
	if err := v.BindPFlag(settings.KeyVerbose, cmd.Flags().Lookup("verbose")); err != nil {
		return nil, "", err
	}

	s, err := settings.Load(v, settings.Options{HomeDir: home, ProjectDir: dir})
	if err != nil {
		return nil, "", err
	}

	level := logger.LevelInfo
	if s.Verbose {
		level = logger.LevelDebug
	}
	logger.Configure(cmd.ErrOrStderr(), level)
	if s.NoColor {
		logger.EnableColor(false)
	}
	if s.File != "" {
		cliLog.Debug("settings from %s", s.File)
	}
	return s, dir, nil
}
