// Command gen writes commands.yaml from the usage text of the pm2-deploy
// shell script and the version in its package.json.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"deploycli/internal/helpdata"
)

func newGenCmd() *cobra.Command {
	var script, pkg, out string

	cmd := &cobra.Command{
		Use:           "gen",
		Short:         "Write commands.yaml from the pm2-deploy usage text and version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(script, pkg, out)
		},
	}
	cmd.Flags().StringVar(&script, "script", "node_modules/pm2-deploy/deploy", "pm2-deploy shell script")
	cmd.Flags().StringVar(&pkg, "package", "node_modules/pm2-deploy/package.json", "pm2-deploy package.json")
	cmd.Flags().StringVar(&out, "out", "commands.yaml", "output file")
	return cmd
}

func main() {
	if err := newGenCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ gen: %v\n", err)
		os.Exit(1)
	}
}

func generate(scriptPath, packagePath, outPath string) error {
	usage, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	commands := helpdata.ParseUsage(string(usage))
	if len(commands) == 0 {
		return fmt.Errorf("no commands section found in %s", scriptPath)
	}

	raw, err := os.ReadFile(packagePath)
	if err != nil {
		return err
	}
	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return fmt.Errorf("parse %s: %w", packagePath, err)
	}

	data, err := helpdata.Marshal(helpdata.Table{Version: pkg.Version, Commands: commands})
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}
