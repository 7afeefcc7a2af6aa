// Package helpdata exposes the command table and version of the pm2 deploy
// tooling. commands.yaml is produced at build time by ./gen and embedded
// read-only.
package helpdata

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:generate go run ./gen --script ../../node_modules/pm2-deploy/deploy --package ../../node_modules/pm2-deploy/package.json --out commands.yaml

//go:embed commands.yaml
var commandsYAML []byte

const header = "# Code generated by internal/helpdata/gen from pm2-deploy. DO NOT EDIT.\n"

type Command struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Table struct {
	Version  string    `yaml:"version"`
	Commands []Command `yaml:"commands"`
}

// Load returns the embedded table.
func Load() (Table, error) {
	return Parse(commandsYAML)
}

func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse command table: %w", err)
	}
	return t, nil
}

// Marshal renders t in the format Load reads, with the generated-file header.
func Marshal(t Table) ([]byte, error) {
	body, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode command table: %w", err)
	}
	return append([]byte(header), body...), nil
}

var (
	sectionLine = regexp.MustCompile(`^\s*Commands:\s*$`)
	commandLine = regexp.MustCompile(`^\s{2,}(\S.*?)\s{2,}(\S.*?)\s*$`)
)

// ParseUsage extracts the entries of the "Commands:" section of a usage text.
func ParseUsage(usage string) []Command {
	var (
		commands  []Command
		inSection bool
	)
	for _, line := range strings.Split(usage, "\n") {
		if !inSection {
			inSection = sectionLine.MatchString(line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			if len(commands) > 0 {
				break
			}
			continue
		}
		m := commandLine.FindStringSubmatch(line)
		if m == nil {
			break
		}
		commands = append(commands, Command{Name: m[1], Description: m[2]})
	}
	return commands
}
