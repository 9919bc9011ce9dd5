// Package config loads the rtreectl configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	rtree "github.com/peterstace/dynrtree"
	"github.com/peterstace/dynrtree/internal/logger"
	"github.com/peterstace/dynrtree/internal/telemetry"
)

// Config is the top level rtreectl configuration.
type Config struct {
	Tree      Tree             `yaml:"tree"`
	Log       logger.Config    `yaml:"log"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Shell     Shell            `yaml:"shell"`
}

// Tree holds the node size parameters and split policy of the tree.
type Tree struct {
	MinEntries int    `yaml:"min_entries"`
	MaxEntries int    `yaml:"max_entries"`
	Split      string `yaml:"split"`
}

// Shell holds settings for the interactive shell.
type Shell struct {
	// HistoryFile is where the line editor keeps command history. Empty
	// disables history.
	HistoryFile string `yaml:"history_file"`
	// Color enables colored output when writing to a terminal.
	Color bool `yaml:"color"`
}

// Default gives the configuration used when no file is given.
func Default() Config {
	return Config{
		Tree: Tree{
			MinEntries: 2,
			MaxEntries: 8,
			Split:      rtree.QuadraticSplit.String(),
		},
		Log: logger.Config{
			Level:      "warn",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			ServiceName: "rtreectl",
		},
		Shell: Shell{
			HistoryFile: "/tmp/rtreectl-readline.tmp",
			Color:       true,
		},
	}
}

// Load reads a YAML configuration file. Fields missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the tree can be built from the configuration.
func (c Config) Validate() error {
	if _, err := c.Tree.Options(); err != nil {
		return err
	}
	_, err := rtree.New[string, string](c.Tree.MinEntries, c.Tree.MaxEntries)
	return err
}

// Options gives the tree options the configuration asks for.
func (t Tree) Options() ([]rtree.Option, error) {
	policy, err := rtree.ParseSplitPolicy(t.Split)
	if err != nil {
		return nil, err
	}
	return []rtree.Option{rtree.WithSplitPolicy(policy)}, nil
}
