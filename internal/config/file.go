package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up at the project root when --config is not given.
const DefaultFileName = ".pkgmedic.yaml"

// File is the YAML configuration document.
type File struct {
	Rules              []string                        `yaml:"rules"`
	RequiredWorkspaces []string                        `yaml:"required_workspaces"`
	Options            map[string]map[string]yaml.Node `yaml:"options"`
}

// ReadFile decodes a configuration file. Unknown keys are rejected.
func ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(raw)
}

// ParseFile decodes a configuration document.
func ParseFile(raw []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return f, nil
}

// RuleOptions flattens option values to the string form rules consume:
// scalars verbatim, sequences as comma lists, mappings as key=value lists.
func (f *File) RuleOptions() (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(f.Options))
	for ruleID, opts := range f.Options {
		out[ruleID] = make(map[string]string, len(opts))
		for name, node := range opts {
			val, err := flattenNode(&node)
			if err != nil {
				return nil, fmt.Errorf("options.%s.%s: %w", ruleID, name, err)
			}
			out[ruleID][name] = val
		}
	}
	return out, nil
}

func flattenNode(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("line %d: list items must be scalars", c.Line)
			}
			parts = append(parts, c.Value)
		}
		return strings.Join(parts, ","), nil
	case yaml.MappingNode:
		parts := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("line %d: mapping values must be scalars", v.Line)
			}
			parts = append(parts, k.Value+"="+v.Value)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("line %d: unsupported value", n.Line)
	}
}

// LoadFile merges the configuration file into c. An explicit ConfigFile must
// exist; the default file is optional and only looked up for local projects.
// Flags win over file values: a non-empty Selector is kept, and Set entries
// override Options when rules are configured.
func (c *Config) LoadFile() error {
	path := c.Rules.ConfigFile
	explicit := path != ""
	if !explicit {
		if c.Source.GitHub != "" {
			return nil
		}
		path = filepath.Join(c.Source.Cwd, DefaultFileName)
	}

	f, err := ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	opts, err := f.RuleOptions()
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}
	c.Rules.ConfigFile = path
	c.Rules.Options = opts
	if strings.TrimSpace(c.Rules.Selector) == "" {
		c.Rules.Selector = strings.Join(f.Rules, ",")
	}
	c.Rules.RequiredWorkspaces = append(c.Rules.RequiredWorkspaces, f.RequiredWorkspaces...)
	return nil
}
