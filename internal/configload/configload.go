// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package configload turns a YAML configuration file into the untyped
// configuration tree the core works on.
//
// The top-level document must be a table whose entries are modes; each mode
// is a table of plugin key to configuration value. Decoding goes through the
// yaml.v3 node API rather than plain unmarshalling because table entries
// must keep the order they appear in the file.
package configload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/powermodes/powermodes/internal/configvalue"
)

// Config is a parsed configuration file: the top-level table of modes.
type Config struct {
	root configvalue.Value
}

// LoadFile reads and parses the configuration file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses a YAML document into a Config.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("configuration file is empty")
	}

	root, err := decode(doc.Content[0])
	if err != nil {
		return nil, err
	}
	if root.Kind() != configvalue.KindTable {
		return nil, fmt.Errorf("top level must be a table of modes, got %s", root.Kind())
	}
	return &Config{root: root}, nil
}

// Modes returns the mode names in file order.
func (c *Config) Modes() []string {
	entries, _ := c.root.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Key
	}
	return names
}

// Mode returns the configuration table of one mode by name.
func (c *Config) Mode(name string) (configvalue.Value, bool) {
	return c.root.Get(name)
}

func decode(node *yaml.Node) (configvalue.Value, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decode(node.Alias)

	case yaml.ScalarNode:
		return decodeScalar(node)

	case yaml.SequenceNode:
		elems := make([]configvalue.Value, len(node.Content))
		for i, child := range node.Content {
			v, err := decode(child)
			if err != nil {
				return configvalue.Value{}, err
			}
			elems[i] = v
		}
		return configvalue.NewList(elems...), nil

	case yaml.MappingNode:
		entries := make([]configvalue.Entry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode || keyNode.Tag != "!!str" {
				return configvalue.Value{}, fmt.Errorf(
					"line %d: table keys must be strings", keyNode.Line)
			}
			v, err := decode(valNode)
			if err != nil {
				return configvalue.Value{}, err
			}
			entries = append(entries, configvalue.Entry{Key: keyNode.Value, Value: v})
		}
		table, err := configvalue.NewTable(entries...)
		if err != nil {
			return configvalue.Value{}, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return table, nil

	default:
		return configvalue.Value{}, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func decodeScalar(node *yaml.Node) (configvalue.Value, error) {
	switch node.Tag {
	case "!!str":
		return configvalue.NewString(node.Value), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return configvalue.Value{}, fmt.Errorf("line %d: invalid integer %q", node.Line, node.Value)
		}
		return configvalue.NewInteger(i), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return configvalue.Value{}, fmt.Errorf("line %d: invalid boolean %q", node.Line, node.Value)
		}
		return configvalue.NewBoolean(b), nil
	default:
		return configvalue.Value{}, fmt.Errorf(
			"line %d: unsupported value type %s (only strings, integers, booleans, lists, and tables are allowed)",
			node.Line, node.Tag)
	}
}
