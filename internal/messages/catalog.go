// Package messages resolves machine validation codes into friendly messages.
package messages

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultMessage is returned when neither table knows a code
const DefaultMessage = "Invalid value"

//go:embed default.toml
var defaultTables []byte

// Catalog holds the per-field table and the global fallback table
type Catalog struct {
	Global map[string]string            `toml:"global"`
	Fields map[string]map[string]string `toml:"fields"`
}

// Default returns the catalogue shipped with the binary
func Default() *Catalog {
	c, err := Parse(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("messages: embedded catalogue is invalid: %v", err))
	}
	return c
}

// Load reads a catalogue from a TOML file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalogue: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse message catalogue %s: %w", path, err)
	}
	return c, nil
}

// LoadOrDefault loads path when set and falls back to the embedded catalogue otherwise
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes a TOML catalogue
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Global == nil {
		c.Global = map[string]string{}
	}
	if c.Fields == nil {
		c.Fields = map[string]map[string]string{}
	}
	return &c, nil
}

// Resolve returns the message for a field's validation code.
// Lookup order: the field's own table, then the global table, then DefaultMessage.
func (c *Catalog) Resolve(field, code string) string {
	if c == nil {
		return DefaultMessage
	}
	if table, ok := c.Fields[field]; ok {
		if msg, ok := table[code]; ok && msg != "" {
			return msg
		}
	}
	if msg, ok := c.Global[code]; ok && msg != "" {
		return msg
	}
	return DefaultMessage
}

// ResolveAll maps every (field, code) pair to its friendly message
func (c *Catalog) ResolveAll(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for field, code := range fields {
		out[field] = c.Resolve(field, code)
	}
	return out
}
