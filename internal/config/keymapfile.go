// Package config reads and writes keymap profile files.
//
// A profile file holds one cell string per key per layer. Cell forms:
//
//	-               unbound
//	A               single code
//	LeftShift+A     two codes per press
//	A+B+C           three codes per press
//	combo(3,F,Escape)  dual-role: F alone, Escape while key 3 is held
//	config(2)       switch to profile 2
//
// Files are YAML or TOML, chosen by extension.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/quillmk/quill/keycode"
	"github.com/quillmk/quill/keymap"
	"github.com/quillmk/quill/scancode"
)

// Profile is the file representation of one keymap profile.
type Profile struct {
	Layers [][]string `yaml:"layers" toml:"layers"`
}

// File is a keymap file. It can hold every profile on the keyboard; tools
// that work on a single profile address one by index.
type File struct {
	Profiles []Profile `yaml:"profiles" toml:"profiles"`
}

// FormatCell renders a behavior as its cell string.
func FormatCell(b scancode.Behavior) string {
	switch b.Kind {
	case scancode.KindSingle:
		if b.Codes[0] == keycode.Undefined {
			return "-"
		}
		return b.Codes[0].String()
	case scancode.KindDouble:
		return b.Codes[0].String() + "+" + b.Codes[1].String()
	case scancode.KindTriple:
		return b.Codes[0].String() + "+" + b.Codes[1].String() + "+" + b.Codes[2].String()
	case scancode.KindCombinedKey:
		return fmt.Sprintf("combo(%d,%s,%s)", b.OtherIndex, b.Codes[0], b.Codes[1])
	case scancode.KindChangeConfig:
		return fmt.Sprintf("config(%d)", b.Config)
	}
	return "-"
}

// ParseCell parses one cell string back into a behavior.
func ParseCell(cell string) (scancode.Behavior, error) {
	s := strings.TrimSpace(cell)
	switch {
	case s == "" || s == "-":
		return scancode.Default(), nil

	case strings.HasPrefix(s, "combo(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[len("combo("):len(s)-1], ",")
		if len(parts) != 3 {
			return scancode.Behavior{}, fmt.Errorf("cell %q: combo wants (index,normal,held)", cell)
		}
		index, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || index < 0 || index >= keymap.NumKeys {
			return scancode.Behavior{}, fmt.Errorf("cell %q: bad combo index", cell)
		}
		normal, ok := keycode.FromName(strings.TrimSpace(parts[1]))
		if !ok {
			return scancode.Behavior{}, fmt.Errorf("cell %q: unknown code %q", cell, parts[1])
		}
		held, ok := keycode.FromName(strings.TrimSpace(parts[2]))
		if !ok {
			return scancode.Behavior{}, fmt.Errorf("cell %q: unknown code %q", cell, parts[2])
		}
		return scancode.CombinedKey(index, normal, held), nil

	case strings.HasPrefix(s, "config(") && strings.HasSuffix(s, ")"):
		n, err := strconv.Atoi(strings.TrimSpace(s[len("config(") : len(s)-1]))
		if err != nil || n < 0 || n >= keymap.NumConfigs {
			return scancode.Behavior{}, fmt.Errorf("cell %q: bad profile number", cell)
		}
		return scancode.ChangeConfig(uint8(n)), nil
	}

	names := strings.Split(s, "+")
	codes := make([]keycode.Code, 0, 3)
	for _, name := range names {
		c, ok := keycode.FromName(strings.TrimSpace(name))
		if !ok {
			return scancode.Behavior{}, fmt.Errorf("cell %q: unknown code %q", cell, name)
		}
		codes = append(codes, c)
	}
	switch len(codes) {
	case 1:
		return scancode.Single(codes[0]), nil
	case 2:
		return scancode.Double(codes[0], codes[1]), nil
	case 3:
		return scancode.Triple(codes[0], codes[1], codes[2]), nil
	}
	return scancode.Behavior{}, fmt.Errorf("cell %q: at most 3 codes per cell", cell)
}

// FromTables builds the file representation from decoded layer tables.
func FromTables(tables [][]scancode.Behavior) *Profile {
	p := &Profile{Layers: make([][]string, len(tables))}
	for l, table := range tables {
		cells := make([]string, len(table))
		for i, b := range table {
			cells[i] = FormatCell(b)
		}
		p.Layers[l] = cells
	}
	return p
}

// Tables parses the profile into per-layer behavior tables. Missing layers
// and cells are filled with the unbound default; extra ones are an error.
func (p *Profile) Tables() ([][]scancode.Behavior, error) {
	if len(p.Layers) > keymap.NumLayers {
		return nil, fmt.Errorf("profile has %d layers, keyboard has %d", len(p.Layers), keymap.NumLayers)
	}
	tables := make([][]scancode.Behavior, keymap.NumLayers)
	for l := range tables {
		table := make([]scancode.Behavior, keymap.NumKeys)
		for i := range table {
			table[i] = scancode.Default()
		}
		if l < len(p.Layers) {
			if len(p.Layers[l]) > keymap.NumKeys {
				return nil, fmt.Errorf("layer %d has %d keys, keyboard has %d", l, len(p.Layers[l]), keymap.NumKeys)
			}
			for i, cell := range p.Layers[l] {
				b, err := ParseCell(cell)
				if err != nil {
					return nil, fmt.Errorf("layer %d key %d: %w", l, i, err)
				}
				table[i] = b
			}
		}
		tables[l] = table
	}
	return tables, nil
}

// LoadFile reads a keymap file, using the extension to pick the format.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	switch filepath.Ext(path) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// SaveFile writes a keymap file, using the extension to pick the format.
func SaveFile(path string, f *File) error {
	var data []byte
	var err error
	switch filepath.Ext(path) {
	case ".toml":
		data, err = toml.Marshal(*f)
	default:
		data, err = yaml.Marshal(*f)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
