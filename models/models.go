// Package models loads the custom skin table: which custom model ids exist
// and which stock model each one replaces on clients that cannot load it.
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	MinCustomSkin = 20001
	MaxCustomSkin = 30000
	MaxBaseSkin   = 311
)

type Model struct {
	ID   uint32 `yaml:"id"`
	Base uint32 `yaml:"base"`
	Name string `yaml:"name"`
	DFF  string `yaml:"dff"`
	TXD  string `yaml:"txd"`
}

type file struct {
	Skins []Model `yaml:"skins"`
}

// Table is read-only after Load and safe for concurrent use.
type Table struct {
	byID map[uint32]Model
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	t := &Table{byID: make(map[uint32]Model, len(f.Skins))}
	for _, m := range f.Skins {
		if m.ID < MinCustomSkin || m.ID > MaxCustomSkin {
			return nil, fmt.Errorf("models: skin %d outside custom range %d-%d", m.ID, MinCustomSkin, MaxCustomSkin)
		}
		if m.Base > MaxBaseSkin {
			return nil, fmt.Errorf("models: skin %d has invalid base %d", m.ID, m.Base)
		}
		if _, dup := t.byID[m.ID]; dup {
			return nil, fmt.Errorf("models: duplicate skin %d", m.ID)
		}
		t.byID[m.ID] = m
	}
	return t, nil
}

// BaseModel reports the stock model a custom id replaces. For ids that are
// not custom it returns id unchanged and ok false.
func (t *Table) BaseModel(id uint32) (base, custom uint32, ok bool) {
	m, ok := t.byID[id]
	if !ok {
		return id, 0, false
	}
	return m.Base, m.ID, true
}

func (t *Table) Len() int {
	return len(t.byID)
}

func (t *Table) Get(id uint32) (Model, bool) {
	m, ok := t.byID[id]
	return m, ok
}
