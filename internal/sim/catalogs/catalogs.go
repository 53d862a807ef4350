package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"furnacesplit.ai/internal/sim/split"
)

type Catalogs struct {
	Items ItemCatalog
	Ovens OvenCatalog
}

type ItemCatalog struct {
	Palette []string
	Defs    map[string]ItemDef
	Digest  string
}

type ItemDef struct {
	ID        string       `json:"id"`
	Name      string       `json:"name,omitempty"`
	StackSize int          `json:"stack_size"`
	Cookable  *CookableDef `json:"cookable,omitempty"`
	Burnable  *BurnableDef `json:"burnable,omitempty"`
}

type CookableDef struct {
	CookTime float64 `json:"cook_time"`
	LowTemp  float64 `json:"low_temp"`
	HighTemp float64 `json:"high_temp"`
	Becomes  string  `json:"becomes"`
	Amount   int     `json:"amount,omitempty"` // output units per input unit, default 1
}

type BurnableDef struct {
	FuelAmount      float64 `json:"fuel_amount"`
	Byproduct       string  `json:"byproduct,omitempty"`
	ByproductAmount int     `json:"byproduct_amount,omitempty"`
}

type OvenCatalog struct {
	Kinds  []string
	Defs   map[string]OvenDef
	Digest string
}

type OvenDef struct {
	Kind           string  `json:"kind"`
	Capacity       int     `json:"capacity"`
	Temperature    float64 `json:"temperature"`
	FuelItem       string  `json:"fuel_item"`
	AllowByproduct bool    `json:"allow_byproduct"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadOvens(filepath.Join(configDir, "ovens.json"), &c.Ovens); err != nil {
		return nil, err
	}
	if err := c.validateRefs(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Material implements split.Materials.
func (c *Catalogs) Material(id string) (split.Material, bool) {
	if c == nil {
		return split.Material{}, false
	}
	d, ok := c.Items.Defs[id]
	if !ok {
		return split.Material{}, false
	}
	m := split.Material{ID: d.ID, StackSize: d.StackSize}
	if d.Cookable != nil {
		m.Cook = &split.Cookable{
			CookTime: d.Cookable.CookTime,
			LowTemp:  d.Cookable.LowTemp,
			HighTemp: d.Cookable.HighTemp,
			Becomes:  d.Cookable.Becomes,
		}
	}
	if d.Burnable != nil {
		m.Burn = &split.Burnable{FuelAmount: d.Burnable.FuelAmount, Byproduct: d.Burnable.Byproduct}
	}
	return m, true
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validate(itemsSchema, "items.json", raw); err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %q", d.ID)
		}
		if c := d.Cookable; c != nil && c.LowTemp > c.HighTemp {
			return fmt.Errorf("items.json: %s: low_temp %.0f above high_temp %.0f", d.ID, c.LowTemp, c.HighTemp)
		}
		out.Defs[d.ID] = d
	}
	out.Palette = sortedKeys(out.Defs)
	return nil
}

func loadOvens(path string, out *OvenCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validate(ovensSchema, "ovens.json", raw); err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []OvenDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("ovens.json: %w", err)
	}
	out.Defs = map[string]OvenDef{}
	for _, d := range defs {
		if d.Kind == "" {
			return fmt.Errorf("ovens.json: empty kind")
		}
		if _, dup := out.Defs[d.Kind]; dup {
			return fmt.Errorf("ovens.json: duplicate kind %q", d.Kind)
		}
		out.Defs[d.Kind] = d
	}
	out.Kinds = sortedKeys(out.Defs)
	return nil
}

func (c *Catalogs) validateRefs() error {
	for _, id := range c.Items.Palette {
		d := c.Items.Defs[id]
		if d.Cookable != nil {
			if _, ok := c.Items.Defs[d.Cookable.Becomes]; !ok {
				return fmt.Errorf("items.json: %s: unknown cookable.becomes %q", id, d.Cookable.Becomes)
			}
		}
		if d.Burnable != nil && d.Burnable.Byproduct != "" {
			if _, ok := c.Items.Defs[d.Burnable.Byproduct]; !ok {
				return fmt.Errorf("items.json: %s: unknown burnable.byproduct %q", id, d.Burnable.Byproduct)
			}
		}
	}
	for _, kind := range c.Ovens.Kinds {
		fuel, ok := c.Items.Defs[c.Ovens.Defs[kind].FuelItem]
		if !ok || fuel.Burnable == nil {
			return fmt.Errorf("ovens.json: %s: fuel_item %q is not a burnable item", kind, c.Ovens.Defs[kind].FuelItem)
		}
	}
	return nil
}

func validate(schemaSrc, name string, raw []byte) error {
	s, err := jsonschema.CompileString(name+".schema.json", schemaSrc)
	if err != nil {
		return fmt.Errorf("%s: compile schema: %w", name, err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
