package tuning

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	AutosaveEveryTicks int `yaml:"autosave_every_ticks" json:"autosave_every_ticks"`

	CompatibleOvens    []string       `yaml:"compatible_ovens" json:"compatible_ovens"`
	DefaultTotalStacks map[string]int `yaml:"default_total_stacks" json:"default_total_stacks"`

	ActorInventorySlots int            `yaml:"actor_inventory_slots" json:"actor_inventory_slots"`
	StarterItems        map[string]int `yaml:"starter_items" json:"starter_items"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         5,
		AutosaveEveryTicks: 1500,
		CompatibleOvens:    []string{"furnace", "furnace.large", "campfire", "refinery_small_deployed"},
		DefaultTotalStacks: map[string]int{
			"furnace":                 4,
			"furnace.large":           15,
			"campfire":                2,
			"refinery_small_deployed": 4,
		},
		ActorInventorySlots: 24,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.AutosaveEveryTicks < 0 {
		return fmt.Errorf("autosave_every_ticks must be >= 0")
	}
	if t.ActorInventorySlots <= 0 {
		return fmt.Errorf("actor_inventory_slots must be > 0")
	}
	for kind, n := range t.DefaultTotalStacks {
		if n < 0 {
			return fmt.Errorf("default_total_stacks[%s] must be >= 0", kind)
		}
	}
	return nil
}

// Compatible reports whether the splitter acts on ovens of kind.
func (t Tuning) Compatible(kind string) bool {
	return slices.Contains(t.CompatibleOvens, kind)
}
