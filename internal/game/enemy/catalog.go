// Package enemy provides the tiered enemy catalog, floor-scaled enemy
// instances, boss modifiers and encounter generation.
package enemy

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// DefaultSpecialTrigger is the minimum d4 face that fires a special on hit.
const DefaultSpecialTrigger = 3

// Type is a catalog entry. Instance stats are derived from it per floor.
type Type struct {
	Name           string  `yaml:"name"`
	Tier           Tier    `yaml:"-"`
	HPDie          int     `yaml:"hp_die"`
	ACMod          int     `yaml:"ac_mod"`
	DamageDie      int     `yaml:"damage_die"`
	Special        Special `yaml:"special"`
	SpecialTrigger int     `yaml:"special_trigger"`
	Description    string  `yaml:"description"`
}

// Validate checks that the type can produce enemies.
//
// Postcondition: Returns nil iff Name is non-empty and both dice are >= 2.
func (t *Type) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("enemy type: name must not be empty")
	}
	if t.HPDie < 2 {
		return fmt.Errorf("enemy type %q: hp_die must be >= 2", t.Name)
	}
	if t.DamageDie < 2 {
		return fmt.Errorf("enemy type %q: damage_die must be >= 2", t.Name)
	}
	if t.SpecialTrigger < 0 || t.SpecialTrigger > 4 {
		return fmt.Errorf("enemy type %q: special_trigger must be within [0, 4]", t.Name)
	}
	return nil
}

type catalogFile struct {
	Tiers []struct {
		Tier  Tier   `yaml:"tier"`
		Types []Type `yaml:"types"`
	} `yaml:"tiers"`
}

// Catalog holds the enemy types of every tier in catalog order.
type Catalog struct {
	byTier map[Tier][]Type
}

// LoadCatalog parses a catalog document.
//
// Precondition: data is a YAML catalog with one non-empty entry per tier 1..5.
// Postcondition: Returns a validated catalog or an error on the first violation.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing enemy catalog: %w", err)
	}
	c := &Catalog{byTier: make(map[Tier][]Type, len(f.Tiers))}
	for _, tier := range f.Tiers {
		if tier.Tier < Tier1 || tier.Tier > Tier5 {
			return nil, fmt.Errorf("enemy catalog: tier %d out of range", tier.Tier)
		}
		if _, dup := c.byTier[tier.Tier]; dup {
			return nil, fmt.Errorf("enemy catalog: tier %d listed twice", tier.Tier)
		}
		types := make([]Type, 0, len(tier.Types))
		for _, t := range tier.Types {
			t.Tier = tier.Tier
			if t.SpecialTrigger == 0 {
				t.SpecialTrigger = DefaultSpecialTrigger
			}
			if err := t.Validate(); err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		c.byTier[tier.Tier] = types
	}
	for t := Tier1; t <= Tier5; t++ {
		if len(c.byTier[t]) == 0 {
			return nil, fmt.Errorf("enemy catalog: tier %d has no types", t)
		}
	}
	return c, nil
}

// DefaultCatalog returns the embedded catalog.
//
// Postcondition: panics if the embedded document is invalid.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("enemy: embedded catalog: %v", err))
	}
	return c
}

// Types returns the enemy types available on floor.
func (c *Catalog) Types(floor int) []Type {
	return c.byTier[TierForFloor(floor)]
}

// Lookup finds a type by name.
func (c *Catalog) Lookup(name string) (Type, bool) {
	for t := Tier1; t <= Tier5; t++ {
		for _, typ := range c.byTier[t] {
			if typ.Name == name {
				return typ, true
			}
		}
	}
	return Type{}, false
}
