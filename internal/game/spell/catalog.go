// Package spell holds the spell catalog and the AI that picks, targets and
// casts spells for Support and Controller characters.
package spell

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
)

//go:embed spells.yaml
var spellsYAML []byte

// Kind categorizes what a spell does.
type Kind int

const (
	Debuff Kind = iota + 1
	Damage
	Heal
	Buff
	Cure
)

var kindNames = map[Kind]string{Debuff: "debuff", Damage: "damage", Heal: "heal", Buff: "buff", Cure: "cure"}

// String returns the catalog name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// UnmarshalText parses a catalog kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown spell kind %q", string(b))
}

// TargetType is who a spell lands on.
type TargetType int

const (
	SingleEnemy TargetType = iota + 1
	SingleAlly
	AllAllies
)

// UnmarshalText parses "enemy", "ally" or "all_allies".
func (t *TargetType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "enemy":
		*t = SingleEnemy
	case "ally":
		*t = SingleAlly
	case "all_allies":
		*t = AllAllies
	default:
		return fmt.Errorf("unknown spell target %q", string(b))
	}
	return nil
}

// Amount is a catalog quantity: a flat number or a dice expression.
type Amount struct {
	expr *dice.Expression
	flat int
}

// UnmarshalText accepts "4" or "1d6".
func (a *Amount) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return fmt.Errorf("spell amount %q must not be negative", s)
		}
		a.flat = n
		return nil
	}
	e, err := dice.Parse(s)
	if err != nil {
		return err
	}
	a.expr = &e
	return nil
}

// IsZero reports whether the amount was never set.
func (a Amount) IsZero() bool { return a.expr == nil && a.flat == 0 }

// Roll returns the flat value or a fresh roll of the expression.
func (a Amount) Roll(src dice.Source) int {
	if a.expr != nil {
		return dice.Roll(*a.expr, src).Total()
	}
	return a.flat
}

// Effect is the payload of a successful cast.
type Effect struct {
	Damage        Amount        `yaml:"damage"`
	Healing       Amount        `yaml:"healing"`
	Debuff        debuff.Kind   `yaml:"debuff"`
	Duration      Amount        `yaml:"duration"`
	Shield        Amount        `yaml:"shield"`
	PreventsDeath bool          `yaml:"prevents_death"`
	Regeneration  Amount        `yaml:"regeneration"`
	Cures         []debuff.Kind `yaml:"cures"`
}

// CuresAny reports whether the effect removes kind.
func (e Effect) CuresAny(kinds ...debuff.Kind) bool {
	for _, k := range kinds {
		if slices.Contains(e.Cures, k) {
			return true
		}
	}
	return false
}

// Spell is one catalog entry.
type Spell struct {
	Name           string         `yaml:"name"`
	Role           character.Role `yaml:"role"`
	Kind           Kind           `yaml:"kind"`
	Target         TargetType     `yaml:"target"`
	BaseDC         int            `yaml:"base_dc"`
	UsesFloorLevel bool           `yaml:"uses_floor_level"`
	UsesEnemyLevel bool           `yaml:"uses_enemy_level"`
	Secondary      debuff.Stat    `yaml:"secondary"`
	// Starting marks the spell every caster of the role begins with.
	Starting bool `yaml:"starting"`
	// Emergency marks heals used on allies at or below 10% HP.
	Emergency   bool   `yaml:"emergency"`
	Description string `yaml:"description"`
	Effect      Effect `yaml:"effect"`
}

// Validate checks internal consistency of the entry.
func (s *Spell) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("spell: name must not be empty")
	}
	if !s.Role.IsCaster() {
		return fmt.Errorf("spell %q: role %s cannot cast", s.Name, s.Role)
	}
	if s.Kind == 0 || s.Target == 0 || s.Secondary == 0 {
		return fmt.Errorf("spell %q: kind, target and secondary are required", s.Name)
	}
	if s.BaseDC < 1 {
		return fmt.Errorf("spell %q: base_dc must be >= 1", s.Name)
	}
	if s.Effect.Debuff != 0 && s.Effect.Duration.IsZero() {
		return fmt.Errorf("spell %q: debuff requires a duration", s.Name)
	}
	return nil
}

// Catalog is the ordered set of spells.
type Catalog struct {
	spells []*Spell
	byName map[string]*Spell
}

// LoadCatalog parses and validates a catalog document.
//
// Postcondition: each caster role has exactly one starting spell.
func LoadCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Spells []*Spell `yaml:"spells"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing spell catalog: %w", err)
	}
	c := &Catalog{byName: make(map[string]*Spell, len(doc.Spells))}
	starting := map[character.Role]int{}
	for _, s := range doc.Spells {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[s.Name]; dup {
			return nil, fmt.Errorf("spell %q listed twice", s.Name)
		}
		if s.Starting {
			starting[s.Role]++
		}
		c.spells = append(c.spells, s)
		c.byName[s.Name] = s
	}
	for _, r := range []character.Role{character.Support, character.Controller} {
		if starting[r] != 1 {
			return nil, fmt.Errorf("spell catalog: %s needs exactly one starting spell, has %d", r, starting[r])
		}
	}
	return c, nil
}

// DefaultCatalog returns the embedded catalog. It panics if the embedded document is invalid.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(spellsYAML)
	if err != nil {
		panic(fmt.Sprintf("spell: embedded catalog: %v", err))
	}
	return c
}

// Get returns the named spell.
func (c *Catalog) Get(name string) (*Spell, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// All returns every spell in catalog order.
func (c *Catalog) All() []*Spell {
	return slices.Clone(c.spells)
}

// ForRole returns the role's spells in catalog order.
func (c *Catalog) ForRole(role character.Role) []*Spell {
	var out []*Spell
	for _, s := range c.spells {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// Starting returns the role's starting spell, or nil for non-casters.
func (c *Catalog) Starting(role character.Role) *Spell {
	for _, s := range c.ForRole(role) {
		if s.Starting {
			return s
		}
	}
	return nil
}

// AssignStartingSpells teaches c its role's starting spell plus SpellSlots
// further spells drawn without replacement from the rest of the role's list.
//
// Postcondition: non-casters learn nothing; no spell is learned twice.
func AssignStartingSpells(c *character.Character, catalog *Catalog, src dice.Source) {
	first := catalog.Starting(c.Role)
	if first == nil {
		return
	}
	if !c.Knows(first.Name) {
		c.KnownSpells = append(c.KnownSpells, first.Name)
	}
	var pool []string
	for _, s := range catalog.ForRole(c.Role) {
		if !c.Knows(s.Name) {
			pool = append(pool, s.Name)
		}
	}
	n := min(c.SpellSlots, len(pool))
	for i := 0; i < n; i++ {
		j := i + dice.Pick(src, len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		c.KnownSpells = append(c.KnownSpells, pool[i])
	}
}
