// Package roster holds the demo guilds used to seed a fresh database and to
// run a standalone simulation.
package roster

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/spell"
)

//go:embed roster.yaml
var rosterYAML []byte

// Member describes one recruit. HP 0 rolls max HP on creation.
type Member struct {
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Might int    `yaml:"might"`
	Grit  int    `yaml:"grit"`
	Wit   int    `yaml:"wit"`
	Luck  int    `yaml:"luck"`
	HP    int    `yaml:"hp"`
}

// Guild is a named guild and its four recruits.
type Guild struct {
	Name    string   `yaml:"name"`
	Motto   string   `yaml:"motto"`
	Members []Member `yaml:"members"`
}

// Load parses a roster document.
//
// Postcondition: every guild has a name and valid member roles, or an error is returned.
func Load(data []byte) ([]Guild, error) {
	var f struct {
		Guilds []Guild `yaml:"guilds"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	for _, g := range f.Guilds {
		if g.Name == "" {
			return nil, fmt.Errorf("roster: guild name must not be empty")
		}
		for _, m := range g.Members {
			if _, err := character.ParseRole(m.Role); err != nil {
				return nil, fmt.Errorf("roster: guild %q member %q: %w", g.Name, m.Name, err)
			}
		}
	}
	return f.Guilds, nil
}

// Default returns the embedded demo guilds.
func Default() []Guild {
	guilds, err := Load(rosterYAML)
	if err != nil {
		panic(fmt.Sprintf("roster: embedded roster: %v", err))
	}
	return guilds
}

// Characters builds the guild's members with their starting spells.
//
// Precondition: catalog and src are non-nil.
func (g Guild) Characters(guildID int64, catalog *spell.Catalog, src dice.Source) ([]*character.Character, error) {
	out := make([]*character.Character, 0, len(g.Members))
	for _, m := range g.Members {
		role, err := character.ParseRole(m.Role)
		if err != nil {
			return nil, err
		}
		stats := character.Stats{Might: m.Might, Grit: m.Grit, Wit: m.Wit, Luck: m.Luck}
		var c *character.Character
		if m.HP > 0 {
			c, err = character.Restore(0, m.Name, role, guildID, stats, m.HP, m.HP, 0, true)
		} else {
			c, err = character.New(m.Name, role, guildID, stats, src)
		}
		if err != nil {
			return nil, fmt.Errorf("guild %q: %w", g.Name, err)
		}
		spell.AssignStartingSpells(c, catalog, src)
		out = append(out, c)
	}
	return out, nil
}

// Party builds a ready party for the guild.
func (g Guild) Party(guildID int64, catalog *spell.Catalog, src dice.Source) (*character.Party, error) {
	members, err := g.Characters(guildID, catalog, src)
	if err != nil {
		return nil, err
	}
	return character.NewParty(guildID, g.Name, members)
}
