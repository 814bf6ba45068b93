package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/roster"
	"github.com/cory-johannsen/guildmanager/internal/game/spell"
)

func TestDefault_FieldsThreeFullParties(t *testing.T) {
	guilds := roster.Default()
	require.Len(t, guilds, 3)
	assert.Equal(t, "Brave Companions", guilds[0].Name)
	assert.Equal(t, "Fortune favors the bold!", guilds[0].Motto)

	catalog := spell.DefaultCatalog()
	for i, g := range guilds {
		p, err := g.Party(int64(i+1), catalog, dice.NewSeededSource(1))
		require.NoError(t, err, g.Name)
		for _, m := range p.Members {
			assert.Equal(t, m.MaxHP, m.CurrentHP)
			assert.Equal(t, m.Role.IsCaster(), len(m.KnownSpells) > 0, m.Name)
		}
	}
}

func TestCharacters_UsesListedHP(t *testing.T) {
	aldric := roster.Default()[0].Members[0]
	assert.Equal(t, 22, aldric.HP)

	chars, err := roster.Default()[0].Characters(7, spell.DefaultCatalog(), dice.NewSeededSource(3))
	require.NoError(t, err)
	assert.Equal(t, 22, chars[0].MaxHP)
	assert.Equal(t, int64(7), chars[0].GuildID)
	assert.Equal(t, character.Striker, chars[0].Role)
}

func TestCharacters_RollsMissingHP(t *testing.T) {
	g := roster.Guild{Name: "Rookies", Members: []roster.Member{
		{Name: "Pip", Role: "burglar", Might: 9, Grit: 10, Wit: 10, Luck: 14},
	}}
	chars, err := g.Characters(1, spell.DefaultCatalog(), dice.NewSeededSource(5))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, chars[0].MaxHP, 11)
	assert.LessOrEqual(t, chars[0].MaxHP, 18)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "guilds:\n  - name: A\n    banner: red\n",
		"unknown role":  "guilds:\n  - name: A\n    members:\n      - {name: B, role: bard, might: 1, grit: 1, wit: 1, luck: 1}\n",
		"no name":       "guilds:\n  - motto: nameless\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := roster.Load([]byte(doc))
			assert.Error(t, err)
		})
	}
}
