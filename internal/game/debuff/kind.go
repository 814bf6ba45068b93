// Package debuff implements the timed status-effect engine shared by party
// members and enemies.
package debuff

import "fmt"

// Kind identifies one of the eight debuff types. The zero value is invalid.
type Kind int

const (
	Poisoned Kind = iota + 1
	Weakened
	Slowed
	Stunned
	Confused
	Cursed
	Blinded
	Frightened
)

// kinds is the canonical table order; trap debuffs index into it with a d8.
var kinds = [...]Kind{Poisoned, Weakened, Slowed, Stunned, Confused, Cursed, Blinded, Frightened}

// Kinds returns every debuff kind in table order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds[:])
	return out
}

// String returns the lower-case wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Poisoned:
		return "poisoned"
	case Weakened:
		return "weakened"
	case Slowed:
		return "slowed"
	case Stunned:
		return "stunned"
	case Confused:
		return "confused"
	case Cursed:
		return "cursed"
	case Blinded:
		return "blinded"
	case Frightened:
		return "frightened"
	default:
		return fmt.Sprintf("debuff(%d)", int(k))
	}
}

// Valid reports whether k is one of the eight defined kinds.
func (k Kind) Valid() bool {
	return k >= Poisoned && k <= Frightened
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown debuff %q", s)
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid debuff kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind from its name, so catalogs can refer to debuffs in YAML.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Stat names one of the four base character statistics.
type Stat int

const (
	Might Stat = iota + 1
	Grit
	Wit
	Luck
)

// String returns the lower-case stat name.
func (s Stat) String() string {
	switch s {
	case Might:
		return "might"
	case Grit:
		return "grit"
	case Wit:
		return "wit"
	case Luck:
		return "luck"
	default:
		return fmt.Sprintf("stat(%d)", int(s))
	}
}

// ParseStat maps a stat name to its Stat.
func ParseStat(s string) (Stat, error) {
	for _, st := range []Stat{Might, Grit, Wit, Luck} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown stat %q", s)
}

// UnmarshalText parses a stat from its name.
func (s *Stat) UnmarshalText(b []byte) error {
	parsed, err := ParseStat(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
