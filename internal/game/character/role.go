package character

import "fmt"

// Role is a party position. Every party fields exactly one of each.
type Role int

const (
	Striker Role = iota + 1
	Burglar
	Support
	Controller
)

// Roles returns every role in roster order.
func Roles() []Role {
	return []Role{Striker, Burglar, Support, Controller}
}

// String returns the lower-case role name used in storage and events.
func (r Role) String() string {
	switch r {
	case Striker:
		return "striker"
	case Burglar:
		return "burglar"
	case Support:
		return "support"
	case Controller:
		return "controller"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps a stored role name to its Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// HitDie is the size of the die added to grit for max HP.
func (r Role) HitDie() int {
	switch r {
	case Striker:
		return 10
	case Burglar:
		return 8
	case Support, Controller:
		return 6
	default:
		panic(fmt.Sprintf("character: HitDie on invalid role %d", int(r)))
	}
}

// DamageDie is the size of the weapon die used for melee attacks.
func (r Role) DamageDie() int {
	switch r {
	case Striker:
		return 8
	case Burglar, Support, Controller:
		return 6
	default:
		panic(fmt.Sprintf("character: DamageDie on invalid role %d", int(r)))
	}
}

// IsCaster reports whether the role knows spells.
func (r Role) IsCaster() bool {
	switch r {
	case Support, Controller:
		return true
	case Striker, Burglar:
		return false
	default:
		return false
	}
}

// UnmarshalText parses a role name.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
