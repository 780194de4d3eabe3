package night

// AttackPower is the strength of an attack. Higher values pierce more defenses.
type AttackPower int

const (
	AttackBasic AttackPower = iota + 1
	AttackArmorPiercing
	AttackProtectionPiercing
)

// String returns the wire name of the attack power.
func (a AttackPower) String() string {
	switch a {
	case AttackBasic:
		return "basic"
	case AttackArmorPiercing:
		return "armorPiercing"
	case AttackProtectionPiercing:
		return "protectionPiercing"
	default:
		return "none"
	}
}

// DefensePower is how hard a player is to kill tonight.
type DefensePower int

const (
	DefenseNone DefensePower = iota
	DefenseArmored
	DefenseProtected
	DefenseInvincible
)

// String returns the wire name of the defense power.
func (d DefensePower) String() string {
	switch d {
	case DefenseNone:
		return "none"
	case DefenseArmored:
		return "armored"
	case DefenseProtected:
		return "protected"
	case DefenseInvincible:
		return "invincible"
	default:
		return "unknown"
	}
}

// CanPierce reports whether the attack kills through defense d. An attack
// pierces only a defense strictly below its own level, so nothing pierces
// DefenseInvincible.
func (a AttackPower) CanPierce(d DefensePower) bool {
	return int(a) > int(d)
}

// Max returns the stronger of two defenses.
func (d DefensePower) Max(other DefensePower) DefensePower {
	if other > d {
		return other
	}
	return d
}
