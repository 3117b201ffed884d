package tree

import "strings"

// Modifiers is a bitmask of declaration modifiers.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModPrivate
	ModStatic
	ModAbstract
	ModFinal
	ModDefault
	ModNative
	ModSynchronized
	ModTransient
	ModVolatile
	ModStrictfp
	ModSealed
	ModNonSealed
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModStatic, "static"},
	{ModAbstract, "abstract"},
	{ModFinal, "final"},
	{ModDefault, "default"},
	{ModNative, "native"},
	{ModSynchronized, "synchronized"},
	{ModTransient, "transient"},
	{ModVolatile, "volatile"},
	{ModStrictfp, "strictfp"},
	{ModSealed, "sealed"},
	{ModNonSealed, "non-sealed"},
}

// ParseModifier maps a keyword to its bit; ok is false for unknown words.
func ParseModifier(word string) (Modifiers, bool) {
	for _, m := range modifierNames {
		if m.name == word {
			return m.mod, true
		}
	}
	return 0, false
}

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

func (m Modifiers) String() string {
	parts := make([]string, 0, 4)
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, " ")
}
