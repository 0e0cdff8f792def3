package asset

import "strings"

// Type classifies an asset. Each registered Kind declares one Type.
type Type int

const (
	Unknown Type = iota
	Prop
	Vehicle
	Character
	Scene
	Sign
	Roadmark
	Generic
)

var typeNames = map[Type]string{
	Unknown:   "UNKNOWN",
	Prop:      "PROP",
	Vehicle:   "VEHICLE",
	Character: "CHARACTER",
	Scene:     "SCENE",
	Sign:      "SIGN",
	Roadmark:  "ROADMARK",
	Generic:   "GENERIC",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return typeNames[Unknown]
}

// ParseType is case-insensitive; unrecognized names are Unknown.
func ParseType(s string) Type {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t
		}
	}
	return Unknown
}

// TypeOf reads the "Asset Type" key of a raw entry.
func TypeOf(raw Raw) Type {
	return ParseType(str(raw, keyType))
}

// IsType returns a match predicate accepting entries declaring t.
func IsType(t Type) func(Raw) bool {
	return func(raw Raw) bool { return TypeOf(raw) == t }
}
