package mapping

import (
	"fmt"
)

// UpdateCheck is the optimistic concurrency policy of a column.
type UpdateCheck uint8

// UpdateCheck values.
const (
	UpdateCheckAlways UpdateCheck = iota
	UpdateCheckNever
	UpdateCheckWhenChanged
)

var updateCheckNames = [...]string{
	UpdateCheckAlways:      "Always",
	UpdateCheckNever:       "Never",
	UpdateCheckWhenChanged: "WhenChanged",
}

// String returns the literal used in mapping documents.
func (u UpdateCheck) String() string {
	if int(u) < len(updateCheckNames) {
		return updateCheckNames[u]
	}
	return fmt.Sprintf("UpdateCheck(%d)", u)
}

// ParseUpdateCheck parses an UpdateCheck literal.
func ParseUpdateCheck(s string) (UpdateCheck, bool) {
	for i, name := range updateCheckNames {
		if name == s {
			return UpdateCheck(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (u UpdateCheck) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UpdateCheck) UnmarshalText(text []byte) error {
	v, ok := ParseUpdateCheck(string(text))
	if !ok {
		return &EnumError{Enum: "UpdateCheck", Value: string(text)}
	}
	*u = v
	return nil
}

// AutoSync tells when a generated column value is read back.
type AutoSync uint8

// AutoSync values. Default lets the resolver decide from the column's
// generated and primary-key flags.
const (
	AutoSyncDefault AutoSync = iota
	AutoSyncAlways
	AutoSyncNever
	AutoSyncOnInsert
	AutoSyncOnUpdate
)

var autoSyncNames = [...]string{
	AutoSyncDefault:  "Default",
	AutoSyncAlways:   "Always",
	AutoSyncNever:    "Never",
	AutoSyncOnInsert: "OnInsert",
	AutoSyncOnUpdate: "OnUpdate",
}

// String returns the literal used in mapping documents.
func (a AutoSync) String() string {
	if int(a) < len(autoSyncNames) {
		return autoSyncNames[a]
	}
	return fmt.Sprintf("AutoSync(%d)", a)
}

// ParseAutoSync parses an AutoSync literal.
func ParseAutoSync(s string) (AutoSync, bool) {
	for i, name := range autoSyncNames {
		if name == s {
			return AutoSync(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (a AutoSync) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AutoSync) UnmarshalText(text []byte) error {
	v, ok := ParseAutoSync(string(text))
	if !ok {
		return &EnumError{Enum: "AutoSync", Value: string(text)}
	}
	*a = v
	return nil
}

// Direction is the direction of a function parameter.
type Direction uint8

// Direction values.
const (
	DirectionIn Direction = iota
	DirectionOut
	DirectionInOut
)

var directionNames = [...]string{
	DirectionIn:    "In",
	DirectionOut:   "Out",
	DirectionInOut: "InOut",
}

// String returns the literal used in mapping documents.
func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// ParseDirection parses a Direction literal.
func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	v, ok := ParseDirection(string(text))
	if !ok {
		return &EnumError{Enum: "Direction", Value: string(text)}
	}
	*d = v
	return nil
}

// EnumError is returned by the UnmarshalText methods for unknown literals.
type EnumError struct {
	Enum  string
	Value string
}

// Error returns the error string.
func (e *EnumError) Error() string {
	return fmt.Sprintf("mapping: unknown %s literal %q", e.Enum, e.Value)
}
