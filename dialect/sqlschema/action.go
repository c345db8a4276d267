package sqlschema

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/schema"
)

// CascadeAction defines cascade behavior for foreign key constraints.
type CascadeAction string

const (
	Cascade    CascadeAction = "CASCADE"
	SetNull    CascadeAction = "SET NULL"
	Restrict   CascadeAction = "RESTRICT"
	SetDefault CascadeAction = "SET DEFAULT"
	NoAction   CascadeAction = "NO ACTION"
)

// ParseCascadeAction parses the delete rule of an association. Matching is
// case insensitive and an empty rule is NoAction.
func ParseCascadeAction(rule string) (CascadeAction, error) {
	a := CascadeAction(strings.Join(strings.Fields(strings.ToUpper(rule)), " "))
	switch a {
	case "":
		return NoAction, nil
	case Cascade, SetNull, Restrict, SetDefault, NoAction:
		return a, nil
	default:
		return "", fmt.Errorf("sqlschema: unknown delete rule %q", rule)
	}
}

// ReferenceOption returns the atlas reference option of the action.
func (a CascadeAction) ReferenceOption() schema.ReferenceOption {
	return schema.ReferenceOption(a)
}
