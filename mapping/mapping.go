// Package mapping defines the descriptor records shared by every mapping
// backend. Descriptors are plain data: a backend parses or scans its input
// into a Database tree and package meta resolves it against Go types.
package mapping

// Namespace is the XML namespace of mapping documents.
const Namespace = "http://schemas.microsoft.com/linqtosql/mapping/2007"

// Database describes a data context.
type Database struct {
	Name      string      `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Provider  string      `yaml:"provider,omitempty" msgpack:"provider,omitempty"`
	Tables    []*Table    `yaml:"tables,omitempty" msgpack:"tables,omitempty"`
	Functions []*Function `yaml:"functions,omitempty" msgpack:"functions,omitempty"`
}

// Table describes a persisted collection of rows of one Type.
type Table struct {
	Name   string `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Member string `yaml:"member,omitempty" msgpack:"member,omitempty"`
	Type   *Type  `yaml:"type" msgpack:"type"`
}

// Type describes a mapped row shape. Name is the Go type name, either
// simple ("Customer") or qualified with its package path.
type Type struct {
	Name                 string         `yaml:"name" msgpack:"name"`
	InheritanceCode      string         `yaml:"inheritanceCode,omitempty" msgpack:"inheritanceCode,omitempty"`
	IsInheritanceDefault bool           `yaml:"isInheritanceDefault,omitempty" msgpack:"isInheritanceDefault,omitempty"`
	Columns              []*Column      `yaml:"columns,omitempty" msgpack:"columns,omitempty"`
	Associations         []*Association `yaml:"associations,omitempty" msgpack:"associations,omitempty"`
	Types                []*Type        `yaml:"types,omitempty" msgpack:"types,omitempty"`
}

// Column describes a column-backed data member.
type Column struct {
	Name            string      `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Member          string      `yaml:"member" msgpack:"member"`
	Storage         string      `yaml:"storage,omitempty" msgpack:"storage,omitempty"`
	DbType          string      `yaml:"dbType,omitempty" msgpack:"dbType,omitempty"`
	IsPrimaryKey    bool        `yaml:"isPrimaryKey,omitempty" msgpack:"isPrimaryKey,omitempty"`
	IsDbGenerated   bool        `yaml:"isDbGenerated,omitempty" msgpack:"isDbGenerated,omitempty"`
	CanBeNull       *bool       `yaml:"canBeNull,omitempty" msgpack:"canBeNull,omitempty"` // nil: derived from the member type
	UpdateCheck     UpdateCheck `yaml:"updateCheck,omitempty" msgpack:"updateCheck,omitempty"`
	IsDiscriminator bool        `yaml:"isDiscriminator,omitempty" msgpack:"isDiscriminator,omitempty"`
	Expression      string      `yaml:"expression,omitempty" msgpack:"expression,omitempty"`
	IsVersion       bool        `yaml:"isVersion,omitempty" msgpack:"isVersion,omitempty"`
	AutoSync        AutoSync    `yaml:"autoSync,omitempty" msgpack:"autoSync,omitempty"`
}

// Association describes a foreign-key relationship member. A nil key list
// means the identity members of the respective side.
type Association struct {
	Name         string  `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Member       string  `yaml:"member" msgpack:"member"`
	Storage      string  `yaml:"storage,omitempty" msgpack:"storage,omitempty"`
	ThisKey      *string `yaml:"thisKey,omitempty" msgpack:"thisKey,omitempty"`
	OtherKey     *string `yaml:"otherKey,omitempty" msgpack:"otherKey,omitempty"`
	IsForeignKey bool    `yaml:"isForeignKey,omitempty" msgpack:"isForeignKey,omitempty"`
	IsUnique     bool    `yaml:"isUnique,omitempty" msgpack:"isUnique,omitempty"`
	DeleteRule   string  `yaml:"deleteRule,omitempty" msgpack:"deleteRule,omitempty"`
	DeleteOnNull bool    `yaml:"deleteOnNull,omitempty" msgpack:"deleteOnNull,omitempty"`
}

// Function describes a stored procedure or user-defined function bound to
// a method. ElementTypes and Return are mutually exclusive.
type Function struct {
	Name         string       `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Method       string       `yaml:"method" msgpack:"method"`
	IsComposable bool         `yaml:"isComposable,omitempty" msgpack:"isComposable,omitempty"`
	Parameters   []*Parameter `yaml:"parameters,omitempty" msgpack:"parameters,omitempty"`
	ElementTypes []*Type      `yaml:"elementTypes,omitempty" msgpack:"elementTypes,omitempty"`
	Return       *Return      `yaml:"return,omitempty" msgpack:"return,omitempty"`
}

// Parameter describes one function parameter. Parameter is the name of the
// method parameter, Name the database parameter name.
type Parameter struct {
	Name      string    `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Parameter string    `yaml:"parameter" msgpack:"parameter"`
	DbType    string    `yaml:"dbType,omitempty" msgpack:"dbType,omitempty"`
	Direction Direction `yaml:"direction,omitempty" msgpack:"direction,omitempty"`
}

// Return describes a function's scalar return value.
type Return struct {
	DbType string `yaml:"dbType,omitempty" msgpack:"dbType,omitempty"`
}

// KeyList returns a pointer to s, for building Association key lists.
func KeyList(s string) *string {
	return &s
}

// Bool returns a pointer to b, for building Column.CanBeNull.
func Bool(b bool) *bool {
	return &b
}

// ApplyDefaults fills the Name defaults of the tree in place: a Table,
// Column or Association Name defaults to its Member, a Function Name to its
// Method and a Parameter Name to its Parameter.
func (d *Database) ApplyDefaults() {
	for _, t := range d.Tables {
		if t.Name == "" {
			t.Name = t.Member
		}
		if t.Type != nil {
			t.Type.applyDefaults()
		}
	}
	for _, f := range d.Functions {
		if f.Name == "" {
			f.Name = f.Method
		}
		for _, p := range f.Parameters {
			if p.Name == "" {
				p.Name = p.Parameter
			}
		}
		for _, et := range f.ElementTypes {
			et.applyDefaults()
		}
	}
}

func (t *Type) applyDefaults() {
	for _, c := range t.Columns {
		if c.Name == "" {
			c.Name = c.Member
		}
	}
	for _, a := range t.Associations {
		if a.Name == "" {
			a.Name = a.Member
		}
	}
	for _, sub := range t.Types {
		sub.applyDefaults()
	}
}

// Type returns the type descriptor with the given name, searching table
// types and nested types.
func (d *Database) Type(name string) (*Type, bool) {
	for _, t := range d.Tables {
		if t.Type == nil {
			continue
		}
		if found, ok := t.Type.find(name); ok {
			return found, true
		}
	}
	return nil, false
}

// TableFor returns the table whose row type has the given name.
func (d *Database) TableFor(name string) (*Table, bool) {
	for _, t := range d.Tables {
		if t.Type != nil && t.Type.Name == name {
			return t, true
		}
	}
	return nil, false
}

func (t *Type) find(name string) (*Type, bool) {
	if t.Name == name {
		return t, true
	}
	for _, sub := range t.Types {
		if found, ok := sub.find(name); ok {
			return found, true
		}
	}
	return nil, false
}
