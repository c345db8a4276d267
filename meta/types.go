package meta

import (
	"reflect"
	"slices"
	"sync"

	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/meta/access"
)

// The following types form the resolved mapping graph of a Model. They are
// immutable once their type reaches the Resolved state.
type (
	// MetaTable is a persisted collection of rows of one MetaType.
	MetaTable struct {
		// Name is the database table name.
		Name string
		// Member is the context member declaring the table, if any.
		Member string
		// RowType is the mapped shape of the rows. RowType.Table is this table.
		RowType *MetaType
		model   *Model
	}

	// MetaType is the resolved shape of one mapped Go struct type.
	MetaType struct {
		// Name is the Go type name.
		Name string
		// Type is the Go struct type.
		Type reflect.Type
		// Table owning the type; nil for function result shapes.
		Table *MetaTable
		// DataMembers holds the columns followed by the association
		// members, each at its Ordinal.
		DataMembers []*MetaDataMember
		// PersistentDataMembers are the stored columns.
		PersistentDataMembers []*MetaDataMember
		// IdentityMembers are the primary key members in declaration order.
		IdentityMembers []*MetaDataMember
		// Associations are the association members' relationships.
		Associations []*MetaAssociation
		// VersionMember is the row version column, if any.
		VersionMember *MetaDataMember
		// DBGeneratedIdentityMember is the database generated primary key, if any.
		DBGeneratedIdentityMember *MetaDataMember
		members                   map[string]*MetaDataMember
		state                     typeState
		model                     *Model
	}

	// MetaDataMember is one mapped member of a MetaType.
	MetaDataMember struct {
		// Name is the Go member name.
		Name string
		// MappedName is the column or association name.
		MappedName string
		// DeclaringType is the type declaring the member.
		DeclaringType *MetaType
		// Type is the Go type of the member value.
		Type reflect.Type
		// Ordinal is the position in DeclaringType.DataMembers.
		Ordinal         int
		DbType          string
		Expression      string
		CanBeNull       bool
		IsPrimaryKey    bool
		IsPersistent    bool
		IsDbGenerated   bool
		IsVersion       bool
		IsDiscriminator bool
		IsAssociation   bool
		UpdateCheck     mapping.UpdateCheck
		AutoSync        mapping.AutoSync
		// Association is set for association members.
		Association *MetaAssociation
		ref         access.Ref
		storage     *access.Ref
	}

	// MetaAssociation is one side of a resolved relationship between two
	// types, seen from ThisMember. Each association member has its own
	// value; the opposite side, when mapped, is OtherMember.Association
	// (see Reverse).
	MetaAssociation struct {
		// Name is the association name, shared by both sides.
		Name         string
		ThisMember   *MetaDataMember
		ThisType     *MetaType
		OtherMember  *MetaDataMember
		OtherType    *MetaType
		ThisKey      []*MetaDataMember
		OtherKey     []*MetaDataMember
		IsMany       bool
		IsUnique     bool
		IsForeignKey bool
		IsNullable   bool
		DeleteRule   string
		DeleteOnNull bool
		thisKeyIsPK  func() bool
		otherKeyIsPK func() bool
	}

	// MetaFunction is a database function bound to a Go method.
	MetaFunction struct {
		// Name is the Go method identity used for lookups.
		Name string
		// MappedName is the database function name.
		MappedName   string
		Method       reflect.Method
		IsComposable bool
		Parameters   []*MetaParameter
		// ResultRowTypes are the shapes of the rows returned.
		ResultRowTypes []*MetaType
		// ReturnParameter describes a scalar return value.
		ReturnParameter *MetaParameter
		model           *Model
	}

	// MetaParameter is a function parameter or return value.
	MetaParameter struct {
		// Name is the Go parameter name.
		Name string
		// MappedName is the database parameter name.
		MappedName string
		DbType     string
		Direction  mapping.Direction
		Type       reflect.Type
	}
)

type typeState uint8

const (
	// registered: columns are set up, associations are not.
	registered typeState = iota + 1
	// resolved: associations are set up too.
	resolved
)

// Model returns the model owning the table.
func (t *MetaTable) Model() *Model { return t.model }

// Model returns the model owning the type.
func (t *MetaType) Model() *Model { return t.model }

// Resolved reports whether the associations of the type are resolved.
func (t *MetaType) Resolved() bool { return t.state == resolved }

// Member returns the data member with the given Go name.
func (t *MetaType) Member(name string) (*MetaDataMember, bool) {
	m, ok := t.members[name]
	return m, ok
}

// Columns returns the column members, in declaration order.
func (t *MetaType) Columns() []*MetaDataMember {
	return slices.DeleteFunc(slices.Clone(t.DataMembers), func(m *MetaDataMember) bool {
		return m.IsAssociation
	})
}

// MemberNames returns the Go names of members.
func MemberNames(members []*MetaDataMember) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

// Ref returns the location of the member on its declaring Go type.
func (m *MetaDataMember) Ref() access.Ref { return m.ref }

// Accessor returns the compiled accessor of the member.
func (m *MetaDataMember) Accessor() (*access.Accessor, error) {
	return access.Compile(m.ref)
}

// StorageAccessor returns the accessor of the member's storage field, or
// the member accessor when the member has no separate storage.
func (m *MetaDataMember) StorageAccessor() (*access.Accessor, error) {
	if m.storage == nil {
		return m.Accessor()
	}
	return access.Compile(*m.storage)
}

// ThisKeyIsPrimaryKey reports whether every this-key member is a
// primary key member.
func (a *MetaAssociation) ThisKeyIsPrimaryKey() bool { return a.thisKeyIsPK() }

// OtherKeyIsPrimaryKey reports whether every other-key member is a
// primary key member.
func (a *MetaAssociation) OtherKeyIsPrimaryKey() bool { return a.otherKeyIsPK() }

// Reverse returns the opposite side of the relationship, or nil when the
// other type maps no association member of the same name.
func (a *MetaAssociation) Reverse() *MetaAssociation {
	if a.OtherMember == nil {
		return nil
	}
	return a.OtherMember.Association
}

// allPrimaryKey returns a memoized predicate over keys.
func allPrimaryKey(keys []*MetaDataMember) func() bool {
	return sync.OnceValue(func() bool {
		for _, k := range keys {
			if !k.IsPrimaryKey {
				return false
			}
		}
		return true
	})
}

// Model returns the model owning the function.
func (f *MetaFunction) Model() *Model { return f.model }

// HasMultipleResults reports whether the function returns more than one
// row shape.
func (f *MetaFunction) HasMultipleResults() bool { return len(f.ResultRowTypes) > 1 }
