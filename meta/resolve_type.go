package meta

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/meta/access"
)

// hookMethods are load and validation callbacks, which are not supported.
var hookMethods = []string{"OnLoaded", "OnValidate"}

// newType builds the registered shell of row: columns, identity and
// association members without their associations.
func (b *builder) newType(row reflect.Type, td *mapping.Type, tbl *MetaTable) (*MetaType, error) {
	typeName := row.String()
	if len(td.Types) > 0 || td.InheritanceCode != "" || td.IsInheritanceDefault {
		return nil, dbmap.NewNotSupportedError("inheritance", typeName, "")
	}
	for _, hook := range hookMethods {
		if _, ok := reflect.PointerTo(row).MethodByName(hook); ok {
			return nil, dbmap.NewNotSupportedError(hook+" hook", typeName, hook)
		}
	}
	mt := &MetaType{
		Name:    row.Name(),
		Type:    row,
		Table:   tbl,
		members: make(map[string]*MetaDataMember),
		state:   registered,
		model:   b.m,
	}
	for _, cd := range td.Columns {
		mm, err := newColumn(mt, cd)
		if err != nil {
			return nil, err
		}
		if err := mt.add(mm); err != nil {
			return nil, err
		}
		if mm.IsPersistent {
			mt.PersistentDataMembers = append(mt.PersistentDataMembers, mm)
		}
		if mm.IsVersion {
			if mt.VersionMember != nil {
				return nil, dbmap.NewInvalidMappingError(mm.Name, typeName, "type already has version member %s", mt.VersionMember.Name)
			}
			mt.VersionMember = mm
		}
		if mm.IsPrimaryKey && mm.IsDbGenerated && cd.Expression == "" {
			if mt.DBGeneratedIdentityMember != nil {
				return nil, dbmap.NewInvalidMappingError(mm.Name, typeName, "type already has generated identity member %s", mt.DBGeneratedIdentityMember.Name)
			}
			mt.DBGeneratedIdentityMember = mm
		}
	}
	// Identity is every persistent primary key member, in declaration
	// order, wherever it is declared.
	for _, mm := range mt.PersistentDataMembers {
		if !mm.IsPrimaryKey {
			continue
		}
		if !isSupportedIdentity(mm.Type) {
			return nil, dbmap.NewInvalidMappingError(mm.Name, typeName, "unsupported identity member type %s", mm.Type)
		}
		mt.IdentityMembers = append(mt.IdentityMembers, mm)
	}
	for _, ad := range td.Associations {
		mm, err := newAssociationMember(mt, ad)
		if err != nil {
			return nil, err
		}
		if err := mt.add(mm); err != nil {
			return nil, err
		}
	}
	return mt, nil
}

func (t *MetaType) add(mm *MetaDataMember) error {
	if _, ok := t.members[mm.Name]; ok {
		return dbmap.NewInvalidMappingError(mm.Name, t.Type.String(), "member is mapped more than once")
	}
	mm.Ordinal = len(t.DataMembers)
	t.DataMembers = append(t.DataMembers, mm)
	t.members[mm.Name] = mm
	return nil
}

// memberRefs locates a mapped member and its optional storage field.
func memberRefs(mt *MetaType, member, storage string) (access.Ref, *access.Ref, error) {
	typeName := mt.Type.String()
	ref, ok := access.MemberRef(mt.Type, member, storage)
	if !ok {
		return access.Ref{}, nil, dbmap.NewMemberNotFoundError(member, typeName)
	}
	if dbmap.IsDeferred(ref.Type) {
		return access.Ref{}, nil, dbmap.NewNotSupportedError("deferred member", typeName, member)
	}
	if storage == "" || storage == member {
		return ref, nil, nil
	}
	st, ok := access.FieldRef(mt.Type, storage)
	if !ok {
		return access.Ref{}, nil, dbmap.NewMemberNotFoundError(storage, typeName)
	}
	if dbmap.IsDeferred(st.Type) {
		return access.Ref{}, nil, dbmap.NewNotSupportedError("deferred member", typeName, storage)
	}
	return ref, &st, nil
}

func newColumn(mt *MetaType, cd *mapping.Column) (*MetaDataMember, error) {
	typeName := mt.Type.String()
	if cd.IsDiscriminator {
		return nil, dbmap.NewNotSupportedError("inheritance discriminator", typeName, cd.Member)
	}
	ref, storage, err := memberRefs(mt, cd.Member, cd.Storage)
	if err != nil {
		return nil, err
	}
	if !ref.Readable() {
		return nil, dbmap.NewInvalidMappingError(cd.Member, typeName, "column member cannot be read")
	}
	mm := &MetaDataMember{
		Name:            cd.Member,
		MappedName:      cd.Name,
		DeclaringType:   mt,
		Type:            ref.Type,
		DbType:          cd.DbType,
		Expression:      cd.Expression,
		IsPrimaryKey:    cd.IsPrimaryKey,
		IsPersistent:    true,
		IsDbGenerated:   cd.IsDbGenerated || cd.Expression != "" || cd.IsVersion,
		IsVersion:       cd.IsVersion,
		IsDiscriminator: cd.IsDiscriminator,
		UpdateCheck:     cd.UpdateCheck,
		ref:             ref,
		storage:         storage,
	}
	if mm.MappedName == "" {
		mm.MappedName = cd.Member
	}
	if cd.CanBeNull != nil {
		mm.CanBeNull = *cd.CanBeNull
	} else {
		mm.CanBeNull = isNullable(ref.Type)
	}
	switch {
	case cd.IsDbGenerated && cd.IsPrimaryKey:
		if cd.AutoSync != mapping.AutoSyncDefault && cd.AutoSync != mapping.AutoSyncOnInsert {
			return nil, dbmap.NewInvalidMappingError(cd.Member, typeName, "generated primary key requires AutoSync OnInsert, got %s", cd.AutoSync)
		}
		mm.AutoSync = mapping.AutoSyncOnInsert
	case cd.AutoSync != mapping.AutoSyncDefault:
		mm.AutoSync = cd.AutoSync
	case mm.IsDbGenerated:
		mm.AutoSync = mapping.AutoSyncAlways
	default:
		mm.AutoSync = mapping.AutoSyncNever
	}
	return mm, nil
}

func newAssociationMember(mt *MetaType, ad *mapping.Association) (*MetaDataMember, error) {
	ref, storage, err := memberRefs(mt, ad.Member, ad.Storage)
	if err != nil {
		return nil, err
	}
	mm := &MetaDataMember{
		Name:          ad.Member,
		MappedName:    ad.Name,
		DeclaringType: mt,
		Type:          ref.Type,
		IsAssociation: true,
		CanBeNull:     true,
		AutoSync:      mapping.AutoSyncNever,
		ref:           ref,
		storage:       storage,
	}
	if mm.MappedName == "" {
		mm.MappedName = ad.Member
	}
	return mm, nil
}

// isNullable reports whether values of t can represent NULL.
func isNullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return t.PkgPath() == "database/sql" && strings.HasPrefix(t.Name(), "Null")
}

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
)

// isSupportedIdentity reports whether t can be a primary key member type.
func isSupportedIdentity(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType, uuidType:
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
