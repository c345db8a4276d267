package meta

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// ParseKeyList splits a comma separated key list, trimming every name and
// dropping empty ones. An empty list yields an empty, non-nil slice.
func ParseKeyList(s string) []string {
	names := make([]string, 0, strings.Count(s, ",")+1)
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// resolveAssociations resolves the association members of a registered
// type, in declaration order, and marks the type resolved.
func (b *builder) resolveAssociations(mt *MetaType, td *mapping.Type) error {
	base := len(mt.DataMembers) - len(td.Associations)
	for i, ad := range td.Associations {
		mm := mt.DataMembers[base+i]
		a, err := b.association(mt, mm, ad)
		if err != nil {
			return err
		}
		mm.Association = a
		mt.Associations = append(mt.Associations, a)
	}
	mt.state = resolved
	if len(mt.Associations) > 0 {
		b.m.cfg.log.Debug("associations resolved", zap.Stringer("type", mt.Type), zap.Int("associations", len(mt.Associations)))
	}
	return nil
}

func (b *builder) association(mt *MetaType, mm *MetaDataMember, ad *mapping.Association) (*MetaAssociation, error) {
	typeName := mt.Type.String()
	target, isMany := associatedType(mm.Type)
	if target.Kind() != reflect.Struct {
		return nil, dbmap.NewTypeNotResolvableError(target.String(), "association "+mm.Name+" of "+typeName+" does not refer to a struct type")
	}
	other, err := b.table(target)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, dbmap.NewTypeNotResolvableError(target.String(), "association "+mm.Name+" of "+typeName+" refers to an unmapped type")
	}
	ot := other.RowType
	thisKey, err := resolveKey(mt, ad.ThisKey)
	if err != nil {
		return nil, err
	}
	otherKey, err := resolveKey(ot, ad.OtherKey)
	if err != nil {
		return nil, err
	}
	if len(thisKey) != len(otherKey) {
		return nil, dbmap.NewInvalidMappingError(mm.Name, typeName, "this key has %d members, other key of %s has %d", len(thisKey), ot.Name, len(otherKey))
	}
	for i := range thisKey {
		if indirect(thisKey[i].Type) != indirect(otherKey[i].Type) {
			return nil, dbmap.NewInvalidMappingError(mm.Name, typeName, "key member %s (%s) does not match %s.%s (%s)",
				thisKey[i].Name, thisKey[i].Type, ot.Name, otherKey[i].Name, otherKey[i].Type)
		}
	}
	isNullable := true
	for _, k := range thisKey {
		if !k.CanBeNull {
			isNullable = false
			break
		}
	}
	if ad.DeleteOnNull && (!ad.IsForeignKey || isMany || isNullable) {
		return nil, dbmap.NewInvalidMappingError(mm.Name, typeName, "DeleteOnNull requires a non-nullable to-one foreign key")
	}
	a := &MetaAssociation{
		Name:         mm.MappedName,
		ThisMember:   mm,
		ThisType:     mt,
		OtherType:    ot,
		ThisKey:      thisKey,
		OtherKey:     otherKey,
		IsMany:       isMany,
		IsUnique:     ad.IsUnique,
		IsForeignKey: ad.IsForeignKey,
		IsNullable:   isNullable,
		DeleteRule:   ad.DeleteRule,
		DeleteOnNull: ad.DeleteOnNull,
		thisKeyIsPK:  allPrimaryKey(thisKey),
		otherKeyIsPK: allPrimaryKey(otherKey),
	}
	for _, om := range ot.DataMembers {
		if om.IsAssociation && om != mm && om.MappedName == mm.MappedName {
			a.OtherMember = om
			break
		}
	}
	if !isMany {
		mm.CanBeNull = isNullable
	} else {
		mm.CanBeNull = false
	}
	return a, nil
}

// resolveKey resolves a key list against the persistent members of mt. An
// absent or empty list is the identity of mt.
func resolveKey(mt *MetaType, keyList *string) ([]*MetaDataMember, error) {
	if keyList == nil {
		return mt.IdentityMembers, nil
	}
	names := ParseKeyList(*keyList)
	if len(names) == 0 {
		return mt.IdentityMembers, nil
	}
	keys := make([]*MetaDataMember, 0, len(names))
	for _, name := range names {
		m, ok := mt.members[name]
		if !ok || !m.IsPersistent || m.IsAssociation {
			return nil, dbmap.NewKeyMemberNotFoundError(name, *keyList, mt.Type.String())
		}
		keys = append(keys, m)
	}
	return keys, nil
}

// associatedType returns the row type an association member refers to and
// whether it is a to-many relation.
func associatedType(t reflect.Type) (reflect.Type, bool) {
	isMany := false
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		t, isMany = t.Elem(), true
	}
	return indirect(t), isMany
}
