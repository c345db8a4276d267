package tagmap

import (
	"strconv"
	"strings"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// Tag keys.
const (
	TagColumn      = "column"
	TagAssociation = "association"
	TagTable       = "table"
	TagDatabase    = "database"
)

// pair is one `key[:value]` item of a tag.
type pair struct {
	key   string
	value string
	bare  bool
}

// split splits a `k:v;flag;k2:v2` tag into its items. Keys are case
// insensitive. Empty items are dropped.
func split(tag string) []pair {
	var pairs []pair
	for _, item := range strings.Split(tag, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, ":")
		pairs = append(pairs, pair{key: strings.ToLower(strings.TrimSpace(k)), value: strings.TrimSpace(v), bare: !ok})
	}
	return pairs
}

func (p pair) boolean(elem string) (bool, error) {
	if p.bare {
		return true, nil
	}
	b, err := strconv.ParseBool(p.value)
	if err != nil {
		return false, dbmap.NewParseError(dbmap.MalformedBool, elem, p.key, p.value)
	}
	return b, nil
}

// parseColumn parses a column tag placed on field of type typ.
func parseColumn(typ, field, tag string) (*mapping.Column, error) {
	elem := typ + "." + field
	c := &mapping.Column{}
	var err error
	for _, p := range split(tag) {
		switch p.key {
		case "name":
			c.Name = p.value
		case "member":
			c.Member = p.value
		case "storage":
			c.Storage = p.value
		case "dbtype", "type":
			c.DbType = p.value
		case "expr", "expression":
			c.Expression = p.value
		case "pk", "primarykey":
			c.IsPrimaryKey, err = p.boolean(elem)
		case "generated", "dbgenerated":
			c.IsDbGenerated, err = p.boolean(elem)
		case "version":
			c.IsVersion, err = p.boolean(elem)
		case "discriminator":
			c.IsDiscriminator, err = p.boolean(elem)
		case "nullable", "canbenull":
			var b bool
			if b, err = p.boolean(elem); err == nil {
				c.CanBeNull = &b
			}
		case "updatecheck":
			v, ok := mapping.ParseUpdateCheck(p.value)
			if !ok {
				return nil, dbmap.NewParseError(dbmap.UnknownEnum, elem, p.key, p.value)
			}
			c.UpdateCheck = v
		case "autosync":
			v, ok := mapping.ParseAutoSync(p.value)
			if !ok {
				return nil, dbmap.NewParseError(dbmap.UnknownEnum, elem, p.key, p.value)
			}
			c.AutoSync = v
		default:
			return nil, dbmap.NewParseError(dbmap.MalformedTag, elem, p.key, p.value)
		}
		if err != nil {
			return nil, err
		}
	}
	setMember(&c.Member, &c.Storage, field)
	return c, nil
}

// parseAssociation parses an association tag placed on field of type typ.
func parseAssociation(typ, field, tag string) (*mapping.Association, error) {
	elem := typ + "." + field
	a := &mapping.Association{}
	var err error
	for _, p := range split(tag) {
		switch p.key {
		case "name":
			a.Name = p.value
		case "member":
			a.Member = p.value
		case "storage":
			a.Storage = p.value
		case "thiskey":
			a.ThisKey = mapping.KeyList(p.value)
		case "otherkey":
			a.OtherKey = mapping.KeyList(p.value)
		case "deleterule":
			a.DeleteRule = p.value
		case "fk", "foreignkey":
			a.IsForeignKey, err = p.boolean(elem)
		case "unique":
			a.IsUnique, err = p.boolean(elem)
		case "deleteonnull":
			a.DeleteOnNull, err = p.boolean(elem)
		default:
			return nil, dbmap.NewParseError(dbmap.MalformedTag, elem, p.key, p.value)
		}
		if err != nil {
			return nil, err
		}
	}
	setMember(&a.Member, &a.Storage, field)
	return a, nil
}

// setMember binds the tagged field: it is the member itself, or the storage
// of the member named in the tag.
func setMember(member, storage *string, field string) {
	switch {
	case *member == "":
		*member = field
	case *member != field && *storage == "":
		*storage = field
	}
}
