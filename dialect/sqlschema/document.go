package sqlschema

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"

	"ariga.io/atlas/sql/schema"

	"github.com/syssam/dbmap/dialect"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/meta"
)

var notNull = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)

// FromDatabase returns the atlas schema of a mapping document, typed for
// dialect d. Without the Go types a column is typed by its DbType alone,
// so every column needs one. Nullability comes from CanBeNull, then from
// a NOT NULL clause in the DbType.
func FromDatabase(db *mapping.Database, d string) (*schema.Schema, error) {
	d, err := dialect.Normalize(d)
	if err != nil {
		return nil, err
	}
	s := schema.New(db.Name)
	types := make(map[string]docType)
	for _, td := range db.Tables {
		if td.Type == nil {
			return nil, fmt.Errorf("sqlschema: table %s has no type", td.Name)
		}
		t, err := docTable(d, cmp.Or(td.Name, td.Member), td.Type)
		if err != nil {
			return nil, err
		}
		if _, ok := s.Table(t.Name); ok {
			return nil, fmt.Errorf("sqlschema: table %s is mapped more than once", t.Name)
		}
		s.AddTables(t)
		types[td.Type.Name] = docType{t: t, td: td.Type}
	}
	for _, td := range db.Tables {
		if err := docForeignKeys(types[td.Type.Name], types); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func docTable(d, name string, td *mapping.Type) (*schema.Table, error) {
	t := schema.NewTable(name)
	var pk []*schema.Column
	for _, cd := range td.Columns {
		raw := strings.ToLower(strings.TrimSpace(dbTypeSuffix.ReplaceAllString(cd.DbType, "")))
		if raw == "" {
			return nil, fmt.Errorf("sqlschema: column %s of table %s has no DbType", cd.Member, name)
		}
		typ, err := parseType(d, raw)
		if err != nil {
			return nil, fmt.Errorf("sqlschema: column %s of table %s: %w", cd.Member, name, err)
		}
		null := !notNull.MatchString(cd.DbType)
		if cd.CanBeNull != nil {
			null = *cd.CanBeNull
		}
		c := schema.NewColumn(columnName(cd)).SetType(typ).SetNull(null && !cd.IsPrimaryKey)
		if cd.IsPrimaryKey && cd.IsDbGenerated {
			autoIncrement(d, c)
		}
		if cd.Expression != "" {
			c.AddAttrs(&schema.GeneratedExpr{Expr: cd.Expression, Type: generatedKind(d)})
		}
		t.AddColumns(c)
		if cd.IsPrimaryKey {
			pk = append(pk, c)
		}
	}
	if len(pk) > 0 {
		t.SetPrimaryKey(schema.NewPrimaryKey(pk...))
	}
	return t, nil
}

// docType is a mapped type with the table built for it.
type docType struct {
	t  *schema.Table
	td *mapping.Type
}

func docForeignKeys(this docType, types map[string]docType) error {
	t := this.t
	for _, ad := range this.td.Associations {
		if !ad.IsForeignKey {
			continue
		}
		other, ok := associationTarget(this.td, ad, types)
		if !ok {
			return fmt.Errorf("sqlschema: cannot find the table referenced by association %s of %s", ad.Member, t.Name)
		}
		action, err := ParseCascadeAction(ad.DeleteRule)
		if err != nil {
			return err
		}
		cols, err := docKey(this, ad.ThisKey)
		if err != nil {
			return err
		}
		refCols, err := docKey(other, ad.OtherKey)
		if err != nil {
			return err
		}
		symbol := cmp.Or(ad.Name, ad.Member)
		if symbol == ad.Member {
			symbol = "FK_" + t.Name + "_" + symbol
		}
		t.AddForeignKeys(schema.NewForeignKey(symbol).
			AddColumns(cols...).
			SetRefTable(other.t).
			AddRefColumns(refCols...).
			SetOnDelete(action.ReferenceOption()))
		if ad.IsUnique {
			t.AddIndexes(schema.NewUniqueIndex("UQ_" + t.Name + "_" + ad.Member).AddColumns(cols...))
		}
	}
	return nil
}

// associationTarget finds the type on the other side of a foreign key
// association: the type declaring the non foreign key side of the same
// named association, or else the only other type.
func associationTarget(td *mapping.Type, ad *mapping.Association, types map[string]docType) (docType, bool) {
	if ad.Name != "" {
		for _, other := range types {
			for _, oa := range other.td.Associations {
				if oa != ad && oa.Name == ad.Name && !oa.IsForeignKey {
					return other, true
				}
			}
		}
	}
	var (
		found docType
		n     int
	)
	for name, other := range types {
		if name != td.Name {
			found = other
			n++
		}
	}
	return found, n == 1
}

// docKey resolves a key list by column member name. An absent list is the
// primary key of t.
func docKey(dt docType, keyList *string) ([]*schema.Column, error) {
	t := dt.t
	if keyList == nil || strings.TrimSpace(*keyList) == "" {
		if t.PrimaryKey == nil {
			return nil, fmt.Errorf("sqlschema: table %s has no primary key", t.Name)
		}
		cols := make([]*schema.Column, len(t.PrimaryKey.Parts))
		for i, p := range t.PrimaryKey.Parts {
			cols[i] = p.C
		}
		return cols, nil
	}
	var cols []*schema.Column
	for _, member := range meta.ParseKeyList(*keyList) {
		name := member
		for _, cd := range dt.td.Columns {
			if cd.Member == member {
				name = columnName(cd)
			}
		}
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("sqlschema: key member %s not found in table %s", member, t.Name)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func columnName(cd *mapping.Column) string {
	return cmp.Or(cd.Name, cd.Member)
}
