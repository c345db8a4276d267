// Package tagmap builds mapping descriptors from struct tags.
//
// A context type declares its tables as fields (or zero-argument methods)
// of type dbmap.Table[T]. Row types map their members with `column` and
// `association` tags:
//
//	type Order struct {
//		_          dbmap.TableMarker `table:"Orders"`
//		ID         int               `column:"pk;generated"`
//		CustomerID string            `column:"dbtype:NChar(5)"`
//		Customer   *Customer         `association:"thiskey:CustomerID;fk"`
//	}
//
// A tag on an unexported field may name a property with `member:Name`; the
// field then becomes the storage of the Name()/SetName methods.
package tagmap

import (
	"reflect"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
)

// FunctionMapper is implemented by context types that map methods to
// database functions.
type FunctionMapper interface {
	Functions() []*mapping.Function
}

var (
	tableMarkerType    = reflect.TypeFor[dbmap.TableMarker]()
	databaseMarkerType = reflect.TypeFor[dbmap.DatabaseMarker]()
	tablerType         = reflect.TypeFor[dbmap.Tabler]()
	databaseNamerType  = reflect.TypeFor[dbmap.DatabaseNamer]()
	functionMapperType = reflect.TypeFor[FunctionMapper]()
)

// Source is the struct tag mapping source. The zero value is ready to use.
type Source struct{}

// Database implements meta.Source by scanning the context type.
func (Source) Database(ctx reflect.Type) (*mapping.Database, error) {
	return ScanContext(ctx)
}

// Table implements meta.Source. Types without a table marker are not
// mappable and yield nil.
func (Source) Table(row reflect.Type) (*mapping.Table, error) {
	return ScanType(row)
}

// ScanContext returns the database descriptor of the context type ctx.
// Every row type of a table-valued member is mapped, with or without a
// table marker.
func ScanContext(ctx reflect.Type) (*mapping.Database, error) {
	ctx = indirect(ctx)
	db := &mapping.Database{Name: databaseName(ctx)}
	seen := make(map[reflect.Type]bool)
	for _, m := range dbmap.TablesOf(ctx) {
		if seen[m.RowType] {
			continue
		}
		seen[m.RowType] = true
		tbl, err := scanTable(m.RowType)
		if err != nil {
			return nil, err
		}
		tbl.Member = m.Name
		db.Tables = append(db.Tables, tbl)
	}
	if fns := functions(ctx); len(fns) > 0 {
		db.Functions = fns
	}
	db.ApplyDefaults()
	return db, nil
}

// ScanType returns the table descriptor of row, or nil if row carries no
// table marker.
func ScanType(row reflect.Type) (*mapping.Table, error) {
	row = indirect(row)
	if row.Kind() != reflect.Struct {
		return nil, nil
	}
	if _, ok := tableName(row); !ok {
		return nil, nil
	}
	tbl, err := scanTable(row)
	if err != nil {
		return nil, err
	}
	(&mapping.Database{Tables: []*mapping.Table{tbl}}).ApplyDefaults()
	return tbl, nil
}

func scanTable(row reflect.Type) (*mapping.Table, error) {
	typ, err := ScanRowType(row)
	if err != nil {
		return nil, err
	}
	name, _ := tableName(row)
	return &mapping.Table{Name: name, Type: typ}, nil
}

// ScanRowType returns the type descriptor built from the column and
// association tags of row, in field declaration order. Fields of embedded
// structs are scanned in place.
func ScanRowType(row reflect.Type) (*mapping.Type, error) {
	row = indirect(row)
	typ := &mapping.Type{Name: row.Name()}
	if err := scanFields(row, row, typ); err != nil {
		return nil, err
	}
	return typ, nil
}

func scanFields(row, st reflect.Type, typ *mapping.Type) error {
	for i := range st.NumField() {
		f := st.Field(i)
		switch f.Type {
		case tableMarkerType, databaseMarkerType:
			continue
		}
		col, hasCol := f.Tag.Lookup(TagColumn)
		assoc, hasAssoc := f.Tag.Lookup(TagAssociation)
		switch {
		case hasCol && hasAssoc:
			return dbmap.NewParseError(dbmap.MalformedTag, row.Name()+"."+f.Name, TagAssociation, "")
		case hasCol:
			c, err := parseColumn(row.Name(), f.Name, col)
			if err != nil {
				return err
			}
			typ.Columns = append(typ.Columns, c)
		case hasAssoc:
			a, err := parseAssociation(row.Name(), f.Name, assoc)
			if err != nil {
				return err
			}
			typ.Associations = append(typ.Associations, a)
		case f.Anonymous && f.Type.Kind() == reflect.Struct:
			if err := scanFields(row, f.Type, typ); err != nil {
				return err
			}
		}
	}
	return nil
}

// tableName reports the table name declared by a marker field or the
// Tabler interface, and whether row carries a table marker at all.
func tableName(row reflect.Type) (string, bool) {
	for i := range row.NumField() {
		f := row.Field(i)
		if f.Type == tableMarkerType {
			return f.Tag.Get(TagTable), true
		}
	}
	if reflect.PointerTo(row).Implements(tablerType) {
		return reflect.New(row).Interface().(dbmap.Tabler).TableName(), true
	}
	return "", false
}

func databaseName(ctx reflect.Type) string {
	for i := range ctx.NumField() {
		f := ctx.Field(i)
		if f.Type == databaseMarkerType {
			if name := f.Tag.Get(TagDatabase); name != "" {
				return name
			}
		}
	}
	if reflect.PointerTo(ctx).Implements(databaseNamerType) {
		if name := reflect.New(ctx).Interface().(dbmap.DatabaseNamer).DatabaseName(); name != "" {
			return name
		}
	}
	return ctx.Name()
}

func functions(ctx reflect.Type) []*mapping.Function {
	if !reflect.PointerTo(ctx).Implements(functionMapperType) {
		return nil
	}
	return reflect.New(ctx).Interface().(FunctionMapper).Functions()
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
