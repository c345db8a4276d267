package dbmap

import "reflect"

// Table is the typed table container a data context declares for each
// mapped row type. A context type is scanned for fields (or zero-argument
// methods) of type Table[T]; T is registered as a row type.
//
//	type Northwind struct {
//		_         dbmap.DatabaseMarker `database:"Northwind"`
//		Customers dbmap.Table[Customer]
//		Orders    dbmap.Table[Order]
//	}
type Table[T any] struct {
	rows []T
}

// RowType returns the reflect.Type of T.
func (Table[T]) RowType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Add appends rows to the in-memory table.
func (t *Table[T]) Add(rows ...T) {
	t.rows = append(t.rows, rows...)
}

// Rows returns the rows held by the table.
func (t *Table[T]) Rows() []T {
	return t.rows
}

// Len returns the number of rows held by the table.
func (t *Table[T]) Len() int {
	return len(t.rows)
}

// TableContainer is implemented by every instantiation of Table.
type TableContainer interface {
	RowType() reflect.Type
}

var tableContainerType = reflect.TypeFor[TableContainer]()

// RowTypeOf returns the row type of a Table[T] type, or false if t is not
// a table container.
func RowTypeOf(t reflect.Type) (reflect.Type, bool) {
	if t == nil || t.Kind() != reflect.Struct || !t.Implements(tableContainerType) {
		return nil, false
	}
	tc, ok := reflect.Zero(t).Interface().(TableContainer)
	if !ok {
		return nil, false
	}
	return tc.RowType(), true
}

// TableMarker marks a struct as a mapped row type when embedded as a blank
// field. The optional table name is given by the `table` tag:
//
//	type Customer struct {
//		_  dbmap.TableMarker `table:"Customers"`
//		ID string            `column:"pk"`
//	}
type TableMarker struct{}

// DatabaseMarker names the database of a context type when embedded as a
// blank field with a `database` tag.
type DatabaseMarker struct{}

// Tabler is implemented by row types that name their table with a method
// rather than a TableMarker field.
type Tabler interface {
	TableName() string
}

// DatabaseNamer is implemented by context types that name their database.
type DatabaseNamer interface {
	DatabaseName() string
}

// Deferred holds a lazily loaded member value. Deferred members cannot be
// mapped; resolution fails with a NotSupportedError.
type Deferred[T any] struct {
	value  T
	loaded bool
}

// Value returns the loaded value and whether it was loaded.
func (d Deferred[T]) Value() (T, bool) {
	return d.value, d.loaded
}

func (Deferred[T]) deferred() {}

type deferredMember interface{ deferred() }

var deferredType = reflect.TypeFor[deferredMember]()

// IsDeferred reports whether t is an instantiation of Deferred.
func IsDeferred(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Struct && t.Implements(deferredType)
}

// TableMember is a table-valued member of a context type.
type TableMember struct {
	Name    string       // Field or method name on the context type
	RowType reflect.Type // Row type contained by the table
	Method  bool         // Declared as a zero-argument method
}

// TablesOf returns the table-valued members of the context type ctx in
// declaration order: fields first, then zero-argument methods. Members whose
// row type is an interface type, such as Table[any], are skipped.
func TablesOf(ctx reflect.Type) []TableMember {
	for ctx != nil && ctx.Kind() == reflect.Pointer {
		ctx = ctx.Elem()
	}
	if ctx == nil || ctx.Kind() != reflect.Struct {
		return nil
	}
	var members []TableMember
	for i := range ctx.NumField() {
		f := ctx.Field(i)
		if rt, ok := RowTypeOf(f.Type); ok && rt.Kind() != reflect.Interface {
			members = append(members, TableMember{Name: f.Name, RowType: rt})
		}
	}
	pt := reflect.PointerTo(ctx)
	for i := range pt.NumMethod() {
		m := pt.Method(i)
		// Receiver is the first input.
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		if rt, ok := RowTypeOf(m.Type.Out(0)); ok && rt.Kind() != reflect.Interface {
			members = append(members, TableMember{Name: m.Name, RowType: rt, Method: true})
		}
	}
	return members
}
