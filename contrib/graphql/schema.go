package graphql

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/meta"
)

// Custom scalars declared by exported schemas.
const (
	ScalarTime = "Time"
	ScalarUUID = "UUID"
	ScalarJSON = "JSON"
)

var builtinScalars = map[string]bool{
	"Int":     true,
	"Float":   true,
	"String":  true,
	"Boolean": true,
	"ID":      true,
}

// exporter builds one schema.
type exporter struct {
	cfg    *config
	schema *ast.Schema
	goType map[string]reflect.Type
}

// Schema returns the GraphQL schema of the tables, types and functions of
// m. Functions without a result are left out.
func Schema(m *meta.Model, opts ...Option) (*ast.Schema, error) {
	cfg := &config{query: "Query"}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	e := &exporter{
		cfg: cfg,
		schema: &ast.Schema{
			Types:      make(map[string]*ast.Definition),
			Directives: make(map[string]*ast.DirectiveDefinition),
		},
		goType: make(map[string]reflect.Type),
	}
	for _, t := range m.Tables() {
		if err := e.object(t.RowType); err != nil {
			return nil, err
		}
	}
	for _, f := range m.Functions() {
		for _, mt := range f.ResultRowTypes {
			if err := e.object(mt); err != nil {
				return nil, err
			}
		}
	}
	if cfg.query != "" {
		if err := e.query(m); err != nil {
			return nil, err
		}
	}
	for _, hook := range cfg.hooks {
		if err := hook(m, e.schema); err != nil {
			return nil, err
		}
	}
	return e.schema, nil
}

// SDL returns the schema of m in the GraphQL schema definition language.
func SDL(m *meta.Model, opts ...Option) (string, error) {
	s, err := Schema(m, opts...)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	formatter.NewFormatter(&sb).FormatSchema(s)
	return sb.String(), nil
}

// object adds the object type of mt and of the types it is associated
// with.
func (e *exporter) object(mt *meta.MetaType) error {
	name := mt.Type.Name()
	if t, ok := e.goType[name]; ok {
		if t != mt.Type {
			return fmt.Errorf("graphql: types %s and %s both export as %s", t, mt.Type, name)
		}
		return nil
	}
	e.goType[name] = mt.Type
	def := &ast.Definition{Kind: ast.Object, Name: name}
	if mt.Table != nil {
		def.Description = fmt.Sprintf("%s maps rows of table %s.", name, mt.Table.Name)
	}
	e.schema.Types[name] = def
	for _, m := range mt.DataMembers {
		var typ *ast.Type
		if a := m.Association; a != nil {
			if err := e.object(a.OtherType); err != nil {
				return err
			}
			other := a.OtherType.Type.Name()
			switch {
			case a.IsMany:
				typ = ast.NonNullListType(ast.NonNullNamedType(other, nil), nil)
			case a.IsNullable:
				typ = ast.NamedType(other, nil)
			default:
				typ = ast.NonNullNamedType(other, nil)
			}
		} else {
			typ = ast.NamedType(e.scalar(mt, m), nil)
			typ.NonNull = !m.CanBeNull
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{Name: fieldName(m.Name), Type: typ})
	}
	return nil
}

// query adds the root query type: one list field per table and one field
// per function with a result.
func (e *exporter) query(m *meta.Model) error {
	def := &ast.Definition{Kind: ast.Object, Name: e.cfg.query}
	for _, t := range m.Tables() {
		name := t.Member
		if name == "" {
			name = t.Name
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name: fieldName(name),
			Type: ast.NonNullListType(ast.NonNullNamedType(t.RowType.Type.Name(), nil), nil),
		})
	}
	for _, f := range m.Functions() {
		var typ *ast.Type
		switch {
		case len(f.ResultRowTypes) > 0:
			typ = ast.NonNullListType(ast.NonNullNamedType(f.ResultRowTypes[0].Type.Name(), nil), nil)
		case f.ReturnParameter != nil:
			typ = e.paramType(f.ReturnParameter.Type)
		default:
			continue
		}
		field := &ast.FieldDefinition{Name: fieldName(f.Name), Type: typ}
		for _, p := range f.Parameters {
			if p.Direction == mapping.DirectionOut {
				continue
			}
			field.Arguments = append(field.Arguments, &ast.ArgumentDefinition{
				Name: fieldName(p.Name),
				Type: e.paramType(p.Type),
			})
		}
		def.Fields = append(def.Fields, field)
	}
	if len(def.Fields) == 0 {
		return nil
	}
	if _, ok := e.schema.Types[def.Name]; ok {
		return fmt.Errorf("graphql: query type %s collides with a mapped type", def.Name)
	}
	e.schema.Types[def.Name] = def
	e.schema.Query = def
	return nil
}

func (e *exporter) paramType(t reflect.Type) *ast.Type {
	typ := ast.NamedType(e.use(goScalar(t)), nil)
	typ.NonNull = t.Kind() != reflect.Pointer
	return typ
}

// scalar returns the scalar of column m of mt.
func (e *exporter) scalar(mt *meta.MetaType, m *meta.MetaDataMember) string {
	if e.cfg.mapScalarFunc != nil {
		if s := e.cfg.mapScalarFunc(m); s != "" {
			return e.use(s)
		}
	}
	if m.IsPrimaryKey && len(mt.IdentityMembers) == 1 {
		return "ID"
	}
	return e.use(goScalar(m.Type))
}

// use declares s in the schema unless it is built in.
func (e *exporter) use(s string) string {
	if !builtinScalars[s] {
		if _, ok := e.schema.Types[s]; !ok {
			e.schema.Types[s] = &ast.Definition{Kind: ast.Scalar, Name: s}
		}
	}
	return s
}

func goScalar(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case reflect.TypeFor[time.Time](), reflect.TypeFor[sql.NullTime]():
		return ScalarTime
	case reflect.TypeFor[uuid.UUID]():
		return ScalarUUID
	case reflect.TypeFor[sql.NullString]():
		return "String"
	case reflect.TypeFor[sql.NullBool]():
		return "Boolean"
	case reflect.TypeFor[sql.NullFloat64]():
		return "Float"
	case reflect.TypeFor[sql.NullInt64](), reflect.TypeFor[sql.NullInt32](),
		reflect.TypeFor[sql.NullInt16](), reflect.TypeFor[sql.NullByte]():
		return "Int"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "Boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "Int"
	case reflect.Float32, reflect.Float64:
		return "Float"
	case reflect.String:
		return "String"
	}
	return ScalarJSON
}

// fieldName converts a Go or database name to a GraphQL field name:
// invalid runes become underscores and the leading word is lowered, so
// "CustomerID" becomes "customerID" and "HTTPServer" "httpServer".
func fieldName(s string) string {
	rs := []rune(s)
	for i, r := range rs {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			rs[i] = '_'
		}
	}
	n := 0
	for n < len(rs) && unicode.IsUpper(rs[n]) {
		n++
	}
	if n > 1 && n < len(rs) && unicode.IsLower(rs[n]) {
		n--
	}
	for i := range n {
		rs[i] = unicode.ToLower(rs[i])
	}
	if len(rs) > 0 && unicode.IsDigit(rs[0]) {
		return "_" + string(rs)
	}
	return string(rs)
}
