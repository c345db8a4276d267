package sqlschema

import (
	"database/sql"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"github.com/google/uuid"

	"github.com/syssam/dbmap/dialect"
	"github.com/syssam/dbmap/meta"
)

// Export returns the atlas schema of the tables registered in m, typed for
// dialect d. The schema is named after the model's database.
func Export(m *meta.Model, d string) (*schema.Schema, error) {
	d, err := dialect.Normalize(d)
	if err != nil {
		return nil, err
	}
	s := schema.New(m.DatabaseName())
	tables := make(map[*meta.MetaTable]*schema.Table)
	for _, mt := range m.Tables() {
		t, err := table(d, mt)
		if err != nil {
			return nil, err
		}
		if _, ok := s.Table(t.Name); ok {
			return nil, fmt.Errorf("sqlschema: table %s is mapped by more than one type", t.Name)
		}
		s.AddTables(t)
		tables[mt] = t
	}
	for mt, t := range tables {
		if err := foreignKeys(t, mt, tables); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func table(d string, mt *meta.MetaTable) (*schema.Table, error) {
	t := schema.NewTable(mt.Name)
	rt := mt.RowType
	for _, mm := range rt.PersistentDataMembers {
		c := schema.NewColumn(mm.MappedName).
			SetType(columnType(d, mm)).
			SetNull(mm.CanBeNull && !mm.IsPrimaryKey)
		if mm == rt.DBGeneratedIdentityMember {
			autoIncrement(d, c)
		}
		if mm.Expression != "" {
			c.AddAttrs(&schema.GeneratedExpr{Expr: mm.Expression, Type: generatedKind(d)})
		}
		t.AddColumns(c)
	}
	if len(rt.IdentityMembers) > 0 {
		cols, err := columns(t, rt.IdentityMembers)
		if err != nil {
			return nil, err
		}
		t.SetPrimaryKey(schema.NewPrimaryKey(cols...))
	}
	return t, nil
}

func foreignKeys(t *schema.Table, mt *meta.MetaTable, tables map[*meta.MetaTable]*schema.Table) error {
	for _, a := range mt.RowType.Associations {
		if !a.IsForeignKey || a.OtherType.Table == nil {
			continue
		}
		ref, ok := tables[a.OtherType.Table]
		if !ok {
			return fmt.Errorf("sqlschema: table %s of association %s is not registered", a.OtherType.Table.Name, a.Name)
		}
		action, err := ParseCascadeAction(a.DeleteRule)
		if err != nil {
			return err
		}
		cols, err := columns(t, a.ThisKey)
		if err != nil {
			return err
		}
		refCols, err := columns(ref, a.OtherKey)
		if err != nil {
			return err
		}
		symbol := a.Name
		if symbol == a.ThisMember.Name {
			symbol = "FK_" + t.Name + "_" + a.Name
		}
		t.AddForeignKeys(schema.NewForeignKey(symbol).
			AddColumns(cols...).
			SetRefTable(ref).
			AddRefColumns(refCols...).
			SetOnDelete(action.ReferenceOption()))
		if a.IsUnique {
			t.AddIndexes(schema.NewUniqueIndex("UQ_" + t.Name + "_" + a.ThisMember.Name).AddColumns(cols...))
		}
	}
	return nil
}

func columns(t *schema.Table, members []*meta.MetaDataMember) ([]*schema.Column, error) {
	cols := make([]*schema.Column, len(members))
	for i, mm := range members {
		c, ok := t.Column(mm.MappedName)
		if !ok {
			return nil, fmt.Errorf("sqlschema: column %s of member %s not found in table %s", mm.MappedName, mm.Name, t.Name)
		}
		cols[i] = c
	}
	return cols, nil
}

func autoIncrement(d string, c *schema.Column) {
	switch d {
	case dialect.MySQL:
		c.AddAttrs(&mysql.AutoIncrement{})
	case dialect.SQLite:
		c.AddAttrs(&sqlite.AutoIncrement{})
	case dialect.Postgres:
		if it, ok := c.Type.Type.(*schema.IntegerType); ok {
			serial := postgres.TypeSerial
			if it.T == postgres.TypeBigInt {
				serial = postgres.TypeBigSerial
			}
			c.SetType(&postgres.SerialType{T: serial})
		}
	}
}

func generatedKind(d string) string {
	if d == dialect.Postgres {
		return "STORED"
	}
	return "VIRTUAL"
}

// dbTypeSuffix matches the nullability and identity clauses a DbType may
// carry, e.g. "Int NOT NULL IDENTITY".
var dbTypeSuffix = regexp.MustCompile(`(?i)\s+(NOT\s+NULL|NULL|IDENTITY|PRIMARY\s+KEY)\b.*$`)

func columnType(d string, mm *meta.MetaDataMember) schema.Type {
	if raw := strings.ToLower(strings.TrimSpace(dbTypeSuffix.ReplaceAllString(mm.DbType, ""))); raw != "" {
		if t, err := parseType(d, raw); err == nil {
			if _, unsupported := t.(*schema.UnsupportedType); !unsupported {
				return t
			}
		}
	}
	return goType(d, mm.Type)
}

func parseType(d, raw string) (schema.Type, error) {
	switch d {
	case dialect.MySQL:
		return mysql.ParseType(raw)
	case dialect.Postgres:
		return postgres.ParseType(raw)
	default:
		return sqlite.ParseType(raw)
	}
}

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
	// nullTypes maps the database/sql null wrappers to their value type.
	nullTypes = map[reflect.Type]reflect.Type{
		reflect.TypeFor[sql.NullString]():  reflect.TypeFor[string](),
		reflect.TypeFor[sql.NullInt64]():   reflect.TypeFor[int64](),
		reflect.TypeFor[sql.NullInt32]():   reflect.TypeFor[int32](),
		reflect.TypeFor[sql.NullInt16]():   reflect.TypeFor[int16](),
		reflect.TypeFor[sql.NullByte]():    reflect.TypeFor[byte](),
		reflect.TypeFor[sql.NullBool]():    reflect.TypeFor[bool](),
		reflect.TypeFor[sql.NullFloat64](): reflect.TypeFor[float64](),
		reflect.TypeFor[sql.NullTime]():    timeType,
	}
)

// goType returns the column type of values of t in dialect d.
func goType(d string, t reflect.Type) schema.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := nullTypes[t]; ok {
		t = v
	}
	switch t {
	case timeType:
		switch d {
		case dialect.Postgres:
			return &schema.TimeType{T: postgres.TypeTimestampWTZ}
		case dialect.MySQL:
			return &schema.TimeType{T: mysql.TypeTimestamp}
		default:
			return &schema.TimeType{T: "datetime"}
		}
	case uuidType:
		switch d {
		case dialect.Postgres:
			return &schema.UUIDType{T: postgres.TypeUUID}
		case dialect.MySQL:
			return &schema.StringType{T: mysql.TypeChar, Size: 36}
		default:
			return &schema.StringType{T: "text"}
		}
	}
	switch t.Kind() {
	case reflect.Bool:
		if d == dialect.MySQL {
			return &schema.BoolType{T: mysql.TypeBool}
		}
		return &schema.BoolType{T: "boolean"}
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return &schema.IntegerType{T: intType(d, false)}
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return &schema.IntegerType{T: intType(d, true), Unsigned: d == dialect.MySQL && isUnsigned(t)}
	case reflect.Float32, reflect.Float64:
		switch d {
		case dialect.Postgres:
			return &schema.FloatType{T: postgres.TypeDouble}
		case dialect.MySQL:
			return &schema.FloatType{T: mysql.TypeDouble}
		default:
			return &schema.FloatType{T: "real"}
		}
	case reflect.String:
		if d == dialect.MySQL {
			return &schema.StringType{T: mysql.TypeVarchar, Size: 255}
		}
		return &schema.StringType{T: "text"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if d == dialect.Postgres {
				return &schema.BinaryType{T: postgres.TypeBytea}
			}
			return &schema.BinaryType{T: "blob"}
		}
	}
	if d == dialect.Postgres {
		return &schema.JSONType{T: postgres.TypeJSONB}
	}
	return &schema.JSONType{T: "json"}
}

func intType(d string, wide bool) string {
	switch {
	case d == dialect.SQLite:
		return "integer"
	case wide:
		return "bigint"
	case d == dialect.MySQL:
		return "int"
	default:
		return "integer"
	}
}

func isUnsigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
