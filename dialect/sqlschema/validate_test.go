package sqlschema_test

import (
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap/dialect"
	"github.com/syssam/dbmap/dialect/sqlschema"
)

func TestValidateSchema(t *testing.T) {
	s, err := sqlschema.Export(shopModel(t), dialect.Postgres)
	require.NoError(t, err)
	r := sqlschema.ValidateSchema(s)
	assert.False(t, r.HasErrors())
	assert.False(t, r.HasWarnings())
	assert.Equal(t, "No issues found", r.String())
}

func TestValidateTable(t *testing.T) {
	id := schema.NewNullIntColumn("id", "int")
	ref := schema.NewTable("ref").AddColumns(schema.NewIntColumn("id", "int"), schema.NewIntColumn("code", "int"))
	ref.SetPrimaryKey(schema.NewPrimaryKey(ref.Columns[0]))
	tbl := schema.NewTable("t").AddColumns(id, schema.NewIntColumn("ID", "int"))
	tbl.SetPrimaryKey(schema.NewPrimaryKey(id))
	tbl.AddForeignKeys(schema.NewForeignKey("t_ref").AddColumns(id).SetRefTable(ref).AddRefColumns(ref.Columns[1]))

	r := sqlschema.ValidateTable(tbl)
	require.Len(t, r.Errors, 2)
	assert.Equal(t, "t.id: primary key column is nullable", r.Errors[0].Error())
	assert.Equal(t, "t.ID: duplicate column name", r.Errors[1].Error())
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0].Message, "does not reference the primary key of ref")

	r = sqlschema.ValidateTable(schema.NewTable("nokey"))
	assert.Equal(t, "nokey: table has no primary key", r.Warnings[0].Error())

	r = sqlschema.ValidateSchema(schema.New("s").AddTables(tbl))
	assert.Contains(t, r.String(), `foreign key references non-existent table "ref"`)
}

func TestValidateDiff(t *testing.T) {
	current := schema.New("s").AddTables(
		schema.NewTable("gone"),
		schema.NewTable("t").AddColumns(
			schema.NewStringColumn("name", "varchar", schema.StringSize(64)),
			schema.NewNullStringColumn("note", "text"),
			schema.NewIntColumn("old", "int"),
		),
	)
	desired := schema.New("s").AddTables(
		schema.NewTable("t").AddColumns(
			schema.NewStringColumn("name", "varchar", schema.StringSize(32)),
			schema.NewStringColumn("note", "text"),
			schema.NewIntColumn("added", "int"),
		),
	)

	r := sqlschema.ValidateDiff(current, desired)
	assert.True(t, r.HasBreakingChanges())
	assert.Len(t, r.Errors, 3)
	out := r.String()
	assert.Contains(t, out, "gone: table will be dropped [BREAKING]")
	assert.Contains(t, out, "t.old: column will be dropped [BREAKING]")
	assert.Contains(t, out, "t.note: column changing from NULL to NOT NULL")
	assert.Contains(t, out, "t.name: column size reducing from 64 to 32")
	assert.Contains(t, out, "t.added: new NOT NULL column without default value")

	r = sqlschema.ValidateDiff(current, desired, sqlschema.AllowDropTable(), sqlschema.AllowDropColumn(), sqlschema.AllowNullToNotNull())
	assert.False(t, r.HasErrors())
	assert.True(t, r.HasBreakingChanges())
}
