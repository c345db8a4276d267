package xmlmap_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/mapping/xmlmap"
)

const northwind = `<?xml version="1.0" encoding="utf-8"?>
<Database Name="Northwind" Provider="sqlite" xmlns="http://schemas.microsoft.com/linqtosql/mapping/2007">
  <!-- customers -->
  <Table Name="Customers" Member="Customers">
    <Type Name="Customer">
      <Column Name="CustomerID" Member="ID" Storage="id" DbType="NChar(5) NOT NULL" IsPrimaryKey="true" CanBeNull="false"/>
      <Column Member="City" UpdateCheck="Never"/>
      <Column Member="Version" IsVersion="1" IsDbGenerated="true" AutoSync="Always"/>
      <Association Name="FK_Orders_Customers" Member="Orders" OtherKey=" CustomerID "/>
    </Type>
  </Table>
  <Table Member="Orders">
    <Type Name="Order">
      <Column Member="OrderID" IsPrimaryKey="true" IsDbGenerated="true"/>
      <Column Member="CustomerID" CanBeNull="0"/>
      <Association Member="Customer" ThisKey="CustomerID" IsForeignKey="true" DeleteRule="CASCADE"/>
    </Type>
  </Table>
  <Function Method="CustomersByCity" IsComposable="true">
    <Parameter Parameter="city" DbType="NVarChar(15)"/>
    <ElementType Name="Customer"/>
  </Function>
  <Function Name="dbo.CountOrders" Method="CountOrders">
    <Parameter Name="@cust" Parameter="customerID" Direction="InOut"/>
    <Return DbType="Int"/>
  </Function>
</Database>`

func TestParseNorthwind(t *testing.T) {
	require := require.New(t)
	db, err := xmlmap.Parse(strings.NewReader(northwind))
	require.NoError(err)

	require.Equal("Northwind", db.Name)
	require.Equal("sqlite", db.Provider)
	require.Len(db.Tables, 2)

	customers := db.Tables[0]
	require.Equal("Customers", customers.Name)
	require.Equal("Customer", customers.Type.Name)
	require.Len(customers.Type.Columns, 3)

	id := customers.Type.Columns[0]
	require.Equal(&mapping.Column{
		Name:         "CustomerID",
		Member:       "ID",
		Storage:      "id",
		DbType:       "NChar(5) NOT NULL",
		IsPrimaryKey: true,
		CanBeNull:    mapping.Bool(false),
	}, id)

	city := customers.Type.Columns[1]
	require.Equal("City", city.Name)
	require.Nil(city.CanBeNull)
	require.Equal(mapping.UpdateCheckNever, city.UpdateCheck)

	version := customers.Type.Columns[2]
	require.True(version.IsVersion)
	require.True(version.IsDbGenerated)
	require.Equal(mapping.AutoSyncAlways, version.AutoSync)

	assoc := customers.Type.Associations[0]
	require.Equal("FK_Orders_Customers", assoc.Name)
	require.Nil(assoc.ThisKey)
	require.NotNil(assoc.OtherKey)
	require.Equal(" CustomerID ", *assoc.OtherKey)

	orders := db.Tables[1]
	require.Equal("Orders", orders.Name, "table name defaults to member")
	fk := orders.Type.Associations[0]
	require.Equal("Customer", fk.Name)
	require.True(fk.IsForeignKey)
	require.Equal("CASCADE", fk.DeleteRule)
	require.Equal(mapping.Bool(false), orders.Type.Columns[1].CanBeNull)

	require.Len(db.Functions, 2)
	byCity := db.Functions[0]
	require.Equal("CustomersByCity", byCity.Name)
	require.True(byCity.IsComposable)
	require.Equal("city", byCity.Parameters[0].Name)
	require.Len(byCity.ElementTypes, 1)
	require.Nil(byCity.Return)

	count := db.Functions[1]
	require.Equal("dbo.CountOrders", count.Name)
	require.Equal("@cust", count.Parameters[0].Name)
	require.Equal(mapping.DirectionInOut, count.Parameters[0].Direction)
	require.Equal(&mapping.Return{DbType: "Int"}, count.Return)
}

func TestParseMinimal(t *testing.T) {
	db, err := xmlmap.ParseBytes([]byte(`<Database Name="Db"><Table Name="Ts"><Type Name="T"><Column Member="Id" IsPrimaryKey="true"/><Column Member="Name"/></Type></Table></Database>`))
	require.NoError(t, err)
	require.Len(t, db.Tables, 1)
	assert.Equal(t, "Ts", db.Tables[0].Name)
	cols := db.Tables[0].Type.Columns
	require.Len(t, cols, 2)
	assert.True(t, cols[0].IsPrimaryKey)
	assert.False(t, cols[1].IsPrimaryKey)
	assert.Equal(t, "Name", cols[1].Name)
}

func TestParseEmptyKeyList(t *testing.T) {
	db, err := xmlmap.ParseBytes([]byte(`<Database><Table><Type Name="T"><Association Member="Others" ThisKey=""/></Type></Table></Database>`))
	require.NoError(t, err)
	as := db.Tables[0].Type.Associations[0]
	require.NotNil(t, as.ThisKey, "present empty key list is kept distinct from an absent one")
	assert.Equal(t, "", *as.ThisKey)
	assert.Nil(t, as.OtherKey)
}

func TestParseForeignNamespace(t *testing.T) {
	doc := `<Database Name="Db" xmlns="http://schemas.microsoft.com/linqtosql/mapping/2007" xmlns:x="urn:example:ext">
  <x:Annotation><Table Name="Hidden"/><x:Nested/></x:Annotation>
  <Table Name="Ts">
    <Type Name="T">
      <x:Hint Value="1"/>
      <Column Member="Id" IsPrimaryKey="true" x:Extra="ignored" Unknown="ignored"/>
    </Type>
  </Table>
</Database>`
	db, err := xmlmap.ParseBytes([]byte(doc))
	require.NoError(t, err)
	require.Len(t, db.Tables, 1)
	assert.Equal(t, "Ts", db.Tables[0].Name)
	assert.Len(t, db.Tables[0].Type.Columns, 1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind dbmap.ParseErrorKind
		elem string
		attr string
	}{
		{
			name: "UnexpectedRoot",
			doc:  `<Mapping/>`,
			kind: dbmap.UnexpectedElement,
			elem: "Mapping",
		},
		{
			name: "UnexpectedChild",
			doc:  `<Database><Table><Type Name="T"><Colum Member="Id"/></Type></Table></Database>`,
			kind: dbmap.UnexpectedElement,
			elem: "Colum",
		},
		{
			name: "UnexpectedDeepChild",
			doc:  `<Database><Table><Type Name="T"><Column Member="Id"><Index/></Column></Type></Table></Database>`,
			kind: dbmap.UnexpectedElement,
			elem: "Index",
		},
		{
			name: "SecondType",
			doc:  `<Database><Table><Type Name="A"/><Type Name="B"/></Table></Database>`,
			kind: dbmap.UnexpectedElement,
			elem: "Type",
		},
		{
			name: "MalformedBool",
			doc:  `<Database><Table><Type Name="T"><Column Member="Id" IsPrimaryKey="yes"/></Type></Table></Database>`,
			kind: dbmap.MalformedBool,
			elem: "Column",
			attr: "IsPrimaryKey",
		},
		{
			name: "UnknownUpdateCheck",
			doc:  `<Database><Table><Type Name="T"><Column Member="Id" UpdateCheck="Sometimes"/></Type></Table></Database>`,
			kind: dbmap.UnknownEnum,
			elem: "Column",
			attr: "UpdateCheck",
		},
		{
			name: "UnknownDirection",
			doc:  `<Database><Function Method="F"><Parameter Parameter="p" Direction="Sideways"/></Function></Database>`,
			kind: dbmap.UnknownEnum,
			elem: "Parameter",
			attr: "Direction",
		},
		{
			name: "MissingMember",
			doc:  `<Database><Table><Type Name="T"><Column Name="Id"/></Type></Table></Database>`,
			kind: dbmap.MissingAttribute,
			elem: "Column",
			attr: "Member",
		},
		{
			name: "MissingTypeName",
			doc:  `<Database><Table><Type/></Table></Database>`,
			kind: dbmap.MissingAttribute,
			elem: "Type",
			attr: "Name",
		},
		{
			name: "MissingMethod",
			doc:  `<Database><Function Name="F"/></Database>`,
			kind: dbmap.MissingAttribute,
			elem: "Function",
			attr: "Method",
		},
		{
			name: "MissingType",
			doc:  `<Database><Table Name="Ts"></Table></Database>`,
			kind: dbmap.MissingElement,
			elem: "Table",
		},
		{
			name: "NoDatabase",
			doc:  `<?xml version="1.0"?>`,
			kind: dbmap.MissingElement,
			elem: "Database",
		},
		{
			name: "ElementTypeAndReturn",
			doc:  `<Database><Function Method="F"><Return/><ElementType Name="T"/></Function></Database>`,
			kind: dbmap.UnexpectedElement,
			elem: "ElementType",
		},
		{
			name: "ReturnAfterElementType",
			doc:  `<Database><Function Method="F"><ElementType Name="T"/><Return/></Function></Database>`,
			kind: dbmap.UnexpectedElement,
			elem: "Return",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := xmlmap.ParseBytes([]byte(tt.doc))
			require.Error(t, err)
			var perr *dbmap.ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.elem, perr.Element)
			assert.Equal(t, tt.attr, perr.Attribute)
			assert.GreaterOrEqual(t, perr.Offset, int64(0))
			assert.True(t, dbmap.IsParseError(err))
		})
	}
}

func TestParseOffset(t *testing.T) {
	doc := `<Database><Bogus/></Database>`
	_, err := xmlmap.ParseBytes([]byte(doc))
	var perr *dbmap.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, int64(strings.Index(doc, "<Bogus")), perr.Offset)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := xmlmap.ParseBytes([]byte(`<Database><Table>`))
	require.Error(t, err)
	assert.False(t, dbmap.IsParseError(err))
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in       string
		want, ok bool
	}{
		{"true", true, true},
		{"1", true, true},
		{" false ", false, true},
		{"0", false, true},
		{"True", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		got, ok := xmlmap.ParseBool(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
