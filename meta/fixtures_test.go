package meta_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping/xmlmap"
	"github.com/syssam/dbmap/meta"
)

type Customer struct {
	_      dbmap.TableMarker `table:"Customers"`
	ID     string            `column:"name:CustomerID;pk;dbtype:NChar(5)"`
	Name   string            `column:""`
	city   string            `column:"member:City"`
	Orders []*Order          `association:"name:FK_Orders_Customers;otherkey:CustomerID"`
}

func (c *Customer) City() string     { return c.city }
func (c *Customer) SetCity(s string) { c.city = s }

type Order struct {
	_          dbmap.TableMarker `table:"Orders"`
	ID         int               `column:"pk;generated"`
	CustomerID string            `column:""`
	Version    int64             `column:"version"`
	Customer   *Customer         `association:"name:FK_Orders_Customers;thiskey:CustomerID;fk"`
}

// Northwind declares customers only; orders are discovered through the
// association.
type Northwind struct {
	Customers dbmap.Table[Customer]
}

// Empty declares no tables.
type Empty struct{}

const northwindDoc = `<Database Name="Northwind" xmlns="http://schemas.microsoft.com/linqtosql/mapping/2007">
  <Table Name="Customers">
    <Type Name="Customer">
      <Column Name="CustomerID" Member="ID" IsPrimaryKey="true" DbType="NChar(5)"/>
      <Column Member="Name"/>
      <Column Member="City" Storage="city"/>
      <Association Name="FK_Orders_Customers" Member="Orders" OtherKey="CustomerID"/>
    </Type>
  </Table>
  <Table Name="Orders">
    <Type Name="Order">
      <Column Member="ID" IsPrimaryKey="true" IsDbGenerated="true"/>
      <Column Member="CustomerID"/>
      <Column Member="Version" IsVersion="true"/>
      <Association Name="FK_Orders_Customers" Member="Customer" ThisKey="CustomerID" IsForeignKey="true"/>
    </Type>
  </Table>
</Database>`

// docModel builds a model of ctx from an XML mapping document.
func docModel(t *testing.T, ctx reflect.Type, doc string, opts ...meta.Option) (*meta.Model, error) {
	t.Helper()
	db, err := xmlmap.ParseBytes([]byte(doc))
	require.NoError(t, err)
	return meta.New(ctx, xmlmap.NewSource(db), opts...)
}

func names(members []*meta.MetaDataMember) []string {
	return meta.MemberNames(members)
}
