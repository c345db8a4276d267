package graphql_test

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/contrib/graphql"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/mapping/tagmap"
	"github.com/syssam/dbmap/meta"
)

type Customer struct {
	_      dbmap.TableMarker `table:"Customers"`
	ID     string            `column:"name:CustomerID;pk"`
	Name   *string           `column:""`
	Token  uuid.UUID         `column:""`
	Orders []*Order          `association:"name:FK_Orders_Customers;otherkey:CustomerID"`
}

type Order struct {
	_          dbmap.TableMarker `table:"Orders"`
	ID         int               `column:"pk;generated"`
	CustomerID string            `column:""`
	Placed     time.Time         `column:""`
	Total      float64           `column:""`
	Customer   *Customer         `association:"name:FK_Orders_Customers;thiskey:CustomerID;fk"`
}

type Shop struct {
	Customers dbmap.Table[Customer]
	Orders    dbmap.Table[Order]
}

func (*Shop) Functions() []*mapping.Function {
	return []*mapping.Function{
		{
			Method:     "CountOrders",
			Parameters: []*mapping.Parameter{{Parameter: "customerID"}},
			Return:     &mapping.Return{DbType: "Int"},
		},
		{
			Method:       "TopCustomers",
			Parameters:   []*mapping.Parameter{{Parameter: "n"}},
			ElementTypes: []*mapping.Type{{Name: "Customer"}},
		},
	}
}

func (*Shop) CountOrders(customerID string) int { return 0 }
func (*Shop) TopCustomers(n int) []Customer     { return nil }

func shopModel(t *testing.T) *meta.Model {
	t.Helper()
	m, err := meta.New(reflect.TypeFor[Shop](), tagmap.Source{})
	require.NoError(t, err)
	return m
}

func TestSchema(t *testing.T) {
	s, err := graphql.Schema(shopModel(t))
	require.NoError(t, err)

	customer := s.Types["Customer"]
	require.NotNil(t, customer)
	assert.Equal(t, ast.Object, customer.Kind)
	assert.Equal(t, "ID!", customer.Fields.ForName("id").Type.String())
	assert.Equal(t, "String", customer.Fields.ForName("name").Type.String())
	assert.Equal(t, "UUID!", customer.Fields.ForName("token").Type.String())
	assert.Equal(t, "[Order!]!", customer.Fields.ForName("orders").Type.String())

	order := s.Types["Order"]
	require.NotNil(t, order)
	assert.Equal(t, "Time!", order.Fields.ForName("placed").Type.String())
	assert.Equal(t, "Float!", order.Fields.ForName("total").Type.String())
	assert.Equal(t, "String!", order.Fields.ForName("customerID").Type.String())
	assert.Equal(t, "Customer!", order.Fields.ForName("customer").Type.String())

	for _, name := range []string{graphql.ScalarTime, graphql.ScalarUUID} {
		require.Contains(t, s.Types, name)
		assert.Equal(t, ast.Scalar, s.Types[name].Kind)
	}
	assert.NotContains(t, s.Types, graphql.ScalarJSON)

	require.NotNil(t, s.Query)
	assert.Equal(t, "[Customer!]!", s.Query.Fields.ForName("customers").Type.String())
	count := s.Query.Fields.ForName("countOrders")
	require.NotNil(t, count)
	assert.Equal(t, "Int!", count.Type.String())
	require.Len(t, count.Arguments, 1)
	assert.Equal(t, "customerID", count.Arguments[0].Name)
	assert.Equal(t, "[Customer!]!", s.Query.Fields.ForName("topCustomers").Type.String())
}

func TestSDLLoads(t *testing.T) {
	sdl, err := graphql.SDL(shopModel(t))
	require.NoError(t, err)
	assert.Contains(t, sdl, "type Customer")
	assert.Contains(t, sdl, "scalar Time")

	s, err := gqlparser.LoadSchema(&ast.Source{Name: "shop.graphql", Input: sdl})
	require.NoError(t, err)
	require.NotNil(t, s.Query)
	assert.NotNil(t, s.Types["Order"].Fields.ForName("customer"))
}

func TestOptions(t *testing.T) {
	m := shopModel(t)
	s, err := graphql.Schema(m,
		graphql.WithQueryType(""),
		graphql.WithMapScalarFunc(func(mm *meta.MetaDataMember) string {
			if mm.Name == "Total" {
				return "Decimal"
			}
			return ""
		}),
		graphql.WithSchemaHook(func(_ *meta.Model, s *ast.Schema) error {
			s.Types["Decimal"].Description = "Fixed point number."
			return nil
		}),
	)
	require.NoError(t, err)
	assert.Nil(t, s.Query)
	assert.NotContains(t, s.Types, "Query")
	assert.Equal(t, "Decimal!", s.Types["Order"].Fields.ForName("total").Type.String())
	assert.Equal(t, "Fixed point number.", s.Types["Decimal"].Description)

	_, err = graphql.Schema(m, graphql.WithMapScalarFunc(nil))
	require.Error(t, err)
}

func TestGQLGenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gqlgen.yml")
	cfg, err := graphql.LoadGQLGenConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Models)

	cfg.BindModels(shopModel(t), "schema.graphql")
	cfg.BindModels(shopModel(t), "schema.graphql")
	require.NoError(t, graphql.SaveGQLGenConfig(path, cfg))

	loaded, err := graphql.LoadGQLGenConfig(path)
	require.NoError(t, err)
	assert.Equal(t, graphql.StringList{"schema.graphql"}, loaded.SchemaFilename)
	pkg := reflect.TypeFor[Customer]().PkgPath()
	assert.Equal(t, graphql.StringList{pkg + ".Customer"}, loaded.Models["Customer"].Model)
	assert.Equal(t, graphql.StringList{"github.com/99designs/gqlgen/graphql.Time"}, loaded.Models["Time"].Model)
}
