package meta_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/mapping/tagmap"
	"github.com/syssam/dbmap/meta"
)

type Summary struct {
	Region string
	Total  float64
}

type Sales struct {
	Customers dbmap.Table[Customer]
}

func (*Sales) Functions() []*mapping.Function {
	return []*mapping.Function{
		{
			Name:       "dbo.CountOrders",
			Method:     "CountOrders",
			Parameters: []*mapping.Parameter{{Name: "@id", Parameter: "customerID", DbType: "NChar(5)"}},
			Return:     &mapping.Return{DbType: "Int"},
		},
		{
			Method:       "TopCustomers",
			IsComposable: true,
			Parameters:   []*mapping.Parameter{{Parameter: "n"}},
			ElementTypes: []*mapping.Type{{Name: "Customer"}},
		},
		{
			Method: "Summaries",
			ElementTypes: []*mapping.Type{{
				Name:    "Summary",
				Columns: []*mapping.Column{{Member: "Region"}, {Member: "Total", Name: "total_amount"}},
			}},
		},
		{
			Method:     "Totals",
			Parameters: []*mapping.Parameter{{Parameter: "total", Direction: mapping.DirectionOut}},
		},
	}
}

func (*Sales) CountOrders(customerID string) int { return 0 }
func (*Sales) TopCustomers(n int) []Customer     { return nil }
func (*Sales) Summaries() []Summary              { return nil }
func (*Sales) Totals(total *float64)             {}

func TestFunctions(t *testing.T) {
	require := require.New(t)
	m, err := meta.New(reflect.TypeFor[Sales](), tagmap.Source{}, meta.WithTypes(Summary{}))
	require.NoError(err)
	require.Len(m.Functions(), 4)

	f, ok := m.GetFunction("CountOrders")
	require.True(ok)
	require.Same(m, f.Model())
	require.Equal("dbo.CountOrders", f.MappedName)
	require.Equal("CountOrders", f.Method.Name)
	require.Len(f.Parameters, 1)
	p := f.Parameters[0]
	require.Equal("customerID", p.Name)
	require.Equal("@id", p.MappedName)
	require.Equal(mapping.DirectionIn, p.Direction)
	require.Equal(reflect.TypeFor[string](), p.Type)
	require.NotNil(f.ReturnParameter)
	require.Equal("RETURN_VALUE", f.ReturnParameter.MappedName)
	require.Equal("Int", f.ReturnParameter.DbType)
	require.Equal(reflect.TypeFor[int](), f.ReturnParameter.Type)
	require.Empty(f.ResultRowTypes)

	f, ok = m.GetFunction("TopCustomers")
	require.True(ok)
	require.True(f.IsComposable)
	require.Equal("TopCustomers", f.MappedName)
	require.Nil(f.ReturnParameter)
	ct, err := m.GetMetaType(reflect.TypeFor[Customer]())
	require.NoError(err)
	require.Len(f.ResultRowTypes, 1)
	require.Same(ct, f.ResultRowTypes[0])
	require.False(f.HasMultipleResults())

	f, ok = m.GetFunction("Summaries")
	require.True(ok)
	st := f.ResultRowTypes[0]
	require.Nil(st.Table)
	require.True(st.Resolved())
	require.Equal([]string{"Region", "Total"}, names(st.DataMembers))
	require.Equal("total_amount", st.DataMembers[1].MappedName)
	require.Empty(st.IdentityMembers)

	// Result shapes are not tables.
	tbl, err := m.GetTable(reflect.TypeFor[Summary]())
	require.NoError(err)
	require.Nil(tbl)

	f, ok = m.GetFunction("Totals")
	require.True(ok)
	require.Equal(mapping.DirectionOut, f.Parameters[0].Direction)
	require.Equal(reflect.TypeFor[*float64](), f.Parameters[0].Type)
}

func TestTypeMethodFunction(t *testing.T) {
	db := &mapping.Database{Functions: []*mapping.Function{
		{Name: "fn_city", Method: "Customer.City", Return: &mapping.Return{}},
	}}
	m, err := meta.New(reflect.TypeFor[Sales](), meta.DatabaseSource{DB: db})
	require.NoError(t, err)
	f, ok := m.GetFunction("Customer.City")
	require.True(t, ok)
	assert.Equal(t, "fn_city", f.MappedName)
	assert.Equal(t, reflect.TypeFor[string](), f.ReturnParameter.Type)
}

func TestFunctionErrors(t *testing.T) {
	count := func(params ...*mapping.Parameter) *mapping.Function {
		return &mapping.Function{Method: "CountOrders", Parameters: params, Return: &mapping.Return{}}
	}
	id := &mapping.Parameter{Parameter: "customerID"}
	tests := []struct {
		name string
		fns  []*mapping.Function
		want func(error) bool
	}{
		{
			name: "UnknownMethod",
			fns:  []*mapping.Function{{Method: "Nope"}},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.FunctionNotFound) },
		},
		{
			name: "UnknownType",
			fns:  []*mapping.Function{{Method: "Nope.City"}},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.TypeNotResolvable) },
		},
		{
			name: "ParameterCount",
			fns:  []*mapping.Function{count()},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.InvalidMapping) },
		},
		{
			name: "OutputNotPointer",
			fns:  []*mapping.Function{count(&mapping.Parameter{Parameter: "customerID", Direction: mapping.DirectionInOut})},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.InvalidMapping) },
		},
		{
			name: "Duplicate",
			fns:  []*mapping.Function{count(id), count(id)},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.InvalidMapping) },
		},
		{
			name: "ReturnAndElementTypes",
			fns: []*mapping.Function{{
				Method:       "Summaries",
				Return:       &mapping.Return{},
				ElementTypes: []*mapping.Type{{Name: "Summary"}},
			}},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.InvalidMapping) },
		},
		{
			name: "NoReturnValue",
			fns: []*mapping.Function{{
				Method:     "Totals",
				Parameters: []*mapping.Parameter{{Parameter: "total", Direction: mapping.DirectionOut}},
				Return:     &mapping.Return{},
			}},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.InvalidMapping) },
		},
		{
			name: "MultipleResultShapes",
			fns: []*mapping.Function{{
				Method:       "Summaries",
				ElementTypes: []*mapping.Type{{Name: "Summary"}, {Name: "Summary"}},
			}},
			want: dbmap.IsNotSupported,
		},
		{
			name: "UnknownResultType",
			fns: []*mapping.Function{{
				Method:       "Summaries",
				ElementTypes: []*mapping.Type{{Name: "Nope"}},
			}},
			want: func(err error) bool { return dbmap.IsMappingErrorKind(err, dbmap.TypeNotResolvable) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mapping.Database{Functions: tt.fns}
			_, err := meta.New(reflect.TypeFor[Sales](), meta.DatabaseSource{DB: db}, meta.WithTypes(Summary{}))
			require.Error(t, err)
			assert.True(t, tt.want(err), "got %v", err)
		})
	}
}
