package gen_test

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/compiler/gen"
	"github.com/syssam/dbmap/mapping/tagmap"
	"github.com/syssam/dbmap/meta"
)

type Customer struct {
	_      dbmap.TableMarker `table:"Customers"`
	ID     string            `column:"name:CustomerID;pk"`
	city   string            `column:"member:City"`
	Orders []*Order          `association:"name:FK_Orders_Customers;otherkey:CustomerID"`
}

func (c *Customer) City() string     { return c.city }
func (c *Customer) SetCity(s string) { c.city = s }

type Order struct {
	_          dbmap.TableMarker `table:"Orders"`
	ID         int               `column:"pk;generated"`
	CustomerID string            `column:""`
	Customer   *Customer         `association:"name:FK_Orders_Customers;thiskey:CustomerID;fk"`
}

type Shop struct {
	Customers dbmap.Table[Customer]
	Orders    dbmap.Table[Order]
}

var pkg = reflect.TypeFor[Customer]().PkgPath()

func newGenerator(t *testing.T, opts ...gen.Option) *gen.Generator {
	t.Helper()
	m, err := meta.New(reflect.TypeFor[Shop](), tagmap.Source{})
	require.NoError(t, err)
	g, err := gen.New(m, append([]gen.Option{gen.WithPackage(pkg), gen.WithTarget(t.TempDir())}, opts...)...)
	require.NoError(t, err)
	return g
}

func TestNewRequiresConfig(t *testing.T) {
	m, err := meta.New(reflect.TypeFor[Shop](), tagmap.Source{})
	require.NoError(t, err)

	_, err = gen.New(m, gen.WithPackage(pkg))
	assert.True(t, gen.IsConfigError(err))
	_, err = gen.New(nil, gen.WithPackage(pkg), gen.WithTarget("x"))
	assert.True(t, gen.IsConfigError(err))
}

func TestTypes(t *testing.T) {
	g := newGenerator(t)
	types := g.Types()
	require.Len(t, types, 2)
	assert.Equal(t, "Customer", types[0].Type.Name())
	assert.Equal(t, "Order", types[1].Type.Name())
	assert.Equal(t, "customer_access.go", gen.FileName(types[0]))

	other := newGenerator(t, gen.WithPackage("example.com/elsewhere"))
	assert.Empty(t, other.Types())
}

func TestRender(t *testing.T) {
	g := newGenerator(t)
	src, skipped, err := g.Render(g.Types()[0])
	require.NoError(t, err)
	assert.Empty(t, skipped)

	out := string(src)
	assert.Contains(t, out, "// Code generated by dbmap. DO NOT EDIT.")
	assert.Contains(t, out, "package gen_test")
	assert.Contains(t, out, `"github.com/syssam/dbmap/meta/access"`)
	assert.Contains(t, out, `access.Register(reflect.TypeFor[Customer](), "ID"`)
	assert.Contains(t, out, "return o.(*Customer).ID")
	assert.Contains(t, out, "o.(*Customer).ID, _ = v.(string)")
	assert.Contains(t, out, "return o.(*Customer).City()")
	assert.Contains(t, out, "o.(*Customer).SetCity(x)")
	assert.Contains(t, out, "v.([]*Order)")

	_, err = parser.ParseFile(token.NewFileSet(), "customer_access.go", src, parser.AllErrors)
	require.NoError(t, err)
}

func TestGenerate(t *testing.T) {
	g := newGenerator(t, gen.WithWorkers(1), gen.WithHeader("Code generated by test."))
	require.NoError(t, g.Generate(context.Background()))

	for _, name := range []string{"customer_access.go", "order_access.go"} {
		src, err := os.ReadFile(filepath.Join(g.Config().Target, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(src), "// Code generated by test.")
	}
	metrics := g.Metrics()
	assert.Equal(t, 2, metrics.FilesGenerated)
	assert.Positive(t, metrics.TotalBytes)
	assert.Zero(t, metrics.Skipped)
}

func TestGenerateCanceled(t *testing.T) {
	g := newGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
