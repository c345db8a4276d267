package gen

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/dbmap"
)

type local struct{}

func TestSnake(t *testing.T) {
	for in, want := range map[string]string{
		"Customer":     "customer",
		"OrderDetail":  "order_detail",
		"HTTPServer":   "http_server",
		"Order2Line":   "order2_line",
		"ID":           "id",
		"CustomerInfo": "customer_info",
	} {
		assert.Equal(t, want, snake(in), in)
	}
}

func TestTypeCode(t *testing.T) {
	g := &Generator{cfg: &Config{Package: reflect.TypeFor[local]().PkgPath()}}
	tests := []struct {
		typ  reflect.Type
		want string
		ok   bool
	}{
		{reflect.TypeFor[string](), "string", true},
		{reflect.TypeFor[*int64](), "*int64", true},
		{reflect.TypeFor[[]byte](), "[]uint8", true},
		{reflect.TypeFor[[4]int](), "[4]int", true},
		{reflect.TypeFor[map[string]any](), "map[string]any", true},
		{reflect.TypeFor[time.Time](), "time.Time", true},
		{reflect.TypeFor[[]*local](), "[]*local", true},
		{reflect.TypeFor[dbmap.Table[local]](), "", false},
		{reflect.TypeFor[chan int](), "", false},
		{reflect.TypeFor[interface{ M() }](), "", false},
	}
	for _, tt := range tests {
		c, ok := g.typeCode(tt.typ)
		if !assert.Equal(t, tt.ok, ok, tt.typ.String()) || !ok {
			continue
		}
		f := jen.NewFilePathName(g.cfg.Package, "gen")
		f.Var().Id("_").Add(c)
		got := strings.TrimSpace(f.GoString())
		assert.Contains(t, got, "var _ "+tt.want, tt.typ.String())
	}
}
