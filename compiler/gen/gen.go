package gen

import (
	"go/token"
	"reflect"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/dave/jennifer/jen"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/dbmap/meta"
	"github.com/syssam/dbmap/meta/access"
)

const accessPkg = "github.com/syssam/dbmap/meta/access"

// Generator writes accessor registration files for the row types of a
// model that belong to the configured package.
type Generator struct {
	model *meta.Model
	cfg   *Config

	mu      sync.Mutex
	metrics *Metrics
}

// New returns a generator for the types of m.
func New(m *meta.Model, opts ...Option) (*Generator, error) {
	if m == nil {
		return nil, NewConfigError("Model", nil, "model cannot be nil")
	}
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Generator{model: m, cfg: cfg, metrics: &Metrics{}}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config { return g.cfg }

// Types returns the mapped types declared in the configured package,
// table row types and function result shapes alike, sorted by name.
func (g *Generator) Types() []*meta.MetaType {
	seen := make(map[reflect.Type]bool)
	var types []*meta.MetaType
	add := func(mt *meta.MetaType) {
		if mt == nil || seen[mt.Type] || mt.Type.PkgPath() != g.cfg.Package || generic(mt.Type) {
			return
		}
		seen[mt.Type] = true
		types = append(types, mt)
	}
	for _, t := range g.model.Tables() {
		add(t.RowType)
	}
	for _, f := range g.model.Functions() {
		for _, mt := range f.ResultRowTypes {
			add(mt)
		}
	}
	slices.SortFunc(types, func(a, b *meta.MetaType) int {
		return strings.Compare(a.Type.Name(), b.Type.Name())
	})
	return types
}

// FileName returns the name of the file generated for mt.
func FileName(mt *meta.MetaType) string {
	return snake(mt.Type.Name()) + "_access.go"
}

// File builds the source file registering the accessors of mt. The
// returned names are the members left to reflection.
func (g *Generator) File(mt *meta.MetaType) (*jen.File, []string) {
	f := jen.NewFilePathName(g.cfg.Package, g.cfg.name())
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	var (
		stmts   []jen.Code
		skipped []string
	)
	for _, m := range mt.DataMembers {
		funcs, ok := g.funcs(mt.Type, m.Ref())
		if !ok {
			skipped = append(skipped, m.Name)
			continue
		}
		stmts = append(stmts, jen.Qual(accessPkg, "Register").Call(
			jen.Qual("reflect", "TypeFor").Types(jen.Qual(g.cfg.Package, mt.Type.Name())).Call(),
			jen.Lit(m.Ref().Name),
			jen.Qual(accessPkg, "Funcs").Values(funcs),
		))
	}
	f.Func().Id("init").Params().Block(stmts...)
	return f, skipped
}

// funcs returns the Get and Set literals of the member r refers to.
func (g *Generator) funcs(owner reflect.Type, r access.Ref) (jen.Dict, bool) {
	if r.Owner != owner {
		return nil, false
	}
	typ, ok := g.typeCode(r.Type)
	if !ok {
		return nil, false
	}
	recv := func() *jen.Statement {
		return jen.Id("o").Assert(jen.Op("*").Qual(g.cfg.Package, owner.Name()))
	}
	getter := func(value jen.Code) jen.Code {
		return jen.Func().Params(jen.Id("o").Id("any")).Id("any").Block(jen.Return(value))
	}
	setter := func(body ...jen.Code) jen.Code {
		return jen.Func().Params(jen.Id("o"), jen.Id("v").Id("any")).Block(body...)
	}
	d := jen.Dict{}
	switch r.Kind {
	case access.Field:
		if len(r.Index) != 1 {
			return nil, false
		}
		name := owner.Field(r.Index[0]).Name
		d[jen.Id("Get")] = getter(recv().Dot(name))
		d[jen.Id("Set")] = setter(jen.List(recv().Dot(name), jen.Id("_")).Op("=").Id("v").Assert(typ))
	case access.Property:
		d[jen.Id("Get")] = getter(recv().Dot(r.Getter).Call())
		switch {
		case r.Setter != "":
			d[jen.Id("Set")] = setter(
				jen.List(jen.Id("x"), jen.Id("_")).Op(":=").Id("v").Assert(typ),
				recv().Dot(r.Setter).Call(jen.Id("x")),
			)
		case len(r.Storage) == 1:
			name := owner.Field(r.Storage[0]).Name
			d[jen.Id("Set")] = setter(jen.List(recv().Dot(name), jen.Id("_")).Op("=").Id("v").Assert(typ))
		case len(r.Storage) > 1:
			return nil, false
		}
	default:
		// Write-only methods have no getter to register.
		return nil, false
	}
	return d, true
}

// typeCode returns the source form of t as seen from the generated
// package.
func (g *Generator) typeCode(t reflect.Type) (*jen.Statement, bool) {
	if t.Name() != "" {
		switch {
		case generic(t):
			return nil, false
		case t.PkgPath() == "":
			return jen.Id(t.Name()), true
		case t.PkgPath() != g.cfg.Package && !token.IsExported(t.Name()):
			return nil, false
		}
		return jen.Qual(t.PkgPath(), t.Name()), true
	}
	switch t.Kind() {
	case reflect.Pointer:
		if c, ok := g.typeCode(t.Elem()); ok {
			return jen.Op("*").Add(c), true
		}
	case reflect.Slice:
		if c, ok := g.typeCode(t.Elem()); ok {
			return jen.Index().Add(c), true
		}
	case reflect.Array:
		if c, ok := g.typeCode(t.Elem()); ok {
			return jen.Index(jen.Lit(t.Len())).Add(c), true
		}
	case reflect.Map:
		k, ok := g.typeCode(t.Key())
		if !ok {
			return nil, false
		}
		if v, ok := g.typeCode(t.Elem()); ok {
			return jen.Map(k).Add(v), true
		}
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return jen.Id("any"), true
		}
	}
	return nil, false
}

func generic(t reflect.Type) bool {
	return strings.ContainsRune(t.Name(), '[')
}

// snake converts a Go identifier to snake case. Acronyms stay in one
// word: "HTTPServer" becomes "http_server".
func snake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			next := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && next) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return cases.Lower(language.Und).String(b.String())
}
