// Package gen generates typed member accessors for the row types of a
// dbmap model.
//
// Accessors compiled by package meta/access use reflection. The files
// written by gen register plain Go functions instead, through
// access.Register in an init function, so the resolved model reads and
// writes members without reflection:
//
//	m, err := meta.New(reflect.TypeFor[shop.DB](), tagmap.Source{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	g, err := gen.New(m,
//		gen.WithPackage("example.com/shop"),
//		gen.WithTarget("./shop"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := g.Generate(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// Generated files live in the package of the row types, one file per
// type. Members gen cannot express in Go source (generic owners, types
// unexported from another package, write-only methods) are skipped and
// keep using reflection.
package gen
