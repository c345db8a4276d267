// Package graphql exports a resolved dbmap model as a GraphQL schema.
//
// Every table row type and function result shape becomes an object type.
// Columns become scalar fields and associations become object or list
// fields. Tables and functions with a result are exposed on the Query
// type:
//
//	m, err := meta.New(reflect.TypeFor[shop.DB](), tagmap.Source{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	sdl, err := graphql.SDL(m)
//	if err != nil {
//		log.Fatal(err)
//	}
//	os.WriteFile("schema.graphql", []byte(sdl), 0o644)
//
// # Scalars
//
// Go types map to the built-in scalars where one fits. Single column
// primary keys are ID. time.Time, uuid.UUID and everything else map to
// the custom scalars Time, UUID and JSON, which are declared in the
// schema when used. Use WithMapScalarFunc to override the mapping per
// member.
//
// # gqlgen
//
// GQLGenConfig reads and writes gqlgen.yml files. BindModels binds the
// exported object types to their Go row types so gqlgen reuses them
// instead of generating models.
package graphql
