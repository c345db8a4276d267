package graphql

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/dbmap/meta"
)

// Option configures a schema export.
type Option func(*config) error

type config struct {
	query         string
	mapScalarFunc func(*meta.MetaDataMember) string
	hooks         []SchemaHook
}

// SchemaHook runs after the schema is built and may modify it.
type SchemaHook func(m *meta.Model, s *ast.Schema) error

// WithQueryType sets the name of the root query type. An empty name
// leaves the query type out.
func WithQueryType(name string) Option {
	return func(c *config) error {
		c.query = name
		return nil
	}
}

// WithMapScalarFunc sets a function mapping columns to GraphQL scalars.
// If the function returns an empty string, the default mapping is used.
//
// Example:
//
//	graphql.WithMapScalarFunc(func(m *meta.MetaDataMember) string {
//		if m.Type == reflect.TypeFor[net.IP]() {
//			return "IPAddress"
//		}
//		return ""
//	})
func WithMapScalarFunc(fn func(*meta.MetaDataMember) string) Option {
	return func(c *config) error {
		if fn == nil {
			return fmt.Errorf("graphql: nil scalar mapping function")
		}
		c.mapScalarFunc = fn
		return nil
	}
}

// WithSchemaHook adds hooks that run, in order, after the schema is built.
func WithSchemaHook(hooks ...SchemaHook) Option {
	return func(c *config) error {
		c.hooks = append(c.hooks, hooks...)
		return nil
	}
}
