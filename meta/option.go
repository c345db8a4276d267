package meta

import (
	"reflect"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/syssam/dbmap"
)

// Option configures a Model.
type Option func(*config) error

type config struct {
	log    *zap.Logger
	types  []reflect.Type
	plural bool
}

// WithLogger sets the logger receiving resolution events.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return dbmap.NewInvalidMappingError("", "", "nil logger")
		}
		c.log = l
		return nil
	}
}

// WithTypes makes the types of the given values resolvable by name in
// mapping documents, in addition to the row types of the context's tables.
func WithTypes(values ...any) Option {
	return func(c *config) error {
		for _, v := range values {
			t, ok := v.(reflect.Type)
			if !ok {
				t = reflect.TypeOf(v)
			}
			t = indirect(t)
			if t == nil || t.Kind() != reflect.Struct {
				return dbmap.NewInvalidMappingError("", "", "WithTypes: %v is not a struct type", t)
			}
			c.types = append(c.types, t)
		}
		return nil
	}
}

// WithPluralTableNames names tables without an explicit name after the
// plural of their row type name, e.g. Person becomes People.
func WithPluralTableNames() Option {
	return func(c *config) error {
		c.plural = true
		return nil
	}
}

// defaultTableName returns the name of a table mapped without one.
func (c *config) defaultTableName(t reflect.Type) string {
	if c.plural {
		return inflect.Pluralize(t.Name())
	}
	return t.Name()
}
