// Package sqlschema exports resolved mapping models as atlas schemas.
//
// Export builds one atlas table per mapped table, with primary keys,
// foreign keys of foreign key associations and dialect column types:
//
//	s, err := sqlschema.Export(model, dialect.Postgres)
//	if err != nil {
//		return err
//	}
//	stmts, err := sqlschema.Plan(ctx, s, dialect.Postgres)
//
// Column types come from the DbType of a column when the dialect can parse
// it, and from the Go type of the member otherwise.
package sqlschema
