package sqlschema

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/dbmap/dialect"
)

// planners are the offline planners of the dialects. They plan without a
// database connection.
var planners = map[string]migrate.PlanApplier{
	dialect.MySQL:    mysql.DefaultPlan,
	dialect.Postgres: postgres.DefaultPlan,
	dialect.SQLite:   sqlite.DefaultPlan,
}

// Plan returns the statements creating the tables of s in dialect d.
// Referenced tables are created before the tables referring to them.
func Plan(ctx context.Context, s *schema.Schema, d string) ([]string, error) {
	d, err := dialect.Normalize(d)
	if err != nil {
		return nil, err
	}
	tables := SortTables(s.Tables)
	changes := make([]schema.Change, len(tables))
	for i, t := range tables {
		changes[i] = &schema.AddTable{T: t}
	}
	plan, err := planners[d].PlanChanges(ctx, "create_"+s.Name, changes, func(o *migrate.PlanOptions) {
		q := ""
		o.SchemaQualifier = &q
	})
	if err != nil {
		return nil, fmt.Errorf("sqlschema: plan %s: %w", d, err)
	}
	stmts := make([]string, len(plan.Changes))
	for i, c := range plan.Changes {
		stmts[i] = c.Cmd
	}
	return stmts, nil
}

// SortTables orders tables so that every table follows the tables its
// foreign keys refer to. Tables in a reference cycle keep their relative
// order.
func SortTables(tables []*schema.Table) []*schema.Table {
	var (
		sorted = make([]*schema.Table, 0, len(tables))
		state  = make(map[*schema.Table]int, len(tables))
		known  = make(map[*schema.Table]bool, len(tables))
		visit  func(*schema.Table)
	)
	for _, t := range tables {
		known[t] = true
	}
	visit = func(t *schema.Table) {
		if state[t] != 0 {
			return
		}
		state[t] = 1
		for _, fk := range t.ForeignKeys {
			if ref := fk.RefTable; ref != nil && ref != t && known[ref] {
				visit(ref)
			}
		}
		state[t] = 2
		sorted = append(sorted, t)
	}
	for _, t := range tables {
		visit(t)
	}
	return sorted
}
