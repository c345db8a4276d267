package sqlschema

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/schema"
)

// ValidationError represents a schema validation finding.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, errs []*ValidationError) {
		if len(errs) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range errs {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) add(allowed bool, e *ValidationError) {
	if allowed {
		r.Warnings = append(r.Warnings, e)
	} else {
		r.Errors = append(r.Errors, e)
	}
}

// ValidateOption configures schema diff validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowNullToNotNull bool
}

// AllowDropColumn reports dropped columns as warnings.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable reports dropped tables as warnings.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowNullToNotNull reports nullable columns becoming NOT NULL as warnings.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff validates the change from the schema of one mapping to the
// schema of another. Breaking changes are errors unless allowed by opts.
func ValidateDiff(current, desired *schema.Schema, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	for _, ct := range current.Tables {
		dt, ok := desired.Table(ct.Name)
		if !ok {
			result.add(cfg.allowDropTable, &ValidationError{Table: ct.Name, Message: "table will be dropped", Breaking: true})
			continue
		}
		validateTableDiff(ct, dt, cfg, result)
	}
	return result
}

func validateTableDiff(current, desired *schema.Table, cfg *validateConfig, result *ValidationResult) {
	for _, cc := range current.Columns {
		if _, ok := desired.Column(cc.Name); !ok {
			result.add(cfg.allowDropColumn, &ValidationError{Table: current.Name, Column: cc.Name, Message: "column will be dropped", Breaking: true})
		}
	}
	for _, dc := range desired.Columns {
		cc, ok := current.Column(dc.Name)
		if !ok {
			if !dc.Type.Null && dc.Default == nil {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   current.Name,
					Column:  dc.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
			continue
		}
		if from, to := TypeString(cc.Type.Type), TypeString(dc.Type.Type); from != to {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  dc.Name,
				Message: fmt.Sprintf("column type changing from %s to %s", from, to),
			})
		}
		if cc.Type.Null && !dc.Type.Null {
			result.add(cfg.allowNullToNotNull, &ValidationError{
				Table:    current.Name,
				Column:   dc.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			})
		}
		if from, to := size(cc.Type.Type), size(dc.Type.Type); from > 0 && to > 0 && to < from {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   current.Name,
				Column:  dc.Name,
				Message: fmt.Sprintf("column size reducing from %d to %d may truncate data", from, to),
			})
		}
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *schema.Table) *ValidationResult {
	result := &ValidationResult{}
	if t.PrimaryKey == nil || len(t.PrimaryKey.Parts) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	} else {
		for _, p := range t.PrimaryKey.Parts {
			if p.C != nil && p.C.Type != nil && p.C.Type.Null {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Column:  p.C.Name,
					Message: "primary key column is nullable",
				})
			}
		}
	}
	names := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		if names[key] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		names[key] = true
	}
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) != len(fk.RefColumns) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("foreign key %s has %d columns referencing %d", fk.Symbol, len(fk.Columns), len(fk.RefColumns)),
			})
		}
		if fk.RefTable != nil && !coversKey(fk.RefTable, fk.RefColumns) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("foreign key %s does not reference the primary key of %s", fk.Symbol, fk.RefTable.Name),
			})
		}
	}
	return result
}

// ValidateSchema validates all tables of a schema.
func ValidateSchema(s *schema.Schema) *ValidationResult {
	result := &ValidationResult{}
	names := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if names[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		names[t.Name] = true
		tr := ValidateTable(t)
		result.Errors = append(result.Errors, tr.Errors...)
		result.Warnings = append(result.Warnings, tr.Warnings...)
	}
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable != nil && !names[fk.RefTable.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", fk.RefTable.Name),
				})
			}
		}
	}
	return result
}

func coversKey(t *schema.Table, cols []*schema.Column) bool {
	if t.PrimaryKey == nil || len(t.PrimaryKey.Parts) != len(cols) {
		return false
	}
	for i, p := range t.PrimaryKey.Parts {
		if p.C == nil || p.C.Name != cols[i].Name {
			return false
		}
	}
	return true
}

// TypeString returns a short name of a column type, such as varchar(255).
func TypeString(t schema.Type) string {
	switch t := t.(type) {
	case *schema.StringType:
		if t.Size > 0 {
			return fmt.Sprintf("%s(%d)", t.T, t.Size)
		}
		return t.T
	case *schema.BinaryType:
		if t.Size != nil {
			return fmt.Sprintf("%s(%d)", t.T, *t.Size)
		}
		return t.T
	case *schema.IntegerType:
		if t.Unsigned {
			return t.T + " unsigned"
		}
		return t.T
	case *schema.DecimalType:
		return fmt.Sprintf("%s(%d,%d)", t.T, t.Precision, t.Scale)
	case *schema.BoolType:
		return t.T
	case *schema.FloatType:
		return t.T
	case *schema.TimeType:
		return t.T
	case *schema.JSONType:
		return t.T
	case *schema.UUIDType:
		return t.T
	case *schema.EnumType:
		return t.T
	case *schema.SpatialType:
		return t.T
	case *schema.UnsupportedType:
		return t.T
	case nil:
		return ""
	default:
		return fmt.Sprintf("%T", t)
	}
}

func size(t schema.Type) int {
	switch t := t.(type) {
	case *schema.StringType:
		return t.Size
	case *schema.BinaryType:
		if t.Size != nil {
			return *t.Size
		}
	}
	return 0
}
