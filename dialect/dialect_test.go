package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"pgx":        Postgres,
		"mysql":      MySQL,
		"mariadb":    MySQL,
		"sqlite3":    SQLite,
		" sqlite ":   SQLite,
	}
	for in, want := range tests {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := Normalize("oracle")
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "`Orders`", Quote(MySQL, "Orders"))
	assert.Equal(t, `"dbo"."Order Details"`, Quote(Postgres, "dbo.Order Details"))
	assert.Equal(t, `"a""b"`, Quote(SQLite, `a"b`))
	assert.Equal(t, `"dbo"."Order Details"`, Quote(SQLite, "[dbo].[Order Details]"))
}
