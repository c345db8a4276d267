package dbmap_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap"
)

func TestParseError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := dbmap.NewParseError(dbmap.MalformedBool, "Column", "IsPrimaryKey", "yes")
		assert.Equal(t, `dbmap: malformed boolean in <Column> attribute "IsPrimaryKey" value "yes"`, err.Error())

		err.Offset = 42
		assert.Contains(t, err.Error(), "(offset 42)")
	})

	t.Run("Is", func(t *testing.T) {
		err := dbmap.NewParseError(dbmap.UnexpectedElement, "Colum", "", "")
		assert.True(t, errors.Is(err, dbmap.ErrParse))
		assert.False(t, errors.Is(err, dbmap.ErrMapping))
	})

	t.Run("IsParseError", func(t *testing.T) {
		err := dbmap.NewParseError(dbmap.MissingAttribute, "Column", "Member", "")
		assert.True(t, dbmap.IsParseError(err))
		assert.True(t, dbmap.IsParseError(fmt.Errorf("load: %w", err)))
		assert.True(t, dbmap.IsParseError(dbmap.ErrParse))
		assert.False(t, dbmap.IsParseError(errors.New("other")))
		assert.False(t, dbmap.IsParseError(nil))
	})

	t.Run("Kind", func(t *testing.T) {
		assert.Equal(t, "unknown enum literal", dbmap.UnknownEnum.String())
		assert.Equal(t, "ParseErrorKind(99)", dbmap.ParseErrorKind(99).String())
	})
}

func TestMappingError(t *testing.T) {
	t.Run("KeyMemberNotFound", func(t *testing.T) {
		err := dbmap.NewKeyMemberNotFoundError("NoSuchMember", "NoSuchMember", "Order")
		assert.Equal(t, `dbmap: key member not found "NoSuchMember" in key list "NoSuchMember" on type Order`, err.Error())
		assert.True(t, errors.Is(err, dbmap.ErrMapping))
		assert.True(t, dbmap.IsMappingErrorKind(err, dbmap.KeyMemberNotFound))
		assert.False(t, dbmap.IsMappingErrorKind(err, dbmap.MemberNotFound))
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := &dbmap.MappingError{Kind: dbmap.TypeNotResolvable, Type: "Order", Cause: cause}
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "dbmap: type not resolvable on type Order: boom", err.Error())
	})

	t.Run("Invalid", func(t *testing.T) {
		err := dbmap.NewInvalidMappingError("Customer", "Order", "%d this keys, %d other keys", 2, 1)
		assert.Equal(t, `dbmap: invalid mapping "Customer" on type Order: 2 this keys, 1 other keys`, err.Error())
	})

	t.Run("IsMappingError", func(t *testing.T) {
		assert.True(t, dbmap.IsMappingError(dbmap.NewMemberNotFoundError("ID", "T")))
		assert.True(t, dbmap.IsMappingError(fmt.Errorf("wrap: %w", dbmap.NewMemberNotWritableError("ID", "T"))))
		assert.False(t, dbmap.IsMappingError(dbmap.NewParseError(dbmap.MalformedTag, "", "", "")))
		assert.False(t, dbmap.IsMappingError(nil))
	})
}

func TestNotSupportedError(t *testing.T) {
	tests := []struct {
		err  *dbmap.NotSupportedError
		want string
	}{
		{dbmap.NewNotSupportedError("inheritance", "", ""), "dbmap: inheritance not supported"},
		{dbmap.NewNotSupportedError("inheritance", "Shape", ""), "dbmap: inheritance not supported (type Shape)"},
		{dbmap.NewNotSupportedError("deferred member", "Order", "Lines"), "dbmap: deferred member not supported (member Order.Lines)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require := require.New(t)
			require.EqualError(tt.err, tt.want)
			require.True(dbmap.IsNotSupported(tt.err))
			require.ErrorIs(tt.err, dbmap.ErrNotSupported)
		})
	}
}

func TestAggregateError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, dbmap.NewAggregateError(nil, nil))
	})

	t.Run("Single", func(t *testing.T) {
		err := errors.New("single")
		assert.Equal(t, err, dbmap.NewAggregateError(nil, err))
	})

	t.Run("Multiple", func(t *testing.T) {
		e1 := dbmap.NewMemberNotFoundError("A", "T")
		e2 := errors.New("second")
		err := dbmap.NewAggregateError(e1, e2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dbmap: multiple errors:")
		assert.Contains(t, err.Error(), "[2] second")
		assert.True(t, dbmap.IsMappingError(err))
		assert.ErrorIs(t, err, e2)
	})
}
