package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCronError(t *testing.T) {
	t.Run("formats category and severity", func(t *testing.T) {
		err := New(CategoryParse, SeverityError, "bad step value")
		require.Equal(t, "parse (error): bad step value", err.Error())
	})

	t.Run("formats wrapped cause", func(t *testing.T) {
		cause := stderrors.New("boom")
		err := Wrap(cause, CategoryDaemon, SeverityError, "publish failed")
		require.Contains(t, err.Error(), "boom")
		require.ErrorIs(t, err, cause)
	})

	t.Run("context is chainable", func(t *testing.T) {
		err := ParseFailed("value out of range").
			WithContext("value", "60").
			WithContext("max", 59)
		require.Equal(t, "60", err.Context["value"])
		require.Equal(t, 59, err.Context["max"])
	})
}

func TestCategoryHelpers(t *testing.T) {
	t.Run("IsCategory", func(t *testing.T) {
		require.True(t, IsCategory(NotAMember(), CategoryMembership))
		require.False(t, IsCategory(NotAMember(), CategoryParse))
		require.False(t, IsCategory(stderrors.New("plain"), CategoryParse))
	})

	t.Run("GetCategory", func(t *testing.T) {
		require.Equal(t, CategoryRegistry, GetCategory(RegistryDestroyed()))
		require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	})
}
