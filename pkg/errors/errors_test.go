package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNotFound, "discipline not found")
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrValidation))
	require.Equal(t, "discipline not found", err.Message)
	require.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.Status)
	require.ErrorIs(t, appErr, sql.ErrConnDone)
	require.Nil(t, FromError(nil))
}

func TestInternalMessage(t *testing.T) {
	err := Internal(sql.ErrTxDone, "failed to record absence")
	require.Equal(t, "failed to record absence: sql: transaction has already been committed or rolled back", err.Error())
}
