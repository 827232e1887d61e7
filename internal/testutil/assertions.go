// Package testutil provides wasm test guests and assertions shared by the
// host, adapter and CLI tests.
package testutil

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
)

// AssertCompleted asserts that res completed with the given output.
func AssertCompleted(t *testing.T, res *entities.Result, wantOutput string, msgAndArgs ...interface{}) {
	t.Helper()
	require.NotNil(t, res, msgAndArgs...)
	require.NoError(t, res.Err, msgAndArgs...)
	assert.Equal(t, entities.StateCompleted, res.State, msgAndArgs...)
	assert.Equal(t, wantOutput, string(res.Output), msgAndArgs...)
}

// AssertFaulted asserts that res faulted with a *errors.TrapError of the
// given reason, and returns that error.
func AssertFaulted(t *testing.T, res *entities.Result, reason domainerrors.TrapReason, msgAndArgs ...interface{}) *domainerrors.TrapError {
	t.Helper()
	require.NotNil(t, res, msgAndArgs...)
	assert.Equal(t, entities.StateFaulted, res.State, msgAndArgs...)
	assert.Nil(t, res.Output, msgAndArgs...)

	var trap *domainerrors.TrapError
	require.True(t, errors.As(res.Err, &trap), "expected *TrapError, got %v", res.Err)
	assert.Equal(t, reason, trap.Reason, msgAndArgs...)
	return trap
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}
