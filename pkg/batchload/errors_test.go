package batchload

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeForError_Nil(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeForError(nil))
}

func TestExitCodeForError_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid config", ErrInvalidConfig, ExitConfigError},
		{"connectivity", ErrConnectivity, ExitConnectionError},
		{"parse", ErrParse, ExitParseError},
		{"constraint", ErrConstraintViolation, ExitConstraintError},
		{"retries exhausted", ErrRetriesExhausted, ExitRetriesExhausted},
		{"unclassified", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

func TestExitCodeForError_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("load failed: %w", ErrConstraintViolation)
	assert.Equal(t, ExitConstraintError, ExitCodeForError(err))
}

func TestExitCodeForError_MessagePattern(t *testing.T) {
	err := errors.New("unable to open database file")
	assert.Equal(t, ExitConnectionError, ExitCodeForError(err))
}

func TestParseError_MatchesSentinel(t *testing.T) {
	err := &ParseError{File: "users.csv", Line: 7, Msg: "wrong number of fields"}

	require.True(t, errors.Is(err, ErrParse))
	assert.Equal(t, "parse users.csv:7: wrong number of fields", err.Error())

	wrapped := fmt.Errorf("reading input: %w", err)
	assert.True(t, errors.Is(wrapped, ErrParse))
	assert.Equal(t, ExitParseError, ExitCodeForError(wrapped))
}

func TestParseError_NoLine(t *testing.T) {
	err := &ParseError{File: "users.csv", Msg: "file is empty"}
	assert.Equal(t, "parse users.csv: file is empty", err.Error())
}

func TestRetriesExhaustedError(t *testing.T) {
	underlying := errors.New("database is locked")
	err := &RetriesExhaustedError{Op: "insert into users", Attempts: 5, Err: underlying}

	require.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.True(t, errors.Is(err, underlying), "should unwrap to the final attempt's error")
	assert.Equal(t, "insert into users: retries exhausted after 5 attempts: database is locked", err.Error())
	assert.Equal(t, ExitRetriesExhausted, ExitCodeForError(err))
}
