package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatools-io/batchload/pkg/batchload"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func usersDataset(file string) batchload.Dataset {
	return batchload.Dataset{
		File:       file,
		Table:      "users",
		Columns:    []string{"id", "name", "email"},
		PrimaryKey: "id",
	}
}

func TestReadFile_WellFormed(t *testing.T) {
	path := writeCSV(t, "users.csv",
		"id,name,email\n"+
			"u1,Ada,ada@example.com\n"+
			"u2,Grace,grace@example.com\n"+
			"u3,Edsger,edsger@example.com\n")

	batch, err := ReadFile(usersDataset(path))
	require.NoError(t, err)

	assert.Equal(t, "users", batch.Table)
	assert.Equal(t, []string{"id", "name", "email"}, batch.Columns)
	require.Equal(t, 3, batch.Len())
	assert.Equal(t, []string{"u1", "Ada", "ada@example.com"}, batch.Records[0])
	assert.Equal(t, []string{"u3", "Edsger", "edsger@example.com"}, batch.Records[2])
}

func TestReadFile_BlankLinesSkipped(t *testing.T) {
	path := writeCSV(t, "users.csv",
		"id,name,email\n"+
			"u1,Ada,ada@example.com\n"+
			"\n"+
			"u2,Grace,grace@example.com\n"+
			"\n")

	batch, err := ReadFile(usersDataset(path))
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Len(), "blank lines produce no records")
	assert.Equal(t, "u2", batch.Records[1][0])
}

func TestReadFile_QuotedFields(t *testing.T) {
	path := writeCSV(t, "users.csv",
		"id,name,email\n"+
			`u1,"Lovelace, Ada",ada@example.com`+"\n")

	batch, err := ReadFile(usersDataset(path))
	require.NoError(t, err)

	require.Equal(t, 1, batch.Len())
	assert.Equal(t, "Lovelace, Ada", batch.Records[0][1])
}

func TestReadFile_EmptyFile(t *testing.T) {
	path := writeCSV(t, "users.csv", "")

	_, err := ReadFile(usersDataset(path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, batchload.ErrParse))

	var parseErr *batchload.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Line)
	assert.Contains(t, parseErr.Msg, "expected a header row")
}

func TestReadFile_HeaderColumnCountMismatch(t *testing.T) {
	path := writeCSV(t, "users.csv", "id,name\nu1,Ada\n")

	_, err := ReadFile(usersDataset(path))
	require.Error(t, err)

	var parseErr *batchload.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Line)
	assert.Contains(t, parseErr.Msg, "header has 2 columns")
}

func TestReadFile_HeaderNameMismatch(t *testing.T) {
	path := writeCSV(t, "users.csv", "id,full_name,email\nu1,Ada,ada@example.com\n")

	_, err := ReadFile(usersDataset(path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, batchload.ErrParse))
	assert.Contains(t, err.Error(), `"full_name"`)
}

func TestReadFile_HeaderWhitespaceTolerated(t *testing.T) {
	path := writeCSV(t, "users.csv", "id, name , email\nu1,Ada,ada@example.com\n")

	batch, err := ReadFile(usersDataset(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "email"}, batch.Columns)
}

func TestReadFile_MalformedRowAbortsFile(t *testing.T) {
	path := writeCSV(t, "users.csv",
		"id,name,email\n"+
			"u1,Ada,ada@example.com\n"+
			"u2,Grace\n"+
			"u3,Edsger,edsger@example.com\n")

	_, err := ReadFile(usersDataset(path))
	require.Error(t, err, "a single malformed row aborts the whole file")

	var parseErr *batchload.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 3, parseErr.Line)
}

func TestReadFile_BadQuoting(t *testing.T) {
	path := writeCSV(t, "users.csv",
		"id,name,email\n"+
			`u1,"Ada,ada@example.com`+"\n")

	_, err := ReadFile(usersDataset(path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, batchload.ErrParse))
}

func TestReadFile_MissingFile(t *testing.T) {
	ds := usersDataset(filepath.Join(t.TempDir(), "absent.csv"))

	_, err := ReadFile(ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
