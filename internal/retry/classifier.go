package retry

import (
	"errors"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLiteErrorClassifier implements batchload.ErrorClassifier for SQLite
// result codes. See: https://www.sqlite.org/rescode.html
type SQLiteErrorClassifier struct{}

// NewSQLiteErrorClassifier creates a new SQLite error classifier.
func NewSQLiteErrorClassifier() *SQLiteErrorClassifier {
	return &SQLiteErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable. The only
// transient conditions are lock contention on the database file
// (SQLITE_BUSY) and on a shared-cache table (SQLITE_LOCKED): another writer
// holds the lock and is expected to release it. Everything else, including
// constraint violations and malformed statements, is fatal.
func (c *SQLiteErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}

	// Fall back to message matching for errors that lost their type
	// through string-based wrapping.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"database is locked",
		"database table is locked",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// IsConstraintViolation reports whether err is a table constraint failure
// (duplicate primary key, NOT NULL, CHECK, ...). Constraint violations are
// never retried: the same batch would collide again.
func IsConstraintViolation(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrConstraint
	}
	return false
}
