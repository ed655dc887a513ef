package testsupport

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteNamedMemoryDB opens an in-memory database shared only by
// connections that use the same name.
func NewSQLiteNamedMemoryDB(name string) (*sql.DB, error) {
	return sql.Open("sqlite3", SQLiteMemoryDSN(name))
}

// SQLiteMemoryDSN builds a shared-cache memory DSN. Subtest separators in
// name are flattened.
func SQLiteMemoryDSN(name string) string {
	return "file:" + strings.ReplaceAll(name, "/", "_") + "?mode=memory&cache=shared"
}
