package database

import (
	"os"
	"path/filepath"
	"strings"
)

const sqliteBusyTimeoutMS = "5000"

// sqliteDSN appends a busy timeout so a seeding writer makes concurrent
// readers wait instead of failing with SQLITE_BUSY.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") || strings.Contains(dsn, ":memory:") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=" + sqliteBusyTimeoutMS
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
