package sqliteutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const schema = `
create table if not exists kv (
	k text primary key,
	v integer not null default 0
);`

func TestOpenDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readme.db")

	db, err := OpenDB(schema, path)
	require.NoError(t, err)
	_, err = db.Exec("insert into kv(k, v) values ('views', 12)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening must not clobber existing rows
	db, err = OpenDB(schema, path)
	require.NoError(t, err)
	defer db.Close()

	var v int64
	err = db.QueryRow("select v from kv where k = 'views'").Scan(&v)
	require.NoError(t, err)
	require.Equal(t, int64(12), v)
}

func TestOpenDBMemory(t *testing.T) {
	db, err := OpenDB(schema, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("insert into kv(k) values ('visitors')")
	require.NoError(t, err)
}

func TestOpenDBRequiresPath(t *testing.T) {
	_, err := OpenDB(schema, "")
	require.Error(t, err)
}
