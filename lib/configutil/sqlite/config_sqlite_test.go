package configsqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `create table if not exists notes (id integer primary key, body text not null);`

func TestOpenDBCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	db, err := Struct{File: path}.OpenDB(testSchema)
	require.NoError(t, err)
	_, err = db.Exec("insert into notes (body) values (?)", "kept")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Struct{File: path}.OpenDB(testSchema)
	require.NoError(t, err)
	defer db.Close()

	var body string
	require.NoError(t, db.QueryRow("select body from notes").Scan(&body))
	require.Equal(t, "kept", body)
}

func TestOpenDBMemory(t *testing.T) {
	db, err := Struct{File: MemoryFile}.OpenDB(testSchema)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("select count(*) from notes").Scan(&count))
	require.Zero(t, count)
}

func TestOpenDBRequiresPath(t *testing.T) {
	_, err := Struct{}.OpenDB(testSchema)
	require.Error(t, err)
}
