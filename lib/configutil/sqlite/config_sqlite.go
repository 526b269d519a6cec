package configsqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const MemoryFile = ":memory:"

type Struct struct {
	File string `json:"file"`
}

// OpenDB opens (creating if needed) the sqlite database and applies the schema.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	dbpath := config.File
	if dbpath != MemoryFile {
		err := os.MkdirAll(filepath.Dir(dbpath), 0755)
		if err != nil {
			return nil, err
		}
		_, statErr := os.Stat(dbpath)
		if os.IsNotExist(statErr) {
			f, err := os.Create(dbpath)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	// a single connection also keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, err
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return db, nil
}
