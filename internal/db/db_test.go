package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const failedToInitDB = "Failed to initialize database: %v"

func TestSetLogger(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))
}

func TestNewSQLite(t *testing.T) {
	db := NewSQLite("")
	if db.Path() != MemoryPath {
		t.Errorf("Expected empty path to default to %q, got %q", MemoryPath, db.Path())
	}
	if db.Get() != nil {
		t.Error("Expected connection to be nil before InitDB")
	}
}

func TestSQLiteRecordsSchema(t *testing.T) {
	db := NewSQLite(MemoryPath)
	defer db.Close()

	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}

	rows, err := db.Query("PRAGMA table_info(records)")
	if err != nil {
		t.Fatalf("Failed to get records table info: %v", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			t.Fatalf("Failed to scan column info: %v", err)
		}
		columns[name] = true
	}

	for _, col := range []string{"key", "value", "content_hash", "modified_at"} {
		if !columns[col] {
			t.Errorf("Expected records table to have column %s", col)
		}
	}
}

func TestSQLiteExecAndQuery(t *testing.T) {
	db := NewSQLite(MemoryPath)
	defer db.Close()

	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}

	res, err := db.Exec(`INSERT INTO records (key, value) VALUES (?, ?)`, "editor:a", []byte("# A"))
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Errorf("Expected 1 row affected, got %d", n)
	}

	rows, err := db.Query(`SELECT value FROM records WHERE key = ?`, "editor:a")
	if err != nil {
		t.Fatalf("Failed to query record: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("Expected to find inserted record")
	}
	var value []byte
	if err := rows.Scan(&value); err != nil {
		t.Fatalf("Failed to scan value: %v", err)
	}
	if string(value) != "# A" {
		t.Errorf("Expected '# A', got %q", value)
	}

	if _, err := db.Exec("INVALID SQL SYNTAX"); err == nil {
		t.Error("Expected error for invalid SQL")
	}
}

func TestSQLiteFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.db")

	db := NewSQLite(path)
	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected database file to be created: %v", err)
	}

	// Re-running InitDB against an existing file must not fail.
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := db.InitDB(); err != nil {
		t.Fatalf("Second InitDB failed: %v", err)
	}
	db.Close()
}

func TestSQLiteClose(t *testing.T) {
	t.Run("Close uninitialized database", func(t *testing.T) {
		if err := NewSQLite(MemoryPath).Close(); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("Close twice", func(t *testing.T) {
		db := NewSQLite(MemoryPath)
		if err := db.InitDB(); err != nil {
			t.Fatalf(failedToInitDB, err)
		}
		if err := db.Close(); err != nil {
			t.Errorf("First close failed: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Errorf("Second close failed: %v", err)
		}
	})
}

func TestDBInterface(t *testing.T) {
	var _ DB = (*SQLite)(nil)
}
