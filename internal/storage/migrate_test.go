// ABOUTME: Tests for data migration between storage backends.
// ABOUTME: Covers sqlite-to-badger and badger-to-sqlite copies.
package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrateDataSQLiteToBadger(t *testing.T) {
	src := setupTestDB(t)
	dst := setupTestBadger(t)

	src.Set("habits.v1", []byte(`[{"id":"h1"}]`))
	src.Set("logs.v1", []byte(`[{"id":"l1"},{"id":"l2"}]`))

	summary, err := MigrateData(src, dst)
	if err != nil {
		t.Fatalf("MigrateData failed: %v", err)
	}
	if summary.Keys != 2 {
		t.Errorf("Keys = %d, want 2", summary.Keys)
	}
	if summary.Bytes != len(`[{"id":"h1"}]`)+len(`[{"id":"l1"},{"id":"l2"}]`) {
		t.Errorf("Bytes = %d", summary.Bytes)
	}

	got, err := dst.Get("logs.v1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[{"id":"l1"},{"id":"l2"}]` {
		t.Errorf("logs.v1 = %s", got)
	}
}

func TestMigrateDataBadgerToSQLite(t *testing.T) {
	src := setupTestBadger(t)
	dst := setupTestDB(t)

	src.Set("habits.v1", []byte("[]"))
	dst.Set("habits.v1", []byte("stale"))

	if _, err := MigrateData(src, dst); err != nil {
		t.Fatalf("MigrateData failed: %v", err)
	}

	got, err := dst.Get("habits.v1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("habits.v1 = %s, want [] (overwritten)", got)
	}
}

func TestMigrateDataEmptySource(t *testing.T) {
	summary, err := MigrateData(setupTestDB(t), setupTestBadger(t))
	if err != nil {
		t.Fatalf("MigrateData failed: %v", err)
	}
	if summary.Keys != 0 {
		t.Errorf("Keys = %d, want 0", summary.Keys)
	}
}

func TestIsDirNonEmpty(t *testing.T) {
	dir := t.TempDir()

	nonEmpty, err := IsDirNonEmpty(filepath.Join(dir, "missing"))
	if err != nil || nonEmpty {
		t.Errorf("missing dir: got %v, %v", nonEmpty, err)
	}

	nonEmpty, err = IsDirNonEmpty(dir)
	if err != nil || nonEmpty {
		t.Errorf("empty dir: got %v, %v", nonEmpty, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	nonEmpty, err = IsDirNonEmpty(dir)
	if err != nil || !nonEmpty {
		t.Errorf("non-empty dir: got %v, %v", nonEmpty, err)
	}
}
