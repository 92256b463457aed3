package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileWithBackupRotation(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "state.json")

	// First write: no backup yet
	if err := WriteFileWithBackup(testFile, []byte("gen1"), 0644); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if _, err := os.Stat(testFile + BackupSuffix); !os.IsNotExist(err) {
		t.Errorf("backup should not exist after first write")
	}

	// Second write rotates gen1 into the backup
	if err := WriteFileWithBackup(testFile, []byte("gen2"), 0644); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	data, err := os.ReadFile(testFile)
	if err != nil || string(data) != "gen2" {
		t.Errorf("primary content: got %q err=%v, want gen2", string(data), err)
	}
	bak, err := os.ReadFile(testFile + BackupSuffix)
	if err != nil || string(bak) != "gen1" {
		t.Errorf("backup content: got %q err=%v, want gen1", string(bak), err)
	}

	// Third write keeps only one prior generation
	if err := WriteFileWithBackup(testFile, []byte("gen3"), 0644); err != nil {
		t.Fatalf("third write failed: %v", err)
	}
	bak, _ = os.ReadFile(testFile + BackupSuffix)
	if string(bak) != "gen2" {
		t.Errorf("backup content after third write: got %q, want gen2", string(bak))
	}
}

func TestReadFileWithFallback(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "state.json")

	// Neither generation exists
	if _, err := ReadFileWithFallback(testFile); err == nil {
		t.Error("expected error when no file exists")
	}

	// Only the backup exists (primary lost)
	if err := os.WriteFile(testFile+BackupSuffix, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := ReadFileWithFallback(testFile)
	if err != nil || string(data) != "old" {
		t.Errorf("fallback read: got %q err=%v, want old", string(data), err)
	}

	// Primary wins when present
	if err := os.WriteFile(testFile, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err = ReadFileWithFallback(testFile)
	if err != nil || string(data) != "new" {
		t.Errorf("primary read: got %q err=%v, want new", string(data), err)
	}
}
