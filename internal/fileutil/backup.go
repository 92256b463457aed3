package fileutil

import (
	"errors"
	"fmt"
	"os"
)

// BackupSuffix is appended to the prior generation of a rotated file.
const BackupSuffix = ".bak"

// WriteFileWithBackup atomically replaces filename, first rotating any
// existing file to filename.bak. Exactly one prior generation is kept.
func WriteFileWithBackup(filename string, data []byte, perm os.FileMode) error {
	if _, err := os.Stat(filename); err == nil {
		if err := os.Rename(filename, filename+BackupSuffix); err != nil {
			return fmt.Errorf("failed to rotate backup: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	return WriteFileAtomic(filename, data, perm)
}

// ReadFileWithFallback reads filename, falling back to filename.bak when
// the primary is missing or unreadable. os.ErrNotExist is returned only
// when neither generation exists.
func ReadFileWithFallback(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err == nil {
		return data, nil
	}
	backup, bakErr := os.ReadFile(filename + BackupSuffix)
	if bakErr == nil {
		return backup, nil
	}
	return nil, err
}
