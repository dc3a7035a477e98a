package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// FileDeleter removes files either permanently or into the platform trash
type FileDeleter struct {
	trash func(paths ...string) error
}

// NewFileDeleter creates a deleter backed by the system trash
// (FreeDesktop on Linux, Finder on macOS, the Recycle Bin on Windows)
func NewFileDeleter() *FileDeleter {
	return &FileDeleter{trash: wastebasket.Trash}
}

// HardDelete removes the file permanently
func (d *FileDeleter) HardDelete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// TrashDelete moves the file into the trash and reports whether it left
// its original location
func (d *FileDeleter) TrashDelete(path string) bool {
	abs, err := filepath.Abs(path)
	if err == nil {
		_, err = os.Lstat(abs)
	}
	if err == nil {
		err = d.trash(abs)
	}
	if err != nil {
		log.Printf("⚠️ 휴지통 이동 실패: %s (%v)", path, err)
		return false
	}
	return true
}
