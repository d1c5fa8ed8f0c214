package jsonfile

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Quarantine moves a corrupted state file into <ralphDir>/quarantine with a
// timestamp suffix so the bytes survive for postmortem inspection.
func Quarantine(ralphDir, filePath string) error {
	quarantineDir := filepath.Join(ralphDir, "quarantine")
	if err := os.MkdirAll(quarantineDir, 0755); err != nil {
		return fmt.Errorf("create quarantine dir: %w", err)
	}

	baseName := filepath.Base(filePath)
	timestamp := time.Now().Format("20060102T150405")
	quarantineName := fmt.Sprintf("%s.%s.corrupt", baseName, timestamp)
	quarantinePath := filepath.Join(quarantineDir, quarantineName)

	if err := os.Rename(filePath, quarantinePath); err != nil {
		return fmt.Errorf("move to quarantine: %w", err)
	}

	log.Printf("quarantined corrupted file: %s → %s", filePath, quarantinePath)
	return nil
}

// RestoreFromBackup replaces path with its .bak sibling if the backup still
// parses as JSON.
func RestoreFromBackup(path string) error {
	bakPath := path + ".bak"
	if _, err := os.Stat(bakPath); os.IsNotExist(err) {
		return fmt.Errorf("no backup file: %s", bakPath)
	}

	content, err := os.ReadFile(bakPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if err := validateJSON(content); err != nil {
		return fmt.Errorf("backup JSON is also corrupted: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("restore from backup: %w", err)
	}

	log.Printf("restored from backup: %s → %s", bakPath, path)
	return nil
}

// Recover quarantines a corrupt file, tries the .bak sibling, and falls back
// to writing the provided empty-defaults value. The orchestration core never
// aborts on state corruption; it degrades to a fresh document.
func Recover(ralphDir, path string, defaults any) error {
	if err := Quarantine(ralphDir, path); err != nil {
		return fmt.Errorf("quarantine failed: %w", err)
	}

	if err := RestoreFromBackup(path); err != nil {
		log.Printf("backup restore failed for %s: %v — reinitializing to defaults", path, err)
	} else {
		return nil
	}

	if err := AtomicWrite(path, defaults); err != nil {
		return fmt.Errorf("reinitialize defaults: %w", err)
	}
	return nil
}
