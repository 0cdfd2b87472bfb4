package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const logTimeLayout = "2006-01-02T15-04-05"

// SetupLogFile opens dir/{name}-{timestamp}.log and prunes the oldest files
// of the same name so at most maxFiles remain. The caller closes the file.
func SetupLogFile(dir, name string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.log", name, time.Now().UTC().Format(logTimeLayout)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if err := pruneLogs(dir, name, maxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "warning: prune log files: %v\n", err)
	}
	return f, nil
}

// pruneLogs relies on the timestamp layout sorting chronologically
func pruneLogs(dir, name string, maxFiles int) error {
	if maxFiles <= 0 {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(dir, name+"-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= maxFiles {
		return nil
	}
	sort.Strings(files)
	for _, old := range files[:len(files)-maxFiles] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("remove %s: %w", old, err)
		}
	}
	return nil
}
