package process

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/dsemu/internal/fileutil"
)

// OutputFile captures a child process's combined stdout and stderr in a
// single log file inside the data directory. The emulator interleaves its
// diagnostics on stderr; keeping the capture in one file preserves ordering
// and keeps test output clean.
type OutputFile struct {
	file *os.File
	path string
}

// NewOutputFile creates the log file for a process, named "<name>.log".
// The data directory is created if it does not exist yet.
func NewOutputFile(dataDir, name string) (*OutputFile, error) {
	path := filepath.Join(dataDir, name+".log")
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output log %s: %w", path, err)
	}
	return &OutputFile{file: f, path: path}, nil
}

// File returns the underlying file handle for use as cmd.Stdout/Stderr.
func (o *OutputFile) File() *os.File {
	return o.file
}

// Path returns the absolute path of the log file.
func (o *OutputFile) Path() string {
	return o.path
}

// Close closes the file handle and nils it to prevent double-close.
func (o *OutputFile) Close() {
	if o.file != nil {
		_ = o.file.Close()
		o.file = nil
	}
}
