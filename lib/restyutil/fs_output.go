package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes every dumped exchange to its own file in a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates the directory if it is missing, existing dumps are
// left alone.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	if dir == "" {
		return FilesystemOutput{}, fmt.Errorf("a dump directory was not specified")
	}
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
