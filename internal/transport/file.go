package transport

import (
	"fmt"
	"log/slog"
	"os"
)

// Records the bytes a session sends instead of printing them. Queries fail
// since nothing ever answers.
type File struct {
	file *os.File
}

func CreateFile(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't create %s:\n%w", path, err)
	}
	slog.Info("Writing commands to file", "path", path)
	return &File{file: f}, nil
}

func (f *File) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

func (f *File) Read([]byte) (int, error) {
	return 0, ErrWriteOnly
}

func (f *File) Close() error {
	return f.file.Close()
}

func (f *File) Name() string {
	return f.file.Name()
}
