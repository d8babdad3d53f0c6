package filestore

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Source is a readable, seekable payload with the name the client gave it.
// Size returns -1 when the length is unknown.
type Source interface {
	io.Reader
	io.Seeker
	Filename() string
	Size() int64
}

// FileSource adapts an open file handle. Close releases the handle.
type FileSource struct {
	file interface {
		io.ReadSeeker
		io.Closer
	}
	name string
	size int64
}

// FromFileHeader opens a multipart form file. Multipart files larger than
// the form's memory limit are backed by a temp file, so nothing here reads
// the payload into memory.
func FromFileHeader(fh *multipart.FileHeader) (*FileSource, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	return &FileSource{file: f, name: fh.Filename, size: fh.Size}, nil
}

// OpenFile opens a file on local disk. The client name is the base name.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &FileSource{file: f, name: filepath.Base(path), size: stat.Size()}, nil
}

func (s *FileSource) Read(p []byte) (int, error) { return s.file.Read(p) }

func (s *FileSource) Seek(offset int64, whence int) (int64, error) {
	return s.file.Seek(offset, whence)
}

func (s *FileSource) Filename() string { return s.name }
func (s *FileSource) Size() int64      { return s.size }
func (s *FileSource) Close() error     { return s.file.Close() }

type bytesSource struct {
	*bytes.Reader
	name string
}

// FromBytes wraps an in-memory payload.
func FromBytes(name string, data []byte) Source {
	return &bytesSource{Reader: bytes.NewReader(data), name: name}
}

func (s *bytesSource) Filename() string { return s.name }
func (s *bytesSource) Size() int64      { return s.Reader.Size() }

type readerSource struct {
	io.ReadSeeker
	name string
	size int64
}

// FromReadSeeker adapts any io.ReadSeeker. Pass size -1 when unknown.
func FromReadSeeker(name string, r io.ReadSeeker, size int64) Source {
	return &readerSource{ReadSeeker: r, name: name, size: size}
}

func (s *readerSource) Filename() string { return s.name }
func (s *readerSource) Size() int64      { return s.size }
