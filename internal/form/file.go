package form

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
)

// File is a handle to a selected file. Content is opened lazily so a file
// that fails validation is never read.
type File struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"type"`

	open func() (io.ReadCloser, error)
}

// NewFile creates a file handle backed by an opener.
func NewFile(name string, size int64, contentType string, open func() (io.ReadCloser, error)) *File {
	return &File{Name: name, Size: size, ContentType: contentType, open: open}
}

// FileFromBytes creates a file handle over an in-memory payload.
func FileFromBytes(name, contentType string, data []byte) *File {
	return NewFile(name, int64(len(data)), contentType, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FileFromMultipart creates a file handle from an uploaded multipart part,
// using the part's declared Content-Type.
func FileFromMultipart(fh *multipart.FileHeader) *File {
	open := func() (io.ReadCloser, error) {
		return fh.Open()
	}
	return NewFile(fh.Filename, fh.Size, fh.Header.Get("Content-Type"), open)
}

// Open returns a reader over the file's content.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.New("file has no content")
	}
	return f.open()
}

// ReadAll reads the whole file into memory.
func (f *File) ReadAll() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
