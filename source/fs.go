package source

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"TrailZero/internal/logger"
)

// FsSource finds candidate files below a root of an afero filesystem
type FsSource struct {
	fs     afero.Fs
	root   string
	filter Filter
	sniff  Sniffer
}

// FsOption configures an FsSource
type FsOption func(*FsSource)

// WithSniffer also accepts files whose name fails the filter but whose
// content passes the sniffer
func WithSniffer(sniff Sniffer) FsOption {
	return func(s *FsSource) { s.sniff = sniff }
}

// NewFsSource creates a source over fs rooted at root. A root that is a
// single file is always a candidate.
func NewFsSource(fs afero.Fs, root string, filter Filter, opts ...FsOption) *FsSource {
	s := &FsSource{
		fs:     fs,
		root:   root,
		filter: filter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOsSource creates a source over a directory or file of the host filesystem,
// opened read-only
func NewOsSource(root string, filter Filter, opts ...FsOption) *FsSource {
	return NewFsSource(afero.NewReadOnlyFs(afero.NewOsFs()), root, filter, opts...)
}

// Find walks the root in lexical order
func (s *FsSource) Find(ctx context.Context) ([]File, error) {
	info, err := s.fs.Stat(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to access input path")
	}
	if !info.IsDir() {
		return []File{s.newFile(s.root, info)}, nil
	}

	var files []File
	err = afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Log but don't fail on individual file errors during walk
			logger.Warn("Error accessing %s: %v", path, err)
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if s.accept(path) {
			files = append(files, s.newFile(path, info))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk input path")
	}

	return files, nil
}

// Read returns the content of one file
func (s *FsSource) Read(ctx context.Context, file File) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, file.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", file.Path)
	}

	content, err := decodeContent(data)
	if err != nil {
		return nil, errors.Wrap(err, file.Path)
	}
	return content, nil
}

func (s *FsSource) accept(path string) bool {
	if s.filter == nil || s.filter(filepath.Base(path)) {
		return true
	}
	if s.sniff == nil {
		return false
	}
	return s.sniff(s.head(path))
}

// head reads the first bytes of a file for sniffing
func (s *FsSource) head(path string) []byte {
	file, err := s.fs.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil
	}
	return sniffContent(buf[:n])
}

func (s *FsSource) newFile(path string, info os.FileInfo) File {
	return File{
		Name: filepath.Base(path),
		Key:  path,
		Path: path,
		Size: info.Size(),
	}
}
