// Package source discovers candidate CloudTrail log files and reads their
// content. It stands in for the file manager of a forensic case: an image
// mounted on disk, a plain directory, or an S3 export bucket.
package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"

	"github.com/pkg/errors"
)

// File is a handle to one candidate file
type File struct {
	// Name is the base name the filter was applied to
	Name string
	// Key locates the file inside its source (a path or an object key)
	Key string
	// Path identifies the file in logs, errors and records
	Path string
	Size int64
}

// Source combines file discovery and content access
type Source interface {
	// Find returns the candidate files in a stable order
	Find(ctx context.Context) ([]File, error)

	// Read returns the full, decompressed content of one file
	Read(ctx context.Context, file File) ([]byte, error)
}

// Filter decides from a base name whether a file is a candidate
type Filter func(name string) bool

// Sniffer decides from the first bytes of a file whether it is a candidate
type Sniffer func(head []byte) bool

// sniffSize is how much of a file a Sniffer gets to see
const sniffSize = 4096

var gzipMagic = []byte{0x1f, 0x8b}

// decodeContent transparently gunzips content; CloudTrail delivers .json.gz
func decodeContent(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "could not open gzip stream")
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "could not decompress content")
	}
	return content, nil
}

// sniffContent gunzips just enough of a compressed head to sniff it
func sniffContent(head []byte) []byte {
	if !bytes.HasPrefix(head, gzipMagic) {
		return head
	}
	reader, err := gzip.NewReader(bytes.NewReader(head))
	if err != nil {
		return nil
	}
	defer reader.Close()

	buf := make([]byte, sniffSize)
	n, _ := io.ReadFull(reader, buf)
	return buf[:n]
}
